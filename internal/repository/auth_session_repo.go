package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"surekeys_dev_v1/internal/model"
)

// AuthSessionRepository 登录会话仓储，令牌与资料分表保存
type AuthSessionRepository interface {
	Create(ctx context.Context, session *model.AuthSession, profile *model.AuthProfile) error
	GetSession(ctx context.Context, id string) (*model.AuthSession, error)
	GetProfile(ctx context.Context, sessionID string) (*model.AuthProfile, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type authSessionRepo struct {
	db *gorm.DB
}

// NewAuthSessionRepository 创建登录会话仓储
func NewAuthSessionRepository(db *gorm.DB) AuthSessionRepository {
	return &authSessionRepo{db: db}
}

// Create 在同一事务中写入令牌与资料
func (r *authSessionRepo) Create(ctx context.Context, session *model.AuthSession, profile *model.AuthProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		if profile == nil {
			return nil
		}
		profile.SessionID = session.ID
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(profile).Error
	})
}

// GetSession 读取令牌
func (r *authSessionRepo) GetSession(ctx context.Context, id string) (*model.AuthSession, error) {
	var session model.AuthSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetProfile 读取资料
func (r *authSessionRepo) GetProfile(ctx context.Context, sessionID string) (*model.AuthProfile, error) {
	var profile model.AuthProfile
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Delete 退出登录，令牌与资料一起删除
func (r *authSessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.AuthProfile{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.AuthSession{}).Error
	})
}

// DeleteExpired 清理过期令牌及其资料
func (r *authSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&model.AuthSession{}).Select("id").Where("expires_at < ?", before)
		if err := tx.Where("session_id IN (?)", expired).Delete(&model.AuthProfile{}).Error; err != nil {
			return err
		}
		result := tx.Where("expires_at < ?", before).Delete(&model.AuthSession{})
		count = result.RowsAffected
		return result.Error
	})
	return count, err
}
