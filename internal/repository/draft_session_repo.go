package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"surekeys_dev_v1/internal/model"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// ==================== 仓储接口 ====================

// DraftSessionRepository 向导会话快照仓储
type DraftSessionRepository interface {
	Save(ctx context.Context, snap *model.WizardSnapshot) error
	Get(ctx context.Context, id string) (*model.WizardSnapshot, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type draftSessionRepo struct {
	db *gorm.DB
}

// NewDraftSessionRepository 创建数据库快照仓储
func NewDraftSessionRepository(db *gorm.DB) DraftSessionRepository {
	return &draftSessionRepo{db: db}
}

// Save 按会话ID写入或覆盖
func (r *draftSessionRepo) Save(ctx context.Context, snap *model.WizardSnapshot) error {
	row, err := snapshotToRow(snap)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"updated_at", "owner_id", "role", "step", "snapshot", "images", "videos", "listing_id", "expires_at",
			}),
		}).
		Create(row).Error
}

// Get 读取快照
func (r *draftSessionRepo) Get(ctx context.Context, id string) (*model.WizardSnapshot, error) {
	var row model.DraftSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rowToSnapshot(&row)
}

// Delete 删除快照，不存在时忽略
func (r *draftSessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.DraftSession{}).Error
}

// DeleteExpired 删除过期快照
func (r *draftSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&model.DraftSession{})
	return result.RowsAffected, result.Error
}

// ==================== 转换 ====================

func snapshotToRow(snap *model.WizardSnapshot) (*model.DraftSession, error) {
	draft, err := json.Marshal(snap.Draft)
	if err != nil {
		return nil, fmt.Errorf("序列化草稿失败: %w", err)
	}
	images, err := json.Marshal(snap.Images)
	if err != nil {
		return nil, fmt.Errorf("序列化图片失败: %w", err)
	}
	videos, err := json.Marshal(snap.VideoLinks)
	if err != nil {
		return nil, fmt.Errorf("序列化视频失败: %w", err)
	}
	return &model.DraftSession{
		ID:        snap.ID,
		OwnerID:   snap.OwnerID,
		Role:      snap.Role,
		Step:      snap.Step,
		Snapshot:  datatypes.JSON(draft),
		Images:    datatypes.JSON(images),
		Videos:    datatypes.JSON(videos),
		ListingID: snap.ListingID,
		ExpiresAt: snap.ExpiresAt,
	}, nil
}

func rowToSnapshot(row *model.DraftSession) (*model.WizardSnapshot, error) {
	snap := &model.WizardSnapshot{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Role:      row.Role,
		Step:      row.Step,
		ListingID: row.ListingID,
		ExpiresAt: row.ExpiresAt,
	}
	if len(row.Snapshot) > 0 {
		if err := json.Unmarshal(row.Snapshot, &snap.Draft); err != nil {
			return nil, fmt.Errorf("解析草稿失败: %w", err)
		}
	}
	if len(row.Images) > 0 {
		if err := json.Unmarshal(row.Images, &snap.Images); err != nil {
			return nil, fmt.Errorf("解析图片失败: %w", err)
		}
	}
	if len(row.Videos) > 0 {
		if err := json.Unmarshal(row.Videos, &snap.VideoLinks); err != nil {
			return nil, fmt.Errorf("解析视频失败: %w", err)
		}
	}
	return snap, nil
}
