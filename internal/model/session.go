package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 状态常量 ====================

const (
	// 向导步骤
	StepAddress   = "address"
	StepDetails   = "details"
	StepPhotos    = "photos"
	StepPreview   = "preview"
	StepSubmitted = "submitted"
)

// ==================== 数据库模型 ====================

// DraftSession 向导会话快照（可选持久化）
type DraftSession struct {
	ID        string         `gorm:"primaryKey;size:36"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time      `gorm:"index"`
	OwnerID   string         `gorm:"size:36;index;comment:认证会话ID"`
	Role      string         `gorm:"size:16;comment:发布人角色"`
	Step      string         `gorm:"size:16;index;default:address;comment:当前步骤"`
	Snapshot  datatypes.JSON `gorm:"comment:草稿快照"`
	Images    datatypes.JSON `gorm:"comment:附件区图片"`
	Videos    datatypes.JSON `gorm:"comment:附件区视频"`
	ListingID string         `gorm:"size:64;comment:提交成功后的房源ID"`
	ExpiresAt time.Time      `gorm:"index;comment:过期时间"`
}

func (*DraftSession) TableName() string {
	return "draft_sessions"
}

// AuthSession 登录令牌，带明确过期时间
type AuthSession struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"index"`
	Token     string    `gorm:"type:text;not null;comment:远程 API 令牌"`
	ExpiresAt time.Time `gorm:"index;not null;comment:过期时间"`
}

func (*AuthSession) TableName() string {
	return "auth_sessions"
}

// IsExpired 是否已过期
func (s *AuthSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AuthProfile 用户资料，与令牌分开存储
type AuthProfile struct {
	SessionID   string    `gorm:"primaryKey;size:36"`
	UpdatedAt   time.Time `gorm:"index"`
	Email       string    `gorm:"size:128;index"`
	Name        string    `gorm:"size:128"`
	PhoneNumber string    `gorm:"size:32"`
	Role        string    `gorm:"size:16"`
}

func (*AuthProfile) TableName() string {
	return "auth_profiles"
}

// WizardSnapshot 向导会话的完整状态，用于持久化与恢复
type WizardSnapshot struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"ownerId"`
	Role       string         `json:"role"`
	Step       string         `json:"step"`
	Draft      Draft          `json:"draft"`
	Images     []ListingImage `json:"images"`
	VideoLinks []VideoLink    `json:"videoLinks"`
	ListingID  string         `json:"listingId,omitempty"`
	ExpiresAt  time.Time      `json:"expiresAt"`
}
