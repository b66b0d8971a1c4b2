package dto

import (
	"time"

	"surekeys_dev_v1/internal/model"
)

// ==================== 请求 DTO ====================

// AddVideoRequest 添加视频链接
type AddVideoRequest struct {
	URL   string `json:"url" binding:"required"`
	Title string `json:"title"`
}

// PreviewRequest 进入预览
type PreviewRequest struct {
	PhotoNotes string `json:"photoNotes"`
}

// ==================== 响应 DTO ====================

// SessionView 向导会话视图
type SessionView struct {
	ID              string               `json:"id"`
	Step            string               `json:"step"`
	Role            string               `json:"role"`
	Draft           model.Draft          `json:"draft"`
	RentDisplay     string               `json:"rentDisplay,omitempty"` // 例如 ₦1,200,000
	Images          []model.ListingImage `json:"images"`
	VideoLinks      []model.VideoLink    `json:"videoLinks"`
	UploadsInFlight int                  `json:"uploadsInFlight"`
	Form            interface{}          `json:"form,omitempty"` // 当前步骤的预填表单
	ListingID       string               `json:"listingId,omitempty"`
	ExpiresAt       time.Time            `json:"expiresAt"`
}

// UploadFailure 单个文件上传失败
type UploadFailure struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// UploadBatchResult 批量上传结果
type UploadBatchResult struct {
	Added  []model.ListingImage `json:"added"`
	Failed []UploadFailure      `json:"failed"`
	Images []model.ListingImage `json:"images"`
}

// SubmitResult 提交结果
type SubmitResult struct {
	ListingID string `json:"listingId"`
}

// ==================== SSE 事件 ====================

// 上传进度阶段
const (
	StageUploading = "uploading"
	StageUploaded  = "uploaded"
	StageFailed    = "failed"
	StageDone      = "done"
)

// ProgressEvent SSE 上传进度事件
type ProgressEvent struct {
	SessionID string              `json:"sessionId"`
	Stage     string              `json:"stage"` // uploading, uploaded, failed, done
	Index     int                 `json:"index"`
	Total     int                 `json:"total"`
	FileName  string              `json:"fileName,omitempty"`
	Message   string              `json:"message,omitempty"`
	Image     *model.ListingImage `json:"image,omitempty"`
}
