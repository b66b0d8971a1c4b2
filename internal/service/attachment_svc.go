package service

import (
	"errors"
	"strings"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/pkg/surekeys"
	"surekeys_dev_v1/pkg/utils"
)

var (
	ErrIndexOutOfRange = errors.New("索引超出范围")
	ErrInvalidVideoURL = errors.New("视频链接必须是 http/https 绝对地址")
)

// AttachmentManager 图片与视频附件管理
// 图片保持上传顺序，封面恰好一张由 SetCover 保证；本身不加锁，由 Wizard 串行调用
type AttachmentManager struct {
	images []model.ListingImage
	videos []model.VideoLink
}

// NewAttachmentManager 创建空附件区
func NewAttachmentManager() *AttachmentManager {
	return &AttachmentManager{}
}

// ==================== 图片 ====================

// AddImage 追加上传结果；列表为空时新图自动成为封面
func (m *AttachmentManager) AddImage(res surekeys.UploadResult) model.ListingImage {
	img := model.ListingImage{
		URL:        res.URL,
		ExternalID: res.PublicID,
		IsCover:    len(m.images) == 0,
	}
	m.images = append(m.images, img)
	return img
}

// SetCover 设为封面并取消其他图片的封面标记
func (m *AttachmentManager) SetCover(index int) error {
	if index < 0 || index >= len(m.images) {
		return ErrIndexOutOfRange
	}
	for i := range m.images {
		m.images[i].IsCover = i == index
	}
	return nil
}

// RemoveImage 删除图片
// 删除的是封面时不立即补位，留到 FinalizeCover 处理
func (m *AttachmentManager) RemoveImage(index int) error {
	if index < 0 || index >= len(m.images) {
		return ErrIndexOutOfRange
	}
	m.images = append(m.images[:index], m.images[index+1:]...)
	return nil
}

// FinalizeCover 没有封面时把第一张设为封面
func (m *AttachmentManager) FinalizeCover() {
	if len(m.images) == 0 {
		return
	}
	for _, img := range m.images {
		if img.IsCover {
			return
		}
	}
	m.images[0].IsCover = true
}

// Images 图片列表副本
func (m *AttachmentManager) Images() []model.ListingImage {
	return append([]model.ListingImage{}, m.images...)
}

// ImageCount 图片数量
func (m *AttachmentManager) ImageCount() int {
	return len(m.images)
}

// ==================== 视频 ====================

// AddVideoLink 追加视频链接，按域名识别平台
func (m *AttachmentManager) AddVideoLink(rawURL, title string) (model.VideoLink, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !utils.IsWebURL(rawURL) {
		return model.VideoLink{}, ErrInvalidVideoURL
	}
	link := model.VideoLink{
		URL:      rawURL,
		Title:    strings.TrimSpace(title),
		Platform: utils.DetectPlatform(rawURL),
	}
	m.videos = append(m.videos, link)
	return link, nil
}

// RemoveVideoLink 删除视频链接
func (m *AttachmentManager) RemoveVideoLink(index int) error {
	if index < 0 || index >= len(m.videos) {
		return ErrIndexOutOfRange
	}
	m.videos = append(m.videos[:index], m.videos[index+1:]...)
	return nil
}

// VideoLinks 视频列表副本
func (m *AttachmentManager) VideoLinks() []model.VideoLink {
	return append([]model.VideoLink{}, m.videos...)
}

// ==================== 装载 ====================

// Load 重新进入图片步骤时从已保存分段恢复
func (m *AttachmentManager) Load(section model.PhotosSection) {
	m.images = append([]model.ListingImage(nil), section.Images...)
	m.videos = append([]model.VideoLink(nil), section.VideoLinks...)
}

// Reset 清空
func (m *AttachmentManager) Reset() {
	m.images = nil
	m.videos = nil
}

// Form 生成待校验的图片表单
func (m *AttachmentManager) Form(photoNotes string) dto.PhotosForm {
	return dto.PhotosFormFrom(model.PhotosSection{
		Images:     m.images,
		VideoLinks: m.videos,
		PhotoNotes: photoNotes,
	})
}
