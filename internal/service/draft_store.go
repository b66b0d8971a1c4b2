package service

import (
	"sync"

	"surekeys_dev_v1/internal/model"
)

// DraftStore 草稿容器，保存向导各步骤已通过校验的分段
// 每个 setter 整段替换，不做合并；读写都是深拷贝
type DraftStore struct {
	mu    sync.RWMutex
	draft model.Draft
}

// NewDraftStore 创建空草稿
func NewDraftStore() *DraftStore {
	return &DraftStore{}
}

// SetAddress 替换地址分段
func (s *DraftStore) SetAddress(section model.AddressSection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Address = &section
}

// SetDetails 替换详情分段
func (s *DraftStore) SetDetails(section model.DetailsSection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Details = section.Clone()
}

// SetPhotos 替换图片分段
func (s *DraftStore) SetPhotos(section model.PhotosSection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Photos = section.Clone()
}

// Reset 清空所有分段
func (s *DraftStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = model.Draft{}
}

// Snapshot 返回草稿深拷贝
func (s *DraftStore) Snapshot() model.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft.Clone()
}

// Restore 从快照恢复
func (s *DraftStore) Restore(d model.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d.Clone()
}
