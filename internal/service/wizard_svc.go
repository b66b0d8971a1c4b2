package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/internal/repository"
)

// ==================== 依赖接口 ====================

// DraftPersister 向导会话持久化（数据库或 Redis），为空时只保存在内存
// 找不到快照时返回 repository.ErrNotFound
type DraftPersister interface {
	Save(ctx context.Context, snap *model.WizardSnapshot) error
	Get(ctx context.Context, id string) (*model.WizardSnapshot, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ListingCacheInvalidator 房源列表缓存失效
type ListingCacheInvalidator interface {
	InvalidateListings()
}

var (
	ErrSessionNotFound  = errors.New("向导会话不存在或已过期")
	ErrSessionForbidden = errors.New("无权访问该向导会话")
)

// ==================== 服务实现 ====================

// WizardServiceConfig 配置
type WizardServiceConfig struct {
	SessionTTL    time.Duration
	MaxImageBytes int64
}

// WizardService 管理所有发布会话
type WizardService struct {
	gateway   ListingGateway
	uploader  MediaUploader
	persister DraftPersister
	listings  ListingCacheInvalidator
	cfg       WizardServiceConfig
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Wizard

	// 进度订阅管理
	subscribers     map[string][]chan dto.ProgressEvent
	subscriberMutex sync.RWMutex
}

// NewWizardService 创建向导服务，persister 与 listings 可以为空
func NewWizardService(
	gateway ListingGateway,
	uploader MediaUploader,
	persister DraftPersister,
	listings ListingCacheInvalidator,
	cfg WizardServiceConfig,
) *WizardService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &WizardService{
		gateway:     gateway,
		uploader:    uploader,
		persister:   persister,
		listings:    listings,
		cfg:         cfg,
		now:         time.Now,
		sessions:    make(map[string]*Wizard),
		subscribers: make(map[string][]chan dto.ProgressEvent),
	}
}

func (s *WizardService) deps() WizardDeps {
	return WizardDeps{
		Gateway:       s.gateway,
		Uploader:      s.uploader,
		MaxImageBytes: s.cfg.MaxImageBytes,
		Notify:        s.notifyProgress,
		OnChange:      s.persist,
	}
}

// ==================== 会话管理 ====================

// Create 新建发布会话
func (s *WizardService) Create(ctx context.Context, ownerID, role string) (*Wizard, error) {
	w := NewWizard(uuid.NewString(), ownerID, role, s.deps())
	w.Touch(s.now().Add(s.cfg.SessionTTL))

	s.mu.Lock()
	s.sessions[w.ID()] = w
	s.mu.Unlock()

	if s.persister != nil {
		snap := w.Snapshot()
		if err := s.persister.Save(ctx, &snap); err != nil {
			return nil, fmt.Errorf("保存向导会话失败: %w", err)
		}
	}

	zap.L().Info("[WizardService] 创建发布会话", zap.String("session_id", w.ID()), zap.String("role", role))
	return w, nil
}

// Get 获取会话并续期；内存中没有时尝试从持久化恢复
func (s *WizardService) Get(ctx context.Context, id, ownerID string) (*Wizard, error) {
	s.mu.Lock()
	w, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		restored, err := s.restore(ctx, id)
		if err != nil {
			return nil, err
		}
		w = restored
	}

	if w.OwnerID() != ownerID {
		return nil, ErrSessionForbidden
	}
	if s.now().After(w.ExpiresAt()) {
		s.remove(ctx, id)
		return nil, ErrSessionNotFound
	}

	// 续期同时写回快照，避免清理任务按旧的过期时间删除
	w.Touch(s.now().Add(s.cfg.SessionTTL))
	w.changed()
	return w, nil
}

func (s *WizardService) restore(ctx context.Context, id string) (*Wizard, error) {
	if s.persister == nil {
		return nil, ErrSessionNotFound
	}
	snap, err := s.persister.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("读取向导会话失败: %w", err)
	}

	w := RestoreWizard(*snap, s.deps())

	s.mu.Lock()
	defer s.mu.Unlock()
	// 并发恢复时以先放入的为准
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	s.sessions[id] = w
	zap.L().Info("[WizardService] 从持久化恢复会话", zap.String("session_id", id), zap.String("step", snap.Step))
	return w, nil
}

// Delete 放弃并删除会话
func (s *WizardService) Delete(ctx context.Context, id, ownerID string) error {
	w, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if err := w.Cancel(); err != nil {
		return err
	}
	s.remove(ctx, id)
	return nil
}

func (s *WizardService) remove(ctx context.Context, id string) {
	s.mu.Lock()
	w, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		w.Close()
	}

	if s.persister != nil {
		if err := s.persister.Delete(ctx, id); err != nil {
			zap.L().Warn("[WizardService] 删除会话快照失败", zap.String("session_id", id), zap.Error(err))
		}
	}
}

// Submit 提交会话草稿，成功后让房源列表缓存失效
func (s *WizardService) Submit(ctx context.Context, w *Wizard, token string) (string, error) {
	listingID, err := w.Submit(ctx, token)
	if err != nil {
		return "", err
	}
	if s.listings != nil {
		s.listings.InvalidateListings()
	}
	return listingID, nil
}

// CleanupExpired 清理过期会话，返回清理数量
func (s *WizardService) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.now()

	var expired []string
	s.mu.Lock()
	var closing []*Wizard
	for id, w := range s.sessions {
		if now.After(w.ExpiresAt()) {
			expired = append(expired, id)
			closing = append(closing, w)
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, w := range closing {
		w.Close()
	}

	count := int64(len(expired))
	if s.persister != nil {
		n, err := s.persister.DeleteExpired(ctx, now)
		if err != nil {
			return count, fmt.Errorf("清理过期会话快照失败: %w", err)
		}
		if n > count {
			count = n
		}
	}
	return count, nil
}

// ActiveCount 内存中的会话数
func (s *WizardService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// persist 会话变更后写入持久化，失败只记录日志
func (s *WizardService) persist(snap model.WizardSnapshot) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(context.Background(), &snap); err != nil {
		zap.L().Warn("[WizardService] 保存会话快照失败", zap.String("session_id", snap.ID), zap.Error(err))
	}
}

// ==================== 进度订阅 ====================

// Subscribe 订阅会话上传进度
func (s *WizardService) Subscribe(sessionID string) chan dto.ProgressEvent {
	s.subscriberMutex.Lock()
	defer s.subscriberMutex.Unlock()

	ch := make(chan dto.ProgressEvent, 32)
	s.subscribers[sessionID] = append(s.subscribers[sessionID], ch)
	return ch
}

// Unsubscribe 取消订阅
func (s *WizardService) Unsubscribe(sessionID string, ch chan dto.ProgressEvent) {
	s.subscriberMutex.Lock()
	defer s.subscriberMutex.Unlock()

	subs := s.subscribers[sessionID]
	for i, sub := range subs {
		if sub == ch {
			s.subscribers[sessionID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(s.subscribers[sessionID]) == 0 {
		delete(s.subscribers, sessionID)
	}
}

// notifyProgress 通知进度
func (s *WizardService) notifyProgress(event dto.ProgressEvent) {
	s.subscriberMutex.RLock()
	defer s.subscriberMutex.RUnlock()

	for _, ch := range s.subscribers[event.SessionID] {
		select {
		case ch <- event:
		default:
			// channel 已满，跳过
		}
	}
}
