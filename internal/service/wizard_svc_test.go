package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/internal/repository"
	"surekeys_dev_v1/pkg/surekeys"
)

// ==================== Mock 实现 ====================

type memoryPersister struct {
	mu    sync.Mutex
	snaps map[string]model.WizardSnapshot
	saves int
}

func newMemoryPersister() *memoryPersister {
	return &memoryPersister{snaps: make(map[string]model.WizardSnapshot)}
}

func (p *memoryPersister) Save(ctx context.Context, snap *model.WizardSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	p.snaps[snap.ID] = *snap
	return nil
}

func (p *memoryPersister) Get(ctx context.Context, id string) (*model.WizardSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap, ok := p.snaps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &snap, nil
}

func (p *memoryPersister) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.snaps, id)
	return nil
}

func (p *memoryPersister) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n int64
	for id, snap := range p.snaps {
		if snap.ExpiresAt.Before(before) {
			delete(p.snaps, id)
			n++
		}
	}
	return n, nil
}

func (p *memoryPersister) snapshot(id string) (model.WizardSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap, ok := p.snaps[id]
	return snap, ok
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateListings() { m.calls++ }

func newTestWizardService(persister DraftPersister, listings ListingCacheInvalidator) *WizardService {
	return NewWizardService(&mockGateway{}, &mockUploader{}, persister, listings, WizardServiceConfig{SessionTTL: time.Hour})
}

// ==================== 会话管理 ====================

func TestWizardService_CreateAndGet(t *testing.T) {
	svc := newTestWizardService(nil, nil)
	ctx := context.Background()

	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)
	assert.Equal(t, model.StepAddress, w.Step())
	assert.Equal(t, 1, svc.ActiveCount())

	got, err := svc.Get(ctx, w.ID(), "owner-1")
	require.NoError(t, err)
	assert.Same(t, w, got)
}

func TestWizardService_GetErrors(t *testing.T) {
	svc := newTestWizardService(nil, nil)
	ctx := context.Background()
	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      string
		owner   string
		wantErr error
	}{
		{name: "会话不存在", id: "missing", owner: "owner-1", wantErr: ErrSessionNotFound},
		{name: "不是自己的会话", id: w.ID(), owner: "owner-2", wantErr: ErrSessionForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(ctx, tt.id, tt.owner)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWizardService_ExpiredSession(t *testing.T) {
	svc := newTestWizardService(nil, nil)
	ctx := context.Background()
	now := time.Now()
	svc.now = func() time.Time { return now }

	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)

	// 访问会续期
	now = now.Add(50 * time.Minute)
	_, err = svc.Get(ctx, w.ID(), "owner-1")
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	_, err = svc.Get(ctx, w.ID(), "owner-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = svc.Get(ctx, w.ID(), "owner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, svc.ActiveCount())
}

func TestWizardService_PersistsAndRestores(t *testing.T) {
	persister := newMemoryPersister()
	svc := newTestWizardService(persister, nil)
	ctx := context.Background()

	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)
	require.NoError(t, w.SubmitAddress(validAddressForm()))

	snap, ok := persister.snapshot(w.ID())
	require.True(t, ok)
	assert.Equal(t, model.StepDetails, snap.Step)
	require.NotNil(t, snap.Draft.Address)

	// 模拟进程重启
	restarted := newTestWizardService(persister, nil)
	got, err := restarted.Get(ctx, w.ID(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, model.StepDetails, got.Step())
	assert.Equal(t, "Ikeja", got.Draft().Address.Locality)

	_, err = restarted.Get(ctx, w.ID(), "owner-2")
	assert.ErrorIs(t, err, ErrSessionForbidden)
}

func TestWizardService_Delete(t *testing.T) {
	persister := newMemoryPersister()
	svc := newTestWizardService(persister, nil)
	ctx := context.Background()

	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, w.ID(), "owner-1"))
	_, ok := persister.snapshot(w.ID())
	assert.False(t, ok)

	_, err = svc.Get(ctx, w.ID(), "owner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWizardService_DeleteDuringUpload(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	up := &mockUploader{}
	up.uploadFn = func(ctx context.Context, file surekeys.UploadFile, token string) (*surekeys.UploadResult, error) {
		close(started)
		<-release
		return &surekeys.UploadResult{URL: "https://cdn.example.com/old.jpg", PublicID: "old"}, nil
	}
	persister := newMemoryPersister()
	svc := NewWizardService(&mockGateway{}, up, persister, nil, WizardServiceConfig{SessionTTL: time.Hour})
	ctx := context.Background()

	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)
	advanceToPhotos(t, w)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.UploadImages(ctx, "token", imageFiles(1))
	}()
	<-started

	require.NoError(t, svc.Delete(ctx, w.ID(), "owner-1"))
	close(release)
	<-done

	// 已删除的会话不会被上传结果重新写回
	_, ok := persister.snapshot(w.ID())
	assert.False(t, ok)
	_, err = svc.Get(ctx, w.ID(), "owner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWizardService_GetPersistsRenewedExpiry(t *testing.T) {
	persister := newMemoryPersister()
	svc := newTestWizardService(persister, nil)
	ctx := context.Background()
	now := time.Now()
	svc.now = func() time.Time { return now }

	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	_, err = svc.Get(ctx, w.ID(), "owner-1")
	require.NoError(t, err)

	snap, ok := persister.snapshot(w.ID())
	require.True(t, ok)
	assert.True(t, snap.ExpiresAt.Equal(now.Add(time.Hour)))

	// 超过创建时的过期时间，但读取后续期过，清理任务不应删除
	now = now.Add(20 * time.Minute)
	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	_, ok = persister.snapshot(w.ID())
	assert.True(t, ok)
}

func TestWizardService_SubmitInvalidatesListings(t *testing.T) {
	listings := &mockInvalidator{}
	svc := newTestWizardService(nil, listings)
	ctx := context.Background()

	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)
	advanceToPreview(t, w, 3)

	id, err := svc.Submit(ctx, w, "token")
	require.NoError(t, err)
	assert.Equal(t, "listing-1", id)
	assert.Equal(t, 1, listings.calls)

	_, err = svc.Submit(ctx, w, "token")
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.Equal(t, 1, listings.calls)
}

func TestWizardService_CleanupExpired(t *testing.T) {
	persister := newMemoryPersister()
	svc := newTestWizardService(persister, nil)
	ctx := context.Background()
	now := time.Now()
	svc.now = func() time.Time { return now }

	stale, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)
	now = now.Add(30 * time.Minute)
	fresh, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)

	now = now.Add(45 * time.Minute)
	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, svc.ActiveCount())

	_, ok := persister.snapshot(stale.ID())
	assert.False(t, ok)
	_, err = svc.Get(ctx, fresh.ID(), "owner-1")
	assert.NoError(t, err)
}

// ==================== 进度订阅 ====================

func TestWizardService_ProgressSubscription(t *testing.T) {
	svc := newTestWizardService(nil, nil)
	ctx := context.Background()

	w, err := svc.Create(ctx, "owner-1", model.RoleLandlord)
	require.NoError(t, err)
	advanceToPhotos(t, w)

	ch := svc.Subscribe(w.ID())
	other := svc.Subscribe("another-session")

	_, err = w.UploadImages(ctx, "token", imageFiles(1))
	require.NoError(t, err)

	var stages []string
	for len(stages) < 3 {
		select {
		case e := <-ch:
			stages = append(stages, e.Stage)
		case <-time.After(time.Second):
			t.Fatal("等待进度事件超时")
		}
	}
	assert.Equal(t, []string{dto.StageUploading, dto.StageUploaded, dto.StageDone}, stages)
	assert.Len(t, other, 0)

	svc.Unsubscribe(w.ID(), ch)
	_, open := <-ch
	assert.False(t, open)
	svc.Unsubscribe("another-session", other)
}
