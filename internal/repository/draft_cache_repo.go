package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surekeys_dev_v1/internal/model"
)

// PrefixWizardSession 向导会话快照 key 前缀
const PrefixWizardSession = "wizard:session:"

type draftCacheRepo struct {
	client *redis.Client
	now    func() time.Time
}

// NewDraftCacheRepository 创建 Redis 快照仓储，过期由 key TTL 处理
func NewDraftCacheRepository(client *redis.Client) DraftSessionRepository {
	return &draftCacheRepo{client: client, now: time.Now}
}

func (r *draftCacheRepo) key(id string) string {
	return PrefixWizardSession + id
}

// Save 写入快照，TTL 取会话剩余有效期
func (r *draftCacheRepo) Save(ctx context.Context, snap *model.WizardSnapshot) error {
	ttl := snap.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, snap.ID)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化会话快照失败: %w", err)
	}
	return r.client.Set(ctx, r.key(snap.ID), data, ttl).Err()
}

// Get 读取快照
func (r *draftCacheRepo) Get(ctx context.Context, id string) (*model.WizardSnapshot, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var snap model.WizardSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("解析会话快照失败: %w", err)
	}
	return &snap, nil
}

// Delete 删除快照
func (r *draftCacheRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// DeleteExpired Redis 自行淘汰过期 key，这里无事可做
func (r *draftCacheRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}
