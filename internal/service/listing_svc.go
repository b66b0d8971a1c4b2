package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/pkg/surekeys"
	"surekeys_dev_v1/pkg/utils"
)

// DefaultListingCacheTTL 房源缓存 5 分钟
const DefaultListingCacheTTL = 5 * time.Minute

// ListingAPI 房源远程接口
type ListingAPI interface {
	ListListings(ctx context.Context, query surekeys.ListingQuery) (*surekeys.ListingsPage, error)
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	UpdateListing(ctx context.Context, id string, fields map[string]interface{}, token string) (*model.Listing, error)
	DeleteListing(ctx context.Context, id, token string) error
}

// ListingService 房源浏览，读结果带短期缓存
type ListingService struct {
	api   ListingAPI
	pages *utils.TTLCache[*surekeys.ListingsPage]
	items *utils.TTLCache[*model.Listing]
}

// NewListingService 工厂方法
func NewListingService(api ListingAPI, ttl time.Duration) *ListingService {
	if ttl <= 0 {
		ttl = DefaultListingCacheTTL
	}
	return &ListingService{
		api:   api,
		pages: utils.NewTTLCache[*surekeys.ListingsPage](ttl),
		items: utils.NewTTLCache[*model.Listing](ttl),
	}
}

// Search 按条件分页查询
func (s *ListingService) Search(ctx context.Context, query surekeys.ListingQuery) (*surekeys.ListingsPage, error) {
	query.Normalize()
	key := query.CacheKey()
	if page, ok := s.pages.Get(key); ok {
		return page, nil
	}

	page, err := s.api.ListListings(ctx, query)
	if err != nil {
		return nil, err
	}
	s.pages.Set(key, page)
	return page, nil
}

// Get 房源详情
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	if listing, ok := s.items.Get(id); ok {
		return listing, nil
	}

	listing, err := s.api.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	s.items.Set(id, listing)
	return listing, nil
}

// Update 部分更新，成功后缓存失效
func (s *ListingService) Update(ctx context.Context, id string, fields map[string]interface{}, token string) (*model.Listing, error) {
	listing, err := s.api.UpdateListing(ctx, id, fields, token)
	if err != nil {
		return nil, err
	}
	s.items.Delete(id)
	s.InvalidateListings()
	return listing, nil
}

// Delete 删除房源，成功后缓存失效
func (s *ListingService) Delete(ctx context.Context, id, token string) error {
	if err := s.api.DeleteListing(ctx, id, token); err != nil {
		return err
	}
	s.items.Delete(id)
	s.InvalidateListings()
	return nil
}

// InvalidateListings 清空列表缓存，新房源发布后调用
func (s *ListingService) InvalidateListings() {
	s.pages.Clear()
	zap.L().Debug("[ListingService] 列表缓存已清空")
}
