package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/pkg/surekeys"
)

type mockListingAPI struct {
	listCalls   int
	getCalls    int
	lastQuery   surekeys.ListingQuery
	deleteErr   error
	updatedWith map[string]interface{}
}

func (m *mockListingAPI) ListListings(ctx context.Context, query surekeys.ListingQuery) (*surekeys.ListingsPage, error) {
	m.listCalls++
	m.lastQuery = query
	return &surekeys.ListingsPage{
		Listings:   []model.Listing{{ID: "l-1", Title: "Flat"}},
		Pagination: surekeys.Pagination{Current: query.Page, Pages: 1, Total: 1},
	}, nil
}

func (m *mockListingAPI) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	m.getCalls++
	if id == "missing" {
		return nil, &surekeys.APIError{StatusCode: 404, Message: "Listing not found"}
	}
	return &model.Listing{ID: id, Title: "Flat"}, nil
}

func (m *mockListingAPI) UpdateListing(ctx context.Context, id string, fields map[string]interface{}, token string) (*model.Listing, error) {
	m.updatedWith = fields
	return &model.Listing{ID: id, Title: "Updated"}, nil
}

func (m *mockListingAPI) DeleteListing(ctx context.Context, id, token string) error {
	return m.deleteErr
}

func TestListingService_SearchCaches(t *testing.T) {
	api := &mockListingAPI{}
	svc := NewListingService(api, 0)
	ctx := context.Background()

	page, err := svc.Search(ctx, surekeys.ListingQuery{State: "Lagos"})
	require.NoError(t, err)
	assert.Len(t, page.Listings, 1)
	assert.Equal(t, 1, api.lastQuery.Page)
	assert.Equal(t, surekeys.DefaultLimit, api.lastQuery.Limit)

	// 归一化后相同的查询命中缓存
	_, err = svc.Search(ctx, surekeys.ListingQuery{State: "Lagos", Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.Equal(t, 1, api.listCalls)

	_, err = svc.Search(ctx, surekeys.ListingQuery{State: "Abuja"})
	require.NoError(t, err)
	assert.Equal(t, 2, api.listCalls)

	svc.InvalidateListings()
	_, err = svc.Search(ctx, surekeys.ListingQuery{State: "Lagos"})
	require.NoError(t, err)
	assert.Equal(t, 3, api.listCalls)
}

func TestListingService_GetCachesSuccessOnly(t *testing.T) {
	api := &mockListingAPI{}
	svc := NewListingService(api, 0)
	ctx := context.Background()

	_, err := svc.Get(ctx, "l-1")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, 1, api.getCalls)

	_, err = svc.Get(ctx, "missing")
	assert.Error(t, err)
	_, err = svc.Get(ctx, "missing")
	assert.Error(t, err)
	assert.Equal(t, 3, api.getCalls)
}

func TestListingService_MutationsInvalidate(t *testing.T) {
	api := &mockListingAPI{}
	svc := NewListingService(api, 0)
	ctx := context.Background()

	_, err := svc.Get(ctx, "l-1")
	require.NoError(t, err)
	_, err = svc.Search(ctx, surekeys.ListingQuery{})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "l-1", map[string]interface{}{"title": "Updated"}, "token")
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, "Updated", api.updatedWith["title"])

	_, err = svc.Get(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, 2, api.getCalls)
	_, err = svc.Search(ctx, surekeys.ListingQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, api.listCalls)

	api.deleteErr = &surekeys.APIError{StatusCode: 403, Message: "forbidden"}
	assert.Error(t, svc.Delete(ctx, "l-1", "token"))
	_, err = svc.Get(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, 2, api.getCalls)

	api.deleteErr = nil
	require.NoError(t, svc.Delete(ctx, "l-1", "token"))
	_, err = svc.Get(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, 3, api.getCalls)
}
