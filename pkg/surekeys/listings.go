package surekeys

import (
	"context"
	"fmt"

	"surekeys_dev_v1/internal/model"
)

// CreateListing POST /listings，返回远程分配的房源 ID
// 只尝试一次，是否重试由调用方决定
func (c *Client) CreateListing(ctx context.Context, payload *ListingPayload, token string) (string, error) {
	var res listingResp
	resp, err := c.request(ctx, token).
		SetBody(payload).
		SetResult(&res).
		Post("/listings")
	if err := check(resp, err); err != nil {
		return "", err
	}

	listing := res.listing()
	if listing == nil || listing.Identifier() == "" {
		return "", fmt.Errorf("%w: 创建成功但未返回房源 ID", ErrUnexpectedResponse)
	}
	return listing.Identifier(), nil
}

// ListListings GET /listings
func (c *Client) ListListings(ctx context.Context, query ListingQuery) (*ListingsPage, error) {
	query.Normalize()

	var res listingsResp
	resp, err := c.request(ctx, "").
		SetQueryParamsFromValues(query.Values()).
		SetResult(&res).
		Get("/listings")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// GetListing GET /listing/{id}
func (c *Client) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	var res listingResp
	resp, err := c.request(ctx, "").
		SetPathParam("id", id).
		SetResult(&res).
		Get("/listing/{id}")
	if err := check(resp, err); err != nil {
		return nil, err
	}

	listing := res.listing()
	if listing == nil {
		return nil, fmt.Errorf("%w: 缺少房源数据", ErrUnexpectedResponse)
	}
	return listing, nil
}

// UpdateListing PUT /listings/{id}，fields 为部分字段
func (c *Client) UpdateListing(ctx context.Context, id string, fields map[string]interface{}, token string) (*model.Listing, error) {
	var res listingResp
	resp, err := c.request(ctx, token).
		SetPathParam("id", id).
		SetBody(fields).
		SetResult(&res).
		Put("/listings/{id}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return res.listing(), nil
}

// DeleteListing DELETE /listings/{id}
func (c *Client) DeleteListing(ctx context.Context, id, token string) error {
	resp, err := c.request(ctx, token).
		SetPathParam("id", id).
		Delete("/listings/{id}")
	return check(resp, err)
}
