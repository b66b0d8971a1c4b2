package surekeys

import "surekeys_dev_v1/internal/model"

// ==========================================
// DTO: 远程 API 返回的原始 JSON
// ==========================================

// MessageResp 只有提示信息的响应
type MessageResp struct {
	Message string `json:"message"`
}

// UploadResult POST /media/upload 返回的图片引用
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type uploadResp struct {
	Message string        `json:"message"`
	Data    *UploadResult `json:"data"`
}

// listingResp 单个房源，兼容 data / listing 两种包裹
type listingResp struct {
	Message string         `json:"message"`
	Data    *model.Listing `json:"data"`
	Listing *model.Listing `json:"listing"`
}

func (r *listingResp) listing() *model.Listing {
	if r.Data != nil {
		return r.Data
	}
	return r.Listing
}

// Pagination 分页信息
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

// ListingsPage 房源列表页
type ListingsPage struct {
	Listings   []model.Listing `json:"listings"`
	Pagination Pagination      `json:"pagination"`
}

type listingsResp struct {
	Message string       `json:"message"`
	Data    ListingsPage `json:"data"`
}

// AuthUser 登录用户信息
type AuthUser struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Role        string `json:"role"`
}

// AuthResp 登录 / 验证码校验响应
type AuthResp struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    *AuthUser `json:"user"`
}
