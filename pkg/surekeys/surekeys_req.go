package surekeys

import (
	"net/url"
	"strconv"

	"surekeys_dev_v1/internal/model"
)

// ==================== 房源 ====================

// ListingImage 提交时的图片
type ListingImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	IsCover  bool   `json:"isCover"`
}

// ListingPayload 创建房源请求体，地址、详情、图片三段平铺
type ListingPayload struct {
	Title                     string `json:"title"`
	Purpose                   string `json:"purpose"`
	State                     string `json:"state"`
	Locality                  string `json:"locality"`
	Area                      string `json:"area"`
	StreetEstateNeighbourhood string `json:"streetEstateNeighbourhood"`
	PropertyType              string `json:"propertyType"`

	Bedrooms                int                       `json:"bedrooms"`
	Bathrooms               int                       `json:"bathrooms"`
	Toilets                 int                       `json:"toilets"`
	Kitchens                int                       `json:"kitchens"`
	PropertySize            float64                   `json:"propertySize"`
	Facilities              []string                  `json:"facilities"`
	RentAmount              float64                   `json:"rentAmount"`
	PaymentFrequency        string                    `json:"paymentFrequency"`
	Availability            string                    `json:"availability"`
	Description             string                    `json:"description"`
	LandlordLivesInCompound bool                      `json:"landlordLivesInCompound"`
	InviteAgentToBid        bool                      `json:"inviteAgentToBid"`
	AgentInviteDetails      *model.AgentInviteDetails `json:"agentInviteDetails,omitempty"`

	Role       string         `json:"role"`
	Images     []ListingImage `json:"images"`
	VideoLinks []string       `json:"videoLinks"`
	PhotoNotes string         `json:"photoNotes,omitempty"`
}

// ListingQuery 房源列表查询条件
type ListingQuery struct {
	Page                    int    `form:"page" json:"page"`
	Limit                   int    `form:"limit" json:"limit"`
	Sort                    string `form:"sort" json:"sort"` // 字段名，前缀 - 表示倒序
	State                   string `form:"state" json:"state,omitempty"`
	Locality                string `form:"locality" json:"locality,omitempty"`
	Area                    string `form:"area" json:"area,omitempty"`
	PropertyType            string `form:"propertyType" json:"propertyType,omitempty"`
	MinRent                 string `form:"minRent" json:"minRent,omitempty"`
	MaxRent                 string `form:"maxRent" json:"maxRent,omitempty"`
	Bedrooms                string `form:"bedrooms" json:"bedrooms,omitempty"`
	Bathrooms               string `form:"bathrooms" json:"bathrooms,omitempty"`
	InviteAgentToBid        string `form:"inviteAgentToBid" json:"inviteAgentToBid,omitempty"`
	LandlordLivesInCompound string `form:"landlordLivesInCompound" json:"landlordLivesInCompound,omitempty"`
}

// 列表默认值
const (
	DefaultPage  = 1
	DefaultLimit = 12
	DefaultSort  = "-createdAt"
)

// Normalize 填充分页默认值
func (q *ListingQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = DefaultLimit
	}
	if q.Sort == "" {
		q.Sort = DefaultSort
	}
}

// Values 转为查询参数，空过滤条件不发送
func (q ListingQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("sort", q.Sort)

	filters := map[string]string{
		"state":                   q.State,
		"locality":                q.Locality,
		"area":                    q.Area,
		"propertyType":            q.PropertyType,
		"minRent":                 q.MinRent,
		"maxRent":                 q.MaxRent,
		"bedrooms":                q.Bedrooms,
		"bathrooms":               q.Bathrooms,
		"inviteAgentToBid":        q.InviteAgentToBid,
		"landlordLivesInCompound": q.LandlordLivesInCompound,
	}
	for k, val := range filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// CacheKey 查询条件的稳定字符串形式
func (q ListingQuery) CacheKey() string {
	return q.Values().Encode()
}

// ==================== 媒体 ====================

// UploadFile 待上传的单个文件
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ==================== 认证 ====================

// RegisterRequest 注册
type RegisterRequest struct {
	Role        string `json:"role" binding:"required,oneof=tenant landlord agent"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// LoginRequest 登录
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyOTPRequest 验证码校验
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// EmailRequest 仅需邮箱的请求（重发验证码、忘记密码）
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest 重置密码
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}
