package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"surekeys_dev_v1/internal/model"
)

// ==================== 数字输入 ====================

// NumberField 数字输入，接受 JSON 数字或数字字符串，原样保留文本供校验
type NumberField string

func (n *NumberField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberField(strings.TrimSpace(s))
		return nil
	}
	*n = NumberField(data)
	return nil
}

func (n NumberField) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(n))
}

// ==================== 第一步：地址 ====================

// AddressForm 地址表单
type AddressForm struct {
	Title                     string `json:"title" validate:"required,max=120"`
	Purpose                   string `json:"purpose" validate:"required,oneof='For Rent' 'Short Let'"`
	State                     string `json:"state" validate:"required"`
	Locality                  string `json:"locality" validate:"min=2"`
	Area                      string `json:"area" validate:"min=2"`
	StreetEstateNeighbourhood string `json:"streetEstateNeighbourhood" validate:"min=5"`
	PropertyType              string `json:"propertyType" validate:"required"`
}

// Normalize 去除首尾空白
func (f *AddressForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Purpose = strings.TrimSpace(f.Purpose)
	f.State = strings.TrimSpace(f.State)
	f.Locality = strings.TrimSpace(f.Locality)
	f.Area = strings.TrimSpace(f.Area)
	f.StreetEstateNeighbourhood = strings.TrimSpace(f.StreetEstateNeighbourhood)
	f.PropertyType = strings.TrimSpace(f.PropertyType)
}

// ==================== 第二步：详情 ====================

// AgentInviteForm 邀请中介子表单
type AgentInviteForm struct {
	CommissionRate         string `json:"commissionRate,omitempty" validate:"omitempty,max=20"`
	PreferredAgentType     string `json:"preferredAgentType,omitempty" validate:"omitempty,oneof=any local experienced premium"`
	AdditionalRequirements string `json:"additionalRequirements,omitempty" validate:"max=500"`
}

// DetailsForm 详情表单
type DetailsForm struct {
	Bedrooms                NumberField      `json:"bedrooms" validate:"number_value,whole,num_gte=0,num_lte=20"`
	Bathrooms               NumberField      `json:"bathrooms" validate:"number_value,whole,num_gte=0,num_lte=20"`
	Toilets                 NumberField      `json:"toilets" validate:"number_value,whole,num_gte=0,num_lte=20"`
	Kitchens                NumberField      `json:"kitchens" validate:"number_value,whole,num_gte=0,num_lte=10"`
	PropertySize            NumberField      `json:"propertySize" validate:"number_value,num_gte=0,num_lte=10000"`
	Facilities              []string         `json:"facilities"`
	RentAmount              string           `json:"rentAmount" validate:"required,amount_positive"`
	PaymentFrequency        string           `json:"paymentFrequency" validate:"required,oneof=monthly quarterly yearly"`
	Availability            string           `json:"availability" validate:"required,oneof=yes no"`
	Description             string           `json:"description" validate:"min=20,max=1000"`
	LandlordLivesInCompound bool             `json:"landlordLivesInCompound"`
	InviteAgentToBid        bool             `json:"inviteAgentToBid"`
	AgentInviteDetails      *AgentInviteForm `json:"agentInviteDetails,omitempty"`
}

// Normalize 去除首尾空白；description 按原文计算长度，不做处理
func (f *DetailsForm) Normalize() {
	f.RentAmount = strings.TrimSpace(f.RentAmount)
	f.PaymentFrequency = strings.TrimSpace(f.PaymentFrequency)
	f.Availability = strings.TrimSpace(f.Availability)
	if f.AgentInviteDetails != nil {
		f.AgentInviteDetails.CommissionRate = strings.TrimSpace(f.AgentInviteDetails.CommissionRate)
		f.AgentInviteDetails.PreferredAgentType = strings.TrimSpace(f.AgentInviteDetails.PreferredAgentType)
		f.AgentInviteDetails.AdditionalRequirements = strings.TrimSpace(f.AgentInviteDetails.AdditionalRequirements)
	}
}

// ==================== 第三步：图片 ====================

// ImageForm 图片
type ImageForm struct {
	URL        string `json:"url" validate:"required,web_url"`
	ExternalID string `json:"public_id" validate:"required"`
	IsCover    bool   `json:"isCover"`
}

// VideoLinkForm 视频链接
type VideoLinkForm struct {
	URL   string `json:"url" validate:"required,web_url"`
	Title string `json:"title" validate:"max=120"`
}

// PhotosForm 图片表单
type PhotosForm struct {
	Images     []ImageForm     `json:"images" validate:"min=3,max=20,dive"`
	VideoLinks []VideoLinkForm `json:"videoLinks" validate:"max=5,dive"`
	PhotoNotes string          `json:"photoNotes" validate:"max=500"`
}

// Normalize 去除首尾空白
func (f *PhotosForm) Normalize() {
	f.PhotoNotes = strings.TrimSpace(f.PhotoNotes)
	for i := range f.VideoLinks {
		f.VideoLinks[i].URL = strings.TrimSpace(f.VideoLinks[i].URL)
		f.VideoLinks[i].Title = strings.TrimSpace(f.VideoLinks[i].Title)
	}
}

// ==================== 预填 ====================

// AddressFormFrom 由已保存分段生成表单
func AddressFormFrom(s model.AddressSection) AddressForm {
	return AddressForm{
		Title:                     s.Title,
		Purpose:                   s.Purpose,
		State:                     s.State,
		Locality:                  s.Locality,
		Area:                      s.Area,
		StreetEstateNeighbourhood: s.StreetEstateNeighbourhood,
		PropertyType:              s.PropertyType,
	}
}

// DetailsFormFrom 由已保存分段生成表单
func DetailsFormFrom(s model.DetailsSection) DetailsForm {
	f := DetailsForm{
		Bedrooms:                NumberField(strconv.Itoa(s.Bedrooms)),
		Bathrooms:               NumberField(strconv.Itoa(s.Bathrooms)),
		Toilets:                 NumberField(strconv.Itoa(s.Toilets)),
		Kitchens:                NumberField(strconv.Itoa(s.Kitchens)),
		PropertySize:            NumberField(strconv.FormatFloat(s.PropertySize, 'f', -1, 64)),
		Facilities:              append([]string(nil), s.Facilities...),
		RentAmount:              s.RentAmount,
		PaymentFrequency:        s.PaymentFrequency,
		Availability:            s.Availability,
		Description:             s.Description,
		LandlordLivesInCompound: s.LandlordLivesInCompound,
		InviteAgentToBid:        s.InviteAgentToBid(),
	}
	if s.AgentInvite != nil {
		f.AgentInviteDetails = &AgentInviteForm{
			CommissionRate:         s.AgentInvite.CommissionRate,
			PreferredAgentType:     s.AgentInvite.PreferredAgentType,
			AdditionalRequirements: s.AgentInvite.AdditionalRequirements,
		}
	}
	return f
}

// PhotosFormFrom 由已保存分段生成表单
func PhotosFormFrom(s model.PhotosSection) PhotosForm {
	f := PhotosForm{PhotoNotes: s.PhotoNotes}
	for _, img := range s.Images {
		f.Images = append(f.Images, ImageForm{URL: img.URL, ExternalID: img.ExternalID, IsCover: img.IsCover})
	}
	for _, v := range s.VideoLinks {
		f.VideoLinks = append(f.VideoLinks, VideoLinkForm{URL: v.URL, Title: v.Title})
	}
	return f
}
