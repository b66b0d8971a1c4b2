package model

import (
	"encoding/json"
)

// ==================== 枚举常量 ====================

const (
	// 发布目的
	PurposeForRent  = "For Rent"
	PurposeShortLet = "Short Let"

	// 付款周期
	PaymentMonthly   = "monthly"
	PaymentQuarterly = "quarterly"
	PaymentYearly    = "yearly"

	// 可入住状态
	AvailabilityYes = "yes"
	AvailabilityNo  = "no"

	// 中介类型
	AgentTypeAny         = "any"
	AgentTypeLocal       = "local"
	AgentTypeExperienced = "experienced"
	AgentTypePremium     = "premium"

	// 视频平台
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformVimeo     = "vimeo"
	PlatformTwitter   = "twitter"
	PlatformOther     = "other"

	// 用户角色
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
	RoleAgent    = "agent"
)

// ==================== 草稿分段 ====================

// AddressSection 第一步：地址信息
type AddressSection struct {
	Title                     string `json:"title"`
	Purpose                   string `json:"purpose"`
	State                     string `json:"state"`
	Locality                  string `json:"locality"`
	Area                      string `json:"area"`
	StreetEstateNeighbourhood string `json:"streetEstateNeighbourhood"`
	PropertyType              string `json:"propertyType"`
}

// AgentInviteDetails 邀请中介竞标的附加信息
type AgentInviteDetails struct {
	CommissionRate         string `json:"commissionRate,omitempty"`
	PreferredAgentType     string `json:"preferredAgentType"`
	AdditionalRequirements string `json:"additionalRequirements,omitempty"`
}

// DetailsSection 第二步：房源详情
// AgentInvite 非空即表示邀请中介竞标，两者不会出现不一致的组合
type DetailsSection struct {
	Bedrooms                int                 `json:"bedrooms"`
	Bathrooms               int                 `json:"bathrooms"`
	Toilets                 int                 `json:"toilets"`
	Kitchens                int                 `json:"kitchens"`
	PropertySize            float64             `json:"propertySize"`
	Facilities              []string            `json:"facilities"`
	RentAmount              string              `json:"rentAmount"`
	PaymentFrequency        string              `json:"paymentFrequency"`
	Availability            string              `json:"availability"`
	Description             string              `json:"description"`
	LandlordLivesInCompound bool                `json:"landlordLivesInCompound"`
	AgentInvite             *AgentInviteDetails `json:"-"`
}

// InviteAgentToBid 是否邀请中介竞标
func (d *DetailsSection) InviteAgentToBid() bool {
	return d.AgentInvite != nil
}

// detailsWire DetailsSection 的 JSON 形态
type detailsWire struct {
	Bedrooms                int                 `json:"bedrooms"`
	Bathrooms               int                 `json:"bathrooms"`
	Toilets                 int                 `json:"toilets"`
	Kitchens                int                 `json:"kitchens"`
	PropertySize            float64             `json:"propertySize"`
	Facilities              []string            `json:"facilities"`
	RentAmount              string              `json:"rentAmount"`
	PaymentFrequency        string              `json:"paymentFrequency"`
	Availability            string              `json:"availability"`
	Description             string              `json:"description"`
	LandlordLivesInCompound bool                `json:"landlordLivesInCompound"`
	InviteAgentToBid        bool                `json:"inviteAgentToBid"`
	AgentInviteDetails      *AgentInviteDetails `json:"agentInviteDetails,omitempty"`
}

func (d DetailsSection) MarshalJSON() ([]byte, error) {
	return json.Marshal(detailsWire{
		Bedrooms:                d.Bedrooms,
		Bathrooms:               d.Bathrooms,
		Toilets:                 d.Toilets,
		Kitchens:                d.Kitchens,
		PropertySize:            d.PropertySize,
		Facilities:              d.Facilities,
		RentAmount:              d.RentAmount,
		PaymentFrequency:        d.PaymentFrequency,
		Availability:            d.Availability,
		Description:             d.Description,
		LandlordLivesInCompound: d.LandlordLivesInCompound,
		InviteAgentToBid:        d.AgentInvite != nil,
		AgentInviteDetails:      d.AgentInvite,
	})
}

func (d *DetailsSection) UnmarshalJSON(data []byte) error {
	var w detailsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = DetailsSection{
		Bedrooms:                w.Bedrooms,
		Bathrooms:               w.Bathrooms,
		Toilets:                 w.Toilets,
		Kitchens:                w.Kitchens,
		PropertySize:            w.PropertySize,
		Facilities:              w.Facilities,
		RentAmount:              w.RentAmount,
		PaymentFrequency:        w.PaymentFrequency,
		Availability:            w.Availability,
		Description:             w.Description,
		LandlordLivesInCompound: w.LandlordLivesInCompound,
	}
	if w.InviteAgentToBid {
		d.AgentInvite = w.AgentInviteDetails
		if d.AgentInvite == nil {
			d.AgentInvite = &AgentInviteDetails{PreferredAgentType: AgentTypeAny}
		}
	}
	return nil
}

// ListingImage 已上传的图片
type ListingImage struct {
	URL        string `json:"url"`
	ExternalID string `json:"public_id"`
	IsCover    bool   `json:"isCover"`
}

// VideoLink 视频外链
type VideoLink struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Platform string `json:"platform"`
}

// PhotosSection 第三步：图片与视频
type PhotosSection struct {
	Images     []ListingImage `json:"images"`
	VideoLinks []VideoLink    `json:"videoLinks"`
	PhotoNotes string         `json:"photoNotes,omitempty"`
}

// CoverCount 封面图数量
func (p *PhotosSection) CoverCount() int {
	n := 0
	for _, img := range p.Images {
		if img.IsCover {
			n++
		}
	}
	return n
}

// ==================== 草稿 ====================

// Draft 尚未提交的房源草稿
type Draft struct {
	Address *AddressSection `json:"address,omitempty"`
	Details *DetailsSection `json:"details,omitempty"`
	Photos  *PhotosSection  `json:"photos,omitempty"`
}

// IsEmpty 三个分段都未填写
func (d *Draft) IsEmpty() bool {
	return d.Address == nil && d.Details == nil && d.Photos == nil
}

// Clone 深拷贝
func (d Draft) Clone() Draft {
	var out Draft
	if d.Address != nil {
		a := *d.Address
		out.Address = &a
	}
	if d.Details != nil {
		out.Details = d.Details.Clone()
	}
	if d.Photos != nil {
		out.Photos = d.Photos.Clone()
	}
	return out
}

// Clone 深拷贝
func (d *DetailsSection) Clone() *DetailsSection {
	c := *d
	if d.Facilities != nil {
		c.Facilities = append([]string(nil), d.Facilities...)
	}
	if d.AgentInvite != nil {
		inv := *d.AgentInvite
		c.AgentInvite = &inv
	}
	return &c
}

// Clone 深拷贝
func (p *PhotosSection) Clone() *PhotosSection {
	c := *p
	if p.Images != nil {
		c.Images = append([]ListingImage(nil), p.Images...)
	}
	if p.VideoLinks != nil {
		c.VideoLinks = append([]VideoLink(nil), p.VideoLinks...)
	}
	return &c
}
