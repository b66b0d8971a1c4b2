package model

import "time"

// ==================== 远程房源（只读） ====================

// ListingCreator 发布人
type ListingCreator struct {
	ID struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone,omitempty"`
	} `json:"id"`
	Role string `json:"role"`
}

// ListingAgentInvite 远程房源上的中介邀请信息
type ListingAgentInvite struct {
	CommissionRate         float64 `json:"commissionRate"`
	PreferredAgentType     string  `json:"preferredAgentType"`
	AdditionalRequirements string  `json:"additionalRequirements"`
}

// Listing 远程 API 返回的房源记录，本地不做二次校验
type Listing struct {
	ID                        string              `json:"id"`
	DocumentID                string              `json:"_id,omitempty"`
	Title                     string              `json:"title"`
	Description               string              `json:"description"`
	StreetEstateNeighbourhood string              `json:"streetEstateNeighbourhood"`
	Area                      string              `json:"area"`
	Locality                  string              `json:"locality"`
	State                     string              `json:"state"`
	Bedrooms                  int                 `json:"bedrooms"`
	Bathrooms                 int                 `json:"bathrooms"`
	Toilets                   int                 `json:"toilets"`
	Kitchens                  int                 `json:"kitchens"`
	PropertySize              float64             `json:"propertySize"`
	Views                     int                 `json:"views"`
	PropertyType              string              `json:"propertyType"`
	Availability              string              `json:"availability"`
	RentAmount                float64             `json:"rentAmount"`
	PaymentFrequency          string              `json:"paymentFrequency"`
	Purpose                   string              `json:"purpose"`
	Status                    string              `json:"status"`
	IsFeatured                bool                `json:"isFeatured"`
	LandlordLivesInCompound   bool                `json:"landlordLivesInCompound"`
	CreatedAt                 time.Time           `json:"createdAt"`
	UpdatedAt                 time.Time           `json:"updatedAt"`
	ExpiresAt                 *time.Time          `json:"expiresAt,omitempty"`
	IsExpired                 bool                `json:"isExpired"`
	AgentBidsCount            int                 `json:"agentBidsCount"`
	ActiveBidsCount           int                 `json:"activeBidsCount"`
	Images                    []ListingImage      `json:"images"`
	VideoLinks                []VideoLink         `json:"videoLinks,omitempty"`
	Facilities                []string            `json:"facilities,omitempty"`
	InviteAgentToBid          bool                `json:"inviteAgentToBid"`
	AgentInviteDetails        *ListingAgentInvite `json:"agentInviteDetails,omitempty"`
	PhotoNotes                string              `json:"photoNotes,omitempty"`
	Creator                   *ListingCreator     `json:"creator,omitempty"`
}

// Identifier 远程 ID，部分接口只返回 _id
func (l *Listing) Identifier() string {
	if l.ID != "" {
		return l.ID
	}
	return l.DocumentID
}

// CoverImage 返回封面图，没有标记时取第一张
func (l *Listing) CoverImage() *ListingImage {
	for i := range l.Images {
		if l.Images[i].IsCover {
			return &l.Images[i]
		}
	}
	if len(l.Images) > 0 {
		return &l.Images[0]
	}
	return nil
}
