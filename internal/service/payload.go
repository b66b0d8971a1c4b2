package service

import (
	"errors"
	"fmt"

	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/pkg/surekeys"
	"surekeys_dev_v1/pkg/utils"
)

// ErrIncompleteDraft 草稿缺少分段
var ErrIncompleteDraft = errors.New("草稿不完整")

// BuildPayload 由草稿快照组装创建房源请求
// 只读取 draft，不修改调用方数据
func BuildPayload(draft model.Draft, role string) (*surekeys.ListingPayload, error) {
	if draft.Address == nil || draft.Details == nil || draft.Photos == nil {
		return nil, ErrIncompleteDraft
	}

	rent, err := utils.ParseAmount(draft.Details.RentAmount)
	if err != nil {
		return nil, fmt.Errorf("租金格式错误 %q: %w", draft.Details.RentAmount, err)
	}

	if role == "" {
		role = model.RoleLandlord
	}

	addr, details, photos := draft.Address, draft.Details, draft.Photos
	payload := &surekeys.ListingPayload{
		Title:                     addr.Title,
		Purpose:                   addr.Purpose,
		State:                     addr.State,
		Locality:                  addr.Locality,
		Area:                      addr.Area,
		StreetEstateNeighbourhood: addr.StreetEstateNeighbourhood,
		PropertyType:              addr.PropertyType,

		Bedrooms:                details.Bedrooms,
		Bathrooms:               details.Bathrooms,
		Toilets:                 details.Toilets,
		Kitchens:                details.Kitchens,
		PropertySize:            details.PropertySize,
		Facilities:              append([]string{}, details.Facilities...),
		RentAmount:              rent,
		PaymentFrequency:        details.PaymentFrequency,
		Availability:            details.Availability,
		Description:             details.Description,
		LandlordLivesInCompound: details.LandlordLivesInCompound,
		InviteAgentToBid:        details.InviteAgentToBid(),

		Role:       role,
		Images:     make([]surekeys.ListingImage, 0, len(photos.Images)),
		VideoLinks: make([]string, 0, len(photos.VideoLinks)),
		PhotoNotes: photos.PhotoNotes,
	}

	if details.AgentInvite != nil {
		inv := *details.AgentInvite
		payload.AgentInviteDetails = &inv
	}
	for _, img := range photos.Images {
		payload.Images = append(payload.Images, surekeys.ListingImage{
			URL:      img.URL,
			PublicID: img.ExternalID,
			IsCover:  img.IsCover,
		})
	}
	for _, v := range photos.VideoLinks {
		payload.VideoLinks = append(payload.VideoLinks, v.URL)
	}
	return payload, nil
}
