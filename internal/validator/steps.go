package validator

import (
	"math"
	"strings"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/pkg/utils"
)

// ==================== 地址 ====================

// CheckAddress 只返回错误列表，用于逐字段实时校验
func CheckAddress(form dto.AddressForm) []FieldViolation {
	form.Normalize()
	return collect(form)
}

// ValidateAddress 校验地址表单，通过后返回分段
func ValidateAddress(form dto.AddressForm) (model.AddressSection, error) {
	form.Normalize()
	if err := violationsErr(collect(form)); err != nil {
		return model.AddressSection{}, err
	}
	return model.AddressSection{
		Title:                     form.Title,
		Purpose:                   form.Purpose,
		State:                     form.State,
		Locality:                  form.Locality,
		Area:                      form.Area,
		StreetEstateNeighbourhood: form.StreetEstateNeighbourhood,
		PropertyType:              form.PropertyType,
	}, nil
}

// ==================== 详情 ====================

// prepareDetails 未勾选邀请时丢弃邀请信息
func prepareDetails(form dto.DetailsForm) dto.DetailsForm {
	if form.AgentInviteDetails != nil {
		inv := *form.AgentInviteDetails
		form.AgentInviteDetails = &inv
	}
	form.Normalize()
	if !form.InviteAgentToBid {
		form.AgentInviteDetails = nil
	}
	return form
}

// CheckDetails 只返回错误列表
func CheckDetails(form dto.DetailsForm) []FieldViolation {
	return collect(prepareDetails(form))
}

// ValidateDetails 校验详情表单，通过后返回分段
func ValidateDetails(form dto.DetailsForm) (model.DetailsSection, error) {
	form = prepareDetails(form)
	if err := violationsErr(collect(form)); err != nil {
		return model.DetailsSection{}, err
	}

	section := model.DetailsSection{
		Bedrooms:                wholeNumber(form.Bedrooms),
		Bathrooms:               wholeNumber(form.Bathrooms),
		Toilets:                 wholeNumber(form.Toilets),
		Kitchens:                wholeNumber(form.Kitchens),
		PropertySize:            number(form.PropertySize),
		Facilities:              dedupeFacilities(form.Facilities),
		RentAmount:              form.RentAmount,
		PaymentFrequency:        form.PaymentFrequency,
		Availability:            form.Availability,
		Description:             form.Description,
		LandlordLivesInCompound: form.LandlordLivesInCompound,
	}

	if form.InviteAgentToBid {
		inv := form.AgentInviteDetails
		section.AgentInvite = &model.AgentInviteDetails{
			CommissionRate:         inv.CommissionRate,
			PreferredAgentType:     inv.PreferredAgentType,
			AdditionalRequirements: inv.AdditionalRequirements,
		}
		if section.AgentInvite.PreferredAgentType == "" {
			section.AgentInvite.PreferredAgentType = model.AgentTypeAny
		}
	}
	return section, nil
}

func number(n dto.NumberField) float64 {
	v, _ := utils.ParseStrictNumber(string(n))
	return v
}

func wholeNumber(n dto.NumberField) int {
	return int(math.Trunc(number(n)))
}

// dedupeFacilities 去重并保持顺序
func dedupeFacilities(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// ==================== 图片 ====================

// CheckPhotos 只返回错误列表
func CheckPhotos(form dto.PhotosForm) []FieldViolation {
	form = clonePhotosForm(form)
	form.Normalize()
	vs := collect(form)

	covers := 0
	for _, img := range form.Images {
		if img.IsCover {
			covers++
		}
	}
	if covers > 1 {
		vs = append(vs, FieldViolation{Path: "images", Message: "Only one image can be the cover"})
	}
	return vs
}

// ValidatePhotos 校验图片表单，通过后返回分段，视频平台按域名识别
func ValidatePhotos(form dto.PhotosForm) (model.PhotosSection, error) {
	form = clonePhotosForm(form)
	if err := violationsErr(CheckPhotos(form)); err != nil {
		return model.PhotosSection{}, err
	}
	form.Normalize()

	section := model.PhotosSection{
		Images:     make([]model.ListingImage, 0, len(form.Images)),
		VideoLinks: make([]model.VideoLink, 0, len(form.VideoLinks)),
		PhotoNotes: form.PhotoNotes,
	}
	for _, img := range form.Images {
		section.Images = append(section.Images, model.ListingImage{
			URL:        img.URL,
			ExternalID: img.ExternalID,
			IsCover:    img.IsCover,
		})
	}
	for _, v := range form.VideoLinks {
		section.VideoLinks = append(section.VideoLinks, model.VideoLink{
			URL:      v.URL,
			Title:    v.Title,
			Platform: utils.DetectPlatform(v.URL),
		})
	}
	return section, nil
}

func clonePhotosForm(form dto.PhotosForm) dto.PhotosForm {
	form.Images = append([]dto.ImageForm(nil), form.Images...)
	form.VideoLinks = append([]dto.VideoLinkForm(nil), form.VideoLinks...)
	return form
}

// ==================== 提交前总校验 ====================

// ValidateDraft 提交前的最终校验：三个分段都存在且各自合法，且恰好一张封面
func ValidateDraft(d model.Draft) error {
	var vs []FieldViolation

	if d.Address == nil {
		vs = append(vs, FieldViolation{Path: "address", Message: "Address step is not complete"})
	} else {
		vs = append(vs, prefixed("address", CheckAddress(dto.AddressFormFrom(*d.Address)))...)
	}

	if d.Details == nil {
		vs = append(vs, FieldViolation{Path: "details", Message: "Details step is not complete"})
	} else {
		vs = append(vs, prefixed("details", CheckDetails(dto.DetailsFormFrom(*d.Details)))...)
	}

	if d.Photos == nil {
		vs = append(vs, FieldViolation{Path: "photos", Message: "Photos step is not complete"})
	} else {
		vs = append(vs, prefixed("photos", CheckPhotos(dto.PhotosFormFrom(*d.Photos)))...)
		if d.Photos.CoverCount() != 1 {
			vs = append(vs, FieldViolation{Path: "photos.images", Message: "Exactly one cover image is required"})
		}
	}

	return violationsErr(vs)
}
