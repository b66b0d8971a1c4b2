package validator

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/model"
)

// ==================== 测试数据 ====================

func validAddress() dto.AddressForm {
	return dto.AddressForm{
		Title:                     "Spacious 3 bedroom flat",
		Purpose:                   model.PurposeForRent,
		State:                     "Lagos",
		Locality:                  "Ikeja",
		Area:                      "GRA",
		StreetEstateNeighbourhood: "Isaac John Street",
		PropertyType:              "flat",
	}
}

func validDetails() dto.DetailsForm {
	return dto.DetailsForm{
		Bedrooms:         "3",
		Bathrooms:        "2",
		Toilets:          "3",
		Kitchens:         "1",
		PropertySize:     "120",
		Facilities:       []string{"Parking", "Water", "Parking"},
		RentAmount:       "₦1,200,000",
		PaymentFrequency: model.PaymentYearly,
		Availability:     model.AvailabilityYes,
		Description:      "A well finished flat close to the main road.",
	}
}

func validPhotos(n int) dto.PhotosForm {
	f := dto.PhotosForm{}
	for i := 0; i < n; i++ {
		f.Images = append(f.Images, dto.ImageForm{
			URL:        fmt.Sprintf("https://cdn.example.com/img%d.jpg", i),
			ExternalID: fmt.Sprintf("listing/img%d", i),
		})
	}
	return f
}

func paths(vs []FieldViolation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Path)
	}
	return out
}

// ==================== 地址 ====================

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *dto.AddressForm)
		wantPath string
	}{
		{name: "合法", mutate: func(f *dto.AddressForm) {}},
		{name: "缺少标题", mutate: func(f *dto.AddressForm) { f.Title = "  " }, wantPath: "title"},
		{name: "目的非法", mutate: func(f *dto.AddressForm) { f.Purpose = "For Sale" }, wantPath: "purpose"},
		{name: "短租合法", mutate: func(f *dto.AddressForm) { f.Purpose = model.PurposeShortLet }},
		{name: "缺少州", mutate: func(f *dto.AddressForm) { f.State = "" }, wantPath: "state"},
		{name: "地区太短", mutate: func(f *dto.AddressForm) { f.Locality = "I" }, wantPath: "locality"},
		{name: "区域太短", mutate: func(f *dto.AddressForm) { f.Area = "G" }, wantPath: "area"},
		{name: "街道太短", mutate: func(f *dto.AddressForm) { f.StreetEstateNeighbourhood = "abc" }, wantPath: "streetEstateNeighbourhood"},
		{name: "缺少房型", mutate: func(f *dto.AddressForm) { f.PropertyType = "" }, wantPath: "propertyType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validAddress()
			tt.mutate(&form)

			section, err := ValidateAddress(form)
			if tt.wantPath == "" {
				require.NoError(t, err)
				assert.Equal(t, form.State, section.State)
				return
			}
			ve, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Contains(t, paths(ve.Violations), tt.wantPath)
		})
	}
}

func TestValidateAddress_StateMessage(t *testing.T) {
	form := validAddress()
	form.State = ""
	vs := CheckAddress(form)
	require.Len(t, vs, 1)
	assert.Equal(t, "Please select a state", vs[0].Message)
}

// ==================== 详情 ====================

func TestValidateDetails_Converts(t *testing.T) {
	section, err := ValidateDetails(validDetails())
	require.NoError(t, err)

	assert.Equal(t, 3, section.Bedrooms)
	assert.Equal(t, 120.0, section.PropertySize)
	assert.Equal(t, []string{"Parking", "Water"}, section.Facilities, "设施去重并保持顺序")
	assert.Equal(t, "₦1,200,000", section.RentAmount)
	assert.False(t, section.InviteAgentToBid())
}

func TestValidateDetails_DescriptionBoundaries(t *testing.T) {
	tests := []struct {
		length int
		ok     bool
	}{
		{19, false},
		{20, true},
		{1000, true},
		{1001, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("长度%d", tt.length), func(t *testing.T) {
			form := validDetails()
			form.Description = strings.Repeat("a", tt.length)
			_, err := ValidateDetails(form)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			ve, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, []string{"description"}, paths(ve.Violations))
		})
	}
}

func TestValidateDetails_DescriptionCountsRunes(t *testing.T) {
	form := validDetails()
	form.Description = strings.Repeat("₦", 20)
	_, err := ValidateDetails(form)
	assert.NoError(t, err)
}

func TestValidateDetails_DescriptionCountsWhitespace(t *testing.T) {
	form := validDetails()
	form.Description = " " + strings.Repeat("a", 19)
	section, err := ValidateDetails(form)
	require.NoError(t, err)
	assert.Equal(t, form.Description, section.Description)

	form.Description = strings.Repeat("a", 1000) + " "
	_, err = ValidateDetails(form)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"description"}, paths(ve.Violations))
}

func TestValidateDetails_Numbers(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *dto.DetailsForm)
		wantPath string
		wantMsg  string
	}{
		{name: "负数卧室", mutate: func(f *dto.DetailsForm) { f.Bedrooms = "-1" }, wantPath: "bedrooms", wantMsg: "Must not be negative"},
		{name: "非数字浴室", mutate: func(f *dto.DetailsForm) { f.Bathrooms = "two" }, wantPath: "bathrooms", wantMsg: "Expected a number"},
		{name: "空厕所", mutate: func(f *dto.DetailsForm) { f.Toilets = "" }, wantPath: "toilets", wantMsg: "Expected a number"},
		{name: "厨房超限", mutate: func(f *dto.DetailsForm) { f.Kitchens = "11" }, wantPath: "kitchens", wantMsg: "Must be at most 10"},
		{name: "卧室小数", mutate: func(f *dto.DetailsForm) { f.Bedrooms = "2.5" }, wantPath: "bedrooms", wantMsg: "Must be a whole number"},
		{name: "面积负数", mutate: func(f *dto.DetailsForm) { f.PropertySize = "-3" }, wantPath: "propertySize", wantMsg: "Must not be negative"},
		{name: "面积小数合法", mutate: func(f *dto.DetailsForm) { f.PropertySize = "85.5" }},
		{name: "零卧室合法", mutate: func(f *dto.DetailsForm) { f.Bedrooms = "0" }},
		{name: "NaN", mutate: func(f *dto.DetailsForm) { f.PropertySize = "NaN" }, wantPath: "propertySize", wantMsg: "Expected a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validDetails()
			tt.mutate(&form)
			vs := CheckDetails(form)
			if tt.wantPath == "" {
				assert.Empty(t, vs)
				return
			}
			require.Len(t, vs, 1)
			assert.Equal(t, tt.wantPath, vs[0].Path)
			assert.Equal(t, tt.wantMsg, vs[0].Message)
		})
	}
}

func TestValidateDetails_RentAmount(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"₦1,200,000", true},
		{"₦ 450 000", true},
		{"2500.50", true},
		{"₦0", false},
		{"-5000", false},
		{"abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			form := validDetails()
			form.RentAmount = tt.input
			vs := CheckDetails(form)
			if tt.ok {
				assert.Empty(t, vs)
				return
			}
			assert.Equal(t, []string{"rentAmount"}, paths(vs))
		})
	}
}

func TestValidateDetails_InviteWithoutDetails(t *testing.T) {
	form := validDetails()
	form.InviteAgentToBid = true

	_, err := ValidateDetails(form)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "agentInviteDetails", ve.Violations[0].Path)
	assert.Equal(t, "Agent invite details are required when inviting agents to bid", ve.Violations[0].Message)
}

func TestValidateDetails_InviteVariants(t *testing.T) {
	t.Run("勾选邀请并填写", func(t *testing.T) {
		form := validDetails()
		form.InviteAgentToBid = true
		form.AgentInviteDetails = &dto.AgentInviteForm{CommissionRate: "10%"}

		section, err := ValidateDetails(form)
		require.NoError(t, err)
		require.True(t, section.InviteAgentToBid())
		assert.Equal(t, model.AgentTypeAny, section.AgentInvite.PreferredAgentType, "默认 any")
		assert.Equal(t, "10%", section.AgentInvite.CommissionRate)
	})

	t.Run("未勾选时丢弃邀请信息", func(t *testing.T) {
		form := validDetails()
		form.AgentInviteDetails = &dto.AgentInviteForm{AdditionalRequirements: strings.Repeat("x", 600)}

		section, err := ValidateDetails(form)
		require.NoError(t, err)
		assert.Nil(t, section.AgentInvite)
		assert.Len(t, form.AgentInviteDetails.AdditionalRequirements, 600, "调用方表单不被修改")
	})

	t.Run("附加要求过长", func(t *testing.T) {
		form := validDetails()
		form.InviteAgentToBid = true
		form.AgentInviteDetails = &dto.AgentInviteForm{AdditionalRequirements: strings.Repeat("x", 501)}

		vs := CheckDetails(form)
		require.Len(t, vs, 1)
		assert.Equal(t, "agentInviteDetails.additionalRequirements", vs[0].Path)
		assert.Equal(t, "Additional requirements must be less than 500 characters", vs[0].Message)
	})

	t.Run("中介类型非法", func(t *testing.T) {
		form := validDetails()
		form.InviteAgentToBid = true
		form.AgentInviteDetails = &dto.AgentInviteForm{PreferredAgentType: "cheap"}

		assert.Equal(t, []string{"agentInviteDetails.preferredAgentType"}, paths(CheckDetails(form)))
	})
}

func TestDetailsForm_DecodesNumbersAndStrings(t *testing.T) {
	raw := `{"bedrooms": 3, "bathrooms": "2", "toilets": null, "kitchens": 1, "propertySize": 80.5}`
	var form dto.DetailsForm
	require.NoError(t, json.Unmarshal([]byte(raw), &form))

	assert.Equal(t, dto.NumberField("3"), form.Bedrooms)
	assert.Equal(t, dto.NumberField("2"), form.Bathrooms)
	assert.Equal(t, dto.NumberField(""), form.Toilets)
	assert.Equal(t, dto.NumberField("80.5"), form.PropertySize)
}

// ==================== 图片 ====================

func TestValidatePhotos_ImageCountBoundaries(t *testing.T) {
	tests := []struct {
		count   int
		ok      bool
		message string
	}{
		{2, false, "Please upload at least 3 photos"},
		{3, true, ""},
		{20, true, ""},
		{21, false, "Maximum 20 photos allowed"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d张", tt.count), func(t *testing.T) {
			_, err := ValidatePhotos(validPhotos(tt.count))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			ve, ok := AsValidationError(err)
			require.True(t, ok)
			require.Len(t, ve.Violations, 1)
			assert.Equal(t, "images", ve.Violations[0].Path)
			assert.Equal(t, tt.message, ve.Violations[0].Message)
		})
	}
}

func TestValidatePhotos_VideoLinks(t *testing.T) {
	form := validPhotos(3)
	form.VideoLinks = []dto.VideoLinkForm{
		{URL: "https://youtu.be/abc123"},
		{URL: "youtu.be/abc123"},
	}

	vs := CheckPhotos(form)
	require.Len(t, vs, 1)
	assert.Equal(t, "videoLinks[1].url", vs[0].Path)

	form.VideoLinks = form.VideoLinks[:1]
	section, err := ValidatePhotos(form)
	require.NoError(t, err)
	assert.Equal(t, model.VideoLink{URL: "https://youtu.be/abc123", Title: "", Platform: model.PlatformYouTube}, section.VideoLinks[0])
}

func TestValidatePhotos_Limits(t *testing.T) {
	form := validPhotos(3)
	for i := 0; i < 6; i++ {
		form.VideoLinks = append(form.VideoLinks, dto.VideoLinkForm{URL: fmt.Sprintf("https://vimeo.com/%d", i)})
	}
	form.PhotoNotes = strings.Repeat("n", 501)

	assert.ElementsMatch(t, []string{"videoLinks", "photoNotes"}, paths(CheckPhotos(form)))
}

func TestValidatePhotos_MultipleCovers(t *testing.T) {
	form := validPhotos(3)
	form.Images[0].IsCover = true
	form.Images[1].IsCover = true

	assert.Equal(t, []string{"images"}, paths(CheckPhotos(form)))
}

// ==================== 提交前总校验 ====================

func completeDraft(t *testing.T) model.Draft {
	t.Helper()
	addr, err := ValidateAddress(validAddress())
	require.NoError(t, err)
	details, err := ValidateDetails(validDetails())
	require.NoError(t, err)
	photos := validPhotos(3)
	photos.Images[0].IsCover = true
	ph, err := ValidatePhotos(photos)
	require.NoError(t, err)
	return model.Draft{Address: &addr, Details: &details, Photos: &ph}
}

func TestValidateDraft(t *testing.T) {
	t.Run("完整草稿", func(t *testing.T) {
		assert.NoError(t, ValidateDraft(completeDraft(t)))
	})

	t.Run("缺少分段", func(t *testing.T) {
		d := completeDraft(t)
		d.Details = nil
		ve, ok := AsValidationError(ValidateDraft(d))
		require.True(t, ok)
		assert.Equal(t, []string{"details"}, paths(ve.Violations))
	})

	t.Run("没有封面", func(t *testing.T) {
		d := completeDraft(t)
		d.Photos.Images[0].IsCover = false
		ve, ok := AsValidationError(ValidateDraft(d))
		require.True(t, ok)
		assert.Equal(t, []string{"photos.images"}, paths(ve.Violations))
	})

	t.Run("分段内容非法", func(t *testing.T) {
		d := completeDraft(t)
		d.Details.Description = "too short"
		ve, ok := AsValidationError(ValidateDraft(d))
		require.True(t, ok)
		assert.Equal(t, []string{"details.description"}, paths(ve.Violations))
	})

	t.Run("空草稿", func(t *testing.T) {
		ve, ok := AsValidationError(ValidateDraft(model.Draft{}))
		require.True(t, ok)
		assert.Equal(t, []string{"address", "details", "photos"}, paths(ve.Violations))
	})
}
