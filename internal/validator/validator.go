package validator

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/pkg/utils"
)

// ==================== 校验结果 ====================

// FieldViolation 单个字段的校验错误
type FieldViolation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError 表单校验失败，携带按字段的错误列表
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Path+": "+v.Message)
	}
	return "表单校验失败: " + strings.Join(parts, "; ")
}

// Fields 按路径分组
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Path] = append(out[v.Path], v.Message)
	}
	return out
}

// AsValidationError 取出校验错误
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func violationsErr(vs []FieldViolation) error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: vs}
}

// ==================== 校验器初始化 ====================

var validate = newValidate()

func newValidate() *playground.Validate {
	v := playground.New()

	// 错误路径使用 JSON 字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "number_value", isNumberValue)
	mustRegister(v, "whole", isWholeNumber)
	mustRegister(v, "num_gte", numberGTE)
	mustRegister(v, "num_lte", numberLTE)
	mustRegister(v, "amount_positive", isPositiveAmount)
	mustRegister(v, "web_url", isWebURL)

	v.RegisterStructValidation(detailsStructLevel, dto.DetailsForm{})
	return v
}

func mustRegister(v *playground.Validate, tag string, fn playground.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("注册校验规则 %s 失败: %v", tag, err))
	}
}

// ==================== 自定义规则 ====================

func isNumberValue(fl playground.FieldLevel) bool {
	_, ok := utils.ParseStrictNumber(fl.Field().String())
	return ok
}

func isWholeNumber(fl playground.FieldLevel) bool {
	v, ok := utils.ParseStrictNumber(fl.Field().String())
	return ok && v == math.Trunc(v)
}

func numberGTE(fl playground.FieldLevel) bool {
	v, ok := utils.ParseStrictNumber(fl.Field().String())
	limit, err := strconv.ParseFloat(fl.Param(), 64)
	return ok && err == nil && v >= limit
}

func numberLTE(fl playground.FieldLevel) bool {
	v, ok := utils.ParseStrictNumber(fl.Field().String())
	limit, err := strconv.ParseFloat(fl.Param(), 64)
	return ok && err == nil && v <= limit
}

// isPositiveAmount 去掉 ₦、千分位、空白后必须为正数
func isPositiveAmount(fl playground.FieldLevel) bool {
	v, ok := utils.ParseStrictNumber(utils.StripCurrency(fl.Field().String()))
	return ok && v > 0
}

func isWebURL(fl playground.FieldLevel) bool {
	return utils.IsWebURL(fl.Field().String())
}

// detailsStructLevel 勾选邀请中介时必须填写邀请信息
func detailsStructLevel(sl playground.StructLevel) {
	f := sl.Current().Interface().(dto.DetailsForm)
	if f.InviteAgentToBid && f.AgentInviteDetails == nil {
		sl.ReportError(f.AgentInviteDetails, "agentInviteDetails", "AgentInviteDetails", "invite_details", "")
	}
}

// ==================== 错误信息 ====================

// fieldMessages 面向用户的提示文案，key 为 "路径.规则"，路径中的下标已去除
var fieldMessages = map[string]string{
	"title.required":                "Please enter a listing title",
	"title.max":                     "Title must be at most 120 characters",
	"purpose.required":              "Please select a purpose",
	"purpose.oneof":                 "Purpose must be For Rent or Short Let",
	"state.required":                "Please select a state",
	"locality.min":                  "Locality must be at least 2 characters",
	"area.min":                      "Area must be at least 2 characters",
	"streetEstateNeighbourhood.min": "Street, estate or neighbourhood must be at least 5 characters",
	"propertyType.required":         "Please select a property type",

	"rentAmount.required":        "Rent amount is required",
	"rentAmount.amount_positive": "Rent amount must be a positive number",
	"paymentFrequency.required":  "Please select a payment frequency",
	"paymentFrequency.oneof":     "Payment frequency must be monthly, quarterly or yearly",
	"availability.required":      "Please select availability",
	"availability.oneof":         "Availability must be yes or no",
	"description.min":            "Description must be at least 20 characters",
	"description.max":            "Description must be less than 1000 characters",

	"agentInviteDetails.invite_details":             "Agent invite details are required when inviting agents to bid",
	"agentInviteDetails.preferredAgentType.oneof":   "Preferred agent type must be any, local, experienced or premium",
	"agentInviteDetails.additionalRequirements.max": "Additional requirements must be less than 500 characters",
	"agentInviteDetails.commissionRate.max":         "Commission rate is too long",

	"images.min":                "Please upload at least 3 photos",
	"images.max":                "Maximum 20 photos allowed",
	"images.url.web_url":        "Image URL must be a valid http or https URL",
	"images.public_id.required": "Image is missing its upload reference",
	"videoLinks.max":            "Maximum 5 video links allowed",
	"videoLinks.url.required":   "Video URL is required",
	"videoLinks.url.web_url":    "Please enter a valid http or https URL",
	"photoNotes.max":            "Photo notes must be less than 500 characters",
}

var indexPattern = regexp.MustCompile(`\[\d+\]`)

func messageFor(path string, fe playground.FieldError) string {
	key := indexPattern.ReplaceAllString(path, "") + "." + fe.Tag()
	if msg, ok := fieldMessages[key]; ok {
		return msg
	}

	switch fe.Tag() {
	case "number_value":
		return "Expected a number"
	case "whole":
		return "Must be a whole number"
	case "num_gte":
		if fe.Param() == "0" {
			return "Must not be negative"
		}
		return "Must be at least " + fe.Param()
	case "num_lte":
		return "Must be at most " + fe.Param()
	case "required":
		return "This field is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must have at least " + fe.Param() + " items"
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must have at most " + fe.Param() + " items"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "web_url":
		return "Must be a valid http or https URL"
	}
	return "Invalid value"
}

// collect 执行结构体校验并转换为字段错误列表
func collect(form interface{}) []FieldViolation {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []FieldViolation{{Path: "", Message: err.Error()}}
	}

	out := make([]FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		// 去掉顶层结构体名
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		out = append(out, FieldViolation{Path: path, Message: messageFor(path, fe)})
	}
	return out
}

func prefixed(prefix string, vs []FieldViolation) []FieldViolation {
	for i := range vs {
		vs[i].Path = prefix + "." + vs[i].Path
	}
	return vs
}
