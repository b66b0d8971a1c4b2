package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount 金额无法解析
var ErrInvalidAmount = errors.New("金额格式错误")

// StripCurrency 去掉货币符号、千分位和空白，例如 "₦1,200,000" -> "1200000"
func StripCurrency(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '₦' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ParseAmount 解析格式化金额，规则与校验一致：去掉货币符号后按数字解析
func ParseAmount(s string) (float64, error) {
	v, ok := ParseStrictNumber(StripCurrency(s))
	if !ok {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseStrictNumber 解析纯数字文本，拒绝 NaN/Inf
func ParseStrictNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatNaira 金额展示格式，例如 1200000 -> "₦1,200,000"
func FormatNaira(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	amount = math.Round(amount*100) / 100
	whole := strconv.FormatFloat(math.Trunc(amount), 'f', 0, 64)
	frac := amount - math.Trunc(amount)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "₦" + b.String()
	if frac > 0.0049 {
		out += strconv.FormatFloat(frac, 'f', 2, 64)[1:]
	}
	if neg {
		out = "-" + out
	}
	return out
}
