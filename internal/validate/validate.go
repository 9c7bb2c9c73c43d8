package validate

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"qashop/internal/domain"
)

const (
	MaxProductName = 50
	MaxDescription = 150
	MaxUsername    = 50
)

// ID parses a positive numeric resource id (products, orders).
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Quantity parses a cart quantity. Zero and negative values are valid and
// mean "remove"; anything above domain.MaxQuantity is rejected.
func Quantity(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n > domain.MaxQuantity {
		return 0, false
	}
	return n, true
}

// Required trims s and reports whether anything is left.
func Required(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Username trims and bounds a login name.
func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxUsername {
		return "", false
	}
	return s, true
}

func ProductName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && utf8.RuneCountInString(s) <= MaxProductName
}

func Description(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) <= MaxDescription
}

// Price parses a positive amount rounded to cents.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	d = d.Round(2)
	return d, d.IsPositive()
}

// Stock parses a non-negative unit count.
func Stock(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageType maps an allowed upload content type to a file extension.
func ImageType(contentType string) (string, bool) {
	ext, ok := imageExt[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}
