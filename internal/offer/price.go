package offer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var priceRegex = regexp.MustCompile(`\d[\d.,]*`)

// ParsePriceText parses a price as shown on a Brazilian storefront, ex. "R$ 1.234,56",
// "por R$12,90" or "12.90". The first number in the text is used.
func ParsePriceText(text string) (decimal.Decimal, error) {
	raw := priceRegex.FindString(text)
	raw = strings.TrimRight(raw, ".,")
	if raw == "" {
		return decimal.Zero, fmt.Errorf("no price in %q", text)
	}

	lastComma := strings.LastIndex(raw, ",")
	lastDot := strings.LastIndex(raw, ".")

	switch {
	case lastComma > lastDot:
		// 1.234,56 -> comma is the decimal separator
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	case lastDot > lastComma && strings.Count(raw, ".") == 1 && len(raw)-lastDot-1 != 3:
		// 12.90 or 1,234.5 -> dot is the decimal separator
		raw = strings.ReplaceAll(raw, ",", "")
	default:
		// 1.234 or 1.234.567 -> dots group thousands
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", "")
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", text, err)
	}
	return price, nil
}

// FormatPrice renders a price the way Brazilian storefronts do, ex. "R$ 1.234,56".
func FormatPrice(price decimal.Decimal) string {
	fixed := price.Abs().StringFixed(2)
	integer, cents, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if price.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, grouped.String(), cents)
}
