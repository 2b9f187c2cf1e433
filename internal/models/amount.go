package models

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a human formatted amount such as "-45.00", "1.234,56",
// "R$ 1,234.56" or "(12.50)". The last separator followed by one or two
// digits is treated as the decimal point; every other separator is a
// thousands separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			b.WriteRune(r)
		case r == '-':
			negative = !negative
		case r == '+', unicode.IsSpace(r), r == '\'':
		default:
			// currency symbols and codes
		}
	}
	digits := b.String()
	if digits == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}

	lastSep := strings.LastIndexAny(digits, ".,")
	var normalized string
	if lastSep >= 0 && len(digits)-lastSep-1 <= 2 && len(digits)-lastSep-1 > 0 {
		intPart := strings.NewReplacer(".", "", ",", "").Replace(digits[:lastSep])
		normalized = intPart + "." + digits[lastSep+1:]
	} else {
		normalized = strings.NewReplacer(".", "", ",", "").Replace(digits)
	}
	if normalized == "" || normalized == "." {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
