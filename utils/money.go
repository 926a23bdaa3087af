package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Churches pay the card processing fee: 2.9% plus 30 cents per donation.
const (
	FeeRateBasisPoints = 290
	FeeFixedCents      = 30
)

var ErrInvalidAmount = errors.New("amount must be greater than zero")

// RoundUpCents returns the spare change needed to reach the next whole
// dollar. Whole-dollar purchases round up by zero.
func RoundUpCents(purchaseCents int64) (int64, error) {
	if purchaseCents <= 0 {
		return 0, ErrInvalidAmount
	}
	return (100 - purchaseCents%100) % 100, nil
}

// ProcessingFee is 2.9% of gross rounded half-up to the cent, plus 30 cents.
func ProcessingFee(grossCents int64) int64 {
	if grossCents <= 0 {
		return 0
	}
	return (grossCents*FeeRateBasisPoints+5000)/10000 + FeeFixedCents
}

// FormatCents renders cents as a dollar string with thousands separators,
// e.g. 123456 -> "$1,234.56".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	dollars := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range dollars {
		if i > 0 && (len(dollars)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}

// ParseDollars converts "12.34" or "12" to cents.
func ParseDollars(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && !hasFrac {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	var dollars int64
	if whole != "" {
		d, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		dollars = d
	}
	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		c, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || c < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		cents = c
	}
	return dollars*100 + cents, nil
}
