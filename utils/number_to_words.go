package utils

import (
	"fmt"
	"strings"
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// NumberToWords spells a non-negative integer using the short scale
// (thousand, million, billion).
func NumberToWords(num int64) string {
	switch {
	case num <= 0:
		return ""
	case num < 20:
		return ones[num]
	case num < 100:
		return strings.TrimSpace(tens[num/10] + " " + ones[num%10])
	case num < 1000:
		return joinScale(ones[num/100], "Hundred", num%100)
	case num < 1_000_000:
		return joinScale(NumberToWords(num/1000), "Thousand", num%1000)
	case num < 1_000_000_000:
		return joinScale(NumberToWords(num/1_000_000), "Million", num%1_000_000)
	default:
		return joinScale(NumberToWords(num/1_000_000_000), "Billion", num%1_000_000_000)
	}
}

func joinScale(head, scale string, remainder int64) string {
	if remainder == 0 {
		return head + " " + scale
	}
	return head + " " + scale + " " + NumberToWords(remainder)
}

// CentsToWords renders an amount for giving statements, e.g.
// "One Hundred Twenty Dollars and Five Cents".
func CentsToWords(cents int64) string {
	if cents < 0 {
		cents = -cents
	}
	dollars, rest := cents/100, cents%100

	var parts []string
	if dollars > 0 {
		parts = append(parts, fmt.Sprintf("%s %s", NumberToWords(dollars), plural(dollars, "Dollar")))
	}
	if rest > 0 {
		parts = append(parts, fmt.Sprintf("%s %s", NumberToWords(rest), plural(rest, "Cent")))
	}
	if len(parts) == 0 {
		return "Zero Dollars"
	}
	return strings.Join(parts, " and ")
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
