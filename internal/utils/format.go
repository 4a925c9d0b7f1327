package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultVisible is the number of leading and trailing characters kept by Shorten.
const DefaultVisible = 6

// DefaultFractionDigits is the number of decimals shown for coin amounts.
const DefaultFractionDigits = 2

var printer = message.NewPrinter(language.English)

// Shorten abbreviates long identifiers such as addresses and keys to "abcdef...uvwxyz".
func Shorten(value string, visible int) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if visible < 0 || len(runes) <= visible*2 {
		return value
	}
	return string(runes[:visible]) + "..." + string(runes[len(runes)-visible:])
}

// FormatAmount renders a coin amount with thousands separators and at most
// fractionDigits decimals. Non-finite values render as "0".
func FormatAmount(value float64, fractionDigits int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0"
	}
	if fractionDigits < 0 {
		fractionDigits = 0
	}
	return printer.Sprint(number.Decimal(value, number.MaxFractionDigits(fractionDigits)))
}

// FormatOptionalAmount renders an optional amount, using "-" when it is absent.
func FormatOptionalAmount(value *float64, fractionDigits int) string {
	if value == nil {
		return "-"
	}
	return FormatAmount(*value, fractionDigits)
}
