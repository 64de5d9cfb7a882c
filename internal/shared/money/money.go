package money

import "fmt"

// Prices travel through this service as integer minor units (cents).
// The storefront cart endpoints want major-unit strings with exactly two
// decimals, so the conversion lives in one place.

// MajorUnits converts cents to the wire form the cart expects:
// 0 -> "0.00", 199 -> "1.99", 10050 -> "100.50".
func MajorUnits(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Format renders a shopper-facing price with a currency symbol.
func Format(cents int, currency string) string {
	return currencySymbol(currency) + MajorUnits(cents)
}

func currencySymbol(code string) string {
	switch code {
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	case "MXN":
		return "MX$"
	default:
		return code + " "
	}
}
