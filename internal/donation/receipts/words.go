package receipts

import (
	"strings"

	"github.com/shopspring/decimal"
)

var onesWords = []string{
	"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// AmountToWords spells out a monetary amount for the receipt document, e.g.
// "One Thousand Two Hundred Fifty Kenyan Shillings and Fifty Cents".
func AmountToWords(amount decimal.Decimal, currency string) string {
	whole := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(whole)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	out := numberToWords(whole) + " " + currencyName(currency)
	if cents > 0 {
		out += " and " + numberToWords(cents) + " Cents"
	}
	return out
}

func numberToWords(n int64) string {
	if n < 0 {
		return "Minus " + numberToWords(-n)
	}
	if n < 20 {
		return onesWords[n]
	}
	if n < 100 {
		word := tensWords[n/10]
		if n%10 != 0 {
			word += " " + onesWords[n%10]
		}
		return word
	}

	type scale struct {
		value int64
		name  string
	}
	scales := []scale{
		{1_000_000_000, "Billion"},
		{1_000_000, "Million"},
		{1_000, "Thousand"},
		{100, "Hundred"},
	}
	for _, sc := range scales {
		if n >= sc.value {
			parts := []string{numberToWords(n / sc.value), sc.name}
			if rem := n % sc.value; rem != 0 {
				parts = append(parts, numberToWords(rem))
			}
			return strings.Join(parts, " ")
		}
	}
	return onesWords[0]
}

func currencyName(code string) string {
	switch strings.ToUpper(code) {
	case "KES":
		return "Kenyan Shillings"
	case "USD":
		return "US Dollars"
	case "EUR":
		return "Euros"
	case "GBP":
		return "British Pounds"
	default:
		return strings.ToUpper(code)
	}
}
