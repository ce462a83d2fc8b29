package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var amountNulls = map[string]bool{
	"n/a": true, "tbd": true, "-": true, "na": true, "nil": true, "none": true, "": true,
}

var (
	currencySymbolRe    = regexp.MustCompile(`[\x{20AC}\x{00A3}\x{00A5}\x{20B9}$]`)
	trailingCodeRe      = regexp.MustCompile(`(?i)\s*(USD|EUR|GBP|INR|CAD|AUD)\s*$`)
	accountingNegRe     = regexp.MustCompile(`^\(([0-9,. ]+)\)$`)
	commaDecimalRe      = regexp.MustCompile(`,\d{2}$`)
	embeddedCodeRe      = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|INR|CAD|AUD|JPY)\b`)
	currencySymbolOrder = []string{"$", "\u20ac", "\u00a3", "\u20b9", "\u00a5"}
)

// CurrencySymbols maps a currency symbol to its ISO code.
var CurrencySymbols = map[string]string{
	"$": "USD",
	"\u20ac": "EUR",
	"\u00a3": "GBP",
	"\u20b9": "INR",
	"\u00a5": "JPY",
}

// Amount strips currency markers, resolves accounting negatives and
// European/US separators, and formats the value to two decimals.
func Amount(value string) (string, bool, string) {
	v := strings.TrimSpace(value)
	orig := v
	if amountNulls[strings.ToLower(v)] {
		return "", orig != "", "Non-numeric placeholder left blank (N/A / TBD)"
	}

	v = currencySymbolRe.ReplaceAllString(v, "")
	v = strings.TrimSpace(trailingCodeRe.ReplaceAllString(v, ""))

	if m := accountingNegRe.FindStringSubmatch(v); m != nil {
		v = "-" + m[1]
	}

	var desc string
	switch {
	case strings.Contains(v, ",") && strings.Contains(v, "."):
		// The rightmost separator is the decimal point.
		if strings.LastIndex(v, ".") < strings.LastIndex(v, ",") {
			v = strings.ReplaceAll(v, ".", "")
			v = strings.ReplaceAll(v, ",", ".")
			desc = "European decimal format (1.200,00) converted"
		} else {
			v = strings.ReplaceAll(v, ",", "")
			desc = "US thousands separator removed"
		}
	case strings.Contains(v, ","):
		if commaDecimalRe.MatchString(v) {
			v = strings.ReplaceAll(v, ",", ".")
			desc = "Comma decimal separator converted to period"
		} else {
			v = strings.ReplaceAll(v, ",", "")
			desc = "Thousands-separator comma removed"
		}
	default:
		desc = "Amount normalised to 2 decimal places"
	}

	f, ok := parseFloat(v)
	if !ok {
		return orig, false, ""
	}
	result := fmt.Sprintf("%.2f", f)
	return result, result != orig, desc
}

// ParseAmountLike returns the numeric value of an amount-like cell.
func ParseAmountLike(value string) (float64, bool) {
	if strings.TrimSpace(value) == "" {
		return 0, false
	}
	normalized, _, _ := Amount(value)
	return parseFloat(normalized)
}

// ExtractCurrency splits combined text such as "$1,200 USD" into its amount
// text and ISO currency code. amount is empty unless the remainder parses.
func ExtractCurrency(value string) (amount, currency string) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return "", ""
	}

	code := embeddedCodeRe.FindStringSubmatch(raw)
	symbol := ""
	for _, s := range currencySymbolOrder {
		if strings.Contains(raw, s) {
			symbol = s
			break
		}
	}
	switch {
	case code != nil:
		currency = strings.ToUpper(code[1])
	case symbol != "":
		currency = CurrencySymbols[symbol]
	}

	candidate := raw
	if code != nil {
		candidate = embeddedCodeRe.ReplaceAllString(candidate, "")
	}
	if symbol != "" {
		candidate = strings.ReplaceAll(candidate, symbol, "")
	}
	candidate = CollapseSpace(candidate)

	if currency != "" {
		if _, ok := ParseAmountLike(candidate); ok {
			return candidate, currency
		}
	}
	return "", currency
}

// parseFloat accepts plain decimal notation only.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
