package normalize

import (
	"regexp"
	"strings"
)

var currencyNames = map[string]string{
	"usd": "USD", "us dollar": "USD", "u.s. dollar": "USD", "dollar": "USD", "$": "USD",
	"eur": "EUR", "euro": "EUR", "\u20ac": "EUR",
	"gbp": "GBP", "pound": "GBP", "sterling": "GBP", "\u00a3": "GBP",
	"inr": "INR", "rupee": "INR", "indian rupee": "INR", "\u20b9": "INR",
	"cad": "CAD", "canadian dollar": "CAD",
	"aud": "AUD", "australian dollar": "AUD",
}

var bareCodeRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

var currencyMarkStripper = strings.NewReplacer("\u20b9", "", "\u20ac", "", "$", "", "\u00a3", "")

// Currency maps symbols and currency words to ISO 4217 codes. Unknown bare
// three-letter codes are uppercased.
func Currency(value string) (string, bool, string) {
	v := strings.TrimSpace(value)
	if v == "" {
		return v, false, ""
	}
	cleaned := strings.TrimSpace(currencyMarkStripper.Replace(v))
	for _, lookup := range []string{strings.ToLower(cleaned), strings.ToLower(v)} {
		if code, ok := currencyNames[lookup]; ok {
			return code, code != v, "Currency '" + v + "' standardised to ISO 3-letter code"
		}
	}
	if bareCodeRe.MatchString(cleaned) {
		code := strings.ToUpper(cleaned)
		return code, code != v, "Currency uppercased to ISO format"
	}
	return v, false, ""
}
