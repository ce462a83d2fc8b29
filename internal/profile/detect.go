// Package profile classifies cells into atomic types and aggregates them into
// per-column profiles with suspected data-quality issues.
package profile

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"

	"github.com/sells-group/sheet-doctor/internal/model"
	"github.com/sells-group/sheet-doctor/internal/normalize"
)

// dateLayout pairs a fixed layout with the label reported for mixed-format
// detection.
type dateLayout struct {
	pattern *regexp.Regexp
	layout  string
	label   string
}

var dateLayouts = []dateLayout{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-1-2", "YYYY-MM-DD"},
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), "2006/1/2", "YYYY/MM/DD"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "2/1/2006", "DD/MM/YYYY"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "1/2/2006", "MM/DD/YYYY"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`), "2-1-2006", "DD-MM-YYYY"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`), "1-2-2006", "MM-DD-YYYY"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`), "2/1/06", "DD/MM/YY"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}$`), "1/2/06", "MM/DD/YY"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{2}$`), "2-1-06", "DD-MM-YY"},
	{regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{2}$`), "1-2-06", "MM-DD-YY"},
	{regexp.MustCompile(`^[A-Za-z]+\s+\d{1,2}\s+\d{4}$`), "January 2 2006", "Month D YYYY"},
	{regexp.MustCompile(`^[A-Za-z]{3}\s+\d{1,2}\s+\d{4}$`), "Jan 2 2006", "Mon D YYYY"},
	{regexp.MustCompile(`^\d{1,2}\s+[A-Za-z]+\s+\d{4}$`), "2 January 2006", "D Month YYYY"},
	{regexp.MustCompile(`^\d{1,2}\s+[A-Za-z]{3}\s+\d{4}$`), "2 Jan 2006", "D Mon YYYY"},
	{regexp.MustCompile(`^[A-Za-z]+\s+\d{1,2},\s+\d{4}$`), "January 2, 2006", "Month D, YYYY"},
	{regexp.MustCompile(`^[A-Za-z]{3}\s+\d{1,2},\s+\d{4}$`), "Jan 2, 2006", "Mon D, YYYY"},
}

// InferredDateLabel marks dates recognised only by the free-form parser.
const InferredDateLabel = "inferred datetime"

var (
	emailRe       = regexp.MustCompile(`(?i)^[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}$`)
	phoneRe       = regexp.MustCompile(`^(?:\+?\d{1,3}[\s().-]*)?(?:\(?\d{2,4}\)?[\s().-]*)?\d(?:[\d\s().-]{5,}\d)$`)
	urlRe         = regexp.MustCompile(`(?i)^(?:https?://|www\.)\S+$`)
	percentRe     = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?%$`)
	idRe          = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/\-]{2,}$`)
	nameRe        = regexp.MustCompile("^[A-Za-z][A-Za-z'`.-]*(?:\\s+[A-Za-z][A-Za-z'`.-]*){1,3}$")
	amountCodeRe  = regexp.MustCompile(`(?i)\b(?:USD|EUR|INR|GBP|JPY|CAD|AUD|AED|CHF)\b`)
	leadingCodeRe = regexp.MustCompile(`^[A-Z]{3}`)
	trailCodeRe   = regexp.MustCompile(`(?i)(USD|EUR|INR|GBP|JPY|CAD|AUD|AED|CHF)$`)
	plainNumRe    = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
	dateishRe     = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`)
	symbolStrip   = strings.NewReplacer("$", "", "\u20ac", "", "\u00a3", "", "\u00a5", "", "\u20b9", "")
)

// SentinelNulls are cell spellings treated as missing.
var SentinelNulls = map[string]bool{
	"": true, "na": true, "n/a": true, "none": true, "null": true,
	"nil": true, "nan": true, "tbd": true, "-": true,
}

var booleanWords = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true, "approved": true, "approve": true,
	"false": true, "no": true, "n": true, "0": true, "rejected": true, "reject": true,
}

var currencyCodes = setOf(
	"AED", "AUD", "BRL", "CAD", "CHF", "CNY", "EUR", "GBP", "HKD", "INR",
	"JPY", "KRW", "MXN", "NOK", "NZD", "PLN", "RUB", "SEK", "SGD", "TRY",
	"USD", "ZAR",
)

var countryCodes = setOf(
	"AE", "AU", "BR", "CA", "CH", "CN", "DE", "ES", "FR", "GB", "HK", "IN",
	"IT", "JP", "KR", "MX", "NL", "NZ", "PL", "RU", "SE", "SG", "TR", "US",
	"ZA",
)

var countryNames = setOf(
	"argentina", "australia", "austria", "belgium", "brazil", "canada", "china",
	"denmark", "finland", "france", "germany", "hong kong", "india", "indonesia",
	"ireland", "italy", "japan", "kenya", "malaysia", "mexico", "netherlands",
	"new zealand", "norway", "pakistan", "poland", "portugal", "russia",
	"saudi arabia", "singapore", "south africa", "south korea", "spain", "sweden",
	"switzerland", "thailand", "turkey", "uae", "uk", "united arab emirates",
	"united kingdom", "united states", "united states of america", "usa", "us",
	"vietnam",
)

var nameStopwords = setOf(
	"a", "an", "and", "at", "before", "by", "for", "from", "in", "into", "of",
	"on", "or", "said", "the", "to", "with", "was", "were", "worth",
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

// IsNull reports whether a cell counts as missing.
func IsNull(value string) bool {
	return SentinelNulls[strings.ToLower(strings.TrimSpace(value))]
}

// ParseDate recognises the fixed layouts first, then falls back to a
// free-form parse for date-looking text. It returns the date and the format
// label.
func ParseDate(value string) (time.Time, string, bool) {
	text := strings.TrimSpace(strings.ReplaceAll(value, "\x00", ""))
	if IsNull(text) {
		return time.Time{}, "", false
	}
	for _, dl := range dateLayouts {
		if !dl.pattern.MatchString(text) {
			continue
		}
		if t, err := time.Parse(dl.layout, text); err == nil {
			return t, dl.label, true
		}
	}
	if !looksDateish(text) {
		return time.Time{}, "", false
	}
	t, err := dateparse.ParseAny(text)
	if err != nil {
		return time.Time{}, "", false
	}
	return t, InferredDateLabel, true
}

// looksDateish limits the free-form parser to text carrying a month name or
// a leading numeric date, so plain numbers and codes never become dates.
func looksDateish(text string) bool {
	if _, ok := ParseNumber(text); ok {
		return false
	}
	if !strings.ContainsAny(text, "0123456789") {
		return false
	}
	if dateishRe.MatchString(text) {
		return true
	}
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if _, ok := normalize.MonthNames[strings.ToLower(word)]; ok {
			return true
		}
	}
	return false
}

// ParseNumber reads amounts and plain numbers, tolerating currency markers,
// accounting negatives and either decimal convention.
func ParseNumber(value string) (float64, bool) {
	text := strings.TrimSpace(value)
	if IsNull(text) {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") && len(text) >= 2 {
		negative = true
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	text = strings.ReplaceAll(text, " ", "")
	text = leadingCodeRe.ReplaceAllString(text, "")
	text = trailCodeRe.ReplaceAllString(text, "")
	text = symbolStrip.Replace(text)

	commas := strings.Count(text, ",")
	switch {
	case commas > 0 && strings.Contains(text, "."):
		if strings.LastIndex(text, ",") > strings.LastIndex(text, ".") {
			text = strings.ReplaceAll(text, ".", "")
			text = strings.ReplaceAll(text, ",", ".")
		} else {
			text = strings.ReplaceAll(text, ",", "")
		}
	case commas == 1:
		left, right, _ := strings.Cut(text, ",")
		switch len(right) {
		case 2:
			text = left + "." + right
		case 3:
			text = left + right
		}
	default:
		text = strings.ReplaceAll(text, ",", "")
	}

	if !plainNumRe.MatchString(text) {
		return 0, false
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}

// ParsePercentage reads "12.5%" style values.
func ParsePercentage(value string) (float64, bool) {
	text := strings.TrimSpace(value)
	if !percentRe.MatchString(text) {
		return 0, false
	}
	n, err := strconv.ParseFloat(text[:len(text)-1], 64)
	return n, err == nil
}

// DetectType classifies one cell using a fixed precedence.
func DetectType(value string) model.AtomicType {
	text := strings.TrimSpace(strings.ReplaceAll(value, "\x00", ""))
	lower := strings.ToLower(text)
	if SentinelNulls[lower] {
		return model.TypeUnknown
	}
	if _, _, ok := ParseDate(text); ok {
		return model.TypeDate
	}
	switch {
	case emailRe.MatchString(text):
		return model.TypeEmail
	case urlRe.MatchString(text):
		return model.TypeURL
	case phoneRe.MatchString(text) && countDigits(text) >= 7:
		return model.TypePhone
	}
	if _, ok := ParsePercentage(text); ok {
		return model.TypePercentage
	}
	upper := strings.ToUpper(text)
	switch {
	case currencyCodes[upper]:
		return model.TypeCurrency
	case countryNames[lower] || countryCodes[upper]:
		return model.TypeCountry
	case booleanWords[lower]:
		return model.TypeBoolean
	}
	_, numeric := ParseNumber(text)
	if numeric && (strings.ContainsAny(text, "$\u20ac\u00a3\u00a5\u20b9") || amountCodeRe.MatchString(text)) {
		return model.TypeAmount
	}
	if numeric {
		return model.TypeNumber
	}
	if looksLikeID(text) {
		return model.TypeID
	}
	if LooksLikeName(text) {
		return model.TypeName
	}
	return model.TypeFreeText
}

func looksLikeID(text string) bool {
	if !idRe.MatchString(text) {
		return false
	}
	return strings.IndexFunc(text, isASCIILetter) >= 0 && strings.ContainsAny(text, "0123456789")
}

// LooksLikeName accepts two to four capitalised word tokens that are not
// prose stopwords.
func LooksLikeName(text string) bool {
	if !nameRe.MatchString(text) {
		return false
	}
	tokens := strings.Fields(text)
	capitalised, allUpper := 0, true
	for _, tok := range tokens {
		if nameStopwords[strings.Trim(strings.ToLower(tok), ".'`-")] {
			return false
		}
		if unicode.IsUpper(rune(tok[0])) {
			capitalised++
		}
		if !isUpperWord(tok) {
			allUpper = false
		}
	}
	return capitalised >= 2 || allUpper
}

// isUpperWord mirrors str.isupper: at least one cased letter, none lower.
func isUpperWord(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func isLowerWord(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
