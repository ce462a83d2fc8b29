package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISODateRe matches a bare YYYY-MM-DD date.
var ISODateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	isoDateTimeRe   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})T`)
	slashDMYRe      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	slashYMDRe      = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	dashDMYRe       = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	dashShortYearRe = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{2})$`)
	writtenMonthRe  = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2})\s+(\d{4})$`)
	unixRe          = regexp.MustCompile(`^\d{10}$`)
	serialRe        = regexp.MustCompile(`^\d{5}$`)
)

// Excel serial dates count days from the Windows epoch.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const (
	excelSerialMin = 40000
	excelSerialMax = 55000
)

// MonthNames maps full and three-letter English month names to month numbers.
var MonthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// IsISODate reports whether s is a bare YYYY-MM-DD string.
func IsISODate(s string) bool {
	return ISODateRe.MatchString(s)
}

// Date converts the supported date spellings to YYYY-MM-DD. Ambiguous
// day/month values are read day-first, then month-first.
func Date(value string) (string, bool, string) {
	v := strings.TrimSpace(value)
	if v == "" || ISODateRe.MatchString(v) {
		return v, false, ""
	}

	if m := isoDateTimeRe.FindStringSubmatch(v); m != nil {
		return m[1], true, "ISO 8601 datetime truncated to date-only"
	}

	if m := slashDMYRe.FindStringSubmatch(v); m != nil {
		return dayFirst(v, m, "DD/MM/YYYY", "MM/DD/YYYY", atoi(m[3]),
			"normalised to ISO YYYY-MM-DD (day-first assumed for ambiguous dates)")
	}

	if m := slashYMDRe.FindStringSubmatch(v); m != nil {
		if iso, ok := isoFrom(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return iso, true, "Slash-separated ISO-style date normalised to YYYY-MM-DD"
		}
		return v, false, ""
	}

	if m := dashDMYRe.FindStringSubmatch(v); m != nil {
		return dayFirst(v, m, "DD-MM-YYYY", "MM-DD-YYYY", atoi(m[3]),
			"normalised to ISO YYYY-MM-DD (day-first assumed for ambiguous dates)")
	}

	if m := dashShortYearRe.FindStringSubmatch(v); m != nil {
		yr := atoi(m[3])
		year := 1900 + yr
		if yr < 50 {
			year = 2000 + yr
		}
		return dayFirst(v, m, "DD-MM-YY", "MM-DD-YY", year,
			"normalised to ISO YYYY-MM-DD (day-first assumed; 20xx for year < 50)")
	}

	if m := writtenMonthRe.FindStringSubmatch(v); m != nil {
		if month, ok := MonthNames[strings.ToLower(m[1])]; ok {
			if iso, ok := isoFrom(atoi(m[3]), int(month), atoi(m[2])); ok {
				return iso, true, "Written-out month name normalised to ISO YYYY-MM-DD"
			}
		}
		return v, false, ""
	}

	if unixRe.MatchString(v) {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return v, false, ""
		}
		return time.Unix(sec, 0).UTC().Format(time.DateOnly), true, "Unix timestamp (UTC) converted to YYYY-MM-DD"
	}

	if serialRe.MatchString(v) {
		if n := atoi(v); n >= excelSerialMin && n <= excelSerialMax {
			return excelEpoch.AddDate(0, 0, n).Format(time.DateOnly), true,
				"Excel serial date (Windows epoch 1899-12-30) converted to YYYY-MM-DD"
		}
	}

	return v, false, ""
}

// dayFirst tries (a, b) as (day, month) and then as (month, day).
func dayFirst(orig string, m []string, firstLabel, secondLabel string, year int, suffix string) (string, bool, string) {
	a, b := atoi(m[1]), atoi(m[2])
	if iso, ok := isoFrom(year, b, a); ok {
		return iso, true, firstLabel + " " + suffix
	}
	if iso, ok := isoFrom(year, a, b); ok {
		return iso, true, secondLabel + " " + suffix
	}
	return orig, false, ""
}

// isoFrom formats a calendar date, rejecting values time.Date would roll over.
func isoFrom(year, month, day int) (string, bool) {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// DaysBetween returns the absolute day distance between two ISO dates.
func DaysBetween(a, b string) (int, bool) {
	ta, err := time.Parse(time.DateOnly, a)
	if err != nil {
		return 0, false
	}
	tb, err := time.Parse(time.DateOnly, b)
	if err != nil {
		return 0, false
	}
	d := int(tb.Sub(ta).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
