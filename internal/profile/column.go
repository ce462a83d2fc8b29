package profile

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/sheet-doctor/internal/model"
)

// Suspected issue texts.
const (
	IssueMixedDates      = "Mixed date formats detected"
	IssueCapitalisation  = "Inconsistent capitalisation"
	IssueNearDuplicates  = "Possible duplicates with slight differences"
	IssueAllSame         = "Values suspiciously all the same"
	IssueOutliers        = "Outliers detected (values outside 3 standard deviations)"
	IssuePII             = "Possible PII detected (emails/phones/names)"
	issueWhitespaceFmt   = "Trailing/leading whitespace in %s%% of values"
	mostCommonLimit      = 5
	sampleLimit          = 3
	outlierMinimumValues = 5
)

var (
	letterTokenRe = regexp.MustCompile(`[A-Za-z]+`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValueCount is one entry of a most-common-values list.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Column is the read-only profile of one column.
type Column struct {
	Header           string                       `json:"header"`
	DetectedType     model.AtomicType             `json:"detected_type"`
	TypeScores       map[model.AtomicType]float64 `json:"type_scores"`
	NullCount        int                          `json:"null_count"`
	NullPercentage   float64                      `json:"null_percentage"`
	UniqueCount      int                          `json:"unique_count"`
	UniquePercentage float64                      `json:"unique_percentage"`
	MostCommonValues []ValueCount                 `json:"most_common_values"`
	// MinValue and MaxValue are float64 for numeric columns and ISO date
	// strings for date columns.
	MinValue        any      `json:"min_value"`
	MaxValue        any      `json:"max_value"`
	SampleValues    []string `json:"sample_values"`
	HasMixedTypes   bool     `json:"has_mixed_types"`
	SuspectedIssues []string `json:"suspected_issues"`
}

// AnalyseColumn profiles the raw cell values of one column.
func AnalyseColumn(header string, values []string) Column {
	col := Column{
		Header:           header,
		TypeScores:       map[model.AtomicType]float64{},
		MostCommonValues: []ValueCount{},
		SampleValues:     []string{},
		SuspectedIssues:  []string{},
	}

	var raw, texts, labels []string
	var atomic []model.AtomicType
	var numbers []float64
	var dates []time.Time
	counts := map[model.AtomicType]int{}
	for _, v := range values {
		v = strings.ReplaceAll(v, "\x00", "")
		if IsNull(v) {
			continue
		}
		raw = append(raw, v)
		texts = append(texts, strings.TrimSpace(v))

		kind := DetectType(v)
		atomic = append(atomic, kind)
		counts[kind]++

		if t, label, ok := ParseDate(v); ok {
			dates = append(dates, t)
			labels = append(labels, label)
		}
		if n, ok := ParsePercentage(v); ok {
			numbers = append(numbers, n)
		} else if n, ok := ParseNumber(v); ok {
			numbers = append(numbers, n)
		}
	}

	total := len(values)
	nonNull := len(texts)
	col.NullCount = total - nonNull
	if total > 0 {
		col.NullPercentage = round(float64(col.NullCount)/float64(total)*100, 2)
	}

	col.DetectedType = inferColumnType(header, counts, texts)

	common := mostCommon(texts)
	col.UniqueCount = len(common)
	if nonNull > 0 {
		col.UniquePercentage = round(float64(col.UniqueCount)/float64(nonNull)*100, 2)
		for _, kind := range model.AtomicTypes {
			if counts[kind] > 0 {
				col.TypeScores[kind] = round(float64(counts[kind])/float64(nonNull)*100, 2)
			}
		}
	}
	if len(common) > mostCommonLimit {
		common = common[:mostCommonLimit]
	}
	col.MostCommonValues = append(col.MostCommonValues, common...)

	material := 0
	floor := max(2, int(math.Ceil(float64(nonNull)*0.2)))
	for kind, n := range counts {
		if kind != model.TypeUnknown && n >= floor {
			material++
		}
	}
	col.HasMixedTypes = material > 1

	switch col.DetectedType {
	case model.TypeAmount, model.TypeNumber, model.TypePercentage:
		if len(numbers) > 0 {
			lo, hi := numbers[0], numbers[0]
			for _, n := range numbers[1:] {
				lo, hi = math.Min(lo, n), math.Max(hi, n)
			}
			col.MinValue, col.MaxValue = lo, hi
		}
	case model.TypeDate:
		if len(dates) > 0 {
			lo, hi := dates[0], dates[0]
			for _, d := range dates[1:] {
				if d.Before(lo) {
					lo = d
				}
				if d.After(hi) {
					hi = d
				}
			}
			col.MinValue, col.MaxValue = lo.Format(time.DateOnly), hi.Format(time.DateOnly)
		}
	}

	col.SampleValues = append(col.SampleValues, samples(texts, sampleLimit)...)
	col.SuspectedIssues = append(col.SuspectedIssues,
		suspectedIssues(col.DetectedType, raw, texts, atomic, labels, numbers)...)
	return col
}

// headerHints maps header substrings to the type they suggest, first match
// wins.
var headerHints = []struct {
	needle string
	kind   model.AtomicType
}{
	{"date", model.TypeDate},
	{"amount", model.TypeAmount},
	{"price", model.TypeAmount},
	{"cost", model.TypeAmount},
	{"currency", model.TypeCurrency},
	{"email", model.TypeEmail},
	{"phone", model.TypePhone},
	{"mobile", model.TypePhone},
	{"url", model.TypeURL},
	{"website", model.TypeURL},
	{"country", model.TypeCountry},
	{"nation", model.TypeCountry},
	{"name", model.TypeName},
	{"notes", model.TypeFreeText},
	{"comment", model.TypeFreeText},
	{"description", model.TypeFreeText},
	{"message", model.TypeFreeText},
	{"status", model.TypeCategorical},
	{"type", model.TypeCategorical},
	{"category", model.TypeCategorical},
	{"id", model.TypeID},
	{"code", model.TypeID},
	{"percent", model.TypePercentage},
	{"ratio", model.TypePercentage},
	{"flag", model.TypeBoolean},
	{"is_", model.TypeBoolean},
	{"has_", model.TypeBoolean},
}

// HeaderHint returns the type suggested by the header text.
func HeaderHint(header string) (model.AtomicType, bool) {
	lowered := strings.ToLower(strings.TrimSpace(header))
	for _, h := range headerHints {
		if strings.Contains(lowered, h.needle) {
			return h.kind, true
		}
	}
	return "", false
}

func inferColumnType(header string, counts map[model.AtomicType]int, texts []string) model.AtomicType {
	n := len(texts)
	if n == 0 {
		return model.TypeUnknown
	}
	score := func(k model.AtomicType) float64 { return float64(counts[k]) / float64(n) }

	unique := map[string]bool{}
	totalLen := 0
	for _, t := range texts {
		unique[t] = true
		totalLen += len([]rune(t))
	}
	uniqueCount := len(unique)
	avgLen := float64(totalLen) / float64(n)

	if hint, ok := HeaderHint(header); ok {
		switch {
		case hint == model.TypeFreeText && (avgLen >= 20 || score(model.TypeFreeText) >= 0.35):
			return model.TypeFreeText
		case hint == model.TypeAmount && score(model.TypeAmount)+score(model.TypeNumber) >= 0.6:
			return model.TypeAmount
		case hint == model.TypeCurrency && score(model.TypeCurrency) >= 0.45:
			return model.TypeCurrency
		case hint == model.TypeDate && score(model.TypeDate) >= 0.35:
			return model.TypeDate
		case hint == model.TypeName && score(model.TypeName) >= 0.35:
			return model.TypeName
		case hint == model.TypePercentage && score(model.TypePercentage)+score(model.TypeNumber) >= 0.6:
			return model.TypePercentage
		case hint == model.TypeCategorical && uniqueCount <= max(16, int(float64(n)*0.4)):
			return model.TypeCategorical
		case hint == model.TypeBoolean && score(model.TypeBoolean) >= 0.5:
			return model.TypeBoolean
		case hint == model.TypeID && score(model.TypeID) >= 0.35:
			return model.TypeID
		}
	}

	switch {
	case score(model.TypeBoolean) >= 0.8 && uniqueCount <= 6:
		return model.TypeBoolean
	case score(model.TypeEmail) >= 0.6:
		return model.TypeEmail
	case score(model.TypePhone) >= 0.6:
		return model.TypePhone
	case score(model.TypeURL) >= 0.6:
		return model.TypeURL
	case score(model.TypeCurrency) >= 0.7:
		return model.TypeCurrency
	case score(model.TypeCountry) >= 0.7:
		return model.TypeCountry
	case score(model.TypePercentage) >= 0.7:
		return model.TypePercentage
	case score(model.TypeAmount) >= 0.55:
		return model.TypeAmount
	case score(model.TypeDate) >= 0.55:
		return model.TypeDate
	case score(model.TypeNumber) >= 0.75:
		return model.TypeNumber
	case score(model.TypeID) >= 0.55 && float64(uniqueCount)/float64(n) >= 0.6:
		return model.TypeID
	case score(model.TypeName) >= 0.55:
		return model.TypeName
	case uniqueCount <= max(12, int(float64(n)*0.2)) && avgLen <= 24:
		return model.TypeCategorical
	case avgLen >= 35 || score(model.TypeFreeText) >= 0.55:
		return model.TypeFreeText
	}
	return model.TypeUnknown
}

func suspectedIssues(detected model.AtomicType, raw, texts []string, atomic []model.AtomicType, labels []string, numbers []float64) []string {
	n := len(texts)
	if n == 0 {
		return nil
	}
	var issues []string

	distinctLabels := map[string]bool{}
	for _, l := range labels {
		if l != "" {
			distinctLabels[l] = true
		}
	}
	if len(distinctLabels) > 1 {
		issues = append(issues, IssueMixedDates)
	}

	padded := 0
	for _, v := range raw {
		if v != strings.TrimSpace(v) {
			padded++
		}
	}
	if padded > 0 {
		pct := round(float64(padded)/float64(n)*100, 1)
		issues = append(issues, fmt.Sprintf(issueWhitespaceFmt, pyFloat(pct)))
	}

	if inconsistentCase(texts) {
		issues = append(issues, IssueCapitalisation)
	}

	canonical := map[string]map[string]bool{}
	nearDup := false
	for _, t := range texts {
		key := nonAlnumRe.ReplaceAllString(strings.ToLower(t), "")
		if key == "" {
			continue
		}
		if canonical[key] == nil {
			canonical[key] = map[string]bool{}
		}
		canonical[key][t] = true
		if len(canonical[key]) > 1 {
			nearDup = true
		}
	}
	if nearDup {
		issues = append(issues, IssueNearDuplicates)
	}

	folded := map[string]int{}
	top := 0
	for _, t := range texts {
		k := strings.ToLower(t)
		folded[k]++
		top = max(top, folded[k])
	}
	if float64(top)/float64(n) >= 0.9 {
		issues = append(issues, IssueAllSame)
	}

	if len(numbers) >= outlierMinimumValues {
		mean, std := stat.PopMeanStdDev(numbers, nil)
		if std > 0 {
			for _, v := range numbers {
				if math.Abs(v-mean) > 3*std {
					issues = append(issues, IssueOutliers)
					break
				}
			}
		}
	}

	pii := 0
	for _, k := range atomic {
		if isPII(k) {
			pii++
		}
	}
	if isPII(detected) || float64(pii)/float64(n) >= 0.4 {
		issues = append(issues, IssuePII)
	}
	return issues
}

func isPII(k model.AtomicType) bool {
	return k == model.TypeEmail || k == model.TypePhone || k == model.TypeName
}

// inconsistentCase reports case-only variants of the same value, or more
// than one capitalisation style each used at least twice.
func inconsistentCase(texts []string) bool {
	variants := map[string]map[string]bool{}
	for _, t := range texts {
		k := strings.ToLower(t)
		if variants[k] == nil {
			variants[k] = map[string]bool{}
		}
		variants[k][t] = true
		if len(variants[k]) > 1 {
			return true
		}
	}

	styles := map[string]int{}
	for _, t := range texts {
		if letterTokenRe.MatchString(t) {
			styles[capitalisation(t)]++
		}
	}
	frequent := 0
	for _, c := range styles {
		if c >= 2 {
			frequent++
		}
	}
	return frequent > 1
}

func capitalisation(value string) string {
	tokens := letterTokenRe.FindAllString(value, -1)
	if len(tokens) == 0 {
		return "other"
	}
	upper, lower, title := true, true, true
	for _, tok := range tokens {
		upper = upper && isUpperWord(tok)
		lower = lower && isLowerWord(tok)
		if len(tok) > 1 {
			title = title && isUpperWord(tok[:1]) && isLowerWord(tok[1:])
		}
	}
	switch {
	case upper:
		return "upper"
	case lower:
		return "lower"
	case title:
		return "title"
	}
	return "mixed"
}

// mostCommon counts values, ordering by count then first appearance.
func mostCommon(texts []string) []ValueCount {
	index := map[string]int{}
	var out []ValueCount
	for _, t := range texts {
		if i, ok := index[t]; ok {
			out[i].Count++
			continue
		}
		index[t] = len(out)
		out = append(out, ValueCount{Value: t, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// samples returns the first n distinct values in order of appearance.
func samples(texts []string, n int) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range texts {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == n {
			break
		}
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// pyFloat formats a rounded percentage the way report readers expect: at
// least one decimal place.
func pyFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
