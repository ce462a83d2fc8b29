package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/model"
)

func TestCleanCell(t *testing.T) {
	got, reasons := CleanCell("\ufeffhello\r\nworld ")
	assert.Equal(t, "hello world", got)
	assert.Equal(t, []string{"BOM byte-order mark stripped", "Embedded line break replaced with space"}, reasons)

	got, reasons = CleanCell("\u201cquoted\u201d it\u2019s\x00")
	assert.Equal(t, `"quoted" it's`, got)
	assert.Equal(t, []string{"Null byte removed", "Smart/curly quotes normalised to straight quotes"}, reasons)

	got, reasons = CleanCell("  plain  ")
	assert.Equal(t, "plain", got)
	assert.Empty(t, reasons)
}

func TestCleanRow(t *testing.T) {
	row, changes := CleanRow([]string{"\ufeffAlice", "ok", "a\nb"}, 4, func(i int) string {
		return model.ColumnLabel([]string{"name", "status"}, i)
	})
	assert.Equal(t, []string{"Alice", "ok", "a b"}, row)
	require.Len(t, changes, 2)
	assert.Equal(t, model.Change{
		Row: 4, Column: "name", OldValue: "[BOM]Alice", NewValue: "Alice",
		Action: model.ActionFixed, Reason: "BOM byte-order mark stripped",
	}, changes[0])
	assert.Equal(t, "[col 3]", changes[1].Column)
}

func TestDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"15/03/2023", "2023-03-15", true},
		{"03/15/2023", "2023-03-15", true},
		{"2023-01-18T00:00:00Z", "2023-01-18", true},
		{"2023/1/5", "2023-01-05", true},
		{"15-03-2023", "2023-03-15", true},
		{"05-01-23", "2023-01-05", true},
		{"05-01-87", "1987-01-05", true},
		{"January 15 2023", "2023-01-15", true},
		{"sept 15 2023", "sept 15 2023", false},
		{"1674000000", "2023-01-18", true},
		{"44944", "2023-01-18", true},
		{"44965", "2023-02-08", true},
		{"39999", "39999", false},
		{"31/31/2023", "31/31/2023", false},
		{"2023-03-15", "2023-03-15", false},
		{"", "", false},
		{"next tuesday", "next tuesday", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed, _ := Date(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestDate_Reasons(t *testing.T) {
	_, _, reason := Date("03/15/2023")
	assert.Equal(t, "MM/DD/YYYY normalised to ISO YYYY-MM-DD (day-first assumed for ambiguous dates)", reason)

	_, _, reason = Date("01/02/2023")
	assert.Contains(t, reason, "DD/MM/YYYY")

	_, _, reason = Date("44944")
	assert.Equal(t, "Excel serial date (Windows epoch 1899-12-30) converted to YYYY-MM-DD", reason)
}

func TestAmount(t *testing.T) {
	tests := []struct {
		in, want, reason string
		changed          bool
	}{
		{"(500)", "-500.00", "Amount normalised to 2 decimal places", true},
		{"-500.00", "-500.00", "Amount normalised to 2 decimal places", false},
		{"1.200,00", "1200.00", "European decimal format (1.200,00) converted", true},
		{"1,200.50", "1200.50", "US thousands separator removed", true},
		{"1.234.567,89", "1234567.89", "European decimal format (1.200,00) converted", true},
		{"1,234,567.89", "1234567.89", "US thousands separator removed", true},
		{"1,234.567,89", "1,234.567,89", "", false},
		{"12,50", "12.50", "Comma decimal separator converted to period", true},
		{"1,200", "1200.00", "Thousands-separator comma removed", true},
		{"$1,200 USD", "1200.00", "Thousands-separator comma removed", true},
		{"\u20ac 45", "45.00", "Amount normalised to 2 decimal places", true},
		{"N/A", "", "Non-numeric placeholder left blank (N/A / TBD)", true},
		{"abc", "abc", "", false},
		{"0x1F", "0x1F", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed, reason := Amount(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestParseAmountLike(t *testing.T) {
	v, ok := ParseAmountLike("$1,234.50")
	require.True(t, ok)
	assert.InDelta(t, 1234.5, v, 1e-9)

	_, ok = ParseAmountLike("  ")
	assert.False(t, ok)
	_, ok = ParseAmountLike("tbd")
	assert.False(t, ok)
	_, ok = ParseAmountLike("inf")
	assert.False(t, ok)
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		in, want string
		changed  bool
	}{
		{"$", "USD", true},
		{"euro", "EUR", true},
		{"Sterling", "GBP", true},
		{"usd", "USD", true},
		{"USD", "USD", false},
		{"\u20b9", "INR", true},
		{"chf", "CHF", true},
		{"Bitcoin", "Bitcoin", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, changed, _ := Currency(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestExtractCurrency(t *testing.T) {
	amount, code := ExtractCurrency("$1,200")
	assert.Equal(t, "1,200", amount)
	assert.Equal(t, "USD", code)

	amount, code = ExtractCurrency("1200 eur")
	assert.Equal(t, "1200", amount)
	assert.Equal(t, "EUR", code)

	amount, code = ExtractCurrency("USD")
	assert.Empty(t, amount)
	assert.Equal(t, "USD", code)

	amount, code = ExtractCurrency("hello")
	assert.Empty(t, amount)
	assert.Empty(t, code)
}

func TestName(t *testing.T) {
	got, changed, reason := Name("  smith,  john ")
	assert.Equal(t, "John Smith", got)
	assert.True(t, changed)
	assert.Equal(t, "Name normalised: extra whitespace collapsed; Last, First \u2192 First Last", reason)

	got, changed, reason = Name("john o'NEIL")
	assert.Equal(t, "John O'Neil", got)
	assert.True(t, changed)
	assert.Equal(t, "Name normalised: name title-cased", reason)

	got, changed, _ = Name("John Smith")
	assert.Equal(t, "John Smith", got)
	assert.False(t, changed)

	got, changed, _ = Name("Doe, John, Jr")
	assert.Equal(t, "Doe, John, Jr", got)
	assert.False(t, changed)

	got, changed, reason = Name("Smith,  Anna , Marie")
	assert.Equal(t, "Smith, Anna , Marie", got)
	assert.True(t, changed)
	assert.Equal(t, "Name normalised: extra whitespace collapsed", reason)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Mcdonald-Smith 3Rd", TitleCase("mcDONALD-smith 3rd"))
	assert.Equal(t, "\u00c9lodie", TitleCase("\u00e9LODIE"))
}

func TestStatus(t *testing.T) {
	got, changed, reason := Status("APPROVE")
	assert.Equal(t, "Approved", got)
	assert.True(t, changed)
	assert.Equal(t, "Status 'APPROVE' standardised to canonical form", reason)

	got, changed, _ = Status("pending review")
	assert.Equal(t, "Pending", got)
	assert.True(t, changed)

	got, changed, _ = Status("on hold")
	assert.Equal(t, "On Hold", got)
	assert.True(t, changed)

	_, changed, _ = Status("Rejected")
	assert.False(t, changed)
}

func TestNormalizersAreIdempotent(t *testing.T) {
	funcs := map[string]Func{
		"date": Date, "amount": Amount, "currency": Currency,
		"name": Name, "status": Status, "department": Department, "category": Category,
	}
	inputs := []string{
		"(500)", "1.200,00", "$1,200 USD", "15/03/2023", "44944", "1674000000",
		"January 15 2023", "smith, john", "Doe, John, Jr", "Smith,  Anna , Marie", ", john", "  pending review ", "usd", "\u20ac", "n/a", "hello world", "",
	}
	for name, fn := range funcs {
		for _, in := range inputs {
			once, _, _ := fn(in)
			twice, changed, _ := fn(once)
			assert.Equal(t, once, twice, "%s(%q)", name, in)
			assert.False(t, changed, "%s(%q) changed on second pass", name, in)
		}
	}
}

func TestSplitAmountCurrency(t *testing.T) {
	headers := []string{"amt", "cur"}

	row, changes := SplitAmountCurrency([]string{"$1,200", ""}, 3, headers, 0, 1)
	assert.Equal(t, []string{"1,200", "USD"}, row)
	require.Len(t, changes, 2)
	assert.Equal(t, "Currency recovered from amount-like field", changes[1].Reason)

	row, changes = SplitAmountCurrency([]string{"", "500 EUR"}, 3, headers, 0, 1)
	assert.Equal(t, []string{"500", "EUR"}, row)
	require.Len(t, changes, 2)
	assert.Equal(t, "Amount recovered from currency-like field", changes[0].Reason)

	row, changes = SplitAmountCurrency([]string{"10", "GBP"}, 3, headers, 0, 1)
	assert.Equal(t, []string{"10", "GBP"}, row)
	assert.Empty(t, changes)

	in := []string{"$5", ""}
	_, changes = SplitAmountCurrency(in, 3, headers, -1, 1)
	assert.Empty(t, changes)
	assert.Equal(t, "$5", in[0])
}

func TestApplySchema(t *testing.T) {
	row := []string{"smith, john", "  finance  ", "15/03/2023", "$1,200", "", "travel", "approve", "note"}
	got, changes := ApplySchema(row, 7)

	assert.Equal(t, []string{"John Smith", "Finance", "2023-03-15", "1200.00", "USD", "Travel", "Approved", "note"}, got)
	assert.Len(t, changes, 8)
	for _, c := range changes {
		assert.Equal(t, 7, c.Row)
		assert.Equal(t, model.ActionFixed, c.Action)
	}
	assert.Equal(t, "$1,200", row[3], "input row must not be mutated")
}

func TestApplyRoles(t *testing.T) {
	headers := []string{"id", "who", "when", "dept", "weight", "memo"}
	roles := map[int]model.Role{
		0: model.RoleIdentifier,
		1: model.RoleName,
		2: model.RoleDate,
		3: model.RoleCategory,
		4: model.RoleMeasurement,
		5: model.RoleNotes,
	}
	row := []string{" AB  12 ", "doe, jane", "2023/1/5", "field   ops", "12  kg", "  keep  "}
	got, changes := ApplyRoles(row, 2, headers, roles, -1, -1)

	assert.Equal(t, []string{"AB 12", "Jane Doe", "2023-01-05", "Field Ops", "12 kg", "  keep  "}, got)
	require.Len(t, changes, 5)
	assert.Equal(t, "id", changes[0].Column)
	assert.Equal(t, "Identifier spacing normalised", changes[0].Reason)
	assert.Equal(t, "Category title-cased", changes[3].Reason)
	assert.Equal(t, "Measurement text spacing normalised", changes[4].Reason)
}

func TestNeedsReview(t *testing.T) {
	schemaRow := []string{"A", "B", "2023-01-01", "10.00", "USD", "C", "Approved", ""}
	assert.False(t, NeedsReviewSchema(schemaRow, model.ColAmount, model.ColDate, false))
	assert.True(t, NeedsReviewSchema(schemaRow, model.ColAmount, model.ColDate, true))

	blankAmount := append([]string(nil), schemaRow...)
	blankAmount[model.ColAmount] = ""
	assert.True(t, NeedsReviewSchema(blankAmount, model.ColAmount, model.ColDate, false))

	badDate := append([]string(nil), schemaRow...)
	badDate[model.ColDate] = "someday"
	assert.True(t, NeedsReviewSchema(badDate, model.ColAmount, model.ColDate, false))

	assert.True(t, NeedsReviewSemantic([]string{"x", "  "}, false, 1, -1))
	assert.True(t, NeedsReviewSemantic([]string{"x", "5", "soon"}, false, 1, 2))
	assert.False(t, NeedsReviewSemantic([]string{"x", "5", "2023-02-02"}, false, 1, 2))
	assert.True(t, NeedsReviewSemantic([]string{"x", "5", "N/A"}, false, 1, -1))

	assert.True(t, NeedsReviewGeneric([]string{"a", "NaN"}, false))
	assert.True(t, NeedsReviewGeneric([]string{"a"}, true))
	assert.False(t, NeedsReviewGeneric([]string{"a", ""}, false))
}

func TestDaysBetween(t *testing.T) {
	d, ok := DaysBetween("2023-01-03", "2023-01-01")
	require.True(t, ok)
	assert.Equal(t, 2, d)

	_, ok = DaysBetween("2023-01-03", "nope")
	assert.False(t, ok)
}
