package loader

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Limits are the size and row guardrails applied to every load. Crossing a
// warning threshold adds a warning; crossing a degraded threshold marks the
// result degraded so expensive post-passes are skipped; crossing a hard
// limit aborts with KindTooLarge.
type Limits struct {
	WarningBytes  int64
	DegradedBytes int64
	HardBytes     int64
	WarningRows   int
	DegradedRows  int
	HardRows      int
}

// DefaultLimits returns the stock guardrails.
func DefaultLimits() Limits {
	return Limits{
		WarningBytes:  50 << 20,
		DegradedBytes: 100 << 20,
		HardBytes:     512 << 20,
		WarningRows:   100_000,
		DegradedRows:  250_000,
		HardRows:      2_000_000,
	}
}

func (l Limits) orDefault() Limits {
	if l == (Limits{}) {
		return DefaultLimits()
	}
	return l
}

// guard accumulates guardrail findings for one load.
type guard struct {
	limits   Limits
	warnings []string
	reasons  []string
}

func (g *guard) bytes(size int64) error {
	human := humanize.IBytes(uint64(max(size, 0)))
	if g.limits.HardBytes > 0 && size > g.limits.HardBytes {
		return Errorf(KindTooLarge, "file is %s (limit %s); too large for safe in-memory processing",
			human, humanize.IBytes(uint64(g.limits.HardBytes)))
	}
	if g.limits.WarningBytes > 0 && size >= g.limits.WarningBytes {
		g.warnings = append(g.warnings, fmt.Sprintf("Large file size (%s)", human))
	}
	if g.limits.DegradedBytes > 0 && size >= g.limits.DegradedBytes {
		g.reasons = append(g.reasons, fmt.Sprintf("Large file size (%s)", human))
	}
	return nil
}

func (g *guard) rows(n int) error {
	count := humanize.Comma(int64(n))
	if g.limits.HardRows > 0 && n > g.limits.HardRows {
		return Errorf(KindTooLarge, "%s rows (limit %s); too large for safe in-memory processing",
			count, humanize.Comma(int64(g.limits.HardRows)))
	}
	if g.limits.WarningRows > 0 && n >= g.limits.WarningRows {
		g.warnings = append(g.warnings, fmt.Sprintf("Large row count (%s rows)", count))
	}
	if g.limits.DegradedRows > 0 && n >= g.limits.DegradedRows {
		g.reasons = append(g.reasons, fmt.Sprintf("Large row count (%s rows)", count))
	}
	return nil
}

// finish stamps warnings and degraded state onto res.
func (g *guard) finish(res *Result) {
	res.Warnings = append(g.warnings, res.Warnings...)
	if len(g.reasons) > 0 {
		res.Degraded = true
		res.DegradedReasons = g.reasons
		res.Warnings = append(res.Warnings, "Degraded mode active: "+strings.Join(g.reasons, ", ")+"; forward-fill and near-duplicate passes are skipped")
	}
}
