package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aferrand/housetab/internal/models"
)

// Range is an inclusive expense-date range. Bounds are compared at day
// granularity.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls inside the range.
func (r Range) Contains(day time.Time) bool {
	d := dateOnly(day)
	return !d.Before(dateOnly(r.Start)) && !d.After(dateOnly(r.End))
}

// Label formats the range's month for display, e.g. "February 2026".
func (r Range) Label() string {
	return r.Start.Format("January 2006")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of the month offset months away from the
// reference date's month. The month index is computed modulo 12 with
// explicit year carry, so offsets roll cleanly over year boundaries.
func MonthStart(reference time.Time, offset int) time.Time {
	index := reference.Year()*12 + int(reference.Month()) - 1 + offset
	year, month := index/12, index%12
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of the month containing start.
func MonthEnd(start time.Time) time.Time {
	return MonthStart(start, 1).AddDate(0, 0, -1)
}

// CurrentMonthRange is [first of the month, today].
func CurrentMonthRange(today time.Time) Range {
	return Range{Start: MonthStart(today, 0), End: dateOnly(today)}
}

// PreviousMonthRange is the full prior calendar month.
func PreviousMonthRange(today time.Time) Range {
	start := MonthStart(today, -1)
	return Range{Start: start, End: MonthEnd(start)}
}

// TrailingMonthRanges returns the last months calendar months ending with
// the current one, oldest first. Past months span their full first..last
// day; the current month is capped at today.
func TrailingMonthRanges(today time.Time, months int) []Range {
	ranges := make([]Range, 0, months)
	for offset := -(months - 1); offset <= 0; offset++ {
		start := MonthStart(today, offset)
		end := MonthEnd(start)
		if offset == 0 {
			end = dateOnly(today)
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// Summary is a per-month spend rollup consumed by the dashboard and the
// trend view.
type Summary struct {
	Label        string
	Range        Range
	Totals       map[models.MemberCode]decimal.Decimal
	Combined     decimal.Decimal
	ReceiptCount int
}

// FilterRange returns the receipts whose expense date falls inside r.
func FilterRange(receipts []models.Receipt, r Range) []models.Receipt {
	var filtered []models.Receipt
	for _, receipt := range receipts {
		if r.Contains(receipt.ExpenseDate) {
			filtered = append(filtered, receipt)
		}
	}
	return filtered
}

// Summarize filters receipts to the range and rolls them up into a month
// summary: per-member spend, combined spend, and receipt count.
func Summarize(receipts []models.Receipt, r Range) Summary {
	inRange := FilterRange(receipts, r)
	totals := SumByMember(inRange)
	return Summary{
		Label:        r.Label(),
		Range:        r,
		Totals:       totals,
		Combined:     totals[models.MemberOne].Add(totals[models.MemberTwo]),
		ReceiptCount: len(inRange),
	}
}
