// Package calendar implements C1, the Period Calendar: mapping
// wall-clock dates to (year, period) tuples for the three supported
// periodicities and the previous-period arithmetic the forecaster and
// history store depend on (spec.md §4.1).
package calendar

import (
	"fmt"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
)

// Period is a (year, period-number) tuple under some periodicity.
type Period struct {
	Year   int
	Number int
}

// ToPeriod maps a calendar date to (year, period) for the given
// periodicity (spec.md §4.1).
func ToPeriod(t time.Time, p model.Periodicity) (Period, error) {
	switch p {
	case model.Periodicity12:
		return Period{Year: t.Year(), Number: int(t.Month())}, nil
	case model.Periodicity13:
		return toPeriod13(t), nil
	case model.Periodicity52:
		return toPeriod52(t), nil
	default:
		return Period{}, fmt.Errorf("calendar: unsupported periodicity %d", p)
	}
}

// toPeriod13 implements the thirteen 28-day periods (13 × 28 = 364
// days) scheme of spec.md §4.1: period = floor((dayOfYear-1)/28)+1,
// capped at 13; any day beyond period 13 rolls into next year's
// period 1 (the 365/366-day year leaves a short final period that we
// fold forward rather than emit period 14).
func toPeriod13(t time.Time) Period {
	dayOfYear := t.YearDay()
	period := (dayOfYear-1)/28 + 1
	if period > 13 {
		return Period{Year: t.Year() + 1, Number: 1}
	}
	return Period{Year: t.Year(), Number: period}
}

// toPeriod52 implements ISO week numbering with the year-boundary
// adjustment of spec.md §4.1: a January date reporting ISO week > 50
// actually belongs to the prior year, and a December date reporting
// ISO week 1 belongs to the next year.
func toPeriod52(t time.Time) Period {
	isoYear, isoWeek := t.ISOWeek()
	month := t.Month()

	year := isoYear
	if month == time.January && isoWeek > 50 {
		year = t.Year() - 1
	} else if month == time.December && isoWeek == 1 {
		year = t.Year() + 1
	}

	if isoWeek > 52 {
		isoWeek = 52
	}

	return Period{Year: year, Number: isoWeek}
}

// Previous returns the period immediately before p under periodicity
// per, wrapping from period 1 back to per of the prior year (spec.md
// §4.1 "Previous-period arithmetic wraps at 1 back to p of the prior
// year").
func Previous(p Period, per model.Periodicity) Period {
	if p.Number > 1 {
		return Period{Year: p.Year, Number: p.Number - 1}
	}
	return Period{Year: p.Year - 1, Number: int(per)}
}

// Sequence returns the n periods ending at (and including) p, oldest
// first, under periodicity per. Used to build lookback windows for
// history reads (spec.md §4.2).
func Sequence(p Period, per model.Periodicity, n int) []Period {
	if n <= 0 {
		return nil
	}
	out := make([]Period, n)
	cur := p
	for i := n - 1; i >= 0; i-- {
		out[i] = cur
		cur = Previous(cur, per)
	}
	return out
}

// Before reports whether a strictly precedes b, assuming both are
// expressed under the same periodicity.
func Before(a, b Period) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Number < b.Number
}
