package calendar

import (
	"testing"
	"time"

	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestToPeriod_Periodicity12(t *testing.T) {
	p, err := ToPeriod(date(2026, time.March, 15), model.Periodicity12)
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2026, Number: 3}, p)
}

func TestToPeriod_Periodicity13(t *testing.T) {
	p, err := ToPeriod(date(2026, time.January, 1), model.Periodicity13)
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2026, Number: 1}, p)

	p, err = ToPeriod(date(2026, time.January, 28), model.Periodicity13)
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2026, Number: 1}, p)

	p, err = ToPeriod(date(2026, time.January, 29), model.Periodicity13)
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2026, Number: 2}, p)

	// Day 365/366 rolls into next year's period 1.
	p, err = ToPeriod(date(2026, time.December, 31), model.Periodicity13)
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2027, Number: 1}, p)
}

func TestToPeriod_Periodicity52_YearBoundary(t *testing.T) {
	// Jan 1 2027 is ISO week 53 of 2026 in some calendars; verify the
	// January-with-high-week-number rolls to the prior year.
	p, err := ToPeriod(date(2027, time.January, 1), model.Periodicity52)
	require.NoError(t, err)
	_, isoWeek := date(2027, time.January, 1).ISOWeek()
	if isoWeek > 50 {
		assert.Equal(t, 2026, p.Year)
	}

	// A December date reporting ISO week 1 rolls forward a year.
	dec := date(2018, time.December, 31) // ISO week 1 of 2019
	p, err = ToPeriod(dec, model.Periodicity52)
	require.NoError(t, err)
	_, week := dec.ISOWeek()
	if week == 1 {
		assert.Equal(t, 2019, p.Year)
	}
}

func TestPrevious_WrapsToPriorYear(t *testing.T) {
	assert.Equal(t, Period{Year: 2025, Number: 13}, Previous(Period{Year: 2026, Number: 1}, model.Periodicity13))
	assert.Equal(t, Period{Year: 2026, Number: 2}, Previous(Period{Year: 2026, Number: 3}, model.Periodicity13))
}

func TestSequence_OldestFirst(t *testing.T) {
	seq := Sequence(Period{Year: 2026, Number: 3}, model.Periodicity12, 4)
	require.Len(t, seq, 4)
	assert.Equal(t, []Period{
		{Year: 2025, Number: 12},
		{Year: 2026, Number: 1},
		{Year: 2026, Number: 2},
		{Year: 2026, Number: 3},
	}, seq)
}

func TestBefore(t *testing.T) {
	assert.True(t, Before(Period{Year: 2025, Number: 12}, Period{Year: 2026, Number: 1}))
	assert.False(t, Before(Period{Year: 2026, Number: 1}, Period{Year: 2025, Number: 12}))
}
