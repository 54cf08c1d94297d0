package core

import "time"

// Period is one calendar month, the unit every summary is computed over. It
// covers the half-open interval [Start, Next().Start): with date-granularity
// values that is exactly the inclusive range [Start, End].
type Period struct {
	Month int // 1-12
	Year  int
}

// NewPeriod validates the month range and builds a period. The year may be
// any integer, including years before any data exists.
func NewPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, ErrInvalidMonth
	}
	return Period{Month: month, Year: year}, nil
}

// PeriodOf returns the period containing the given instant.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Start returns the first day of the month.
func (p Period) Start() Date {
	return NewDate(p.Year, p.Month, 1)
}

// End returns the last day of the month.
func (p Period) End() Date {
	return p.Next().Start().AddDays(-1)
}

// Next returns the following month, rolling December into January.
func (p Period) Next() Period {
	return p.AddMonths(1)
}

// AddMonths shifts the period by n calendar months in either direction.
// time.Date normalizes out-of-range months, so year boundaries roll correctly.
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, time.Month(p.Month+n), 1, 0, 0, 0, 0, time.UTC)
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Contains reports whether the date falls inside the month.
func (p Period) Contains(d Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}
