package schedule

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity time abstraction (rosters operate on whole days)
// =============================================================================

// Date is a calendar day in UTC. All engine inputs and outputs use Date,
// never raw time.Time, so there is no hidden timezone or clock dependence.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.normalize().AddDate(0, 0, n)} }

// DaysBetween returns to − from in whole days (negative if to precedes from).
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.normalize().Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// =============================================================================
// DATE RANGE - Inclusive [Start, End] span of days
// =============================================================================

// DateRange is an inclusive span of calendar days. A single-day range has
// Start == End.
type DateRange struct {
	Start Date
	End   Date
}

// SingleDay returns a range covering exactly one day.
func SingleDay(d Date) DateRange { return DateRange{Start: d, End: d} }

// IsValid reports whether End does not precede Start.
func (r DateRange) IsValid() bool { return !r.End.Before(r.Start) }

// Contains returns true if the date falls inside the range, inclusive.
func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Overlaps reports whether the two ranges share at least one day.
// Inclusive on both ends: a.Start <= b.End && b.Start <= a.End.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(r.End)
}

// Intersect returns the overlapping span of the two ranges. The boolean is
// false when they do not overlap.
func (r DateRange) Intersect(other DateRange) (DateRange, bool) {
	if !r.Overlaps(other) {
		return DateRange{}, false
	}
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	return DateRange{Start: start, End: end}, true
}

// GapDays returns the minimum whole-day gap between two ranges: the number of
// free days strictly between them. Overlapping ranges and ranges on
// consecutive days (touching) both return 0.
func (r DateRange) GapDays(other DateRange) int {
	if r.Overlaps(other) {
		return 0
	}
	if r.End.Before(other.Start) {
		return DaysBetween(r.End, other.Start) - 1
	}
	return DaysBetween(other.End, r.Start) - 1
}

// Days returns every day in the range in ascending order.
func (r DateRange) Days() []Date {
	var days []Date
	for cur := r.Start; cur.BeforeOrEqual(r.End); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

// Length returns the number of days in the range, inclusive.
func (r DateRange) Length() int { return DaysBetween(r.Start, r.End) + 1 }

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// MONTH SET - Calendar months excluded from allocation
// =============================================================================

// MonthSet is a set of calendar months (1-12). Used for allocation freezes
// such as holiday months where no renewals may be scheduled.
type MonthSet map[time.Month]bool

// NewMonthSet builds a set from month numbers.
func NewMonthSet(months ...time.Month) MonthSet {
	ms := make(MonthSet, len(months))
	for _, m := range months {
		ms[m] = true
	}
	return ms
}

// Contains reports whether the month is in the set. A nil set contains nothing.
func (ms MonthSet) Contains(m time.Month) bool { return ms != nil && ms[m] }
