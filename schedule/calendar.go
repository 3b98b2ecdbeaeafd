/*
calendar.go - Fixed-length operating period arithmetic

PURPOSE:

	Resolves any calendar date to its operating period from one configured
	anchor: a known period identifier, its start date, and the fixed period
	length. The fleet runs thirteen 28-day periods per year; period numbers
	roll over to 1 with a year increment.

ALGORITHM:

	daysOffset    = date - anchorStart          (integer days, can be negative)
	periodsOffset = floorDiv(daysOffset, length)
	start         = anchorStart + periodsOffset * length
	number/year   = anchor number + periodsOffset, normalized into
	                [1, periodsPerYear] with year carry

	floorDiv rounds toward negative infinity so dates BEFORE the anchor resolve
	correctly. Everything is O(1) arithmetic; there is no per-day iteration.

ANCHOR:

	The anchor is explicit configuration injected at construction. There is no
	module-level anchor constant, so tests run against arbitrary synthetic
	anchors.

SEE ALSO:
  - allocator.go: Enumerates candidate periods via PeriodsInRange
  - availability.go: Period-boundary availability queries
*/
package schedule

import "fmt"

// =============================================================================
// PERIOD - One fixed-length operating window
// =============================================================================

// PeriodID identifies a period: sequence number within a year, plus year.
type PeriodID struct {
	Number int
	Year   int
}

// String renders as "2025-P03". The zero-padded number keeps lexical and
// chronological order aligned within a year.
func (id PeriodID) String() string {
	return fmt.Sprintf("%04d-P%02d", id.Year, id.Number)
}

// ParsePeriodID parses the "2025-P03" form produced by String.
func ParsePeriodID(s string) (PeriodID, error) {
	var id PeriodID
	if _, err := fmt.Sscanf(s, "%4d-P%2d", &id.Year, &id.Number); err != nil {
		return PeriodID{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
	return id, nil
}

// Period is an immutable operating window. It is a pure function of the
// anchor configuration and a date; computing it twice yields identical
// values.
type Period struct {
	ID    PeriodID
	Start Date
	End   Date

	// Publish is when the period's roster is published; Deadline is the last
	// day crew may file requests for it. Both are fixed lead offsets before
	// Start.
	Publish  Date
	Deadline Date
}

// Range returns the period's inclusive date span.
func (p Period) Range() DateRange { return DateRange{Start: p.Start, End: p.End} }

// Contains reports whether the date falls inside the period.
func (p Period) Contains(d Date) bool { return p.Range().Contains(d) }

// =============================================================================
// CALENDAR CONFIG - Explicit anchor, no global state
// =============================================================================

// CalendarConfig anchors the period grid. All fields are required;
// PeriodLengthDays and PeriodsPerYear are fixed fleet-wide (28 and 13) but
// remain injectable for synthetic test calendars.
type CalendarConfig struct {
	AnchorPeriodNumber int
	AnchorYear         int
	AnchorStart        Date

	PeriodLengthDays int
	PeriodsPerYear   int

	// Lead offsets in days before period start.
	PublishLeadDays  int
	DeadlineLeadDays int
}

// DefaultPeriodLengthDays and DefaultPeriodsPerYear are the fleet standard.
const (
	DefaultPeriodLengthDays = 28
	DefaultPeriodsPerYear   = 13

	DefaultPublishLeadDays  = 14
	DefaultDeadlineLeadDays = 21
)

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar computes periods from the configured anchor. Construct with
// NewCalendar; the zero value is not usable.
type Calendar struct {
	cfg CalendarConfig
}

// NewCalendar validates the configuration and returns a calendar.
// Configuration errors fail here, never at call time.
func NewCalendar(cfg CalendarConfig) (*Calendar, error) {
	if cfg.PeriodLengthDays <= 0 {
		return nil, &ConfigError{Field: "PeriodLengthDays", Reason: "must be positive"}
	}
	if cfg.PeriodsPerYear <= 0 {
		return nil, &ConfigError{Field: "PeriodsPerYear", Reason: "must be positive"}
	}
	if cfg.AnchorPeriodNumber < 1 || cfg.AnchorPeriodNumber > cfg.PeriodsPerYear {
		return nil, &ConfigError{Field: "AnchorPeriodNumber", Reason: "outside [1, PeriodsPerYear]"}
	}
	if cfg.AnchorStart.IsZero() {
		return nil, &ConfigError{Field: "AnchorStart", Reason: "anchor date is required"}
	}
	if cfg.PublishLeadDays < 0 {
		return nil, &ConfigError{Field: "PublishLeadDays", Reason: "must not be negative"}
	}
	if cfg.DeadlineLeadDays < 0 {
		return nil, &ConfigError{Field: "DeadlineLeadDays", Reason: "must not be negative"}
	}
	return &Calendar{cfg: cfg}, nil
}

// Config returns the calendar's configuration snapshot.
func (c *Calendar) Config() CalendarConfig { return c.cfg }

// PeriodForDate returns the period containing the given date. O(1); correct
// for dates arbitrarily far before or after the anchor.
func (c *Calendar) PeriodForDate(d Date) Period {
	daysOffset := DaysBetween(c.cfg.AnchorStart, d)
	periodsOffset := floorDiv(daysOffset, c.cfg.PeriodLengthDays)
	return c.periodAtOffset(periodsOffset)
}

// PeriodsInRange returns every period touching [start, end], in order.
// Returns ErrInvalidDateRange when end precedes start.
func (c *Calendar) PeriodsInRange(start, end Date) ([]Period, error) {
	if end.Before(start) {
		return nil, &DateRangeError{Start: start, End: end}
	}
	first := floorDiv(DaysBetween(c.cfg.AnchorStart, start), c.cfg.PeriodLengthDays)
	last := floorDiv(DaysBetween(c.cfg.AnchorStart, end), c.cfg.PeriodLengthDays)

	periods := make([]Period, 0, last-first+1)
	for off := first; off <= last; off++ {
		periods = append(periods, c.periodAtOffset(off))
	}
	return periods, nil
}

// DateRangeForPeriodID returns the start and end dates of the identified
// period. Returns ErrUnknownPeriod when the number cannot exist under this
// calendar.
func (c *Calendar) DateRangeForPeriodID(id PeriodID) (DateRange, error) {
	if id.Number < 1 || id.Number > c.cfg.PeriodsPerYear {
		return DateRange{}, ErrUnknownPeriod
	}
	// Offset of the requested period from the anchor, in periods.
	offset := (id.Year-c.cfg.AnchorYear)*c.cfg.PeriodsPerYear +
		(id.Number - c.cfg.AnchorPeriodNumber)
	p := c.periodAtOffset(offset)
	return p.Range(), nil
}

// NextPeriod returns the period immediately after the given one.
func (c *Calendar) NextPeriod(p Period) Period {
	return c.PeriodForDate(p.End.AddDays(1))
}

// periodAtOffset materializes the period periodsOffset periods after (or
// before, when negative) the anchor period.
func (c *Calendar) periodAtOffset(periodsOffset int) Period {
	start := c.cfg.AnchorStart.AddDays(periodsOffset * c.cfg.PeriodLengthDays)

	number := c.cfg.AnchorPeriodNumber + periodsOffset
	year := c.cfg.AnchorYear
	for number > c.cfg.PeriodsPerYear {
		number -= c.cfg.PeriodsPerYear
		year++
	}
	for number < 1 {
		number += c.cfg.PeriodsPerYear
		year--
	}

	return Period{
		ID:       PeriodID{Number: number, Year: year},
		Start:    start,
		End:      start.AddDays(c.cfg.PeriodLengthDays - 1),
		Publish:  start.AddDays(-c.cfg.PublishLeadDays),
		Deadline: start.AddDays(-c.cfg.DeadlineLeadDays),
	}
}

// floorDiv divides rounding toward negative infinity. Go's integer division
// truncates toward zero, which is wrong for dates before the anchor.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
