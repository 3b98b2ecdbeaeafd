/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:

	All error types in one place for consistency and discoverability.
	The taxonomy follows three tiers:

	1. Configuration errors - fatal, raised at construction, never at call time
	2. Invalid input - rejected per call/per item without aborting a batch
	3. Expected outcomes - conflicts, minimum-crew violations, and unassignable
	   renewals are DATA in results, never errors

USAGE:

	Callers branch with errors.Is / errors.As:

	  if errors.Is(err, schedule.ErrInvalidDateRange) { ... }

	  var cfgErr *schedule.ConfigError
	  if errors.As(err, &cfgErr) { log.Fatal(cfgErr) }

SEE ALSO:
  - calendar.go: Construction-time configuration validation
  - allocator.go: Per-item invalid input isolation
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfig is returned at construction for malformed engine
	// configuration: non-positive period length or periods-per-year, a
	// malformed anchor, inverted conflict thresholds, negative weights.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrInvalidDateRange is returned when a date range ends before it starts.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrUnknownPeriod is returned when a period identifier cannot exist
	// under the configured calendar (number outside [1, periods-per-year]).
	ErrUnknownPeriod = errors.New("unknown period identifier")

	// ErrUnknownRank is returned when a rank outside the closed set reaches
	// a query-shaped function.
	ErrUnknownRank = errors.New("unknown rank")

	// ErrNotFound is returned by Store lookups for missing records.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError reports which configuration field failed validation. Raised at
// construction only; once a calendar/detector/ranker exists, it cannot fail
// this way again.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// DateRangeError identifies the offending range for per-call input rejection.
type DateRangeError struct {
	Start Date
	End   Date
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s before start %s", e.End, e.Start)
}

func (e *DateRangeError) Unwrap() error { return ErrInvalidDateRange }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than engine misconfiguration.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrUnknownPeriod) ||
		errors.Is(err, ErrUnknownRank) ||
		errors.Is(err, ErrNotFound)
}

// IsConfigError returns true if the error indicates fatal misconfiguration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
