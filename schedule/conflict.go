/*
conflict.go - Pairwise request conflict classification

PURPOSE:

	Classifies how a candidate request relates to each existing request of the
	same rank into severity tiers, and flags whether approving the candidate
	alone would break the minimum-crew floor.

SEVERITY TIERS (most severe wins per pair, mutually exclusive):

	EXACT    identical start and end dates
	PARTIAL  date ranges share at least one day
	ADJACENT ranges disjoint, minimum gap <= AdjacentGapDays
	NEARBY   ranges disjoint, minimum gap <= NearbyGapDays

	Overlap is inclusive on both ends (a.start <= b.end && b.start <= a.end).
	For the gap tiers the minimum day-gap between the ranges is compared
	against the thresholds in ascending order, stopping at the first match.
	Requests of different ranks never conflict; ranks are independent pools.

MINIMUM-CREW FLAG:

	Reported separately from pairwise tiers because it can trip with zero
	pairwise conflicts - many small approved absences compounding on one day.

THRESHOLDS:

	The gap sizes are tuned operational values, not derived policy. They are
	replaceable configuration on the detector, not constants in the algorithm.

SEE ALSO:
  - availability.go: Minimum-crew simulation
  - priority.go: Consumes the PARTIAL/EXACT conflict count as a penalty
*/
package schedule

import "sort"

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the closed conflict tier set, ordered most severe first.
type Severity string

const (
	SeverityExact    Severity = "exact"
	SeverityPartial  Severity = "partial"
	SeverityAdjacent Severity = "adjacent"
	SeverityNearby   Severity = "nearby"
)

// severityOrder ranks tiers for sorting; lower sorts first.
func severityOrder(s Severity) int {
	switch s {
	case SeverityExact:
		return 0
	case SeverityPartial:
		return 1
	case SeverityAdjacent:
		return 2
	case SeverityNearby:
		return 3
	}
	return 4
}

// Penalizes reports whether the tier counts toward the priority conflict
// penalty. Only overlapping tiers penalize.
func (s Severity) Penalizes() bool {
	return s == SeverityExact || s == SeverityPartial
}

// =============================================================================
// CONFLICT REPORT
// =============================================================================

// ConflictReport names one conflicting request and how it relates to the
// candidate.
type ConflictReport struct {
	OtherID  RequestID
	Severity Severity

	// Overlap is the shared day span for EXACT/PARTIAL. Empty (zero) for
	// the gap tiers.
	Overlap DateRange

	// GapDays is the minimum day-gap for ADJACENT/NEARBY; 0 for the
	// overlapping tiers.
	GapDays int
}

// Assessment is the full conflict picture for one candidate.
type Assessment struct {
	Candidate RequestID
	Reports   []ConflictReport

	// MinimumCrew is non-nil when approving the candidate alone would drop
	// its rank below the staffing floor. Independent of pairwise reports.
	MinimumCrew *MinimumCrewViolation
}

// ConflictCount returns the number of penalizing (EXACT/PARTIAL) conflicts.
func (a Assessment) ConflictCount() int {
	n := 0
	for _, r := range a.Reports {
		if r.Severity.Penalizes() {
			n++
		}
	}
	return n
}

// =============================================================================
// DETECTOR
// =============================================================================

// Thresholds configure the gap tiers in days.
type Thresholds struct {
	AdjacentGapDays int
	NearbyGapDays   int
}

// DefaultThresholds are the operationally tuned gap sizes.
func DefaultThresholds() Thresholds {
	return Thresholds{AdjacentGapDays: 3, NearbyGapDays: 7}
}

// Detector classifies pairwise conflicts and runs the minimum-crew check.
type Detector struct {
	thresholds   Thresholds
	availability *AvailabilityModel
}

// NewDetector builds a detector. Thresholds where nearby < adjacent fail at
// construction.
func NewDetector(thresholds Thresholds, availability *AvailabilityModel) (*Detector, error) {
	if thresholds.AdjacentGapDays < 0 || thresholds.NearbyGapDays < 0 {
		return nil, &ConfigError{Field: "Thresholds", Reason: "gap days must not be negative"}
	}
	if thresholds.NearbyGapDays < thresholds.AdjacentGapDays {
		return nil, &ConfigError{Field: "Thresholds", Reason: "nearby gap smaller than adjacent gap"}
	}
	return &Detector{thresholds: thresholds, availability: availability}, nil
}

// DetectConflicts assesses a candidate against the existing request set.
// existing may contain the candidate itself and requests of any state or
// rank; the detector filters. approved is the already-approved absence set
// used for the minimum-crew simulation (typically a subset of existing).
// Returns ErrInvalidDateRange for a malformed candidate span.
func (d *Detector) DetectConflicts(candidate Request, existing, approved []Request) (Assessment, error) {
	if !candidate.Span.IsValid() {
		return Assessment{}, &DateRangeError{Start: candidate.Span.Start, End: candidate.Span.End}
	}

	assessment := Assessment{Candidate: candidate.ID}

	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		if other.Rank != candidate.Rank {
			continue
		}
		if !other.BlocksRoster() {
			continue
		}
		if !other.Span.IsValid() {
			// A malformed stored range cannot be classified; skip it rather
			// than fail the whole assessment.
			continue
		}
		if report, ok := d.classify(candidate, other); ok {
			assessment.Reports = append(assessment.Reports, report)
		}
	}

	// Deterministic order: most severe first, then other-request ID.
	sort.Slice(assessment.Reports, func(i, j int) bool {
		a, b := assessment.Reports[i], assessment.Reports[j]
		if a.Severity != b.Severity {
			return severityOrder(a.Severity) < severityOrder(b.Severity)
		}
		return a.OtherID < b.OtherID
	})

	violation, err := d.availability.CheckMinimum(candidate, approved)
	if err != nil {
		return Assessment{}, err
	}
	assessment.MinimumCrew = violation

	return assessment, nil
}

// classify determines the severity tier for one same-rank pair.
func (d *Detector) classify(candidate, other Request) (ConflictReport, bool) {
	if candidate.Span.Overlaps(other.Span) {
		severity := SeverityPartial
		if candidate.Span.Start.Equal(other.Span.Start) && candidate.Span.End.Equal(other.Span.End) {
			severity = SeverityExact
		}
		overlap, _ := candidate.Span.Intersect(other.Span)
		return ConflictReport{OtherID: other.ID, Severity: severity, Overlap: overlap}, true
	}

	gap := candidate.Span.GapDays(other.Span)
	if gap <= d.thresholds.AdjacentGapDays {
		return ConflictReport{OtherID: other.ID, Severity: SeverityAdjacent, GapDays: gap}, true
	}
	if gap <= d.thresholds.NearbyGapDays {
		return ConflictReport{OtherID: other.ID, Severity: SeverityNearby, GapDays: gap}, true
	}
	return ConflictReport{}, false
}
