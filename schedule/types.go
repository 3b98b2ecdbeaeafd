/*
Package schedule provides the roster-period scheduling and request
adjudication engine.

PURPOSE:

	This package contains the core computation layer for a ranked crew roster:
	which fixed-length operating period a date falls into, whether competing
	time-off requests conflict under rank-segregated minimum-staffing rules, a
	deterministic priority ordering for adjudication, and capacity-constrained
	assignment of expiring qualifications to future periods.

KEY CONCEPTS IN THIS FILE (types.go):
  - Rank: Closed crew classification (senior/junior); staffing rules are
    evaluated per rank, never across ranks
  - CrewMember: Read-only roster snapshot entry with a unique seniority rank
  - Request: Canonical time-off/duty-change/preference-bid request value,
    constructed once at the boundary
  - RenewalItem: An expiring qualification that must land in exactly one
    future period inside its validity window

DESIGN PRINCIPLES:
 1. Purity: every entry point is a function of its explicit inputs; the
    engine never reads the clock, performs I/O, or mutates its inputs
 2. Snapshots: rosters, requests, and capacity tables are value snapshots
    passed in by the caller; nothing survives past a single call
 3. Closed variants: category, state, and rank are closed tagged types, not
    free-form strings re-shaped at each layer
 4. Type safety: strong typing for IDs prevents mixing crew/request IDs

USAGE:

	cal, err := schedule.NewCalendar(schedule.CalendarConfig{...})
	period := cal.PeriodForDate(schedule.NewDate(2025, time.March, 10))

SEE ALSO:
  - calendar.go: Period arithmetic from a configured anchor
  - availability.go: Per-rank availability counts and the minimum-crew floor
  - conflict.go: Pairwise conflict classification
  - priority.go: Deterministic priority scoring
  - allocator.go: Renewal-to-period assignment
*/
package schedule

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CrewMemberID string
type RequestID string
type RenewalItemID string

// =============================================================================
// RANK - Closed crew classification
// =============================================================================

// Rank separates the roster into independently staffed pools. Minimum-crew
// floors and conflict detection never mix ranks.
type Rank string

const (
	RankSenior Rank = "senior"
	RankJunior Rank = "junior"
)

// IsValid reports whether the rank is one of the known classifications.
func (r Rank) IsValid() bool { return r == RankSenior || r == RankJunior }

// Ranks returns all known ranks in a stable order.
func Ranks() []Rank { return []Rank{RankSenior, RankJunior} }

// =============================================================================
// CREW MEMBER - Roster snapshot entry
// =============================================================================

// CrewMember is a read-only snapshot of one roster entry. The roster is owned
// by an external collaborator; the engine only consumes it.
type CrewMember struct {
	ID   CrewMemberID
	Rank Rank

	// SeniorityRank is a unique integer across the fleet; lower is more
	// senior. It feeds the priority formula, not availability counting.
	SeniorityRank int

	Active bool
}

// =============================================================================
// REQUEST - Canonical request value
// =============================================================================

// RequestCategory is the closed set of request kinds.
type RequestCategory string

const (
	CategoryAbsence       RequestCategory = "absence"
	CategoryDutyChange    RequestCategory = "duty_change"
	CategoryPreferenceBid RequestCategory = "preference_bid"
)

// IsValid reports whether the category is one of the known kinds.
func (c RequestCategory) IsValid() bool {
	switch c {
	case CategoryAbsence, CategoryDutyChange, CategoryPreferenceBid:
		return true
	}
	return false
}

// RequestState is the closed workflow state set.
type RequestState string

const (
	StateSubmitted RequestState = "submitted"
	StateApproved  RequestState = "approved"
	StateDenied    RequestState = "denied"
	StateWithdrawn RequestState = "withdrawn"
)

// IsValid reports whether the state is one of the known workflow states.
func (s RequestState) IsValid() bool {
	switch s {
	case StateSubmitted, StateApproved, StateDenied, StateWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether the state ends the workflow. Terminal requests
// are excluded from conflict detection, except approved absences which remain
// inputs to availability counting.
func (s RequestState) IsTerminal() bool {
	return s == StateApproved || s == StateDenied || s == StateWithdrawn
}

// Request is the canonical request value. It is constructed once at the
// boundary and passed through the engine unchanged; priority scores and
// conflict lists are derived outputs, never fields mutated in place.
type Request struct {
	ID           RequestID
	CrewMemberID CrewMemberID

	// Rank is denormalized from the crew member at submission time so a
	// later rank change cannot silently reclassify historical requests.
	Rank Rank

	Category RequestCategory

	// Span covers the requested days, inclusive. Single-day requests have
	// Start == End.
	Span DateRange

	SubmittedAt time.Time
	State       RequestState
}

// BlocksRoster reports whether the request participates in conflict
// detection: non-terminal, or approved (approved absences keep occupying the
// roster). Denied and withdrawn requests are invisible to the engine.
func (r Request) BlocksRoster() bool {
	return !r.State.IsTerminal() || r.State == StateApproved
}

// =============================================================================
// RENEWAL ITEM - Expiring qualification queued for assignment
// =============================================================================

// RenewalCategory is the closed set of qualification categories that share a
// per-period processing capacity (simulator slots, medicals, line checks).
type RenewalCategory string

const (
	RenewalSimulator RenewalCategory = "simulator"
	RenewalMedical   RenewalCategory = "medical"
	RenewalLineCheck RenewalCategory = "line_check"
)

// IsValid reports whether the category is one of the known kinds.
func (c RenewalCategory) IsValid() bool {
	switch c {
	case RenewalSimulator, RenewalMedical, RenewalLineCheck:
		return true
	}
	return false
}

// RenewalCategories returns all known categories in allocation tie-break
// order: earlier entries win ties between items with equal window starts.
func RenewalCategories() []RenewalCategory {
	return []RenewalCategory{RenewalMedical, RenewalSimulator, RenewalLineCheck}
}

// RenewalItem is one expiring qualification. Created by an external
// collaborator when a qualification comes due; the allocator only ever sets
// the assigned period, it never deletes items.
type RenewalItem struct {
	ID           RenewalItemID
	CrewMemberID CrewMemberID
	Category     RenewalCategory

	// Window bounds the periods the item may be assigned to, inclusive.
	EarliestValid Date
	LatestValid   Date
}

// Window returns the validity window as a range.
func (ri RenewalItem) Window() DateRange {
	return DateRange{Start: ri.EarliestValid, End: ri.LatestValid}
}
