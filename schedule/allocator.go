/*
allocator.go - Capacity-constrained renewal-to-period assignment

PURPOSE:

	Distributes a queue of expiring qualifications across future operating
	periods. Each item lands in exactly one period inside its validity window,
	subject to a per-category per-period capacity ceiling and calendar-month
	exclusions (e.g. a December freeze).

ALGORITHM (greedy earliest-fit, intentionally not an optimal solve):

 1. Sort items by earliest-valid date, then category priority, then ID.

 2. For each item, enumerate periods contained entirely in [earliest,
    latest]; skip periods whose start month is excluded or whose category
    capacity is committed.

 3. Assign to the earliest qualifying period and commit the count.

 4. Items with no qualifying period are reported unassignable with a
    reason - an expected outcome, never an error.

    Greedy-earliest keeps the outcome deterministic and explainable to the
    crew member whose renewal was bumped; an optimal bin-packing solve would
    reshuffle assignments unpredictably between runs.

INVARIANT:

	Committed count never exceeds capacity for any period-category pair. The
	check happens before every single commit, not once at the end.

SEQUENTIAL STATE:

	Allocate carries running committed counts, so one call must process the
	whole queue. Partial queues against a shared capacity table are unsafe
	without external serialization.

SEE ALSO:
  - calendar.go: Candidate period enumeration
*/
package schedule

import "sort"

// =============================================================================
// CAPACITY TABLE
// =============================================================================

// CapacityKey addresses one per-category per-period ceiling.
type CapacityKey struct {
	Category RenewalCategory
	Period   PeriodID
}

// CapacityTable is the configured ceiling per category per period. Owned by
// an external collaborator; read-only to the engine. Missing entries mean
// zero capacity.
type CapacityTable map[CapacityKey]int

// Capacity returns the ceiling for a category in a period.
func (ct CapacityTable) Capacity(category RenewalCategory, period PeriodID) int {
	return ct[CapacityKey{Category: category, Period: period}]
}

// =============================================================================
// ALLOCATION RESULT
// =============================================================================

// UnassignableReason is the closed set of reported allocation failures.
type UnassignableReason string

const (
	// ReasonNoCapacity: at least one candidate period existed, but every one
	// had its category capacity already committed.
	ReasonNoCapacity UnassignableReason = "no_capacity"

	// ReasonAllExcluded: every period in the window started in an excluded
	// month.
	ReasonAllExcluded UnassignableReason = "all_periods_excluded"

	// ReasonWindowExhausted: no period lies entirely inside the validity
	// window. Happens when the window is shorter than one period, or
	// straddles a boundary without covering either side fully.
	ReasonWindowExhausted UnassignableReason = "window_exhausted"

	// ReasonInvalidWindow: the item's earliest-valid date is after its
	// latest-valid date. The item is malformed input, reported without
	// aborting the rest of the queue.
	ReasonInvalidWindow UnassignableReason = "invalid_window"
)

// UnassignableItem reports one item the allocator could not place.
type UnassignableItem struct {
	ItemID RenewalItemID
	Reason UnassignableReason
}

// AllocationResult is the full outcome of one allocation run.
type AllocationResult struct {
	// Assignments maps each placed item to its period.
	Assignments map[RenewalItemID]PeriodID

	// Unassignable lists items that could not be placed, with reasons, in
	// processing order.
	Unassignable []UnassignableItem

	// Committed is the final committed count per period-category pair;
	// always <= the configured capacity.
	Committed map[CapacityKey]int
}

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator assigns renewal items to periods. Construct with NewAllocator.
type Allocator struct {
	calendar *Calendar

	// categoryPriority breaks ties between items with equal window starts;
	// lower is allocated first.
	categoryPriority map[RenewalCategory]int
}

// NewAllocator builds an allocator over the given calendar. The category
// order of RenewalCategories() fixes the tie-break priority.
func NewAllocator(calendar *Calendar) *Allocator {
	priority := make(map[RenewalCategory]int)
	for i, cat := range RenewalCategories() {
		priority[cat] = i
	}
	return &Allocator{calendar: calendar, categoryPriority: priority}
}

// Allocate places every item in the queue, or reports why it cannot be
// placed. The input slice is not mutated; capacity is read-only. The run is
// deterministic: identical inputs produce identical assignments.
func (a *Allocator) Allocate(items []RenewalItem, capacity CapacityTable, excludedMonths MonthSet) AllocationResult {
	result := AllocationResult{
		Assignments: make(map[RenewalItemID]PeriodID, len(items)),
		Committed:   make(map[CapacityKey]int),
	}

	queue := make([]RenewalItem, len(items))
	copy(queue, items)
	sort.SliceStable(queue, func(i, j int) bool {
		x, y := queue[i], queue[j]
		if !x.EarliestValid.Equal(y.EarliestValid) {
			return x.EarliestValid.Before(y.EarliestValid)
		}
		if a.categoryPriority[x.Category] != a.categoryPriority[y.Category] {
			return a.categoryPriority[x.Category] < a.categoryPriority[y.Category]
		}
		return x.ID < y.ID
	})

	for _, item := range queue {
		periodID, reason := a.place(item, capacity, excludedMonths, result.Committed)
		if reason != "" {
			result.Unassignable = append(result.Unassignable, UnassignableItem{ItemID: item.ID, Reason: reason})
			continue
		}
		key := CapacityKey{Category: item.Category, Period: periodID}
		result.Committed[key]++
		result.Assignments[item.ID] = periodID
	}

	return result
}

// place finds the earliest qualifying period for one item, or the reason
// none exists.
func (a *Allocator) place(item RenewalItem, capacity CapacityTable, excludedMonths MonthSet, committed map[CapacityKey]int) (PeriodID, UnassignableReason) {
	if item.LatestValid.Before(item.EarliestValid) {
		return PeriodID{}, ReasonInvalidWindow
	}

	candidates, err := a.calendar.PeriodsInRange(item.EarliestValid, item.LatestValid)
	if err != nil {
		return PeriodID{}, ReasonWindowExhausted
	}

	// PeriodsInRange returns every period touching the window; qualifying
	// periods must lie entirely inside it, so the assignment can never push
	// the renewal past a validity boundary.
	sawContained := false
	sawIncluded := false
	for _, p := range candidates {
		if p.Start.Before(item.EarliestValid) || p.End.After(item.LatestValid) {
			continue
		}
		sawContained = true

		if excludedMonths.Contains(p.Start.Month()) {
			continue
		}
		sawIncluded = true

		key := CapacityKey{Category: item.Category, Period: p.ID}
		if committed[key] >= capacity.Capacity(item.Category, p.ID) {
			continue
		}
		return p.ID, ""
	}

	if !sawContained {
		return PeriodID{}, ReasonWindowExhausted
	}
	if !sawIncluded {
		return PeriodID{}, ReasonAllExcluded
	}
	return PeriodID{}, ReasonNoCapacity
}
