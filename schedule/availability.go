/*
availability.go - Per-rank crew availability and the minimum-crew floor

PURPOSE:

	Computes, for any date and rank, how many crew of that rank are available
	given the already-approved absences, and flags candidate requests whose
	approval would drop a rank below the configured minimum-crew floor.

INVARIANT:

	availableCount(date, rank) ==
	    totalActiveOfRank - |{r : r.rank == rank
	                             && r.state == approved
	                             && r.span contains date}|

	This holds exactly for every date, including period boundaries. Range
	queries compute each day independently; approvals can start or end anywhere
	inside the range so the timeline is not monotone.

RANK IS EXPLICIT:

	Every query takes rank as a parameter. The rank-separation rule is enforced
	by the signatures, not by caller discipline.

SEE ALSO:
  - conflict.go: Calls CheckMinimum as part of candidate assessment
*/
package schedule

// =============================================================================
// AVAILABILITY MODEL
// =============================================================================

// DefaultMinimumCrewPerRank is the fleet standard staffing floor.
const DefaultMinimumCrewPerRank = 10

// AvailabilityModel counts available crew per rank per day over a roster
// snapshot. The snapshot is copied at construction; later caller mutations of
// the input slice do not leak in.
type AvailabilityModel struct {
	totals map[Rank]int

	// MinimumPerRank is the floor below which a rank is understaffed.
	minimumPerRank int
}

// NewAvailabilityModel builds a model over the roster snapshot. Inactive
// crew are excluded from the totals. minimumPerRank is the staffing floor
// (e.g. 10); zero disables the floor check.
func NewAvailabilityModel(roster []CrewMember, minimumPerRank int) *AvailabilityModel {
	totals := make(map[Rank]int, len(Ranks()))
	for _, cm := range roster {
		if cm.Active {
			totals[cm.Rank]++
		}
	}
	return &AvailabilityModel{totals: totals, minimumPerRank: minimumPerRank}
}

// TotalOfRank returns the number of active crew of the rank.
func (m *AvailabilityModel) TotalOfRank(rank Rank) int { return m.totals[rank] }

// MinimumPerRank returns the configured staffing floor.
func (m *AvailabilityModel) MinimumPerRank() int { return m.minimumPerRank }

// AvailableCount returns the number of crew of the rank available on the
// date: the rank total minus approved absences of that rank covering the
// date, inclusive on both ends.
func (m *AvailabilityModel) AvailableCount(date Date, rank Rank, approved []Request) int {
	absent := 0
	for _, req := range approved {
		if req.State != StateApproved || req.Rank != rank {
			continue
		}
		if req.Span.Contains(date) {
			absent++
		}
	}
	return m.totals[rank] - absent
}

// DayCount is one point of an availability timeline.
type DayCount struct {
	Date  Date
	Count int
}

// AvailabilityTimeline returns the available count for every day in
// [start, end]. Each day is computed independently. Returns
// ErrInvalidDateRange when end precedes start.
func (m *AvailabilityModel) AvailabilityTimeline(start, end Date, rank Rank, approved []Request) ([]DayCount, error) {
	if end.Before(start) {
		return nil, &DateRangeError{Start: start, End: end}
	}
	span := DateRange{Start: start, End: end}
	timeline := make([]DayCount, 0, span.Length())
	for cur := start; cur.BeforeOrEqual(end); cur = cur.AddDays(1) {
		timeline = append(timeline, DayCount{
			Date:  cur,
			Count: m.AvailableCount(cur, rank, approved),
		})
	}
	return timeline, nil
}

// =============================================================================
// MINIMUM-CREW CHECK
// =============================================================================

// MinimumCrewViolation pinpoints the first understaffed day that approving a
// candidate would create.
type MinimumCrewViolation struct {
	Rank Rank

	// Date is the first day in the candidate's range that would fall below
	// the floor; Available is the count on that day with the candidate
	// counted as approved.
	Date      Date
	Available int
	Minimum   int
}

// CheckMinimum simulates approving the candidate against the given approved
// set and reports the first minimum-crew violation, or nil if approval is
// safe on every day of the candidate's range. A disabled floor (0) never
// violates. Returns ErrInvalidDateRange for a malformed candidate span.
func (m *AvailabilityModel) CheckMinimum(candidate Request, approved []Request) (*MinimumCrewViolation, error) {
	if !candidate.Span.IsValid() {
		return nil, &DateRangeError{Start: candidate.Span.Start, End: candidate.Span.End}
	}
	if m.minimumPerRank <= 0 {
		return nil, nil
	}

	// Simulate approvedRequests ∪ {candidate}: the candidate counts as
	// approved, and an already-present copy of it is not counted twice.
	simulated := candidate
	simulated.State = StateApproved
	extended := make([]Request, 0, len(approved)+1)
	for _, req := range approved {
		if req.ID != candidate.ID {
			extended = append(extended, req)
		}
	}
	extended = append(extended, simulated)

	for cur := candidate.Span.Start; cur.BeforeOrEqual(candidate.Span.End); cur = cur.AddDays(1) {
		available := m.AvailableCount(cur, candidate.Rank, extended)
		if available < m.minimumPerRank {
			return &MinimumCrewViolation{
				Rank:      candidate.Rank,
				Date:      cur,
				Available: available,
				Minimum:   m.minimumPerRank,
			}, nil
		}
	}
	return nil, nil
}
