package schedule_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/meridian/roster-engine/schedule"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// syntheticRoster builds n active crew of each rank. Seniority ranks are
// assigned sequentially, seniors first.
func syntheticRoster(seniors, juniors int) []schedule.CrewMember {
	var roster []schedule.CrewMember
	seq := 1
	for i := 0; i < seniors; i++ {
		roster = append(roster, schedule.CrewMember{
			ID:            schedule.CrewMemberID(fmt.Sprintf("snr-%d", i+1)),
			Rank:          schedule.RankSenior,
			SeniorityRank: seq,
			Active:        true,
		})
		seq++
	}
	for i := 0; i < juniors; i++ {
		roster = append(roster, schedule.CrewMember{
			ID:            schedule.CrewMemberID(fmt.Sprintf("jnr-%d", i+1)),
			Rank:          schedule.RankJunior,
			SeniorityRank: seq,
			Active:        true,
		})
		seq++
	}
	return roster
}

func approvedAbsence(id, crew string, rank schedule.Rank, start, end schedule.Date) schedule.Request {
	return schedule.Request{
		ID:           schedule.RequestID(id),
		CrewMemberID: schedule.CrewMemberID(crew),
		Rank:         rank,
		Category:     schedule.CategoryAbsence,
		Span:         schedule.DateRange{Start: start, End: end},
		State:        schedule.StateApproved,
	}
}

// =============================================================================
// AVAILABILITY INVARIANT
// =============================================================================

func TestAvailability_CountEqualsTotalMinusOverlappingApproved(t *testing.T) {
	// INVARIANT: availableCount = totalOfRank - approvedCountOverlapping,
	// exactly, for every date including boundaries.

	model := schedule.NewAvailabilityModel(syntheticRoster(12, 15), 0)

	mar10 := schedule.NewDate(2025, time.March, 10)
	approved := []schedule.Request{
		approvedAbsence("r1", "snr-1", schedule.RankSenior, mar10, mar10.AddDays(4)),
		approvedAbsence("r2", "snr-2", schedule.RankSenior, mar10.AddDays(2), mar10.AddDays(6)),
		approvedAbsence("r3", "jnr-1", schedule.RankJunior, mar10, mar10.AddDays(1)),
	}

	cases := []struct {
		date schedule.Date
		rank schedule.Rank
		want int
	}{
		{mar10.AddDays(-1), schedule.RankSenior, 12}, // before all absences
		{mar10, schedule.RankSenior, 11},             // r1 started, inclusive
		{mar10.AddDays(2), schedule.RankSenior, 10},  // r1 + r2 overlap
		{mar10.AddDays(4), schedule.RankSenior, 10},  // r1 last day, inclusive
		{mar10.AddDays(5), schedule.RankSenior, 11},  // only r2 remains
		{mar10.AddDays(6), schedule.RankSenior, 11},  // r2 last day
		{mar10.AddDays(7), schedule.RankSenior, 12},  // all ended
		{mar10, schedule.RankJunior, 14},             // junior pool independent
		{mar10.AddDays(2), schedule.RankJunior, 15},  // r3 ended
	}

	for _, tc := range cases {
		got := model.AvailableCount(tc.date, tc.rank, approved)
		if got != tc.want {
			t.Errorf("AvailableCount(%v, %s) = %d, want %d", tc.date, tc.rank, got, tc.want)
		}
	}
}

func TestAvailability_InactiveCrewExcludedFromTotals(t *testing.T) {
	roster := syntheticRoster(5, 0)
	roster[0].Active = false

	model := schedule.NewAvailabilityModel(roster, 0)
	if got := model.TotalOfRank(schedule.RankSenior); got != 4 {
		t.Errorf("TotalOfRank = %d, want 4 (one inactive)", got)
	}
}

func TestAvailability_NonApprovedRequestsDoNotReduceCount(t *testing.T) {
	model := schedule.NewAvailabilityModel(syntheticRoster(10, 0), 0)
	day := schedule.NewDate(2025, time.May, 1)

	pending := approvedAbsence("r1", "snr-1", schedule.RankSenior, day, day)
	pending.State = schedule.StateSubmitted
	denied := approvedAbsence("r2", "snr-2", schedule.RankSenior, day, day)
	denied.State = schedule.StateDenied

	got := model.AvailableCount(day, schedule.RankSenior, []schedule.Request{pending, denied})
	if got != 10 {
		t.Errorf("AvailableCount = %d, want 10: only approved absences count", got)
	}
}

// =============================================================================
// TIMELINE
// =============================================================================

func TestAvailability_Timeline_NonMonotone(t *testing.T) {
	// GIVEN: an absence starting and ending inside the queried range
	// THEN:  the timeline dips and recovers; each day computed independently

	model := schedule.NewAvailabilityModel(syntheticRoster(10, 0), 0)
	start := schedule.NewDate(2025, time.June, 1)

	approved := []schedule.Request{
		approvedAbsence("r1", "snr-1", schedule.RankSenior, start.AddDays(2), start.AddDays(3)),
	}

	timeline, err := model.AvailabilityTimeline(start, start.AddDays(5), schedule.RankSenior, approved)
	if err != nil {
		t.Fatalf("AvailabilityTimeline: %v", err)
	}

	want := []int{10, 10, 9, 9, 10, 10}
	if len(timeline) != len(want) {
		t.Fatalf("timeline has %d days, want %d", len(timeline), len(want))
	}
	for i, dc := range timeline {
		if dc.Count != want[i] {
			t.Errorf("day %d (%v): count %d, want %d", i, dc.Date, dc.Count, want[i])
		}
		if !dc.Date.Equal(start.AddDays(i)) {
			t.Errorf("day %d: date %v, want %v", i, dc.Date, start.AddDays(i))
		}
	}
}

func TestAvailability_Timeline_EndBeforeStart(t *testing.T) {
	model := schedule.NewAvailabilityModel(syntheticRoster(5, 5), 0)
	_, err := model.AvailabilityTimeline(
		schedule.NewDate(2025, time.June, 10),
		schedule.NewDate(2025, time.June, 1),
		schedule.RankSenior, nil,
	)
	if !errors.Is(err, schedule.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}

// =============================================================================
// MINIMUM-CREW SCENARIO
// =============================================================================

func TestMinimumCrew_SecondOverlappingAbsence_Flagged(t *testing.T) {
	// GIVEN: exactly 10 seniors, floor of 10, one already approved absent on
	//        day X
	// WHEN:  a second senior requests a range overlapping day X
	// THEN:  the candidate is flagged (10 - 2 = 8 < 10)

	model := schedule.NewAvailabilityModel(syntheticRoster(10, 10), 10)
	dayX := schedule.NewDate(2025, time.July, 14)

	approved := []schedule.Request{
		approvedAbsence("r1", "snr-1", schedule.RankSenior, dayX, dayX),
	}
	candidate := schedule.Request{
		ID:           "r2",
		CrewMemberID: "snr-2",
		Rank:         schedule.RankSenior,
		Category:     schedule.CategoryAbsence,
		Span:         schedule.DateRange{Start: dayX.AddDays(-1), End: dayX.AddDays(1)},
		State:        schedule.StateSubmitted,
	}

	violation, err := model.CheckMinimum(candidate, approved)
	if err != nil {
		t.Fatalf("CheckMinimum: %v", err)
	}
	if violation == nil {
		t.Fatal("expected a minimum-crew violation")
	}
	// First understaffed day is the candidate's own start: 10 - 1 = 9 < 10.
	if !violation.Date.Equal(dayX.AddDays(-1)) {
		t.Errorf("violation date %v, want %v", violation.Date, dayX.AddDays(-1))
	}
	if violation.Available != 9 {
		t.Errorf("available %d on first violating day, want 9", violation.Available)
	}
	if violation.Minimum != 10 || violation.Rank != schedule.RankSenior {
		t.Errorf("violation %+v mis-labeled", violation)
	}
}

func TestMinimumCrew_DifferentRank_NotFlagged(t *testing.T) {
	// Senior absences never count against the junior floor.

	model := schedule.NewAvailabilityModel(syntheticRoster(10, 11), 10)
	dayX := schedule.NewDate(2025, time.July, 14)

	approved := []schedule.Request{
		approvedAbsence("r1", "snr-1", schedule.RankSenior, dayX, dayX),
	}
	candidate := approvedAbsence("r2", "jnr-1", schedule.RankJunior, dayX, dayX)
	candidate.State = schedule.StateSubmitted

	violation, err := model.CheckMinimum(candidate, approved)
	if err != nil {
		t.Fatalf("CheckMinimum: %v", err)
	}
	if violation != nil {
		t.Errorf("junior pool has 11 - 1 = 10 >= 10; unexpected violation %+v", violation)
	}
}

func TestMinimumCrew_CandidateAlreadyInApprovedSet_NotDoubleCounted(t *testing.T) {
	// Re-checking an already-approved request must not count it twice.

	model := schedule.NewAvailabilityModel(syntheticRoster(10, 0), 10)
	dayX := schedule.NewDate(2025, time.July, 14)

	req := approvedAbsence("r1", "snr-1", schedule.RankSenior, dayX, dayX)
	violation, err := model.CheckMinimum(req, []schedule.Request{req})
	if err != nil {
		t.Fatalf("CheckMinimum: %v", err)
	}
	if violation == nil {
		t.Fatal("10 - 1 = 9 < 10: expected violation")
	}
	if violation.Available != 9 {
		t.Errorf("available %d, want 9 (no double count)", violation.Available)
	}
}

func TestMinimumCrew_DisabledFloor_NeverViolates(t *testing.T) {
	model := schedule.NewAvailabilityModel(syntheticRoster(1, 0), 0)
	dayX := schedule.NewDate(2025, time.July, 14)

	candidate := approvedAbsence("r1", "snr-1", schedule.RankSenior, dayX, dayX)
	violation, err := model.CheckMinimum(candidate, nil)
	if err != nil {
		t.Fatalf("CheckMinimum: %v", err)
	}
	if violation != nil {
		t.Errorf("disabled floor should never violate, got %+v", violation)
	}
}

func TestMinimumCrew_InvalidCandidateRange(t *testing.T) {
	model := schedule.NewAvailabilityModel(syntheticRoster(10, 0), 10)
	candidate := approvedAbsence("r1", "snr-1", schedule.RankSenior,
		schedule.NewDate(2025, time.July, 14), schedule.NewDate(2025, time.July, 10))

	_, err := model.CheckMinimum(candidate, nil)
	if !errors.Is(err, schedule.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}
