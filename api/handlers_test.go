/*
handlers_test.go - HTTP-level tests for the API handlers

Tests run against the real router with an in-memory transactional store, so
request routing, JSON shapes and status codes are exercised end to end.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/roster-engine/factory"
	"github.com/meridian/roster-engine/schedule"
	"github.com/meridian/roster-engine/schedule/store"
)

// fixedNow keeps urgency scoring and submission timestamps deterministic.
var fixedNow = time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T) (*Handler, http.Handler, *store.TxMemory) {
	t.Helper()

	cfg := factory.EngineConfig{
		Calendar: schedule.CalendarConfig{
			AnchorPeriodNumber: 12,
			AnchorYear:         2025,
			AnchorStart:        schedule.NewDate(2025, time.October, 27),
			PeriodLengthDays:   28,
			PeriodsPerYear:     13,
			PublishLeadDays:    14,
			DeadlineLeadDays:   21,
		},
		MinimumCrewPerRank: 1,
		Thresholds:         schedule.DefaultThresholds(),
		Weights:            schedule.DefaultWeights(),
	}
	engine, err := cfg.Build()
	require.NoError(t, err)

	st := store.NewTxMemory()
	h := NewHandler(st, engine, nil)
	h.now = func() time.Time { return fixedNow }
	return h, NewRouter(h), st
}

func seedCrew(t *testing.T, st schedule.Store, members ...schedule.CrewMember) {
	t.Helper()
	for _, cm := range members {
		require.NoError(t, st.PutCrewMember(context.Background(), cm))
	}
}

func crew(id string, rank schedule.Rank, seniority int) schedule.CrewMember {
	return schedule.CrewMember{
		ID:            schedule.CrewMemberID(id),
		Rank:          rank,
		SeniorityRank: seniority,
		Active:        true,
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

// =============================================================================
// CREW
// =============================================================================

func TestCreateAndGetCrewMember(t *testing.T) {
	_, router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/crew", map[string]any{
		"id":             "snr-1",
		"rank":           "senior",
		"seniority_rank": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[CrewMemberDTO](t, rec)
	assert.Equal(t, "snr-1", created.ID)
	assert.True(t, created.Active, "active defaults to true")

	rec = doJSON(t, router, http.MethodGet, "/api/crew/snr-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeBody[CrewMemberDTO](t, rec))
}

func TestCreateCrewMember_Validation(t *testing.T) {
	_, router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/crew", map[string]any{
		"rank":           "captain",
		"seniority_rank": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCrewMember_NotFound(t *testing.T) {
	_, router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/crew/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCrew_SeniorityOrder(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st,
		crew("b", schedule.RankJunior, 5),
		crew("a", schedule.RankSenior, 2))

	rec := doJSON(t, router, http.MethodGet, "/api/crew", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	roster := decodeBody[[]CrewMemberDTO](t, rec)
	require.Len(t, roster, 2)
	assert.Equal(t, "a", roster[0].ID)
	assert.Equal(t, "b", roster[1].ID)
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

type submitResponse struct {
	Request    RequestDTO    `json:"request"`
	Assessment AssessmentDTO `json:"assessment"`
}

func submit(t *testing.T, router http.Handler, crewID, category, start, end string) submitResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/requests", map[string]any{
		"crew_member_id": crewID,
		"category":       category,
		"start":          start,
		"end":            end,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[submitResponse](t, rec)
}

func TestSubmitRequest_ReturnsAssessment(t *testing.T) {
	// GIVEN two seniors with overlapping wishes
	_, router, st := newTestAPI(t)
	seedCrew(t, st,
		crew("snr-1", schedule.RankSenior, 1),
		crew("snr-2", schedule.RankSenior, 2))
	submit(t, router, "snr-1", "absence", "2025-12-01", "2025-12-05")

	// WHEN the second senior asks for partially overlapping days
	resp := submit(t, router, "snr-2", "absence", "2025-12-03", "2025-12-07")

	// THEN the request is stored and the overlap is reported
	assert.Equal(t, "submitted", resp.Request.State)
	require.Len(t, resp.Assessment.Conflicts, 1)
	assert.Equal(t, "partial", resp.Assessment.Conflicts[0].Severity)
}

func TestSubmitRequest_ConflictsNeverBlock(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1), crew("snr-2", schedule.RankSenior, 2))
	submit(t, router, "snr-1", "absence", "2025-12-01", "2025-12-05")
	resp := submit(t, router, "snr-2", "absence", "2025-12-01", "2025-12-05")

	assert.Equal(t, "submitted", resp.Request.State)
	require.Len(t, resp.Assessment.Conflicts, 1)
	assert.Equal(t, "exact", resp.Assessment.Conflicts[0].Severity)
}

func TestSubmitRequest_UnknownCrew(t *testing.T) {
	_, router, _ := newTestAPI(t)
	rec := doJSON(t, router, http.MethodPost, "/api/requests", map[string]any{
		"crew_member_id": "ghost",
		"category":       "absence",
		"start":          "2025-12-01",
		"end":            "2025-12-05",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitRequest_InvalidCategory(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1))
	rec := doJSON(t, router, http.MethodPost, "/api/requests", map[string]any{
		"crew_member_id": "snr-1",
		"category":       "vacation",
		"start":          "2025-12-01",
		"end":            "2025-12-05",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRequest_InvertedRange(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1))
	rec := doJSON(t, router, http.MethodPost, "/api/requests", map[string]any{
		"crew_member_id": "snr-1",
		"category":       "absence",
		"start":          "2025-12-05",
		"end":            "2025-12-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRequest_InactiveCrew(t *testing.T) {
	_, router, st := newTestAPI(t)
	inactive := crew("snr-1", schedule.RankSenior, 1)
	inactive.Active = false
	seedCrew(t, st, inactive)

	rec := doJSON(t, router, http.MethodPost, "/api/requests", map[string]any{
		"crew_member_id": "snr-1",
		"category":       "absence",
		"start":          "2025-12-01",
		"end":            "2025-12-05",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveRequest_Success(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1), crew("snr-2", schedule.RankSenior, 2))
	resp := submit(t, router, "snr-1", "absence", "2025-12-01", "2025-12-05")

	rec := doJSON(t, router, http.MethodPost, "/api/requests/"+resp.Request.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decodeBody[RequestDTO](t, rec).State)
}

func TestApproveRequest_MinimumCrewBlocks(t *testing.T) {
	// GIVEN two seniors, a floor of one, and one of them already approved off
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1), crew("snr-2", schedule.RankSenior, 2))
	first := submit(t, router, "snr-1", "absence", "2025-12-01", "2025-12-05")
	second := submit(t, router, "snr-2", "absence", "2025-12-03", "2025-12-07")

	rec := doJSON(t, router, http.MethodPost, "/api/requests/"+first.Request.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN the overlapping second request is approved
	rec = doJSON(t, router, http.MethodPost, "/api/requests/"+second.Request.ID+"/approve", nil)

	// THEN the approval is rejected with the violating day
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	resp := decodeBody[ErrorResponse](t, rec)
	require.NotNil(t, resp.Violation)
	assert.Equal(t, "2025-12-03", resp.Violation.Date)
	assert.Equal(t, 0, resp.Violation.Available)
	assert.Equal(t, 1, resp.Violation.Minimum)

	// AND the request is still adjudicable
	rec = doJSON(t, router, http.MethodGet, "/api/requests/"+second.Request.ID, nil)
	assert.Equal(t, "submitted", decodeBody[RequestDTO](t, rec).State)
}

func TestApproveRequest_TerminalState(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1), crew("snr-2", schedule.RankSenior, 2))
	resp := submit(t, router, "snr-1", "absence", "2025-12-01", "2025-12-05")

	rec := doJSON(t, router, http.MethodPost, "/api/requests/"+resp.Request.ID+"/deny", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/requests/"+resp.Request.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDenyAndWithdraw(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1))

	for _, tc := range []struct {
		action string
		state  string
	}{
		{"deny", "denied"},
		{"withdraw", "withdrawn"},
	} {
		t.Run(tc.action, func(t *testing.T) {
			resp := submit(t, router, "snr-1", "preference_bid", "2026-02-01", "2026-02-03")
			rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/requests/%s/%s", resp.Request.ID, tc.action), nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.state, decodeBody[RequestDTO](t, rec).State)
		})
	}
}

func TestListRequests_StateFilter(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1))
	kept := submit(t, router, "snr-1", "absence", "2025-12-01", "2025-12-02")
	dropped := submit(t, router, "snr-1", "absence", "2026-01-10", "2026-01-12")
	doJSON(t, router, http.MethodPost, "/api/requests/"+dropped.Request.ID+"/withdraw", nil)

	rec := doJSON(t, router, http.MethodGet, "/api/requests?state=submitted", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	requests := decodeBody[[]RequestDTO](t, rec)
	require.Len(t, requests, 1)
	assert.Equal(t, kept.Request.ID, requests[0].ID)
}

func TestGetConflicts_ReflectsLaterSubmissions(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1), crew("snr-2", schedule.RankSenior, 2))
	first := submit(t, router, "snr-1", "absence", "2025-12-01", "2025-12-05")
	submit(t, router, "snr-2", "absence", "2025-12-01", "2025-12-05")

	rec := doJSON(t, router, http.MethodGet, "/api/requests/"+first.Request.ID+"/conflicts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assessment := decodeBody[AssessmentDTO](t, rec)
	require.Len(t, assessment.Conflicts, 1)
	assert.Equal(t, "exact", assessment.Conflicts[0].Severity)
}

// =============================================================================
// QUEUE
// =============================================================================

func TestGetQueue_OrderedByScore(t *testing.T) {
	// GIVEN an urgent absence and a distant preference bid
	_, router, st := newTestAPI(t)
	seedCrew(t, st,
		crew("snr-1", schedule.RankSenior, 1),
		crew("snr-2", schedule.RankSenior, 2))
	urgent := submit(t, router, "snr-2", "absence", "2025-11-10", "2025-11-12")
	distant := submit(t, router, "snr-1", "preference_bid", "2026-03-02", "2026-03-04")

	rec := doJSON(t, router, http.MethodGet, "/api/queue?rank=senior", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	queue := decodeBody[[]ScoredRequestDTO](t, rec)
	require.Len(t, queue, 2)
	assert.Equal(t, urgent.Request.ID, queue[0].Request.ID)
	assert.Equal(t, distant.Request.ID, queue[1].Request.ID)
}

func TestGetQueue_RequiresRank(t *testing.T) {
	_, router, _ := newTestAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/api/queue", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQueue_InvalidatedBySubmission(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1))

	rec := doJSON(t, router, http.MethodGet, "/api/queue?rank=senior", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]ScoredRequestDTO](t, rec))

	submit(t, router, "snr-1", "absence", "2025-12-01", "2025-12-02")

	rec = doJSON(t, router, http.MethodGet, "/api/queue?rank=senior", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ScoredRequestDTO](t, rec), 1)
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestGetCurrentPeriod(t *testing.T) {
	_, router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/periods/current?date=2025-12-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	p := decodeBody[PeriodDTO](t, rec)
	assert.Equal(t, "2025-P13", p.ID)
	assert.Equal(t, "2025-11-24", p.Start)
	assert.Equal(t, "2025-12-21", p.End)
}

func TestGetPeriod_ByID(t *testing.T) {
	_, router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/periods/2026-P01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	p := decodeBody[PeriodDTO](t, rec)
	assert.Equal(t, "2025-12-22", p.Start)
	assert.Equal(t, "2026-01-18", p.End)
}

func TestGetPeriod_BadIdentifier(t *testing.T) {
	_, router, _ := newTestAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/api/periods/13-2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPeriods_TouchingRange(t *testing.T) {
	_, router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/periods?start=2025-12-15&end=2026-01-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	periods := decodeBody[[]PeriodDTO](t, rec)
	require.Len(t, periods, 2)
	assert.Equal(t, "2025-P13", periods[0].ID)
	assert.Equal(t, "2026-P01", periods[1].ID)
}

func TestGetAvailability(t *testing.T) {
	// GIVEN three seniors, one approved off for the middle of the window
	_, router, st := newTestAPI(t)
	seedCrew(t, st,
		crew("snr-1", schedule.RankSenior, 1),
		crew("snr-2", schedule.RankSenior, 2),
		crew("snr-3", schedule.RankSenior, 3))
	resp := submit(t, router, "snr-1", "absence", "2025-12-02", "2025-12-03")
	rec := doJSON(t, router, http.MethodPost, "/api/requests/"+resp.Request.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/availability?rank=senior&start=2025-12-01&end=2025-12-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	timeline := decodeBody[[]DayCountDTO](t, rec)
	require.Len(t, timeline, 4)
	assert.Equal(t, 3, timeline[0].Count)
	assert.Equal(t, 2, timeline[1].Count)
	assert.Equal(t, 2, timeline[2].Count)
	assert.Equal(t, 3, timeline[3].Count)
}

// =============================================================================
// RENEWALS
// =============================================================================

func TestRenewalLifecycle(t *testing.T) {
	// GIVEN a queued medical renewal and capacity in its window
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1))

	rec := doJSON(t, router, http.MethodPost, "/api/renewals", map[string]any{
		"crew_member_id": "snr-1",
		"category":       "medical",
		"earliest_valid": "2025-11-24",
		"latest_valid":   "2026-01-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decodeBody[RenewalItemDTO](t, rec)
	require.NotEmpty(t, item.ID)

	rec = doJSON(t, router, http.MethodPut, "/api/capacity", map[string]any{
		"category": "medical",
		"period":   "2025-P13",
		"capacity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN an allocation run is triggered
	rec = doJSON(t, router, http.MethodPost, "/api/renewals/allocate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	run := decodeBody[AllocationRunDTO](t, rec)
	assert.Equal(t, "2025-P13", run.Assignments[item.ID])
	assert.Empty(t, run.Unassignable)

	// THEN the run is recorded and listable
	rec = doJSON(t, router, http.MethodGet, "/api/renewals/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decodeBody[[]AllocationRunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestRunAllocation_NoCapacity(t *testing.T) {
	_, router, st := newTestAPI(t)
	seedCrew(t, st, crew("snr-1", schedule.RankSenior, 1))

	rec := doJSON(t, router, http.MethodPost, "/api/renewals", map[string]any{
		"crew_member_id": "snr-1",
		"category":       "simulator",
		"earliest_valid": "2025-11-24",
		"latest_valid":   "2025-12-21",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/renewals/allocate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	run := decodeBody[AllocationRunDTO](t, rec)
	assert.Empty(t, run.Assignments)
	require.Len(t, run.Unassignable, 1)
	assert.Equal(t, "no_capacity", run.Unassignable[0].Reason)
}

func TestGetConfig(t *testing.T) {
	_, router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cfg := decodeBody[EngineConfigDTO](t, rec)
	assert.Equal(t, "2025-P12", cfg.Calendar.AnchorPeriod)
	assert.Equal(t, "2025-10-27", cfg.Calendar.AnchorStart)
	assert.Equal(t, 28, cfg.Calendar.PeriodLengthDays)
	assert.Equal(t, 13, cfg.Calendar.PeriodsPerYear)
	assert.Equal(t, 1, cfg.MinimumCrewPerRank)
	assert.Equal(t, 3, cfg.AdjacentGapDays)
	assert.Equal(t, 7, cfg.NearbyGapDays)
	assert.NotEmpty(t, cfg.Weights["seniority"])
	assert.Empty(t, cfg.ExcludedMonths)
}

func TestSetCapacity_RoundTrip(t *testing.T) {
	_, router, _ := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPut, "/api/capacity", map[string]any{
		"category": "simulator",
		"period":   "2026-P02",
		"capacity": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/capacity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[[]CapacityEntryDTO](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, CapacityEntryDTO{Category: "simulator", Period: "2026-P02", Capacity: 4}, entries[0])
}
