/*
handlers.go - HTTP API handlers for the roster scheduling engine

PURPOSE:

	Exposes the scheduling engine via REST API. Handles HTTP request/response,
	JSON serialization, and delegates computation to the schedule package.

ENDPOINTS:

	Crew:
	  GET    /api/crew                     List the roster
	  POST   /api/crew                     Add a crew member
	  GET    /api/crew/{id}                Get crew member details

	Requests:
	  POST   /api/requests                 Submit a request (returns assessment)
	  GET    /api/requests                 List requests (filterable)
	  GET    /api/requests/{id}            Get request details
	  GET    /api/requests/{id}/conflicts  Conflict assessment against live data
	  POST   /api/requests/{id}/approve    Approve (minimum-crew re-check in tx)
	  POST   /api/requests/{id}/deny       Deny
	  POST   /api/requests/{id}/withdraw   Withdraw

	Adjudication:
	  GET    /api/queue?rank=              Priority-ordered request queue

	Calendar:
	  GET    /api/periods?start=&end=      Periods touching a date range
	  GET    /api/periods/current          Period containing today (or ?date=)
	  GET    /api/periods/{id}             One period by "2025-P13" identifier
	  GET    /api/availability             Per-day availability timeline

	Renewals:
	  POST   /api/renewals                 Enqueue a renewal item
	  GET    /api/renewals                 List the renewal queue
	  POST   /api/renewals/allocate        Run the allocator, record the run
	  GET    /api/renewals/runs            Recent allocation runs
	  GET    /api/capacity                 Configured capacity ceilings
	  PUT    /api/capacity                 Set one ceiling

ENGINE SNAPSHOTS:

	The engine is pure; every handler loads a fresh snapshot (roster, request
	set) from the store, rebuilds the detector/ranker over it, and runs the
	computation on the copies. Only the approval path needs the snapshot and
	the write in one transaction.

ERROR HANDLING:

	Errors are returned as JSON with appropriate HTTP status:
	- 400: Validation errors, invalid input
	- 404: Resource not found
	- 409: Invalid state transition, minimum-crew violation on approval
	- 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Background allocation runs
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridian/roster-engine/factory"
	"github.com/meridian/roster-engine/schedule"
)

// queueCacheTTL bounds how stale a served priority queue can be; any write
// that changes the queue invalidates it immediately.
const queueCacheTTL = 5 * time.Minute

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  schedule.TxStore
	Engine *factory.Engine
	Logger *zap.Logger

	// queueCache holds the priority queue per rank. Owned here, never
	// created inside the engine.
	queueCache *schedule.Cache[schedule.Rank, []schedule.ScoredRequest]

	// now is injectable for tests; "today" anchors urgency scoring.
	now func() time.Time
}

// NewHandler creates a new handler over the given store and engine bundle.
func NewHandler(store schedule.TxStore, engine *factory.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:      store,
		Engine:     engine,
		Logger:     logger,
		queueCache: schedule.NewCache[schedule.Rank, []schedule.ScoredRequest](queueCacheTTL, nil),
		now:        time.Now,
	}
}

func (h *Handler) today() schedule.Date {
	return schedule.DateOf(h.now().UTC())
}

// =============================================================================
// CREW HANDLERS
// =============================================================================

// ListCrew returns the full roster.
func (h *Handler) ListCrew(w http.ResponseWriter, r *http.Request) {
	roster, err := h.Store.ListCrew(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list crew", err)
		return
	}

	dtos := make([]CrewMemberDTO, len(roster))
	for i, cm := range roster {
		dtos[i] = crewMemberDTO(cm)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCrewMember returns a single crew member.
func (h *Handler) GetCrewMember(w http.ResponseWriter, r *http.Request) {
	id := schedule.CrewMemberID(chi.URLParam(r, "id"))

	cm, err := h.Store.GetCrewMember(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get crew member", err)
		return
	}
	writeJSON(w, http.StatusOK, crewMemberDTO(cm))
}

// CreateCrewMember adds a crew member to the roster.
func (h *Handler) CreateCrewMember(w http.ResponseWriter, r *http.Request) {
	var req CreateCrewMemberRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid crew member", err)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	cm := schedule.CrewMember{
		ID:            schedule.CrewMemberID(req.ID),
		Rank:          schedule.Rank(req.Rank),
		SeniorityRank: req.SeniorityRank,
		Active:        active,
	}
	if err := h.Store.PutCrewMember(r.Context(), cm); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save crew member", err)
		return
	}

	h.queueCache.Clear() // seniority scores may shift
	writeJSON(w, http.StatusCreated, crewMemberDTO(cm))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest files a new request and returns it with its conflict
// assessment. Conflicts never block submission; they are reported data.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var dto SubmitRequestDTO
	if err := decodeValid(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	span, err := parseSpan(dto.Start, dto.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	ctx := r.Context()
	cm, err := h.Store.GetCrewMember(ctx, schedule.CrewMemberID(dto.CrewMemberID))
	if err != nil {
		h.writeDomainError(w, "Unknown crew member", err)
		return
	}
	if !cm.Active {
		writeError(w, http.StatusBadRequest, "Crew member is inactive", nil)
		return
	}

	req := schedule.Request{
		ID:           schedule.RequestID(uuid.NewString()),
		CrewMemberID: cm.ID,
		Rank:         cm.Rank,
		Category:     schedule.RequestCategory(dto.Category),
		Span:         span,
		SubmittedAt:  h.now().UTC(),
		State:        schedule.StateSubmitted,
	}

	assessment, err := h.assess(ctx, h.Store, req)
	if err != nil {
		h.writeDomainError(w, "Failed to assess request", err)
		return
	}

	if err := h.Store.PutRequest(ctx, req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}

	h.queueCache.Invalidate(req.Rank)
	h.Logger.Info("request submitted",
		zap.String("request_id", string(req.ID)),
		zap.String("crew_member_id", string(req.CrewMemberID)),
		zap.Int("conflicts", len(assessment.Reports)))

	writeJSON(w, http.StatusCreated, struct {
		Request    RequestDTO    `json:"request"`
		Assessment AssessmentDTO `json:"assessment"`
	}{requestDTO(req), assessmentDTO(assessment)})
}

// GetRequest returns a single request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Store.GetRequest(r.Context(), schedule.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, requestDTO(req))
}

// ListRequests returns requests, filterable by state, rank and crew member.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter := schedule.RequestFilter{
		CrewMemberID: schedule.CrewMemberID(r.URL.Query().Get("crew_member_id")),
		Rank:         schedule.Rank(r.URL.Query().Get("rank")),
	}
	if state := r.URL.Query().Get("state"); state != "" {
		filter.States = []schedule.RequestState{schedule.RequestState(state)}
	}

	requests, err := h.Store.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = requestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConflicts re-assesses a stored request against the live request set.
func (h *Handler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := h.Store.GetRequest(ctx, schedule.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}

	assessment, err := h.assess(ctx, h.Store, req)
	if err != nil {
		h.writeDomainError(w, "Failed to assess request", err)
		return
	}
	writeJSON(w, http.StatusOK, assessmentDTO(assessment))
}

// ApproveRequest approves a submitted request. The minimum-crew check is
// re-run against the latest approved set inside the store transaction, so a
// concurrent approval cannot sneak past a stale check.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := schedule.RequestID(chi.URLParam(r, "id"))
	ctx := r.Context()

	var rank schedule.Rank
	err := h.Store.WithTx(ctx, func(tx schedule.Store) error {
		req, err := tx.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.State != schedule.StateSubmitted {
			return errInvalidTransition
		}
		rank = req.Rank

		roster, err := tx.ListCrew(ctx)
		if err != nil {
			return err
		}
		approved, err := tx.ListRequests(ctx, schedule.RequestFilter{
			Rank:   req.Rank,
			States: []schedule.RequestState{schedule.StateApproved},
		})
		if err != nil {
			return err
		}

		model := schedule.NewAvailabilityModel(roster, h.Engine.MinimumCrewPerRank)
		violation, err := model.CheckMinimum(req, approved)
		if err != nil {
			return err
		}
		if violation != nil {
			return &approvalBlockedError{violation: *violation}
		}

		req.State = schedule.StateApproved
		return tx.PutRequest(ctx, req)
	})

	var blocked *approvalBlockedError
	switch {
	case err == nil:
	case errors.As(err, &blocked):
		h.Logger.Warn("approval blocked by minimum crew",
			zap.String("request_id", string(id)),
			zap.String("date", blocked.violation.Date.String()))
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:     "Approval would violate the minimum-crew floor",
			Violation: violationDTO(blocked.violation),
		})
		return
	case errors.Is(err, errInvalidTransition):
		writeError(w, http.StatusConflict, "Request is not in submitted state", err)
		return
	default:
		h.writeDomainError(w, "Failed to approve request", err)
		return
	}

	h.queueCache.Invalidate(rank)
	h.respondWithRequest(w, r, id)
}

// DenyRequest denies a submitted request.
func (h *Handler) DenyRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, schedule.StateDenied)
}

// WithdrawRequest withdraws a submitted request.
func (h *Handler) WithdrawRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, schedule.StateWithdrawn)
}

// transition moves a submitted request into a terminal state. Terminal
// requests are immutable; the only path out of submitted is one of these.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, target schedule.RequestState) {
	id := schedule.RequestID(chi.URLParam(r, "id"))
	ctx := r.Context()

	var rank schedule.Rank
	err := h.Store.WithTx(ctx, func(tx schedule.Store) error {
		req, err := tx.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.State != schedule.StateSubmitted {
			return errInvalidTransition
		}
		rank = req.Rank
		req.State = target
		return tx.PutRequest(ctx, req)
	})
	if errors.Is(err, errInvalidTransition) {
		writeError(w, http.StatusConflict, "Request is not in submitted state", err)
		return
	}
	if err != nil {
		h.writeDomainError(w, "Failed to update request", err)
		return
	}

	h.queueCache.Invalidate(rank)
	h.respondWithRequest(w, r, id)
}

func (h *Handler) respondWithRequest(w http.ResponseWriter, r *http.Request, id schedule.RequestID) {
	req, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, requestDTO(req))
}

// =============================================================================
// PRIORITY QUEUE
// =============================================================================

// GetQueue returns the submitted requests of one rank in adjudication order.
// The computed queue is cached until a write invalidates it.
func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	rank := schedule.Rank(r.URL.Query().Get("rank"))
	if !rank.IsValid() {
		writeError(w, http.StatusBadRequest, "Query parameter rank must be senior or junior", nil)
		return
	}

	scored, ok := h.queueCache.Get(rank)
	if !ok {
		var err error
		if scored, err = h.buildQueue(r.Context(), rank); err != nil {
			h.writeDomainError(w, "Failed to build queue", err)
			return
		}
		h.queueCache.Put(rank, scored)
	}

	dtos := make([]ScoredRequestDTO, len(scored))
	for i, sr := range scored {
		dtos[i] = ScoredRequestDTO{
			Request:       requestDTO(sr.Request),
			Score:         sr.Score.String(),
			ConflictCount: sr.ConflictCount,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) buildQueue(ctx context.Context, rank schedule.Rank) ([]schedule.ScoredRequest, error) {
	roster, err := h.Store.ListCrew(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := h.Store.ListRequests(ctx, schedule.RequestFilter{
		Rank:   rank,
		States: []schedule.RequestState{schedule.StateSubmitted},
	})
	if err != nil {
		return nil, err
	}

	assessments := make(map[schedule.RequestID]schedule.Assessment, len(pending))
	for _, req := range pending {
		assessment, err := h.assess(ctx, h.Store, req)
		if err != nil {
			return nil, err
		}
		assessments[req.ID] = assessment
	}

	ranker, err := schedule.NewRanker(h.Engine.Weights, roster)
	if err != nil {
		return nil, err
	}
	return ranker.Rank(pending, assessments, h.today()), nil
}

// assess runs conflict detection for one candidate against the stored
// same-rank request set.
func (h *Handler) assess(ctx context.Context, st schedule.Store, candidate schedule.Request) (schedule.Assessment, error) {
	roster, err := st.ListCrew(ctx)
	if err != nil {
		return schedule.Assessment{}, err
	}
	existing, err := st.ListRequests(ctx, schedule.RequestFilter{Rank: candidate.Rank})
	if err != nil {
		return schedule.Assessment{}, err
	}
	approved, err := st.ListRequests(ctx, schedule.RequestFilter{
		Rank:   candidate.Rank,
		States: []schedule.RequestState{schedule.StateApproved},
	})
	if err != nil {
		return schedule.Assessment{}, err
	}

	model := schedule.NewAvailabilityModel(roster, h.Engine.MinimumCrewPerRank)
	detector, err := schedule.NewDetector(h.Engine.Thresholds, model)
	if err != nil {
		return schedule.Assessment{}, err
	}
	return detector.DetectConflicts(candidate, existing, approved)
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetCurrentPeriod returns the period containing today, or ?date=.
func (h *Handler) GetCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	date := h.today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		var err error
		if date, err = schedule.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, periodDTO(h.Engine.Calendar.PeriodForDate(date)))
}

// GetPeriod returns one period by its "2025-P13" identifier.
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := schedule.ParsePeriodID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period identifier", err)
		return
	}
	span, err := h.Engine.Calendar.DateRangeForPeriodID(id)
	if err != nil {
		h.writeDomainError(w, "Unknown period", err)
		return
	}
	writeJSON(w, http.StatusOK, periodDTO(h.Engine.Calendar.PeriodForDate(span.Start)))
}

// ListPeriods returns every period touching [start, end].
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	span, err := parseSpan(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	periods, err := h.Engine.Calendar.PeriodsInRange(span.Start, span.End)
	if err != nil {
		h.writeDomainError(w, "Failed to enumerate periods", err)
		return
	}

	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = periodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAvailability returns the per-day availability timeline for one rank.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	rank := schedule.Rank(r.URL.Query().Get("rank"))
	if !rank.IsValid() {
		writeError(w, http.StatusBadRequest, "Query parameter rank must be senior or junior", nil)
		return
	}
	span, err := parseSpan(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	ctx := r.Context()
	roster, err := h.Store.ListCrew(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load roster", err)
		return
	}
	approved, err := h.Store.ListRequests(ctx, schedule.RequestFilter{
		Rank:        rank,
		States:      []schedule.RequestState{schedule.StateApproved},
		Overlapping: &span,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load requests", err)
		return
	}

	model := schedule.NewAvailabilityModel(roster, h.Engine.MinimumCrewPerRank)
	timeline, err := model.AvailabilityTimeline(span.Start, span.End, rank, approved)
	if err != nil {
		h.writeDomainError(w, "Failed to compute timeline", err)
		return
	}

	dtos := make([]DayCountDTO, len(timeline))
	for i, dc := range timeline {
		dtos[i] = DayCountDTO{Date: dc.Date.String(), Count: dc.Count}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConfig returns the running engine configuration. Read-only; the engine
// is rebuilt from its JSON file at startup, not mutated over HTTP.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cal := h.Engine.Calendar.Config()

	var dto EngineConfigDTO
	dto.Calendar.AnchorPeriod = schedule.PeriodID{Number: cal.AnchorPeriodNumber, Year: cal.AnchorYear}.String()
	dto.Calendar.AnchorStart = cal.AnchorStart.String()
	dto.Calendar.PeriodLengthDays = cal.PeriodLengthDays
	dto.Calendar.PeriodsPerYear = cal.PeriodsPerYear
	dto.Calendar.PublishLeadDays = cal.PublishLeadDays
	dto.Calendar.DeadlineLeadDays = cal.DeadlineLeadDays
	dto.MinimumCrewPerRank = h.Engine.MinimumCrewPerRank
	dto.AdjacentGapDays = h.Engine.Thresholds.AdjacentGapDays
	dto.NearbyGapDays = h.Engine.Thresholds.NearbyGapDays

	dto.Weights = map[string]string{
		"seniority":        h.Engine.Weights.Seniority.String(),
		"urgency_max":      h.Engine.Weights.UrgencyMax.String(),
		"conflict_penalty": h.Engine.Weights.ConflictPenalty.String(),
	}
	for cat, weight := range h.Engine.Weights.Category {
		dto.Weights["category:"+string(cat)] = weight.String()
	}

	dto.ExcludedMonths = make([]int, 0, len(h.Engine.ExcludedMonths))
	for m := time.January; m <= time.December; m++ {
		if h.Engine.ExcludedMonths.Contains(m) {
			dto.ExcludedMonths = append(dto.ExcludedMonths, int(m))
		}
	}

	dto.CapacityDefaults = make([]CapacityEntryDTO, 0, len(h.Engine.CapacityDefaults))
	for key, capacity := range h.Engine.CapacityDefaults {
		dto.CapacityDefaults = append(dto.CapacityDefaults, CapacityEntryDTO{
			Category: string(key.Category),
			Period:   key.Period.String(),
			Capacity: capacity,
		})
	}

	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// RENEWAL HANDLERS
// =============================================================================

// CreateRenewal enqueues one expiring qualification.
func (h *Handler) CreateRenewal(w http.ResponseWriter, r *http.Request) {
	var dto CreateRenewalRequest
	if err := decodeValid(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid renewal item", err)
		return
	}

	earliest, err := schedule.ParseDate(dto.EarliestValid)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid earliest-valid date", err)
		return
	}
	latest, err := schedule.ParseDate(dto.LatestValid)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid latest-valid date", err)
		return
	}

	if dto.ID == "" {
		dto.ID = uuid.NewString()
	}
	item := schedule.RenewalItem{
		ID:            schedule.RenewalItemID(dto.ID),
		CrewMemberID:  schedule.CrewMemberID(dto.CrewMemberID),
		Category:      schedule.RenewalCategory(dto.Category),
		EarliestValid: earliest,
		LatestValid:   latest,
	}
	if err := h.Store.PutRenewalItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save renewal item", err)
		return
	}
	writeJSON(w, http.StatusCreated, renewalItemDTO(item))
}

// ListRenewals returns the renewal queue.
func (h *Handler) ListRenewals(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListRenewalItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list renewal items", err)
		return
	}

	dtos := make([]RenewalItemDTO, len(items))
	for i, item := range items {
		dtos[i] = renewalItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunAllocation runs the allocator over the queue and records the outcome.
func (h *Handler) RunAllocation(w http.ResponseWriter, r *http.Request) {
	run, err := h.Allocate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Allocation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, allocationRunDTO(run))
}

// Allocate performs one allocation pass: queue and capacity are loaded from
// the store, configured defaults fill the gaps, and the recorded run is
// returned. Shared by the endpoint and the background scheduler.
func (h *Handler) Allocate(ctx context.Context) (schedule.AllocationRun, error) {
	items, err := h.Store.ListRenewalItems(ctx)
	if err != nil {
		return schedule.AllocationRun{}, err
	}
	stored, err := h.Store.LoadCapacity(ctx)
	if err != nil {
		return schedule.AllocationRun{}, err
	}

	// Stored entries override configured defaults per key.
	capacity := make(schedule.CapacityTable, len(h.Engine.CapacityDefaults)+len(stored))
	for k, v := range h.Engine.CapacityDefaults {
		capacity[k] = v
	}
	for k, v := range stored {
		capacity[k] = v
	}

	result := h.Engine.Allocator.Allocate(items, capacity, h.Engine.ExcludedMonths)
	run := schedule.AllocationRun{
		ID:     uuid.NewString(),
		RanAt:  h.now().UTC(),
		Result: result,
	}
	if err := h.Store.RecordAllocationRun(ctx, run); err != nil {
		return schedule.AllocationRun{}, err
	}

	h.Logger.Info("allocation run recorded",
		zap.String("run_id", run.ID),
		zap.Int("assigned", len(result.Assignments)),
		zap.Int("unassignable", len(result.Unassignable)))
	return run, nil
}

// ListAllocationRuns returns recent runs, newest first.
func (h *Handler) ListAllocationRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	runs, err := h.Store.ListAllocationRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list allocation runs", err)
		return
	}

	dtos := make([]AllocationRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = allocationRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCapacity returns every configured ceiling.
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	table, err := h.Store.LoadCapacity(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load capacity", err)
		return
	}

	dtos := make([]CapacityEntryDTO, 0, len(table))
	for key, capacity := range table {
		dtos = append(dtos, CapacityEntryDTO{
			Category: string(key.Category),
			Period:   key.Period.String(),
			Capacity: capacity,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetCapacity sets one per-category per-period ceiling.
func (h *Handler) SetCapacity(w http.ResponseWriter, r *http.Request) {
	var dto SetCapacityRequest
	if err := decodeValid(r, &dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid capacity entry", err)
		return
	}
	periodID, err := schedule.ParsePeriodID(dto.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period identifier", err)
		return
	}

	key := schedule.CapacityKey{Category: schedule.RenewalCategory(dto.Category), Period: periodID}
	if err := h.Store.SetCapacity(r.Context(), key, dto.Capacity); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save capacity", err)
		return
	}
	writeJSON(w, http.StatusOK, CapacityEntryDTO{
		Category: dto.Category,
		Period:   periodID.String(),
		Capacity: dto.Capacity,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// errInvalidTransition rejects state changes on terminal requests.
var errInvalidTransition = errors.New("request is not in submitted state")

// approvalBlockedError carries a minimum-crew violation out of the approval
// transaction so the handler can shape the 409 response.
type approvalBlockedError struct {
	violation schedule.MinimumCrewViolation
}

func (e *approvalBlockedError) Error() string {
	return fmt.Sprintf("minimum crew violated on %s: %d available, %d required",
		e.violation.Date, e.violation.Available, e.violation.Minimum)
}

func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return validate.Struct(dst)
}

func parseSpan(start, end string) (schedule.DateRange, error) {
	s, err := schedule.ParseDate(start)
	if err != nil {
		return schedule.DateRange{}, fmt.Errorf("invalid start date: %w", err)
	}
	e, err := schedule.ParseDate(end)
	if err != nil {
		return schedule.DateRange{}, fmt.Errorf("invalid end date: %w", err)
	}
	return schedule.DateRange{Start: s, End: e}, nil
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case schedule.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
