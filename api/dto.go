/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:

	Defines the JSON structures for API communication. These types decouple
	the internal domain model from the external API contract, allowing:
	- Field renaming without breaking clients
	- API-specific validation
	- Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:

	Request bodies carry go-playground/validator struct tags; decodeValid in
	handlers.go decodes and validates in one step. Date strings are validated
	structurally here and parsed into schedule.Date in the handlers, where a
	bad date still maps to 400.

SEE ALSO:
  - handlers.go: Uses these types
  - schedule/types.go: Domain types these mirror
*/
package api

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meridian/roster-engine/schedule"
)

var validate = validator.New()

// =============================================================================
// CREW
// =============================================================================

// CrewMemberDTO represents a crew member in API responses.
type CrewMemberDTO struct {
	ID            string `json:"id"`
	Rank          string `json:"rank"`
	SeniorityRank int    `json:"seniority_rank"`
	Active        bool   `json:"active"`
}

// CreateCrewMemberRequest is the request to add a crew member. ID is
// optional; one is generated when omitted.
type CreateCrewMemberRequest struct {
	ID            string `json:"id"`
	Rank          string `json:"rank" validate:"required,oneof=senior junior"`
	SeniorityRank int    `json:"seniority_rank" validate:"required,min=1"`
	Active        *bool  `json:"active"`
}

func crewMemberDTO(cm schedule.CrewMember) CrewMemberDTO {
	return CrewMemberDTO{
		ID:            string(cm.ID),
		Rank:          string(cm.Rank),
		SeniorityRank: cm.SeniorityRank,
		Active:        cm.Active,
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

// SubmitRequestDTO is the request body for submitting a roster request.
type SubmitRequestDTO struct {
	CrewMemberID string `json:"crew_member_id" validate:"required"`
	Category     string `json:"category" validate:"required,oneof=absence duty_change preference_bid"`
	Start        string `json:"start" validate:"required,datetime=2006-01-02"`
	End          string `json:"end" validate:"required,datetime=2006-01-02"`
}

// RequestDTO represents a request in API responses.
type RequestDTO struct {
	ID           string `json:"id"`
	CrewMemberID string `json:"crew_member_id"`
	Rank         string `json:"rank"`
	Category     string `json:"category"`
	Start        string `json:"start"`
	End          string `json:"end"`
	SubmittedAt  string `json:"submitted_at"`
	State        string `json:"state"`
}

func requestDTO(r schedule.Request) RequestDTO {
	return RequestDTO{
		ID:           string(r.ID),
		CrewMemberID: string(r.CrewMemberID),
		Rank:         string(r.Rank),
		Category:     string(r.Category),
		Start:        r.Span.Start.String(),
		End:          r.Span.End.String(),
		SubmittedAt:  r.SubmittedAt.UTC().Format(time.RFC3339),
		State:        string(r.State),
	}
}

// =============================================================================
// CONFLICTS
// =============================================================================

// ConflictReportDTO is one pairwise conflict in API responses.
type ConflictReportDTO struct {
	OtherID  string   `json:"other_id"`
	Severity string   `json:"severity"`
	Overlap  *SpanDTO `json:"overlap,omitempty"`
	GapDays  int      `json:"gap_days"`
}

// SpanDTO is an inclusive date range.
type SpanDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ViolationDTO reports a minimum-crew violation.
type ViolationDTO struct {
	Rank      string `json:"rank"`
	Date      string `json:"date"`
	Available int    `json:"available"`
	Minimum   int    `json:"minimum"`
}

// AssessmentDTO is the full conflict assessment of one candidate request.
type AssessmentDTO struct {
	RequestID   string              `json:"request_id"`
	Conflicts   []ConflictReportDTO `json:"conflicts"`
	MinimumCrew *ViolationDTO       `json:"minimum_crew,omitempty"`
}

func assessmentDTO(a schedule.Assessment) AssessmentDTO {
	dto := AssessmentDTO{
		RequestID: string(a.Candidate),
		Conflicts: make([]ConflictReportDTO, 0, len(a.Reports)),
	}
	for _, report := range a.Reports {
		cr := ConflictReportDTO{
			OtherID:  string(report.OtherID),
			Severity: string(report.Severity),
			GapDays:  report.GapDays,
		}
		if report.Severity == schedule.SeverityExact || report.Severity == schedule.SeverityPartial {
			cr.Overlap = &SpanDTO{Start: report.Overlap.Start.String(), End: report.Overlap.End.String()}
		}
		dto.Conflicts = append(dto.Conflicts, cr)
	}
	if a.MinimumCrew != nil {
		dto.MinimumCrew = violationDTO(*a.MinimumCrew)
	}
	return dto
}

func violationDTO(v schedule.MinimumCrewViolation) *ViolationDTO {
	return &ViolationDTO{
		Rank:      string(v.Rank),
		Date:      v.Date.String(),
		Available: v.Available,
		Minimum:   v.Minimum,
	}
}

// =============================================================================
// QUEUE
// =============================================================================

// ScoredRequestDTO pairs a request with its adjudication score.
type ScoredRequestDTO struct {
	Request       RequestDTO `json:"request"`
	Score         string     `json:"score"`
	ConflictCount int        `json:"conflict_count"`
}

// =============================================================================
// PERIODS AND AVAILABILITY
// =============================================================================

// PeriodDTO represents an operating period.
type PeriodDTO struct {
	ID       string `json:"id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Publish  string `json:"publish"`
	Deadline string `json:"deadline"`
}

func periodDTO(p schedule.Period) PeriodDTO {
	return PeriodDTO{
		ID:       p.ID.String(),
		Start:    p.Start.String(),
		End:      p.End.String(),
		Publish:  p.Publish.String(),
		Deadline: p.Deadline.String(),
	}
}

// DayCountDTO is one day of an availability timeline.
type DayCountDTO struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// EngineConfigDTO is the read-only view of the running engine configuration.
type EngineConfigDTO struct {
	Calendar struct {
		AnchorPeriod     string `json:"anchor_period"`
		AnchorStart      string `json:"anchor_start"`
		PeriodLengthDays int    `json:"period_length_days"`
		PeriodsPerYear   int    `json:"periods_per_year"`
		PublishLeadDays  int    `json:"publish_lead_days"`
		DeadlineLeadDays int    `json:"deadline_lead_days"`
	} `json:"calendar"`
	MinimumCrewPerRank int                `json:"minimum_crew_per_rank"`
	AdjacentGapDays    int                `json:"adjacent_gap_days"`
	NearbyGapDays      int                `json:"nearby_gap_days"`
	Weights            map[string]string  `json:"weights"`
	ExcludedMonths     []int              `json:"excluded_months"`
	CapacityDefaults   []CapacityEntryDTO `json:"capacity_defaults"`
}

// =============================================================================
// RENEWALS
// =============================================================================

// CreateRenewalRequest enqueues one expiring qualification.
type CreateRenewalRequest struct {
	ID            string `json:"id"`
	CrewMemberID  string `json:"crew_member_id" validate:"required"`
	Category      string `json:"category" validate:"required,oneof=simulator medical line_check"`
	EarliestValid string `json:"earliest_valid" validate:"required,datetime=2006-01-02"`
	LatestValid   string `json:"latest_valid" validate:"required,datetime=2006-01-02"`
}

// RenewalItemDTO represents a renewal item.
type RenewalItemDTO struct {
	ID            string `json:"id"`
	CrewMemberID  string `json:"crew_member_id"`
	Category      string `json:"category"`
	EarliestValid string `json:"earliest_valid"`
	LatestValid   string `json:"latest_valid"`
}

func renewalItemDTO(item schedule.RenewalItem) RenewalItemDTO {
	return RenewalItemDTO{
		ID:            string(item.ID),
		CrewMemberID:  string(item.CrewMemberID),
		Category:      string(item.Category),
		EarliestValid: item.EarliestValid.String(),
		LatestValid:   item.LatestValid.String(),
	}
}

// SetCapacityRequest sets one per-category per-period ceiling.
type SetCapacityRequest struct {
	Category string `json:"category" validate:"required,oneof=simulator medical line_check"`
	Period   string `json:"period" validate:"required"`
	Capacity int    `json:"capacity" validate:"min=0"`
}

// CapacityEntryDTO is one configured ceiling.
type CapacityEntryDTO struct {
	Category string `json:"category"`
	Period   string `json:"period"`
	Capacity int    `json:"capacity"`
}

// AllocationRunDTO reports one allocation outcome.
type AllocationRunDTO struct {
	ID           string            `json:"id"`
	RanAt        string            `json:"ran_at"`
	Assignments  map[string]string `json:"assignments"`
	Unassignable []UnassignableDTO `json:"unassignable"`
}

// UnassignableDTO is one item the allocator could not place.
type UnassignableDTO struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

func allocationRunDTO(run schedule.AllocationRun) AllocationRunDTO {
	dto := AllocationRunDTO{
		ID:           run.ID,
		RanAt:        run.RanAt.UTC().Format(time.RFC3339),
		Assignments:  make(map[string]string, len(run.Result.Assignments)),
		Unassignable: make([]UnassignableDTO, 0, len(run.Result.Unassignable)),
	}
	for itemID, periodID := range run.Result.Assignments {
		dto.Assignments[string(itemID)] = periodID.String()
	}
	for _, u := range run.Result.Unassignable {
		dto.Unassignable = append(dto.Unassignable, UnassignableDTO{
			ItemID: string(u.ItemID),
			Reason: string(u.Reason),
		})
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`

	// Violation is set on 409 responses when an approval fails the
	// minimum-crew re-check.
	Violation *ViolationDTO `json:"violation,omitempty"`
}
