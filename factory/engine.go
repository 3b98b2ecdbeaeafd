/*
Package factory provides JSON to Go engine-configuration conversion.

PURPOSE:

	Converts a JSON engine definition into the constructed engine components:
	calendar, detector thresholds, priority weights, minimum-crew floor,
	excluded months and the default capacity table. Operations staff tune the
	scheduling behavior in JSON without code changes.

JSON SCHEMA:

	{
	  "calendar": {
	    "anchor_period_number": 12,
	    "anchor_year": 2025,
	    "anchor_start": "2025-10-27",
	    "period_length_days": 28,
	    "periods_per_year": 13,
	    "publish_lead_days": 14,
	    "deadline_lead_days": 21
	  },
	  "minimum_crew_per_rank": 10,
	  "conflict_thresholds": {"adjacent_gap_days": 3, "nearby_gap_days": 7},
	  "priority_weights": {
	    "seniority": "2",
	    "urgency_max": "50",
	    "urgency_horizon_days": 90,
	    "category": {"absence": "30", "duty_change": "20", "preference_bid": "10"},
	    "conflict_penalty": "15"
	  },
	  "excluded_months": [12],
	  "capacity_defaults": [
	    {"category": "simulator", "period": "2025-P13", "capacity": 4}
	  ]
	}

DEFAULTS:

	Omitted thresholds and weights fall back to the engine defaults
	(schedule.DefaultThresholds, schedule.DefaultWeights). Decimal weights are
	JSON strings so tuned values survive round trips exactly.

USAGE:

	cfg, err := factory.Parse(jsonBytes)
	engine, err := cfg.Build()

SEE ALSO:
  - schedule/calendar.go: CalendarConfig validated by NewCalendar
  - cmd/server/main.go:   Loads the engine config file at startup
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/roster-engine/schedule"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// EngineJSON is the JSON representation of the full engine configuration.
type EngineJSON struct {
	Calendar           CalendarJSON    `json:"calendar"`
	MinimumCrewPerRank int             `json:"minimum_crew_per_rank,omitempty"`
	ConflictThresholds *ThresholdsJSON `json:"conflict_thresholds,omitempty"`
	PriorityWeights    *WeightsJSON    `json:"priority_weights,omitempty"`
	ExcludedMonths     []int           `json:"excluded_months,omitempty"`
	CapacityDefaults   []CapacityJSON  `json:"capacity_defaults,omitempty"`
}

// CalendarJSON anchors the period grid.
type CalendarJSON struct {
	AnchorPeriodNumber int    `json:"anchor_period_number"`
	AnchorYear         int    `json:"anchor_year"`
	AnchorStart        string `json:"anchor_start"`
	PeriodLengthDays   int    `json:"period_length_days,omitempty"`
	PeriodsPerYear     int    `json:"periods_per_year,omitempty"`
	PublishLeadDays    int    `json:"publish_lead_days,omitempty"`
	DeadlineLeadDays   int    `json:"deadline_lead_days,omitempty"`
}

// ThresholdsJSON configures conflict gap tiers.
type ThresholdsJSON struct {
	AdjacentGapDays int `json:"adjacent_gap_days"`
	NearbyGapDays   int `json:"nearby_gap_days"`
}

// WeightsJSON configures priority scoring. Decimal values are strings.
type WeightsJSON struct {
	Seniority          string            `json:"seniority,omitempty"`
	UrgencyMax         string            `json:"urgency_max,omitempty"`
	UrgencyHorizonDays int               `json:"urgency_horizon_days,omitempty"`
	Category           map[string]string `json:"category,omitempty"`
	ConflictPenalty    string            `json:"conflict_penalty,omitempty"`
}

// CapacityJSON is one default capacity entry. Period uses the "2025-P13"
// form.
type CapacityJSON struct {
	Category string `json:"category"`
	Period   string `json:"period"`
	Capacity int    `json:"capacity"`
}

// =============================================================================
// PARSED CONFIGURATION
// =============================================================================

// EngineConfig is the validated, typed form of EngineJSON.
type EngineConfig struct {
	Calendar           schedule.CalendarConfig
	MinimumCrewPerRank int
	Thresholds         schedule.Thresholds
	Weights            schedule.Weights
	ExcludedMonths     schedule.MonthSet
	CapacityDefaults   schedule.CapacityTable
}

// Engine bundles the constructed components.
type Engine struct {
	Calendar  *schedule.Calendar
	Allocator *schedule.Allocator

	MinimumCrewPerRank int
	Thresholds         schedule.Thresholds
	Weights            schedule.Weights
	ExcludedMonths     schedule.MonthSet
	CapacityDefaults   schedule.CapacityTable
}

// Parse decodes and validates an engine configuration.
func Parse(data []byte) (EngineConfig, error) {
	var ej EngineJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return EngineConfig{}, fmt.Errorf("failed to parse engine JSON: %w", err)
	}
	return FromJSON(ej)
}

// FromJSON converts the JSON schema into a typed configuration, applying
// defaults for omitted sections.
func FromJSON(ej EngineJSON) (EngineConfig, error) {
	cfg := EngineConfig{
		MinimumCrewPerRank: ej.MinimumCrewPerRank,
		Thresholds:         schedule.DefaultThresholds(),
		Weights:            schedule.DefaultWeights(),
		CapacityDefaults:   make(schedule.CapacityTable),
	}

	anchorStart, err := schedule.ParseDate(ej.Calendar.AnchorStart)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("invalid anchor_start: %w", err)
	}
	cfg.Calendar = schedule.CalendarConfig{
		AnchorPeriodNumber: ej.Calendar.AnchorPeriodNumber,
		AnchorYear:         ej.Calendar.AnchorYear,
		AnchorStart:        anchorStart,
		PeriodLengthDays:   ej.Calendar.PeriodLengthDays,
		PeriodsPerYear:     ej.Calendar.PeriodsPerYear,
		PublishLeadDays:    ej.Calendar.PublishLeadDays,
		DeadlineLeadDays:   ej.Calendar.DeadlineLeadDays,
	}
	if cfg.Calendar.PeriodLengthDays == 0 {
		cfg.Calendar.PeriodLengthDays = schedule.DefaultPeriodLengthDays
	}
	if cfg.Calendar.PeriodsPerYear == 0 {
		cfg.Calendar.PeriodsPerYear = schedule.DefaultPeriodsPerYear
	}

	if ej.ConflictThresholds != nil {
		cfg.Thresholds = schedule.Thresholds{
			AdjacentGapDays: ej.ConflictThresholds.AdjacentGapDays,
			NearbyGapDays:   ej.ConflictThresholds.NearbyGapDays,
		}
	}

	if ej.PriorityWeights != nil {
		if cfg.Weights, err = parseWeights(*ej.PriorityWeights); err != nil {
			return EngineConfig{}, err
		}
	}

	var months []time.Month
	for _, m := range ej.ExcludedMonths {
		if m < 1 || m > 12 {
			return EngineConfig{}, fmt.Errorf("invalid excluded month %d", m)
		}
		months = append(months, time.Month(m))
	}
	cfg.ExcludedMonths = schedule.NewMonthSet(months...)

	for _, cj := range ej.CapacityDefaults {
		category := schedule.RenewalCategory(cj.Category)
		if !category.IsValid() {
			return EngineConfig{}, fmt.Errorf("invalid capacity category %q", cj.Category)
		}
		periodID, err := schedule.ParsePeriodID(cj.Period)
		if err != nil {
			return EngineConfig{}, fmt.Errorf("invalid capacity period %q: %w", cj.Period, err)
		}
		if cj.Capacity < 0 {
			return EngineConfig{}, fmt.Errorf("negative capacity for %s %s", cj.Category, cj.Period)
		}
		cfg.CapacityDefaults[schedule.CapacityKey{Category: category, Period: periodID}] = cj.Capacity
	}

	return cfg, nil
}

// parseWeights overlays configured values on the defaults, so a config may
// retune one weight without restating the rest.
func parseWeights(wj WeightsJSON) (schedule.Weights, error) {
	weights := schedule.DefaultWeights()

	var err error
	if wj.Seniority != "" {
		if weights.Seniority, err = decimal.NewFromString(wj.Seniority); err != nil {
			return schedule.Weights{}, fmt.Errorf("invalid seniority weight: %w", err)
		}
	}
	if wj.UrgencyMax != "" {
		if weights.UrgencyMax, err = decimal.NewFromString(wj.UrgencyMax); err != nil {
			return schedule.Weights{}, fmt.Errorf("invalid urgency_max weight: %w", err)
		}
	}
	if wj.UrgencyHorizonDays != 0 {
		weights.UrgencyHorizonDays = wj.UrgencyHorizonDays
	}
	if wj.ConflictPenalty != "" {
		if weights.ConflictPenalty, err = decimal.NewFromString(wj.ConflictPenalty); err != nil {
			return schedule.Weights{}, fmt.Errorf("invalid conflict_penalty weight: %w", err)
		}
	}
	if len(wj.Category) > 0 {
		for name, value := range wj.Category {
			category := schedule.RequestCategory(name)
			if !category.IsValid() {
				return schedule.Weights{}, fmt.Errorf("invalid weight category %q", name)
			}
			w, err := decimal.NewFromString(value)
			if err != nil {
				return schedule.Weights{}, fmt.Errorf("invalid weight for category %q: %w", name, err)
			}
			weights.Category[category] = w
		}
	}

	return weights, nil
}

// Build constructs the engine components, surfacing configuration errors
// before the server starts serving.
func (cfg EngineConfig) Build() (*Engine, error) {
	calendar, err := schedule.NewCalendar(cfg.Calendar)
	if err != nil {
		return nil, err
	}

	// Detector and ranker construction validates thresholds and weights but
	// both also depend on the roster snapshot, so handlers rebuild them per
	// request. Validate here with an empty roster to fail fast.
	model := schedule.NewAvailabilityModel(nil, cfg.MinimumCrewPerRank)
	if _, err := schedule.NewDetector(cfg.Thresholds, model); err != nil {
		return nil, err
	}
	if _, err := schedule.NewRanker(cfg.Weights, nil); err != nil {
		return nil, err
	}

	return &Engine{
		Calendar:           calendar,
		Allocator:          schedule.NewAllocator(calendar),
		MinimumCrewPerRank: cfg.MinimumCrewPerRank,
		Thresholds:         cfg.Thresholds,
		Weights:            cfg.Weights,
		ExcludedMonths:     cfg.ExcludedMonths,
		CapacityDefaults:   cfg.CapacityDefaults,
	}, nil
}
