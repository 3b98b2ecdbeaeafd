/*
priority.go - Deterministic priority scoring for request adjudication

PURPOSE:

	Computes one numeric score per request so competing requests can be
	adjudicated by ordering. Higher score wins.

FORMULA (additive; each term an independently replaceable weight):

	seniority  (maxSeniority - seniorityRank) * SeniorityWeight
	urgency    linear ramp from UrgencyMax at 0 days lead time down to zero at
	           UrgencyHorizonDays; zero beyond the horizon and for past starts
	category   fixed weight per request category
	conflicts  -(partial/exact conflict count) * ConflictPenalty

DETERMINISM:

	All arithmetic is decimal.Decimal, so identical inputs reproduce scores
	bit for bit. "Today" is an explicit parameter; the ranker never reads the
	system clock.

WEIGHTS:

	The constants are tuned operational values, not derived policy. They live
	in Weights so deployments can retune without touching the algorithm.

SEE ALSO:
  - conflict.go: Source of the penalizing conflict count
*/
package schedule

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WEIGHTS
// =============================================================================

// Weights configure the scoring formula. All values must be non-negative;
// the conflict penalty is applied negatively by the formula itself.
type Weights struct {
	Seniority decimal.Decimal

	// Urgency ramps linearly from UrgencyMax (request starts today) to zero
	// at UrgencyHorizonDays of lead time.
	UrgencyMax         decimal.Decimal
	UrgencyHorizonDays int

	Category map[RequestCategory]decimal.Decimal

	ConflictPenalty decimal.Decimal
}

// DefaultWeights are the operationally tuned scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Seniority:          decimal.NewFromInt(2),
		UrgencyMax:         decimal.NewFromInt(50),
		UrgencyHorizonDays: 90,
		Category: map[RequestCategory]decimal.Decimal{
			CategoryAbsence:       decimal.NewFromInt(30),
			CategoryDutyChange:    decimal.NewFromInt(20),
			CategoryPreferenceBid: decimal.NewFromInt(10),
		},
		ConflictPenalty: decimal.NewFromInt(15),
	}
}

// =============================================================================
// RANKER
// =============================================================================

// Ranker scores requests for adjudication. Construct with NewRanker.
type Ranker struct {
	weights Weights

	// maxSeniority is the largest seniority rank on the roster; the most
	// junior crew member scores a zero seniority term.
	maxSeniority int
	seniorities  map[CrewMemberID]int
}

// NewRanker builds a ranker over the roster snapshot. Weight configuration
// errors fail here, never at scoring time.
func NewRanker(weights Weights, roster []CrewMember) (*Ranker, error) {
	if weights.UrgencyHorizonDays < 0 {
		return nil, &ConfigError{Field: "UrgencyHorizonDays", Reason: "must not be negative"}
	}
	if weights.Seniority.IsNegative() || weights.UrgencyMax.IsNegative() || weights.ConflictPenalty.IsNegative() {
		return nil, &ConfigError{Field: "Weights", Reason: "weights must not be negative"}
	}
	for cat := range weights.Category {
		if !cat.IsValid() {
			return nil, &ConfigError{Field: "Category", Reason: "unknown request category " + string(cat)}
		}
	}

	r := &Ranker{
		weights:     weights,
		seniorities: make(map[CrewMemberID]int, len(roster)),
	}
	for _, cm := range roster {
		r.seniorities[cm.ID] = cm.SeniorityRank
		if cm.SeniorityRank > r.maxSeniority {
			r.maxSeniority = cm.SeniorityRank
		}
	}
	return r, nil
}

// Score computes the priority score for one request. conflictCount is the
// number of PARTIAL/EXACT conflicts from detection; ADJACENT/NEARBY do not
// penalize. today anchors the urgency term and is never read internally.
func (r *Ranker) Score(req Request, conflictCount int, today Date) decimal.Decimal {
	score := r.seniorityTerm(req.CrewMemberID)
	score = score.Add(r.urgencyTerm(req.Span.Start, today))
	score = score.Add(r.weights.Category[req.Category])
	score = score.Sub(decimal.NewFromInt(int64(conflictCount)).Mul(r.weights.ConflictPenalty))
	return score
}

func (r *Ranker) seniorityTerm(id CrewMemberID) decimal.Decimal {
	rank, ok := r.seniorities[id]
	if !ok {
		// Unknown crew (left the roster between snapshot and scoring) score
		// as most junior.
		rank = r.maxSeniority
	}
	return decimal.NewFromInt(int64(r.maxSeniority - rank)).Mul(r.weights.Seniority)
}

func (r *Ranker) urgencyTerm(start, today Date) decimal.Decimal {
	daysUntil := DaysBetween(today, start)
	if daysUntil < 0 {
		daysUntil = 0
	}
	if daysUntil >= r.weights.UrgencyHorizonDays {
		return decimal.Zero
	}
	remaining := decimal.NewFromInt(int64(r.weights.UrgencyHorizonDays - daysUntil))
	horizon := decimal.NewFromInt(int64(r.weights.UrgencyHorizonDays))
	return r.weights.UrgencyMax.Mul(remaining).Div(horizon)
}

// =============================================================================
// QUEUE - Ordered adjudication output
// =============================================================================

// ScoredRequest pairs a request with its computed score.
type ScoredRequest struct {
	Request Request
	Score   decimal.Decimal

	// ConflictCount is the penalizing conflict count fed into the score,
	// kept for display.
	ConflictCount int
}

// Rank scores every request and returns them ordered for adjudication:
// descending score, then earlier submission, then ID. assessments maps
// request ID to its conflict assessment; missing entries score with zero
// conflicts.
func (r *Ranker) Rank(requests []Request, assessments map[RequestID]Assessment, today Date) []ScoredRequest {
	scored := make([]ScoredRequest, 0, len(requests))
	for _, req := range requests {
		count := 0
		if a, ok := assessments[req.ID]; ok {
			count = a.ConflictCount()
		}
		scored = append(scored, ScoredRequest{
			Request:       req,
			Score:         r.Score(req, count, today),
			ConflictCount: count,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if !a.Score.Equal(b.Score) {
			return a.Score.GreaterThan(b.Score)
		}
		if !a.Request.SubmittedAt.Equal(b.Request.SubmittedAt) {
			return a.Request.SubmittedAt.Before(b.Request.SubmittedAt)
		}
		return a.Request.ID < b.Request.ID
	})
	return scored
}
