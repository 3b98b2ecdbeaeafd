/*
store.go - Persistence interface for roster, requests, renewals and capacity

PURPOSE:

	Defines the interface between the pure engine and the database. The engine
	itself never touches a Store; collaborators load snapshots through it, run
	the engine on the copies, and write outcomes back.

KEY INTERFACES:

	Store:   Roster, request, renewal, capacity and allocation-run persistence
	TxStore: Transactional boundary for multi-step writes

SNAPSHOT CONTRACT:

	Every read returns an independent copy. Mutating a returned slice or struct
	never changes stored state; the engine's inputs stay immutable snapshots.

APPROVAL RE-CHECK:

	Approving a request is a read-compute-write sequence: load the approved
	set, re-run the minimum-crew check with it, then flip the state. TxStore
	exists so that whole sequence runs inside one database transaction and a
	concurrent approval cannot slip between the check and the commit.

IMPLEMENTATIONS:
  - schedule/store/memory.go: In-memory for testing/dev
  - store/sqlite/sqlite.go:   Production SQLite

SEE ALSO:
  - availability.go: The minimum-crew check run inside approval
  - allocator.go:    AllocationResult persisted as allocation runs
*/
package schedule

import (
	"context"
	"time"
)

// =============================================================================
// FILTERS
// =============================================================================

// RequestFilter narrows ListRequests. Zero-value fields do not filter.
type RequestFilter struct {
	CrewMemberID CrewMemberID
	Rank         Rank

	// States restricts to the listed states; empty means all states.
	States []RequestState

	// Overlapping keeps only requests whose span shares at least one day
	// with the given range.
	Overlapping *DateRange
}

// Matches reports whether the request passes the filter. Shared by
// implementations so memory and SQLite agree on semantics.
func (f RequestFilter) Matches(r Request) bool {
	if f.CrewMemberID != "" && r.CrewMemberID != f.CrewMemberID {
		return false
	}
	if f.Rank != "" && r.Rank != f.Rank {
		return false
	}
	if len(f.States) > 0 {
		found := false
		for _, s := range f.States {
			if r.State == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Overlapping != nil && !f.Overlapping.Overlaps(r.Span) {
		return false
	}
	return true
}

// =============================================================================
// ALLOCATION RUN - Persisted outcome of one allocator pass
// =============================================================================

// AllocationRun records one completed allocation over the renewal queue.
// Runs are append-only; a new run supersedes, never overwrites, the last.
type AllocationRun struct {
	ID     string
	RanAt  time.Time
	Result AllocationResult
}

// =============================================================================
// STORE
// =============================================================================

// Store handles persistence of everything the engine computes over.
type Store interface {
	// PutCrewMember inserts or replaces a crew member.
	PutCrewMember(ctx context.Context, cm CrewMember) error
	GetCrewMember(ctx context.Context, id CrewMemberID) (CrewMember, error)

	// ListCrew returns the full roster snapshot, ordered by seniority rank.
	ListCrew(ctx context.Context) ([]CrewMember, error)

	// PutRequest inserts or replaces a request.
	PutRequest(ctx context.Context, r Request) error
	GetRequest(ctx context.Context, id RequestID) (Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)

	// PutRenewalItem inserts or replaces a renewal item.
	PutRenewalItem(ctx context.Context, item RenewalItem) error
	ListRenewalItems(ctx context.Context) ([]RenewalItem, error)

	// SetCapacity sets one per-category per-period ceiling; capacity 0
	// removes the entry.
	SetCapacity(ctx context.Context, key CapacityKey, capacity int) error
	LoadCapacity(ctx context.Context) (CapacityTable, error)

	// RecordAllocationRun appends one allocation outcome.
	RecordAllocationRun(ctx context.Context, run AllocationRun) error

	// ListAllocationRuns returns the most recent runs, newest first, up to
	// limit (0 means all).
	ListAllocationRuns(ctx context.Context, limit int) ([]AllocationRun, error)
}

// TxStore wraps Store with a transactional boundary. fn sees a Store whose
// writes commit together or not at all.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
