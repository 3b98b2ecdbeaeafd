// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/meridian/roster-engine/schedule"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	crew     map[schedule.CrewMemberID]schedule.CrewMember
	requests map[schedule.RequestID]schedule.Request
	renewals map[schedule.RenewalItemID]schedule.RenewalItem
	capacity schedule.CapacityTable
	runs     []schedule.AllocationRun
}

func NewMemory() *Memory {
	return &Memory{
		crew:     make(map[schedule.CrewMemberID]schedule.CrewMember),
		requests: make(map[schedule.RequestID]schedule.Request),
		renewals: make(map[schedule.RenewalItemID]schedule.RenewalItem),
		capacity: make(schedule.CapacityTable),
	}
}

// =============================================================================
// CREW
// =============================================================================

func (m *Memory) PutCrewMember(_ context.Context, cm schedule.CrewMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crew[cm.ID] = cm
	return nil
}

func (m *Memory) GetCrewMember(_ context.Context, id schedule.CrewMemberID) (schedule.CrewMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm, ok := m.crew[id]
	if !ok {
		return schedule.CrewMember{}, fmt.Errorf("crew member %s: %w", id, schedule.ErrNotFound)
	}
	return cm, nil
}

// ListCrew returns the roster ordered by seniority rank, then ID for equal
// ranks. The slice is a copy.
func (m *Memory) ListCrew(_ context.Context) ([]schedule.CrewMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roster := make([]schedule.CrewMember, 0, len(m.crew))
	for _, cm := range m.crew {
		roster = append(roster, cm)
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].SeniorityRank != roster[j].SeniorityRank {
			return roster[i].SeniorityRank < roster[j].SeniorityRank
		}
		return roster[i].ID < roster[j].ID
	})
	return roster, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) PutRequest(_ context.Context, r schedule.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id schedule.RequestID) (schedule.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return schedule.Request{}, fmt.Errorf("request %s: %w", id, schedule.ErrNotFound)
	}
	return r, nil
}

func (m *Memory) ListRequests(_ context.Context, filter schedule.RequestFilter) ([]schedule.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.Request
	for _, r := range m.requests {
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// RENEWALS
// =============================================================================

func (m *Memory) PutRenewalItem(_ context.Context, item schedule.RenewalItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renewals[item.ID] = item
	return nil
}

func (m *Memory) ListRenewalItems(_ context.Context) ([]schedule.RenewalItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]schedule.RenewalItem, 0, len(m.renewals))
	for _, item := range m.renewals {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// =============================================================================
// CAPACITY
// =============================================================================

func (m *Memory) SetCapacity(_ context.Context, key schedule.CapacityKey, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if capacity <= 0 {
		delete(m.capacity, key)
		return nil
	}
	m.capacity[key] = capacity
	return nil
}

func (m *Memory) LoadCapacity(_ context.Context) (schedule.CapacityTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table := make(schedule.CapacityTable, len(m.capacity))
	for k, v := range m.capacity {
		table[k] = v
	}
	return table, nil
}

// =============================================================================
// ALLOCATION RUNS
// =============================================================================

func (m *Memory) RecordAllocationRun(_ context.Context, run schedule.AllocationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListAllocationRuns(_ context.Context, limit int) ([]schedule.AllocationRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Newest first.
	result := make([]schedule.AllocationRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		result = append(result, m.runs[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn against the store while holding the write lock,
// restoring a snapshot if fn fails. Single-writer serialization stands in
// for database transactions.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(schedule.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		crew:     make(map[schedule.CrewMemberID]schedule.CrewMember, len(tm.crew)),
		requests: make(map[schedule.RequestID]schedule.Request, len(tm.requests)),
		renewals: make(map[schedule.RenewalItemID]schedule.RenewalItem, len(tm.renewals)),
		capacity: make(schedule.CapacityTable, len(tm.capacity)),
		runs:     append([]schedule.AllocationRun{}, tm.runs...),
	}
	for k, v := range tm.crew {
		s.crew[k] = v
	}
	for k, v := range tm.requests {
		s.requests[k] = v
	}
	for k, v := range tm.renewals {
		s.renewals[k] = v
	}
	for k, v := range tm.capacity {
		s.capacity[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.crew = s.crew
	tm.requests = s.requests
	tm.renewals = s.renewals
	tm.capacity = s.capacity
	tm.runs = s.runs
}

type memorySnapshot struct {
	crew     map[schedule.CrewMemberID]schedule.CrewMember
	requests map[schedule.RequestID]schedule.Request
	renewals map[schedule.RenewalItemID]schedule.RenewalItem
	capacity schedule.CapacityTable
	runs     []schedule.AllocationRun
}

// txMemoryView delegates to the parent with locking suppressed: WithTx
// already holds the write lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) PutCrewMember(_ context.Context, cm schedule.CrewMember) error {
	tv.parent.crew[cm.ID] = cm
	return nil
}

func (tv *txMemoryView) GetCrewMember(_ context.Context, id schedule.CrewMemberID) (schedule.CrewMember, error) {
	cm, ok := tv.parent.crew[id]
	if !ok {
		return schedule.CrewMember{}, fmt.Errorf("crew member %s: %w", id, schedule.ErrNotFound)
	}
	return cm, nil
}

func (tv *txMemoryView) ListCrew(_ context.Context) ([]schedule.CrewMember, error) {
	roster := make([]schedule.CrewMember, 0, len(tv.parent.crew))
	for _, cm := range tv.parent.crew {
		roster = append(roster, cm)
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].SeniorityRank != roster[j].SeniorityRank {
			return roster[i].SeniorityRank < roster[j].SeniorityRank
		}
		return roster[i].ID < roster[j].ID
	})
	return roster, nil
}

func (tv *txMemoryView) PutRequest(_ context.Context, r schedule.Request) error {
	tv.parent.requests[r.ID] = r
	return nil
}

func (tv *txMemoryView) GetRequest(_ context.Context, id schedule.RequestID) (schedule.Request, error) {
	r, ok := tv.parent.requests[id]
	if !ok {
		return schedule.Request{}, fmt.Errorf("request %s: %w", id, schedule.ErrNotFound)
	}
	return r, nil
}

func (tv *txMemoryView) ListRequests(_ context.Context, filter schedule.RequestFilter) ([]schedule.Request, error) {
	var result []schedule.Request
	for _, r := range tv.parent.requests {
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (tv *txMemoryView) PutRenewalItem(_ context.Context, item schedule.RenewalItem) error {
	tv.parent.renewals[item.ID] = item
	return nil
}

func (tv *txMemoryView) ListRenewalItems(_ context.Context) ([]schedule.RenewalItem, error) {
	items := make([]schedule.RenewalItem, 0, len(tv.parent.renewals))
	for _, item := range tv.parent.renewals {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (tv *txMemoryView) SetCapacity(_ context.Context, key schedule.CapacityKey, capacity int) error {
	if capacity <= 0 {
		delete(tv.parent.capacity, key)
		return nil
	}
	tv.parent.capacity[key] = capacity
	return nil
}

func (tv *txMemoryView) LoadCapacity(_ context.Context) (schedule.CapacityTable, error) {
	table := make(schedule.CapacityTable, len(tv.parent.capacity))
	for k, v := range tv.parent.capacity {
		table[k] = v
	}
	return table, nil
}

func (tv *txMemoryView) RecordAllocationRun(_ context.Context, run schedule.AllocationRun) error {
	tv.parent.runs = append(tv.parent.runs, run)
	return nil
}

func (tv *txMemoryView) ListAllocationRuns(_ context.Context, limit int) ([]schedule.AllocationRun, error) {
	result := make([]schedule.AllocationRun, 0, len(tv.parent.runs))
	for i := len(tv.parent.runs) - 1; i >= 0; i-- {
		result = append(result, tv.parent.runs[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
