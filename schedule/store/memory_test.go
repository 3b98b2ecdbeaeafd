package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/roster-engine/schedule"
	"github.com/meridian/roster-engine/schedule/store"
)

func memRequest(id, crew string, start schedule.Date, days int) schedule.Request {
	return schedule.Request{
		ID:           schedule.RequestID(id),
		CrewMemberID: schedule.CrewMemberID(crew),
		Rank:         schedule.RankSenior,
		Category:     schedule.CategoryAbsence,
		Span:         schedule.DateRange{Start: start, End: start.AddDays(days - 1)},
		SubmittedAt:  time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC),
		State:        schedule.StateSubmitted,
	}
}

func TestMemory_CrewRoundTripAndOrdering(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.PutCrewMember(ctx, schedule.CrewMember{ID: "crew-b", Rank: schedule.RankSenior, SeniorityRank: 2, Active: true}))
	require.NoError(t, m.PutCrewMember(ctx, schedule.CrewMember{ID: "crew-a", Rank: schedule.RankSenior, SeniorityRank: 1, Active: true}))

	roster, err := m.ListCrew(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, schedule.CrewMemberID("crew-a"), roster[0].ID)

	_, err = m.GetCrewMember(ctx, "ghost")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestMemory_RequestFilterSemantics(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	mar10 := schedule.NewDate(2025, time.March, 10)

	approved := memRequest("req-2", "crew-2", mar10.AddDays(10), 3)
	approved.State = schedule.StateApproved
	require.NoError(t, m.PutRequest(ctx, memRequest("req-1", "crew-1", mar10, 5)))
	require.NoError(t, m.PutRequest(ctx, approved))

	window := schedule.DateRange{Start: mar10.AddDays(11), End: mar10.AddDays(20)}
	got, err := m.ListRequests(ctx, schedule.RequestFilter{
		States:      []schedule.RequestState{schedule.StateApproved},
		Overlapping: &window,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schedule.RequestID("req-2"), got[0].ID)
}

func TestMemory_CapacityZeroClearsEntry(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	key := schedule.CapacityKey{Category: schedule.RenewalMedical, Period: schedule.PeriodID{Number: 1, Year: 2026}}

	require.NoError(t, m.SetCapacity(ctx, key, 3))
	require.NoError(t, m.SetCapacity(ctx, key, 0))

	table, err := m.LoadCapacity(ctx)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestMemory_LoadCapacityReturnsCopy(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	key := schedule.CapacityKey{Category: schedule.RenewalMedical, Period: schedule.PeriodID{Number: 1, Year: 2026}}
	require.NoError(t, m.SetCapacity(ctx, key, 3))

	table, err := m.LoadCapacity(ctx)
	require.NoError(t, err)
	table[key] = 99

	fresh, err := m.LoadCapacity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh[key], "mutating a returned table must not change stored state")
}

func TestTxMemory_RollbackOnError(t *testing.T) {
	m := store.NewTxMemory()
	ctx := context.Background()

	req := memRequest("req-1", "crew-1", schedule.NewDate(2025, time.March, 10), 5)
	require.NoError(t, m.PutRequest(ctx, req))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx schedule.Store) error {
		approved := req
		approved.State = schedule.StateApproved
		if err := tx.PutRequest(ctx, approved); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := m.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, schedule.StateSubmitted, got.State)
}

func TestTxMemory_CommitPersists(t *testing.T) {
	m := store.NewTxMemory()
	ctx := context.Background()

	req := memRequest("req-1", "crew-1", schedule.NewDate(2025, time.March, 10), 5)
	require.NoError(t, m.PutRequest(ctx, req))

	require.NoError(t, m.WithTx(ctx, func(tx schedule.Store) error {
		req.State = schedule.StateApproved
		return tx.PutRequest(ctx, req)
	}))

	got, err := m.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, schedule.StateApproved, got.State)
}
