package basket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthdesk/scheduler/internal/appointments"
)

func TestSweepReleasesOrphanedHolds(t *testing.T) {
	repo := appointments.NewInMemoryRepository()
	svc := appointments.NewService(repo, nil, nil, nil)
	ctx := context.Background()

	// An in-progress appointment with no hold anywhere simulates a hold lost
	// to a process restart.
	orphan, err := svc.Book(ctx, holdReq("10:00", "10:30"), appointments.StatusInProgress)
	require.NoError(t, err)
	confirmed, err := svc.Book(ctx, holdReq("11:00", "11:30"), appointments.StatusConfirmed)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	sweeper := NewSweeper(svc, nil, nil, time.Millisecond, nil)
	released, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	apt, err := repo.GetByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusCanceled, apt.Status)

	apt, err = repo.GetByID(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusConfirmed, apt.Status)
}

func TestSweepSkipsLiveEngineHolds(t *testing.T) {
	repo := appointments.NewInMemoryRepository()
	svc := appointments.NewService(repo, nil, nil, nil)
	engine := NewEngine(svc, nil, time.Minute, nil, nil)
	ctx := context.Background()

	h, err := engine.Add(ctx, holdReq("10:00", "10:30"))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	sweeper := NewSweeper(svc, engine, nil, time.Millisecond, nil)
	released, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)

	apt, err := repo.GetByID(ctx, h.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusInProgress, apt.Status)
}

func TestSweepSkipsMirroredHolds(t *testing.T) {
	repo := appointments.NewInMemoryRepository()
	svc := appointments.NewService(repo, nil, nil, nil)
	store, _ := newTestHoldStore(t)
	ctx := context.Background()

	apt, err := svc.Book(ctx, holdReq("10:00", "10:30"), appointments.StatusInProgress)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "hold-1", apt.ID, time.Minute))

	time.Sleep(10 * time.Millisecond)
	sweeper := NewSweeper(svc, nil, store, time.Millisecond, nil)
	released, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestSweepHonorsGracePeriod(t *testing.T) {
	repo := appointments.NewInMemoryRepository()
	svc := appointments.NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Book(ctx, holdReq("10:00", "10:30"), appointments.StatusInProgress)
	require.NoError(t, err)

	// A fresh in-progress appointment stays untouched within the grace window.
	sweeper := NewSweeper(svc, nil, nil, time.Hour, nil)
	released, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
}
