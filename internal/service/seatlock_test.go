package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vannda/cinebook/internal/clock"
	"github.com/vannda/cinebook/internal/model"
)

func newLockFixture(ttl time.Duration) (*fakeStore, *SeatLockService, *clock.Fixed) {
	store := newFakeStore()
	store.addShowtime(10, 1, 1000)
	store.addSeats(1, 101, 102, 103)
	clk := clock.NewFixed(testInstant)
	return store, NewSeatLockService(store, clk, ttl), clk
}

func TestAcquire(t *testing.T) {
	store, svc, _ := newLockFixture(2 * time.Minute)

	expires, err := svc.Acquire(context.Background(), 10, []uint64{101, 102}, 7)
	require.NoError(t, err)
	assert.Equal(t, testInstant.Add(2*time.Minute), expires)
	assert.Len(t, store.locks, 2)
	for _, l := range store.locks {
		assert.Equal(t, uint64(7), l.UserID)
		assert.Equal(t, expires, l.LockedUntil)
	}
}

func TestAcquireAllOrNothing(t *testing.T) {
	store, svc, _ := newLockFixture(2 * time.Minute)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, 10, []uint64{102}, 99)
	require.NoError(t, err)

	_, err = svc.Acquire(ctx, 10, []uint64{101, 102}, 7)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{102}, conflict.SeatIDs)

	// Seat 101 must not have been locked by the failed request.
	for _, l := range store.locks {
		assert.NotEqual(t, uint64(7), l.UserID)
	}
}

func TestAcquireRefreshesOwnLocks(t *testing.T) {
	store, svc, clk := newLockFixture(2 * time.Minute)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, 10, []uint64{101}, 7)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	expires, err := svc.Acquire(ctx, 10, []uint64{101, 102}, 7)
	require.NoError(t, err)
	assert.Equal(t, testInstant.Add(time.Minute+2*time.Minute), expires)
	require.Len(t, store.locks, 2)
	for _, l := range store.locks {
		assert.Equal(t, expires, l.LockedUntil, "existing hold should be refreshed, not stacked")
	}
}

func TestAcquireAfterExpiry(t *testing.T) {
	store, svc, clk := newLockFixture(2 * time.Minute)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, 10, []uint64{101}, 99)
	require.NoError(t, err)

	// Still held: another user is refused.
	_, err = svc.Acquire(ctx, 10, []uint64{101}, 7)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	// Expiry is effective immediately, no sweep required.
	clk.Advance(2*time.Minute + time.Second)
	_, err = svc.Acquire(ctx, 10, []uint64{101}, 7)
	require.NoError(t, err)
	require.Len(t, store.locks, 1)
	assert.Equal(t, uint64(7), store.locks[0].UserID)
}

func TestAcquireConflictsWithBookedSeat(t *testing.T) {
	store, svc, _ := newLockFixture(2 * time.Minute)
	ctx := context.Background()

	reservations := NewReservationService(store, clock.NewFixed(testInstant))
	_, err := reservations.CreateBooking(ctx, CreateBookingInput{UserID: 99, ShowtimeID: 10, SeatIDs: []uint64{103}})
	require.NoError(t, err)

	_, err = svc.Acquire(ctx, 10, []uint64{103}, 7)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{103}, conflict.SeatIDs)
}

func TestAcquireRejectsForeignSeats(t *testing.T) {
	_, svc, _ := newLockFixture(2 * time.Minute)

	_, err := svc.Acquire(context.Background(), 10, []uint64{999}, 7)
	var inv *InvalidSeatError
	require.ErrorAs(t, err, &inv)
}

func TestRelease(t *testing.T) {
	store, svc, _ := newLockFixture(2 * time.Minute)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, 10, []uint64{101, 102}, 7)
	require.NoError(t, err)
	_, err = svc.Acquire(ctx, 10, []uint64{103}, 99)
	require.NoError(t, err)

	released, err := svc.Release(ctx, 10, []uint64{101, 102, 103}, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released, "only the caller's own locks release")
	require.Len(t, store.locks, 1)
	assert.Equal(t, uint64(99), store.locks[0].UserID)

	// Releasing again is a no-op.
	released, err = svc.Release(ctx, 10, []uint64{101, 102}, 7)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestSweepExpired(t *testing.T) {
	store, svc, clk := newLockFixture(2 * time.Minute)
	ctx := context.Background()

	_, err := svc.Acquire(ctx, 10, []uint64{101, 102}, 7)
	require.NoError(t, err)

	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Advance(3 * time.Minute)
	n, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, store.locks)
}

func TestAcquireDuplicateKeyBecomesConflict(t *testing.T) {
	store, svc, _ := newLockFixture(2 * time.Minute)

	// A row another process slipped in: visible to the unique key but
	// not to the availability check because it carries a past deadline
	// and the stale-row purge is bypassed by a different showtime id.
	store.locks = append(store.locks, model.SeatLock{
		ID: 1, SeatID: 101, ShowtimeID: 10, UserID: 99,
		LockedUntil: testInstant.Add(-time.Hour),
	})
	// Simulate the race by disabling the purge.
	svc.store = &noPurgeStore{fakeStore: store}

	_, err := svc.Acquire(context.Background(), 10, []uint64{101}, 7)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

// noPurgeStore drops the expired-row purge so inserts can collide.
type noPurgeStore struct {
	*fakeStore
}

func (s *noPurgeStore) DeleteExpiredLocksBySeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) error {
	return nil
}
