package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vannda/cinebook/internal/clock"
	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/repository"
)

var testInstant = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func newReservationFixture() (*fakeStore, *ReservationService, *clock.Fixed) {
	store := newFakeStore()
	store.addShowtime(10, 1, 1250)
	store.addSeats(1, 101, 102, 103, 104)
	clk := clock.NewFixed(testInstant)
	return store, NewReservationService(store, clk), clk
}

func TestCreateBooking(t *testing.T) {
	_, svc, _ := newReservationFixture()

	b, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:        7,
		ShowtimeID:    10,
		SeatIDs:       []uint64{101, 102, 101}, // duplicate collapses
		PaymentMethod: model.PaymentMethodKHQR,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.Equal(t, []uint64{101, 102}, b.SeatIDs)
	assert.Equal(t, uint32(2500), b.TotalPriceCents)
	require.NotNil(t, b.PaymentMethod)
	assert.Equal(t, model.PaymentMethodKHQR, *b.PaymentMethod)
}

func TestCreateBookingRejectsBadInput(t *testing.T) {
	_, svc, _ := newReservationFixture()
	ctx := context.Background()

	var verr *ValidationError
	_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 7, ShowtimeID: 10})
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateBooking(ctx, CreateBookingInput{UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101}, PaymentMethod: "cash"})
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateBooking(ctx, CreateBookingInput{UserID: 7, ShowtimeID: 999, SeatIDs: []uint64{101}})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateBookingRejectsForeignSeats(t *testing.T) {
	_, svc, _ := newReservationFixture()

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101, 999},
	})
	var inv *InvalidSeatError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, []uint64{999}, inv.SeatIDs)
}

func TestCreateBookingConflictsWithClaimedSeats(t *testing.T) {
	_, svc, _ := newReservationFixture()
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101, 102}})
	require.NoError(t, err)

	_, err = svc.CreateBooking(ctx, CreateBookingInput{UserID: 8, ShowtimeID: 10, SeatIDs: []uint64{102, 103}})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{102}, conflict.SeatIDs)

	// The losing request must leave no partial state behind.
	b, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 8, ShowtimeID: 10, SeatIDs: []uint64{103}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{103}, b.SeatIDs)
}

func TestCreateBookingConflictsWithOtherHoldersLock(t *testing.T) {
	store, svc, _ := newReservationFixture()
	store.locks = append(store.locks, model.SeatLock{
		ID: 1, SeatID: 101, ShowtimeID: 10, UserID: 99,
		LockedUntil: testInstant.Add(5 * time.Minute),
	})

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101},
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint64{101}, conflict.SeatIDs)
}

func TestCreateBookingConsumesOwnLocks(t *testing.T) {
	store, svc, _ := newReservationFixture()
	store.locks = append(store.locks, model.SeatLock{
		ID: 1, SeatID: 101, ShowtimeID: 10, UserID: 7,
		LockedUntil: testInstant.Add(5 * time.Minute),
	})

	b, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{101}, b.SeatIDs)
	assert.Empty(t, store.locks, "booking should consume the holder's lock")
}

func TestCreateBookingIgnoresExpiredLocks(t *testing.T) {
	store, svc, _ := newReservationFixture()
	store.locks = append(store.locks, model.SeatLock{
		ID: 1, SeatID: 101, ShowtimeID: 10, UserID: 99,
		LockedUntil: testInstant.Add(-time.Second),
	})

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101},
	})
	require.NoError(t, err)
}

// Two customers race for an overlapping seat set: exactly one booking may
// win, and the union of claimed seats must stay disjoint.
func TestCreateBookingRaceSingleWinner(t *testing.T) {
	_, svc, _ := newReservationFixture()

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.CreateBooking(context.Background(), CreateBookingInput{
				UserID: uint64(100 + i), ShowtimeID: 10, SeatIDs: []uint64{102, 103},
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 1, winners)
}

func TestCancel(t *testing.T) {
	_, svc, _ := newReservationFixture()
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101}})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, b.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)

	// Cancelling again is refused, not repeated.
	_, err = svc.Cancel(ctx, b.ID, 7)
	require.ErrorIs(t, err, model.ErrAlreadyFinalized)

	// The seats are claimable again.
	_, err = svc.CreateBooking(ctx, CreateBookingInput{UserID: 8, ShowtimeID: 10, SeatIDs: []uint64{101}})
	require.NoError(t, err)
}

func TestCancelForeignBooking(t *testing.T) {
	_, svc, _ := newReservationFixture()
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101}})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, b.ID, 8)
	require.ErrorIs(t, err, repository.ErrForbidden)
}

func TestAvailability(t *testing.T) {
	store, svc, _ := newReservationFixture()
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101}})
	require.NoError(t, err)
	store.locks = append(store.locks, model.SeatLock{
		ID: 9, SeatID: 102, ShowtimeID: 10, UserID: 8,
		LockedUntil: testInstant.Add(5 * time.Minute),
	})

	seats, err := svc.Availability(ctx, 10)
	require.NoError(t, err)
	byID := map[uint64]string{}
	for _, s := range seats {
		byID[s.Seat.ID] = s.Status
	}
	assert.Equal(t, "booked", byID[101])
	assert.Equal(t, "locked", byID[102])
	assert.Equal(t, "available", byID[103])
	assert.Equal(t, "available", byID[104])
}

func TestExpirePending(t *testing.T) {
	store, svc, clk := newReservationFixture()
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, CreateBookingInput{UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101}})
	require.NoError(t, err)

	// Pin created_at so the cutoff comparison is deterministic.
	store.bookings[b.ID].CreatedAt = testInstant

	clk.Set(testInstant.Add(10 * time.Minute))
	n, err := svc.ExpirePending(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Set(testInstant.Add(16 * time.Minute))
	n, err = svc.ExpirePending(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, got.Status)
}

func TestCreateBookingRetriesExhausted(t *testing.T) {
	store, svc, _ := newReservationFixture()
	store.txErr = errors.New("deadlock victim")
	retryStore := &retryAlways{fakeStore: store}
	svc = NewReservationService(retryStore, clock.NewFixed(testInstant))

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: 7, ShowtimeID: 10, SeatIDs: []uint64{101},
	})
	require.ErrorIs(t, err, ErrUnavailable)
}

// retryAlways makes every transaction error look like lock contention.
type retryAlways struct {
	*fakeStore
}

func (r *retryAlways) IsRetryable(err error) bool { return err != nil }
