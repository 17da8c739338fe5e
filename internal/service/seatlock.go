package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vannda/cinebook/internal/clock"
	"github.com/vannda/cinebook/internal/model"
)

// SeatLockService grants short-lived holds on seats while a customer
// completes checkout.  A lock is exclusive per (seat, showtime) and only
// meaningful while locked_until is in the future; expiry needs no sweep
// to take effect because every read filters on the deadline.
type SeatLockService struct {
	store Store
	clock clock.Clock
	ttl   time.Duration
}

func NewSeatLockService(store Store, clk clock.Clock, ttl time.Duration) *SeatLockService {
	return &SeatLockService{store: store, clock: clk, ttl: ttl}
}

// Acquire locks every requested seat for the user or none of them.  Seats
// the user already holds are refreshed to a full TTL.  Contested seats
// are reported via ConflictError.
func (s *SeatLockService) Acquire(ctx context.Context, showtimeID uint64, seatIDs []uint64, userID uint64) (time.Time, error) {
	seatIDs = dedupeIDs(seatIDs)
	if len(seatIDs) == 0 {
		return time.Time{}, &ValidationError{Msg: "at least one seat is required"}
	}

	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		expires, err := s.tryAcquire(ctx, showtimeID, seatIDs, userID)
		if err == nil {
			return expires, nil
		}
		if s.store.IsDuplicateKey(err) {
			// Another process inserted a lock on the same seat between
			// our check and insert.  Surface it as a plain conflict.
			return time.Time{}, &ConflictError{SeatIDs: seatIDs}
		}
		if !s.store.IsRetryable(err) {
			return time.Time{}, err
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (s *SeatLockService) tryAcquire(ctx context.Context, showtimeID uint64, seatIDs []uint64, userID uint64) (time.Time, error) {
	var expires time.Time
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		st, err := s.store.ShowtimeForUpdate(ctx, showtimeID)
		if err != nil {
			return err
		}

		valid, err := s.store.SeatIDsByAuditorium(ctx, st.AuditoriumID)
		if err != nil {
			return err
		}
		var invalid []uint64
		for _, id := range seatIDs {
			if _, ok := valid[id]; !ok {
				invalid = append(invalid, id)
			}
		}
		if len(invalid) > 0 {
			return &InvalidSeatError{SeatIDs: invalid}
		}

		now := s.clock.Now()

		// Dead rows on the target seats would collide with the unique
		// key on insert even though they no longer grant anything.
		if err := s.store.DeleteExpiredLocksBySeats(ctx, showtimeID, seatIDs, now); err != nil {
			return err
		}

		conflicts := map[uint64]struct{}{}
		locks, err := s.store.ActiveLocks(ctx, showtimeID, seatIDs, now)
		if err != nil {
			return err
		}
		for _, l := range locks {
			if l.UserID != userID {
				conflicts[l.SeatID] = struct{}{}
			}
		}

		claimed, err := s.store.ClaimedSeatIDs(ctx, showtimeID, seatIDs)
		if err != nil {
			return err
		}
		for _, id := range claimed {
			conflicts[id] = struct{}{}
		}

		if len(conflicts) > 0 {
			return &ConflictError{SeatIDs: sortedIDs(conflicts)}
		}

		// Refresh rather than stack: drop the user's own rows on these
		// seats, then insert the full set with a fresh deadline.
		if _, err := s.store.DeleteLocksByHolder(ctx, showtimeID, userID, seatIDs); err != nil {
			return err
		}

		expires = now.Add(s.ttl)
		rows := make([]model.SeatLock, 0, len(seatIDs))
		for _, id := range seatIDs {
			rows = append(rows, model.SeatLock{
				SeatID:      id,
				ShowtimeID:  showtimeID,
				UserID:      userID,
				LockedUntil: expires,
			})
		}
		return s.store.CreateLocks(ctx, rows)
	})
	if err != nil {
		return time.Time{}, err
	}
	return expires, nil
}

// Release drops the user's locks on the given seats.  Releasing seats
// that were never locked, or whose locks already expired, is a no-op; the
// count of removed rows is returned for the response body.
func (s *SeatLockService) Release(ctx context.Context, showtimeID uint64, seatIDs []uint64, userID uint64) (int64, error) {
	seatIDs = dedupeIDs(seatIDs)
	if len(seatIDs) == 0 {
		return 0, &ValidationError{Msg: "at least one seat is required"}
	}
	return s.store.DeleteLocksByHolder(ctx, showtimeID, userID, seatIDs)
}

// SweepExpired deletes lock rows past their deadline.  Purely hygiene:
// correctness never depends on the sweep having run.
func (s *SeatLockService) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.SweepExpiredLocks(ctx, s.clock.Now())
}
