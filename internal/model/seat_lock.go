package model

import "time"

// SeatLock is a transient hold on a (seat, showtime) pair taken while a
// customer is selecting seats, before any booking exists.  At most one
// active lock may exist per pair; expired rows are logically absent and
// every read path must filter on LockedUntil, since the sweeper removes
// them lazily.
//
// Fields:
//  ID          – primary key identifier.
//  SeatID      – seat being held.
//  ShowtimeID  – showtime for which the seat is held.
//  UserID      – holder of the lock.
//  LockedUntil – expiry timestamp; the lock is void once this passes.
type SeatLock struct {
	ID          uint64    // seat_locks.id
	SeatID      uint64    // seat_locks.seat_id
	ShowtimeID  uint64    // seat_locks.showtime_id
	UserID      uint64    // seat_locks.user_id
	LockedUntil time.Time // seat_locks.locked_until
	CreatedAt   time.Time // seat_locks.created_at
}

// Expired reports whether the lock is void at the given instant.
func (l *SeatLock) Expired(now time.Time) bool {
	return !l.LockedUntil.After(now)
}
