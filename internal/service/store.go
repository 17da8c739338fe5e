package service

import (
	"context"
	"time"

	"github.com/vannda/cinebook/internal/model"
)

// Store is the persistence surface the services consume.  It is satisfied
// by *repository.Store; tests substitute an in-memory fake.  Every method
// honors a transaction carried in ctx by WithTx, so a service can compose
// several calls into one atomic unit.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error)
	ShowtimeForUpdate(ctx context.Context, id uint64) (*model.Showtime, error)
	SeatIDsByAuditorium(ctx context.Context, auditoriumID uint64) (map[uint64]struct{}, error)
	SeatsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error)

	ActiveLocks(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatLock, error)
	CreateLocks(ctx context.Context, locks []model.SeatLock) error
	DeleteLocksByHolder(ctx context.Context, showtimeID, userID uint64, seatIDs []uint64) (int64, error)
	DeleteExpiredLocksBySeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) error
	SweepExpiredLocks(ctx context.Context, now time.Time) (int64, error)

	ClaimedSeatIDs(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]uint64, error)
	AllClaimedSeatIDs(ctx context.Context, showtimeID uint64) (map[uint64]struct{}, error)
	CreateBooking(ctx context.Context, b *model.Booking) error
	InsertBookingSeats(ctx context.Context, bookingID uint64, seatIDs []uint64) error
	BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error)
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	BookingForUpdate(ctx context.Context, id uint64) (*model.Booking, error)
	BookingByPaymentRef(ctx context.Context, ref string) (*model.Booking, error)
	FinalizeBooking(ctx context.Context, b *model.Booking) error
	SetBookingPaymentRef(ctx context.Context, bookingID uint64, method, ref string) error
	CancelExpiredPending(ctx context.Context, cutoff time.Time) (int64, error)
	PendingWithReference(ctx context.Context, limit int) ([]model.Booking, error)

	// IsRetryable reports whether err is transient lock contention worth
	// another attempt (deadlock victim, lock wait timeout).
	IsRetryable(err error) bool
	// IsDuplicateKey reports a unique-key violation, which on the lock
	// table means another process inserted the same seat first.
	IsDuplicateKey(err error) bool
}
