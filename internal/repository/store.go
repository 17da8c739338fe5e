package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vannda/cinebook/internal/model"
)

// Store bundles the repositories the domain services depend on behind a
// single value and carries the transaction runner.  The service layer
// declares narrow interfaces that Store satisfies; tests substitute
// in-memory fakes.
type Store struct {
	db        *sql.DB
	Bookings  *BookingRepo
	Locks     *SeatLockRepo
	Seats     *SeatRepo
	Showtimes *ShowtimeRepo
}

// NewStore wires a Store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		Bookings:  NewBookingRepo(db),
		Locks:     NewSeatLockRepo(db),
		Seats:     NewSeatRepo(db),
		Showtimes: NewShowtimeRepo(db),
	}
}

// WithTx runs fn inside one database transaction; see the package-level
// WithTx for semantics.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, s.db, fn)
}

// ShowtimeForUpdate locks and returns the showtime row.
func (s *Store) ShowtimeForUpdate(ctx context.Context, id uint64) (*model.Showtime, error) {
	return s.Showtimes.GetByIDForUpdate(ctx, id)
}

// SeatIDsByAuditorium returns the set of seat IDs in an auditorium.
func (s *Store) SeatIDsByAuditorium(ctx context.Context, auditoriumID uint64) (map[uint64]struct{}, error) {
	return s.Seats.IDSetByAuditorium(ctx, auditoriumID)
}

// ActiveLocks returns non-expired locks on the given seats.
func (s *Store) ActiveLocks(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatLock, error) {
	return s.Locks.ActiveBySeats(ctx, showtimeID, seatIDs, now)
}

// ClaimedSeatIDs returns the given seats that non-cancelled bookings hold.
func (s *Store) ClaimedSeatIDs(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]uint64, error) {
	return s.Bookings.ClaimedSeatIDs(ctx, showtimeID, seatIDs)
}

// CreateBooking inserts a booking row.
func (s *Store) CreateBooking(ctx context.Context, b *model.Booking) error {
	return s.Bookings.Create(ctx, b)
}

// InsertBookingSeats writes the booking's seat set.
func (s *Store) InsertBookingSeats(ctx context.Context, bookingID uint64, seatIDs []uint64) error {
	return s.Bookings.InsertSeats(ctx, bookingID, seatIDs)
}

// CreateLocks inserts seat lock rows.
func (s *Store) CreateLocks(ctx context.Context, locks []model.SeatLock) error {
	return s.Locks.CreateBulk(ctx, locks)
}

// DeleteLocksByHolder removes a holder's locks on the given seats.
func (s *Store) DeleteLocksByHolder(ctx context.Context, showtimeID, userID uint64, seatIDs []uint64) (int64, error) {
	return s.Locks.DeleteByHolder(ctx, showtimeID, userID, seatIDs)
}

// DeleteExpiredLocksBySeats clears stale lock rows on the given seats.
func (s *Store) DeleteExpiredLocksBySeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) error {
	return s.Locks.DeleteExpiredBySeats(ctx, showtimeID, seatIDs, now)
}

// SweepExpiredLocks clears all stale lock rows.
func (s *Store) SweepExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	return s.Locks.DeleteExpired(ctx, now)
}

// GetShowtime loads a showtime without locking it.
func (s *Store) GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return s.Showtimes.GetByID(ctx, id)
}

// SeatsByAuditorium lists the seats of an auditorium in display order.
func (s *Store) SeatsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error) {
	return s.Seats.ListByAuditorium(ctx, auditoriumID)
}

// AllClaimedSeatIDs returns every seat held by a non-cancelled booking
// for the showtime, as a set.
func (s *Store) AllClaimedSeatIDs(ctx context.Context, showtimeID uint64) (map[uint64]struct{}, error) {
	ids, err := s.Bookings.AllClaimedSeatIDs(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// BookingSeatIDs returns the seats claimed by a booking.
func (s *Store) BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error) {
	return s.Bookings.SeatIDs(ctx, bookingID)
}

// GetBooking loads a booking with its seats.
func (s *Store) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.Bookings.GetByID(ctx, id)
}

// BookingForUpdate locks and returns the booking row.
func (s *Store) BookingForUpdate(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.Bookings.GetByIDForUpdate(ctx, id)
}

// BookingByPaymentRef resolves a booking from its charge reference.
func (s *Store) BookingByPaymentRef(ctx context.Context, ref string) (*model.Booking, error) {
	return s.Bookings.GetByPaymentRef(ctx, ref)
}

// FinalizeBooking persists a transition out of pending.
func (s *Store) FinalizeBooking(ctx context.Context, b *model.Booking) error {
	return s.Bookings.FinalizeFromPending(ctx, b)
}

// SetBookingPaymentRef records the charge issued for a pending booking.
func (s *Store) SetBookingPaymentRef(ctx context.Context, id uint64, method, ref string) error {
	return s.Bookings.SetPaymentRef(ctx, id, method, ref)
}

// CancelExpiredPending cancels pending bookings created before cutoff.
func (s *Store) CancelExpiredPending(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.Bookings.CancelExpiredPending(ctx, cutoff)
}

// PendingWithReference lists charged but unconfirmed bookings.
func (s *Store) PendingWithReference(ctx context.Context, limit int) ([]model.Booking, error) {
	return s.Bookings.PendingWithReference(ctx, limit)
}

// IsRetryable reports whether an error from a transactional operation is
// transient lock contention worth retrying.
func (s *Store) IsRetryable(err error) bool {
	return IsLockContention(err)
}

// IsDuplicateKey reports a unique-key violation.
func (s *Store) IsDuplicateKey(err error) bool {
	return IsDuplicateEntry(err)
}
