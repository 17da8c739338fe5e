package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vannda/cinebook/internal/clock"
	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/repository"
)

// maxTxAttempts bounds retries when MySQL picks the transaction as a
// deadlock victim under heavy seat contention.
const maxTxAttempts = 3

// ReservationService creates and cancels bookings.  CreateBooking is the
// single write path for claiming seats: the conflict check and the insert
// happen inside one transaction anchored on the showtime row, so two
// requests for overlapping seats serialize and exactly one wins.
type ReservationService struct {
	store Store
	clock clock.Clock
}

func NewReservationService(store Store, clk clock.Clock) *ReservationService {
	return &ReservationService{store: store, clock: clk}
}

// CreateBookingInput carries a customer's seat selection for one showtime.
type CreateBookingInput struct {
	UserID        uint64
	ShowtimeID    uint64
	SeatIDs       []uint64
	PaymentMethod string
}

// CreateBooking claims the requested seats atomically.  On a lost race it
// returns ConflictError with the contested seat ids and leaves no partial
// state.  Seats the same user had locked are consumed by the booking.
func (s *ReservationService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	seatIDs := dedupeIDs(in.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, &ValidationError{Msg: "at least one seat is required"}
	}
	if in.PaymentMethod != "" && !model.ValidPaymentMethod(in.PaymentMethod) {
		return nil, &ValidationError{Msg: "unsupported payment method: " + in.PaymentMethod}
	}

	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		b, err := s.tryCreate(ctx, in.UserID, in.ShowtimeID, seatIDs, in.PaymentMethod)
		if err == nil {
			return b, nil
		}
		if !s.store.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (s *ReservationService) tryCreate(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64, paymentMethod string) (*model.Booking, error) {
	var booking *model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		// Locking the showtime row serializes every booking and lock
		// attempt for this showtime; all checks below see final state.
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
		conflicts := map[uint64]struct{}{}

		locks, err := s.store.ActiveLocks(ctx, showtimeID, seatIDs, now)
		if err != nil {
			return err
		}
		for _, l := range locks {
			// A user's own lock does not block them; the booking
			// consumes it below.
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

		b := &model.Booking{
			UserID:          userID,
			ShowtimeID:      showtimeID,
			Status:          model.BookingStatusPending,
			TotalPriceCents: st.PriceCents * uint32(len(seatIDs)),
		}
		if paymentMethod != "" {
			b.PaymentMethod = &paymentMethod
		}
		if err := s.store.CreateBooking(ctx, b); err != nil {
			return err
		}
		if err := s.store.InsertBookingSeats(ctx, b.ID, seatIDs); err != nil {
			return err
		}
		// Convert the caller's own holds into the booking's claim.
		if _, err := s.store.DeleteLocksByHolder(ctx, showtimeID, userID, seatIDs); err != nil {
			return err
		}
		b.SeatIDs = seatIDs
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel moves the caller's pending booking to cancelled, releasing its
// seats for others.  Paid and cancelled bookings are left untouched.
func (s *ReservationService) Cancel(ctx context.Context, bookingID, userID uint64) (*model.Booking, error) {
	var out *model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.store.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return repository.ErrForbidden
		}
		if err := b.Cancel(); err != nil {
			return err
		}
		if err := s.store.FinalizeBooking(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SeatAvailability is one seat of a showtime's auditorium annotated with
// its current claim state.
type SeatAvailability struct {
	Seat   model.Seat `json:"seat"`
	Status string     `json:"status"` // available | locked | booked
}

// Availability returns every seat of the showtime's auditorium with its
// state at the current instant.  The read is advisory: the truth is
// re-established under the showtime lock when a booking is attempted.
func (s *ReservationService) Availability(ctx context.Context, showtimeID uint64) ([]SeatAvailability, error) {
	st, err := s.store.GetShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	seats, err := s.store.SeatsByAuditorium(ctx, st.AuditoriumID)
	if err != nil {
		return nil, err
	}
	booked, err := s.store.AllClaimedSeatIDs(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	seatIDs := make([]uint64, 0, len(seats))
	for _, seat := range seats {
		seatIDs = append(seatIDs, seat.ID)
	}
	locks, err := s.store.ActiveLocks(ctx, showtimeID, seatIDs, s.clock.Now())
	if err != nil {
		return nil, err
	}
	locked := map[uint64]struct{}{}
	for _, l := range locks {
		locked[l.SeatID] = struct{}{}
	}

	out := make([]SeatAvailability, 0, len(seats))
	for _, seat := range seats {
		status := "available"
		if _, ok := locked[seat.ID]; ok {
			status = "locked"
		}
		if _, ok := booked[seat.ID]; ok {
			status = "booked"
		}
		out = append(out, SeatAvailability{Seat: seat, Status: status})
	}
	return out, nil
}

// ExpirePending cancels pending bookings older than timeout, freeing
// their seats.  Run periodically by the background expirer.
func (s *ReservationService) ExpirePending(ctx context.Context, timeout time.Duration) (int64, error) {
	return s.store.CancelExpiredPending(ctx, s.clock.Now().Add(-timeout))
}

// dedupeIDs drops duplicate ids while keeping first-seen order.
func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortedIDs(set map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
