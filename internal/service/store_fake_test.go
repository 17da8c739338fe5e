package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vannda/cinebook/internal/model"
	"github.com/vannda/cinebook/internal/repository"
)

// fakeStore is an in-memory Store.  WithTx takes a mutex for the duration
// of the callback, which models what the showtime row lock provides in
// production: transactions touching the same data run one at a time.
type fakeStore struct {
	mu sync.Mutex

	showtimes    map[uint64]model.Showtime
	seats        map[uint64][]model.Seat // by auditorium
	locks        []model.SeatLock
	bookings     map[uint64]*model.Booking
	bookingSeats map[uint64][]uint64

	nextLockID    uint64
	nextBookingID uint64

	txErr error // injected failure returned by WithTx after fn succeeds
}

var errDuplicateLock = errors.New("duplicate lock row")

func newFakeStore() *fakeStore {
	return &fakeStore{
		showtimes:    make(map[uint64]model.Showtime),
		seats:        make(map[uint64][]model.Seat),
		bookings:     make(map[uint64]*model.Booking),
		bookingSeats: make(map[uint64][]uint64),
	}
}

func (f *fakeStore) addShowtime(id, auditoriumID uint64, priceCents uint32) {
	f.showtimes[id] = model.Showtime{ID: id, MovieID: 1, AuditoriumID: auditoriumID, PriceCents: priceCents}
}

func (f *fakeStore) addSeats(auditoriumID uint64, seatIDs ...uint64) {
	for _, id := range seatIDs {
		f.seats[auditoriumID] = append(f.seats[auditoriumID], model.Seat{ID: id, AuditoriumID: auditoriumID})
	}
}

type fakeTxKey struct{}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		return err
	}
	return f.txErr
}

// hold locks the store for methods invoked outside a transaction.
func (f *fakeStore) hold(ctx context.Context) func() {
	if ctx.Value(fakeTxKey{}) != nil {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *fakeStore) GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	defer f.hold(ctx)()
	st, ok := f.showtimes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (f *fakeStore) ShowtimeForUpdate(ctx context.Context, id uint64) (*model.Showtime, error) {
	return f.GetShowtime(ctx, id)
}

func (f *fakeStore) SeatIDsByAuditorium(ctx context.Context, auditoriumID uint64) (map[uint64]struct{}, error) {
	defer f.hold(ctx)()
	set := make(map[uint64]struct{})
	for _, s := range f.seats[auditoriumID] {
		set[s.ID] = struct{}{}
	}
	return set, nil
}

func (f *fakeStore) SeatsByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error) {
	defer f.hold(ctx)()
	return append([]model.Seat(nil), f.seats[auditoriumID]...), nil
}

func (f *fakeStore) ActiveLocks(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatLock, error) {
	defer f.hold(ctx)()
	want := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		want[id] = struct{}{}
	}
	var out []model.SeatLock
	for _, l := range f.locks {
		if l.ShowtimeID != showtimeID || l.Expired(now) {
			continue
		}
		if _, ok := want[l.SeatID]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateLocks(ctx context.Context, locks []model.SeatLock) error {
	defer f.hold(ctx)()
	for _, nl := range locks {
		for _, l := range f.locks {
			if l.SeatID == nl.SeatID && l.ShowtimeID == nl.ShowtimeID {
				return errDuplicateLock
			}
		}
		f.nextLockID++
		nl.ID = f.nextLockID
		f.locks = append(f.locks, nl)
	}
	return nil
}

func (f *fakeStore) DeleteLocksByHolder(ctx context.Context, showtimeID, userID uint64, seatIDs []uint64) (int64, error) {
	defer f.hold(ctx)()
	want := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		want[id] = struct{}{}
	}
	var kept []model.SeatLock
	var removed int64
	for _, l := range f.locks {
		if l.ShowtimeID == showtimeID && l.UserID == userID {
			if _, ok := want[l.SeatID]; ok {
				removed++
				continue
			}
		}
		kept = append(kept, l)
	}
	f.locks = kept
	return removed, nil
}

func (f *fakeStore) DeleteExpiredLocksBySeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) error {
	defer f.hold(ctx)()
	want := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		want[id] = struct{}{}
	}
	var kept []model.SeatLock
	for _, l := range f.locks {
		if l.ShowtimeID == showtimeID && l.Expired(now) {
			if _, ok := want[l.SeatID]; ok {
				continue
			}
		}
		kept = append(kept, l)
	}
	f.locks = kept
	return nil
}

func (f *fakeStore) SweepExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	defer f.hold(ctx)()
	var kept []model.SeatLock
	var removed int64
	for _, l := range f.locks {
		if l.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	f.locks = kept
	return removed, nil
}

func (f *fakeStore) ClaimedSeatIDs(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]uint64, error) {
	defer f.hold(ctx)()
	want := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		want[id] = struct{}{}
	}
	var out []uint64
	for id, b := range f.bookings {
		if b.ShowtimeID != showtimeID || b.Status == model.BookingStatusCancelled {
			continue
		}
		for _, sid := range f.bookingSeats[id] {
			if _, ok := want[sid]; ok {
				out = append(out, sid)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) AllClaimedSeatIDs(ctx context.Context, showtimeID uint64) (map[uint64]struct{}, error) {
	defer f.hold(ctx)()
	set := make(map[uint64]struct{})
	for id, b := range f.bookings {
		if b.ShowtimeID != showtimeID || b.Status == model.BookingStatusCancelled {
			continue
		}
		for _, sid := range f.bookingSeats[id] {
			set[sid] = struct{}{}
		}
	}
	return set, nil
}

func (f *fakeStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	defer f.hold(ctx)()
	f.nextBookingID++
	b.ID = f.nextBookingID
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) InsertBookingSeats(ctx context.Context, bookingID uint64, seatIDs []uint64) error {
	defer f.hold(ctx)()
	f.bookingSeats[bookingID] = append([]uint64(nil), seatIDs...)
	return nil
}

func (f *fakeStore) BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error) {
	defer f.hold(ctx)()
	return append([]uint64(nil), f.bookingSeats[bookingID]...), nil
}

func (f *fakeStore) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	defer f.hold(ctx)()
	return f.getBooking(id)
}

func (f *fakeStore) getBooking(id uint64) (*model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	cp.SeatIDs = append([]uint64(nil), f.bookingSeats[id]...)
	return &cp, nil
}

func (f *fakeStore) BookingForUpdate(ctx context.Context, id uint64) (*model.Booking, error) {
	return f.GetBooking(ctx, id)
}

func (f *fakeStore) BookingByPaymentRef(ctx context.Context, ref string) (*model.Booking, error) {
	defer f.hold(ctx)()
	for id, b := range f.bookings {
		if b.PaymentReference != nil && *b.PaymentReference == ref {
			return f.getBooking(id)
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FinalizeBooking(ctx context.Context, b *model.Booking) error {
	defer f.hold(ctx)()
	stored, ok := f.bookings[b.ID]
	if !ok || stored.Status != model.BookingStatusPending {
		return repository.ErrNotFound
	}
	stored.Status = b.Status
	stored.PaymentReference = b.PaymentReference
	stored.PaidAt = b.PaidAt
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) SetBookingPaymentRef(ctx context.Context, bookingID uint64, method, ref string) error {
	defer f.hold(ctx)()
	stored, ok := f.bookings[bookingID]
	if !ok {
		return repository.ErrNotFound
	}
	m, r := method, ref
	stored.PaymentMethod = &m
	stored.PaymentReference = &r
	return nil
}

func (f *fakeStore) CancelExpiredPending(ctx context.Context, cutoff time.Time) (int64, error) {
	defer f.hold(ctx)()
	var n int64
	for _, b := range f.bookings {
		if b.Status == model.BookingStatusPending && b.CreatedAt.Before(cutoff) {
			b.Status = model.BookingStatusCancelled
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) PendingWithReference(ctx context.Context, limit int) ([]model.Booking, error) {
	defer f.hold(ctx)()
	var out []model.Booking
	for id, b := range f.bookings {
		if b.Status != model.BookingStatusPending || b.PaymentReference == nil {
			continue
		}
		cp := *b
		cp.SeatIDs = append([]uint64(nil), f.bookingSeats[id]...)
		out = append(out, cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) IsRetryable(err error) bool { return false }

func (f *fakeStore) IsDuplicateKey(err error) bool { return errors.Is(err, errDuplicateLock) }
