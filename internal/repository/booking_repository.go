package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vannda/cinebook/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their seats.  A
// booking groups the seats one customer claims for a showtime; the seats
// live in the booking_seats join table and are written exactly once, at
// creation time.  All timestamp fields are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a new booking row and populates the generated ID and
// timestamps on b.  It must be called inside a transaction together with
// InsertSeats so a booking never exists without its seat set.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const ins = `INSERT INTO bookings (user_id, showtime_id, status, total_price_cents, payment_method)
	             VALUES (?, ?, ?, ?, ?)`
	res, err := q(ctx, r.db).ExecContext(ctx, ins, b.UserID, b.ShowtimeID, b.Status, b.TotalPriceCents, b.PaymentMethod)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return q(ctx, r.db).QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// InsertSeats writes one booking_seats row per seat in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) InsertSeats(ctx context.Context, bookingID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_id) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*2)
	for i, sid := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, bookingID, sid)
	}
	_, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// ClaimedSeatIDs returns the subset of seatIDs already held by a booking
// with status pending or paid for the given showtime.  Cancelled bookings
// do not claim seats.  Inside a transaction the matching booking rows are
// locked with FOR UPDATE, which is what serializes two createBooking
// calls racing on the same seats.
func (r *BookingRepo) ClaimedSeatIDs(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]uint64, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	query := `SELECT bs.seat_id
	          FROM booking_seats bs
	          JOIN bookings b ON b.id = bs.booking_id
	          WHERE b.showtime_id = ? AND b.status IN ('pending','paid')
	            AND bs.seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showtimeID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	if txFromContext(ctx) != nil {
		query += " FOR UPDATE"
	}
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var claimed []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		claimed = append(claimed, sid)
	}
	return claimed, rows.Err()
}

// AllClaimedSeatIDs returns every seat held by a non-cancelled booking
// for the showtime.  Used by the availability view.
func (r *BookingRepo) AllClaimedSeatIDs(ctx context.Context, showtimeID uint64) ([]uint64, error) {
	const query = `SELECT bs.seat_id
	               FROM booking_seats bs
	               JOIN bookings b ON b.id = bs.booking_id
	               WHERE b.showtime_id = ? AND b.status IN ('pending','paid')`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var claimed []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		claimed = append(claimed, sid)
	}
	return claimed, rows.Err()
}

const bookingColumns = `id, user_id, showtime_id, status, total_price_cents, payment_method, payment_reference, paid_at, created_at, updated_at`

func scanBooking(row *sql.Row) (*model.Booking, error) {
	var b model.Booking
	var method, ref sql.NullString
	var paidAt sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.ShowtimeID, &b.Status, &b.TotalPriceCents,
		&method, &ref, &paidAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if method.Valid {
		m := method.String
		b.PaymentMethod = &m
	}
	if ref.Valid {
		v := ref.String
		b.PaymentReference = &v
	}
	if paidAt.Valid {
		t := paidAt.Time
		b.PaidAt = &t
	}
	return &b, nil
}

// GetByID loads a booking and its seat IDs.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(q(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	b.SeatIDs, err = r.SeatIDs(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetByIDForUpdate loads a booking row with FOR UPDATE.  It must be
// called inside a transaction; the row lock is what makes the webhook and
// polling confirmation paths, and customer cancellation, serialize on a
// single status transition.
func (r *BookingRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Booking, error) {
	return scanBooking(q(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
}

// GetByPaymentRef loads a booking by its charge reference.  The webhook
// path uses it to resolve which booking a provider notification is about.
func (r *BookingRepo) GetByPaymentRef(ctx context.Context, ref string) (*model.Booking, error) {
	return scanBooking(q(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE payment_reference = ?`, ref))
}

// SeatIDs returns the seats claimed by a booking.
func (r *BookingRepo) SeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT seat_id FROM booking_seats WHERE booking_id = ? ORDER BY seat_id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		ids = append(ids, sid)
	}
	return ids, rows.Err()
}

// FinalizeFromPending persists a status transition out of pending.  The
// WHERE guard on the previous status means a concurrent transition loses
// cleanly: zero rows affected is reported as ErrNotFound so the caller
// can re-read and observe the terminal state instead of overwriting it.
func (r *BookingRepo) FinalizeFromPending(ctx context.Context, b *model.Booking) error {
	const query = `UPDATE bookings
	               SET status = ?, payment_reference = ?, paid_at = ?
	               WHERE id = ? AND status = 'pending'`
	var paidAt interface{}
	if b.PaidAt != nil {
		paidAt = b.PaidAt.UTC().Format("2006-01-02 15:04:05")
	}
	res, err := q(ctx, r.db).ExecContext(ctx, query, b.Status, b.PaymentReference, paidAt, b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPaymentRef records the payment method and charge reference issued
// for a pending booking when the customer requests a charge.
func (r *BookingRepo) SetPaymentRef(ctx context.Context, id uint64, method, ref string) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE bookings SET payment_method = ?, payment_reference = ? WHERE id = ? AND status = 'pending'`,
		method, ref, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelExpiredPending cancels every pending booking created before the
// cutoff and returns how many were affected.  The status guard keeps the
// sweep from ever touching paid bookings.
func (r *BookingRepo) CancelExpiredPending(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled' WHERE status = 'pending' AND created_at < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PendingWithReference lists pending bookings that already have a charge
// reference, oldest first.  The payment poller asks the gateway about
// each of these.
func (r *BookingRepo) PendingWithReference(ctx context.Context, limit int) ([]model.Booking, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE status = 'pending' AND payment_reference IS NOT NULL
		 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		var method, ref sql.NullString
		var paidAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowtimeID, &b.Status, &b.TotalPriceCents,
			&method, &ref, &paidAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if method.Valid {
			m := method.String
			b.PaymentMethod = &m
		}
		if ref.Valid {
			v := ref.String
			b.PaymentReference = &v
		}
		if paidAt.Valid {
			t := paidAt.Time
			b.PaidAt = &t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// BookingDetail is a booking joined with its showtime, movie, auditorium
// and cinema context plus the reserved seats, as shown to customers and
// admins.
type BookingDetail struct {
	ID               uint64  `json:"id"`
	UserID           uint64  `json:"user_id"`
	ShowtimeID       uint64  `json:"showtime_id"`
	Status           string  `json:"status"`
	TotalPriceCents  uint32  `json:"total_price_cents"`
	PaymentMethod    *string `json:"payment_method,omitempty"`
	PaymentReference *string `json:"payment_reference,omitempty"`
	PaidAt           *string `json:"paid_at,omitempty"`
	MovieTitle       string  `json:"movie_title"`
	StartsAt         string  `json:"starts_at"`
	AuditoriumName   string  `json:"auditorium_name"`
	CinemaName       string  `json:"cinema_name"`
	CreatedAt        string  `json:"created_at"`
	Seats            []SeatRef `json:"seats"`
}

// SeatRef identifies one reserved seat inside a BookingDetail.
type SeatRef struct {
	SeatID     uint64 `json:"seat_id"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
}

const bookingDetailQuery = `SELECT b.id, b.user_id, b.showtime_id, b.status, b.total_price_cents,
       b.payment_method, b.payment_reference, b.paid_at, b.created_at,
       m.title, st.starts_at, a.name, c.name
FROM bookings b
JOIN showtimes st ON st.id = b.showtime_id
JOIN movies m ON m.id = st.movie_id
JOIN auditoriums a ON a.id = st.auditorium_id
JOIN cinemas c ON c.id = a.cinema_id`

// ListByUser returns all bookings made by the given customer, newest
// first, with seats populated in one extra query.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	return r.listDetails(ctx, bookingDetailQuery+` WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID)
}

// ListByShowtime returns all bookings for a showtime, newest first.  Used
// by admin views.
func (r *BookingRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]BookingDetail, error) {
	return r.listDetails(ctx, bookingDetailQuery+` WHERE b.showtime_id = ? ORDER BY b.created_at DESC`, showtimeID)
}

// ListAll returns every booking, newest first.  Used by admin views.
func (r *BookingRepo) ListAll(ctx context.Context) ([]BookingDetail, error) {
	return r.listDetails(ctx, bookingDetailQuery + ` ORDER BY b.created_at DESC`)
}

func (r *BookingRepo) listDetails(ctx context.Context, query string, args ...interface{}) ([]BookingDetail, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		var method, ref sql.NullString
		var paidAt sql.NullTime
		var startsAt, createdAt time.Time
		if err := rows.Scan(&d.ID, &d.UserID, &d.ShowtimeID, &d.Status, &d.TotalPriceCents,
			&method, &ref, &paidAt, &createdAt,
			&d.MovieTitle, &startsAt, &d.AuditoriumName, &d.CinemaName); err != nil {
			return nil, err
		}
		if method.Valid {
			m := method.String
			d.PaymentMethod = &m
		}
		if ref.Valid {
			v := ref.String
			d.PaymentReference = &v
		}
		if paidAt.Valid {
			iso := paidAt.Time.UTC().Format(time.RFC3339)
			d.PaidAt = &iso
		}
		d.StartsAt = startsAt.UTC().Format(time.RFC3339)
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		d.Seats = []SeatRef{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Populate seats for all bookings in a single query.
	ids := make([]interface{}, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}
	seatQuery := `SELECT bs.booking_id, bs.seat_id, s.row_label, s.seat_number
	              FROM booking_seats bs
	              JOIN seats s ON s.id = bs.seat_id
	              WHERE bs.booking_id IN (` + placeholders(len(ids)) + `)
	              ORDER BY bs.booking_id, s.row_label, s.seat_number`
	srows, err := q(ctx, r.db).QueryContext(ctx, seatQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var ref SeatRef
		if err := srows.Scan(&bid, &ref.SeatID, &ref.RowLabel, &ref.SeatNumber); err != nil {
			return nil, err
		}
		if idx, ok := index[bid]; ok {
			details[idx].Seats = append(details[idx].Seats, ref)
		}
	}
	return details, srows.Err()
}
