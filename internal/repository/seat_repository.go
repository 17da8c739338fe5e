package repository

import (
	"context"
	"database/sql"

	"github.com/vannda/cinebook/internal/model"
)

// SeatRepo encapsulates database operations for physical seats.  Seats
// are created once per auditorium and never updated; availability is
// derived from bookings and locks, not stored on the seat.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// CreateBulk inserts multiple seats in one statement.  The ID fields of
// the passed structures are not populated.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (auditorium_id, row_label, seat_number) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, s.AuditoriumID, s.RowLabel, s.SeatNumber)
	}
	_, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// ListByAuditorium returns the auditorium's seats ordered by row and
// number.
func (r *SeatRepo) ListByAuditorium(ctx context.Context, auditoriumID uint64) ([]model.Seat, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, auditorium_id, row_label, seat_number, created_at
		 FROM seats WHERE auditorium_id = ?
		 ORDER BY row_label, seat_number`, auditoriumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.AuditoriumID, &s.RowLabel, &s.SeatNumber, &s.CreatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// IDSetByAuditorium returns the auditorium's seat IDs as a set, used to
// validate that requested seats belong to a showtime's auditorium.
func (r *SeatRepo) IDSetByAuditorium(ctx context.Context, auditoriumID uint64) (map[uint64]struct{}, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id FROM seats WHERE auditorium_id = ?`, auditoriumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	return set, rows.Err()
}

// DeleteByAuditorium removes every seat in an auditorium.  Used when an
// admin rebuilds the seat grid.
func (r *SeatRepo) DeleteByAuditorium(ctx context.Context, auditoriumID uint64) error {
	_, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM seats WHERE auditorium_id = ?`, auditoriumID)
	return err
}
