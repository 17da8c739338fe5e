package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vannda/cinebook/internal/model"
)

// SeatLockRepo provides data access to the seat_locks table.  A row is a
// transient hold on one (seat, showtime) pair; the table carries a unique
// key on (seat_id, showtime_id) so that two holders can never insert
// overlapping rows.  Expired rows are logically absent: every query
// filters on locked_until against a caller-supplied instant, and the
// sweeper deletes them opportunistically.  All timestamps are UTC.
type SeatLockRepo struct {
	db *sql.DB
}

// NewSeatLockRepo returns a SeatLockRepo bound to the given database.
func NewSeatLockRepo(db *sql.DB) *SeatLockRepo { return &SeatLockRepo{db: db} }

// ActiveBySeats returns the non-expired locks covering any of seatIDs for
// the given showtime.  When called inside a transaction the rows are
// locked with FOR UPDATE so concurrent acquirers serialize on them.
func (r *SeatLockRepo) ActiveBySeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatLock, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, seat_id, showtime_id, user_id, locked_until, created_at
	          FROM seat_locks
	          WHERE showtime_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `) AND locked_until > ?`
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, showtimeID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	args = append(args, now.UTC().Format("2006-01-02 15:04:05"))
	if txFromContext(ctx) != nil {
		query += " FOR UPDATE"
	}
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var locks []model.SeatLock
	for rows.Next() {
		var l model.SeatLock
		if err := rows.Scan(&l.ID, &l.SeatID, &l.ShowtimeID, &l.UserID, &l.LockedUntil, &l.CreatedAt); err != nil {
			return nil, err
		}
		locks = append(locks, l)
	}
	return locks, rows.Err()
}

// CreateBulk inserts one lock row per element in a single statement.  A
// duplicate-key error surfaces unchanged so callers can map the race to a
// conflict.  Passing an empty slice is a no-op.
func (r *SeatLockRepo) CreateBulk(ctx context.Context, locks []model.SeatLock) error {
	if len(locks) == 0 {
		return nil
	}
	query := `INSERT INTO seat_locks (seat_id, showtime_id, user_id, locked_until) VALUES `
	args := make([]interface{}, 0, len(locks)*4)
	for i, l := range locks {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, l.SeatID, l.ShowtimeID, l.UserID, l.LockedUntil.UTC().Format("2006-01-02 15:04:05"))
	}
	_, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// DeleteByHolder removes the locks the given user holds on the listed
// seats for a showtime, returning how many rows were deleted.  Absent
// rows are not an error, which makes release idempotent.
func (r *SeatLockRepo) DeleteByHolder(ctx context.Context, showtimeID, userID uint64, seatIDs []uint64) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	query := `DELETE FROM seat_locks
	          WHERE showtime_id = ? AND user_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, showtimeID, userID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	res, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpiredBySeats removes expired lock rows covering the listed
// seats for a showtime.  Acquire calls this inside its transaction before
// inserting, so fresh locks never collide with stale rows on the
// (seat_id, showtime_id) unique key.
func (r *SeatLockRepo) DeleteExpiredBySeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `DELETE FROM seat_locks
	          WHERE showtime_id = ? AND locked_until <= ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, showtimeID, now.UTC().Format("2006-01-02 15:04:05"))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	_, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// DeleteExpired removes every lock whose expiry has passed and returns
// the number of rows swept.  This is purely a cleanup: correctness never
// depends on it because all reads filter on locked_until.
func (r *SeatLockRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`DELETE FROM seat_locks WHERE locked_until <= ?`,
		now.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
