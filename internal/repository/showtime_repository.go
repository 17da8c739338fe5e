package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vannda/cinebook/internal/model"
)

// ShowtimeRepo encapsulates database operations for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo given a DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *ShowtimeRepo) DB() *sql.DB { return r.db }

// Create inserts a showtime and populates the generated ID.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime) error {
	const query = `INSERT INTO showtimes (movie_id, auditorium_id, starts_at, price_cents) VALUES (?, ?, ?, ?)`
	res, err := q(ctx, r.db).ExecContext(ctx, query,
		s.MovieID, s.AuditoriumID, s.StartsAt.UTC().Format("2006-01-02 15:04:05"), s.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

func (r *ShowtimeRepo) get(ctx context.Context, query string, id uint64) (*model.Showtime, error) {
	var s model.Showtime
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.MovieID, &s.AuditoriumID, &s.StartsAt, &s.PriceCents, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByID loads a showtime by primary key.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	return r.get(ctx, `SELECT id, movie_id, auditorium_id, starts_at, price_cents, created_at, updated_at
	                   FROM showtimes WHERE id = ?`, id)
}

// GetByIDForUpdate loads a showtime with FOR UPDATE.  Must run inside a
// transaction.  Locking the showtime row gives every reservation and
// lock-acquisition transaction for one showtime a single point of
// serialization over the seat key space.
func (r *ShowtimeRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Showtime, error) {
	return r.get(ctx, `SELECT id, movie_id, auditorium_id, starts_at, price_cents, created_at, updated_at
	                   FROM showtimes WHERE id = ? FOR UPDATE`, id)
}

// ShowtimeDetail joins a showtime with its movie and venue for listings.
type ShowtimeDetail struct {
	ID             uint64 `json:"id"`
	MovieID        uint64 `json:"movie_id"`
	MovieTitle     string `json:"movie_title"`
	AuditoriumID   uint64 `json:"auditorium_id"`
	AuditoriumName string `json:"auditorium_name"`
	CinemaID       uint64 `json:"cinema_id"`
	CinemaName     string `json:"cinema_name"`
	StartsAt       string `json:"starts_at"`
	PriceCents     uint32 `json:"price_cents"`
}

// List returns showtimes joined with movie and venue info ordered by
// start time.  Optional filters: a calendar date (UTC) and a cinema ID;
// zero values disable each filter.
func (r *ShowtimeRepo) List(ctx context.Context, date *time.Time, cinemaID uint64) ([]ShowtimeDetail, error) {
	query := `SELECT st.id, m.id, m.title, a.id, a.name, c.id, c.name, st.starts_at, st.price_cents
	          FROM showtimes st
	          JOIN movies m ON m.id = st.movie_id
	          JOIN auditoriums a ON a.id = st.auditorium_id
	          JOIN cinemas c ON c.id = a.cinema_id`
	var (
		conds []string
		args  []interface{}
	)
	if date != nil {
		conds = append(conds, `st.starts_at >= ? AND st.starts_at < ?`)
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		args = append(args, day.Format("2006-01-02 15:04:05"), day.Add(24*time.Hour).Format("2006-01-02 15:04:05"))
	}
	if cinemaID != 0 {
		conds = append(conds, `c.id = ?`)
		args = append(args, cinemaID)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY st.starts_at ASC"
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ShowtimeDetail, 0)
	for rows.Next() {
		var d ShowtimeDetail
		var startsAt time.Time
		if err := rows.Scan(&d.ID, &d.MovieID, &d.MovieTitle, &d.AuditoriumID, &d.AuditoriumName,
			&d.CinemaID, &d.CinemaName, &startsAt, &d.PriceCents); err != nil {
			return nil, err
		}
		d.StartsAt = startsAt.UTC().Format(time.RFC3339)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update rewrites the mutable showtime columns.
func (r *ShowtimeRepo) Update(ctx context.Context, s *model.Showtime) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE showtimes SET movie_id = ?, auditorium_id = ?, starts_at = ?, price_cents = ? WHERE id = ?`,
		s.MovieID, s.AuditoriumID, s.StartsAt.UTC().Format("2006-01-02 15:04:05"), s.PriceCents, s.ID)
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

// Delete removes a showtime unless it still has non-cancelled bookings,
// in which case ErrConflict is returned.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE showtime_id = ? AND status IN ('pending','paid')`, id).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
