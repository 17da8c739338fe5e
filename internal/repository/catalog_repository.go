package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vannda/cinebook/internal/model"
)

// MovieRepo provides CRUD operations for the movie catalog.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a movie and populates the generated ID.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO movies (title, description, duration_min, genre, poster_url) VALUES (?, ?, ?, ?, ?)`,
		m.Title, m.Description, m.DurationMin, m.Genre, m.PosterURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID loads a movie by primary key.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, title, description, duration_min, genre, poster_url, created_at, updated_at
		 FROM movies WHERE id = ?`, id).Scan(
		&m.ID, &m.Title, &m.Description, &m.DurationMin, &m.Genre, &m.PosterURL, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns all movies ordered by title.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, title, description, duration_min, genre, poster_url, created_at, updated_at
		 FROM movies ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.DurationMin, &m.Genre, &m.PosterURL,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// Update rewrites the mutable movie columns.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE movies SET title = ?, description = ?, duration_min = ?, genre = ?, poster_url = ? WHERE id = ?`,
		m.Title, m.Description, m.DurationMin, m.Genre, m.PosterURL, m.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// Delete removes a movie.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// CinemaRepo provides CRUD operations for cinemas and their auditoriums.
type CinemaRepo struct {
	db *sql.DB
}

// NewCinemaRepo returns a CinemaRepo bound to the given database.
func NewCinemaRepo(db *sql.DB) *CinemaRepo { return &CinemaRepo{db: db} }

// Create inserts a cinema and populates the generated ID.
func (r *CinemaRepo) Create(ctx context.Context, c *model.Cinema) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO cinemas (name, city, address) VALUES (?, ?, ?)`, c.Name, c.City, c.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// List returns all cinemas ordered by name.
func (r *CinemaRepo) List(ctx context.Context) ([]model.Cinema, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, name, city, address, created_at, updated_at FROM cinemas ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cinemas := make([]model.Cinema, 0)
	for rows.Next() {
		var c model.Cinema
		if err := rows.Scan(&c.ID, &c.Name, &c.City, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		cinemas = append(cinemas, c)
	}
	return cinemas, rows.Err()
}

// Update rewrites the mutable cinema columns.
func (r *CinemaRepo) Update(ctx context.Context, c *model.Cinema) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE cinemas SET name = ?, city = ?, address = ? WHERE id = ?`, c.Name, c.City, c.Address, c.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// Delete removes a cinema.
func (r *CinemaRepo) Delete(ctx context.Context, id uint64) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM cinemas WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// CreateAuditorium inserts an auditorium and populates the generated ID.
func (r *CinemaRepo) CreateAuditorium(ctx context.Context, a *model.Auditorium) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO auditoriums (cinema_id, name) VALUES (?, ?)`, a.CinemaID, a.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetAuditorium loads an auditorium by primary key.
func (r *CinemaRepo) GetAuditorium(ctx context.Context, id uint64) (*model.Auditorium, error) {
	var a model.Auditorium
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, cinema_id, name, created_at, updated_at FROM auditoriums WHERE id = ?`, id).Scan(
		&a.ID, &a.CinemaID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAuditoriums returns the auditoriums of one cinema ordered by name.
func (r *CinemaRepo) ListAuditoriums(ctx context.Context, cinemaID uint64) ([]model.Auditorium, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, cinema_id, name, created_at, updated_at FROM auditoriums WHERE cinema_id = ? ORDER BY name`,
		cinemaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Auditorium, 0)
	for rows.Next() {
		var a model.Auditorium
		if err := rows.Scan(&a.ID, &a.CinemaID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAuditorium removes an auditorium.  Auditoriums still referenced
// by showtimes are refused with ErrConflict.
func (r *CinemaRepo) DeleteAuditorium(ctx context.Context, id uint64) error {
	var n int
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM showtimes WHERE auditorium_id = ?`, id).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM auditoriums WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
