package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vannda/cinebook/internal/model"
)

// UserRepo provides data access to the users table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a user and populates the generated ID.  A duplicate
// email surfaces as ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if IsDuplicateEntry(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail loads a user by email address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, `SELECT id, name, email, password_hash, role, created_at, updated_at
	                   FROM users WHERE email = ?`, email)
}

// GetByID loads a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.get(ctx, `SELECT id, name, email, password_hash, role, created_at, updated_at
	                   FROM users WHERE id = ?`, id)
}

func (r *UserRepo) get(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var u model.User
	err := q(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
