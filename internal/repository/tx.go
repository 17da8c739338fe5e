package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repository methods run against whichever the context supplies, so the
// same method works standalone or inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

// WithTx runs fn inside a database transaction.  The transaction is
// carried in the context so that repository methods invoked from fn join
// it automatically.  Any error from fn rolls the transaction back and is
// returned unchanged; otherwise the transaction is committed.  Nested
// calls reuse the outer transaction.
func WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// q returns the transaction carried by ctx when present, otherwise the
// bare connection pool.
func q(ctx context.Context, db *sql.DB) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// IsLockContention reports whether err is a MySQL deadlock (1213) or lock
// wait timeout (1205).  Both are transient: the transaction was rolled
// back by the server and the whole unit can be retried.
func IsLockContention(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1213 || me.Number == 1205
}

// IsDuplicateEntry reports whether err is a MySQL unique-key violation
// (1062), e.g. two inserts racing on the seat_locks (seat_id, showtime_id)
// constraint.
func IsDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// placeholders returns a comma-joined list of n "?" markers for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
