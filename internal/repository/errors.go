package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"triproom/internal/database"
	"triproom/internal/models"
)

var (
	// ErrStoreUnavailable marks failures talking to the database. Callers
	// surface it as a generic server error.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicateEmail is returned when an account with the email exists
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrCodeTaken is returned when a room code collides with an existing room
	ErrCodeTaken = errors.New("room code already in use")

	// ErrParentMissing is returned when an insert references a room or poll
	// that was deleted before the row could be written
	ErrParentMissing = errors.New("referenced row no longer exists")
)

// storeError wraps a driver error so it matches ErrStoreUnavailable.
func storeError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStoreUnavailable, err)
}

// insertError maps a foreign key failure to ErrParentMissing and wraps
// everything else as a store error.
func insertError(db database.DBTX, op string, err error) error {
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("failed to %s: %w", op, ErrParentMissing)
	}
	return storeError(op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// now returns the timestamp written into created_at columns. UTC keeps the
// stored text sortable on SQLite.
func now() time.Time {
	return time.Now().UTC()
}

// nullString stores empty optional text as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullAmount(a *models.Amount) any {
	if a == nil {
		return nil
	}
	return int64(*a)
}

func amountPtr(n sql.NullInt64) *models.Amount {
	if !n.Valid {
		return nil
	}
	a := models.Amount(n.Int64)
	return &a
}
