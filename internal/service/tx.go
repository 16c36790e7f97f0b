package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// inTx runs fn inside one transaction and commits when fn succeeds. Every
// mutation commits its rows, its events and the recomputed status together.
func inTx(ctx context.Context, provider txProvider, fn func(tx *sqlx.Tx) error) (err error) {
	if provider == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := provider.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}

const uniqueViolation = "23505"

// storeError translates a repository error into the service error kinds.
// Errors that are already typed pass through.
func storeError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message+": not found")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, message+": duplicate")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// versionedError maps the outcome of a versioned update. The row was loaded
// in the same transaction, so zero affected rows means a stale version.
func versionedError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrConcurrentModification, message+": stale version")
	}
	return storeError(err, message)
}

// checkVersion rejects a write based on a stale read.
func checkVersion(stored, expected int, what string) error {
	if expected != 0 && stored != expected {
		return appErrors.WithDetails(appErrors.ErrConcurrentModification, what+" was modified by another request",
			map[string]int{"expected": expected, "current": stored})
	}
	return nil
}

func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		details := make(map[string]string, len(fieldErrors))
		for _, fe := range fieldErrors {
			details[fe.Field()] = fe.Tag()
		}
		return appErrors.WithDetails(appErrors.ErrValidation, "invalid payload", details)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}
