package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/pavitra93/go-lease-management/shared/apperror"
)

// PostgreSQL SQLSTATE codes the store reacts to
const (
	codeUniqueViolation      = "23505"
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsRetryable reports whether err aborted a transaction that may succeed when re-run
func IsRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// translate classifies driver errors. Anything not recognised is wrapped and
// returned unclassified.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case apperror.KindOf(err) != "":
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.Wrap(apperror.KindNotFound, err, "%s not found", entity)
	case errors.Is(err, gorm.ErrDuplicatedKey), pgCode(err) == codeUniqueViolation:
		return apperror.Wrap(apperror.KindAlreadyExists, err, "%s already exists", entity)
	case pgCode(err) == codeExclusionViolation:
		return apperror.Wrap(apperror.KindConflict, err, "%s overlaps an existing record", entity)
	}
	return fmt.Errorf("%s: %w", entity, err)
}
