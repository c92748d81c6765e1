package persistence

import (
	"errors"
	"strings"

	"github.com/dairy/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE codes the repositories translate
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// translateError maps a storage error onto the domain error taxonomy.
// Domain errors pass through unchanged; anything unrecognised becomes an
// INTERNAL error whose message never leaks storage detail.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrConflict.WithCause(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewConflictError("Record is still referenced").WithCause(err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return shared.NewValidationError("Value violates a storage constraint").WithCause(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.ErrConflict.WithCause(err)
		case pgForeignKeyViolation:
			return shared.NewConflictError("Record is referenced by %s", pgErr.TableName).WithCause(err)
		case pgCheckViolation:
			return shared.NewValidationError("Value violates constraint %s", pgErr.ConstraintName).WithCause(err)
		}
	}

	// sqlite reports constraint failures only in the message
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return shared.ErrConflict.WithCause(err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return shared.NewConflictError("Record is still referenced").WithCause(err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return shared.NewValidationError("Value violates a storage constraint").WithCause(err)
	}
	return shared.NewInternalError(err)
}
