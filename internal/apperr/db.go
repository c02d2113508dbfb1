package apperr

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps database errors to *Error values. Errors it does not
// recognize are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, CodeInternal, "request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(err, CodeInternal, "request was canceled")
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(err, CodeNotFound, "resource not found")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &Error{Code: CodeConflict, Message: "this value already exists", Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.ForeignKeyViolation:
		return &Error{Code: CodeInvalidReference, Message: "referenced record does not exist", Cause: pgErr}
	case pgerrcode.NotNullViolation:
		return &Error{Code: CodeValidation, Message: "required field is missing", Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.CheckViolation:
		return &Error{Code: CodeValidation, Message: "field has an invalid value", Field: pgErr.ColumnName, Cause: pgErr}
	default:
		return Wrap(pgErr, CodeInternal, "a database error occurred")
	}
}
