// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, PostgreSQL SQLSTATEs) are mapped to
// domain-friendly [apperr.AppError] types so that handlers never leak storage
// implementation details to clients.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/blognest/blognest/internal/platform/apperr"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Parameters
//   - err: The raw storage error.
//   - resource: Client-facing resource name used in Not-Found messages.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. Constraint violations carry a SQLSTATE we can classify.
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		switch pgError.Code {
		case pgerrcode.UniqueViolation:
			return apperr.Conflict(resource + " already exists")
		case pgerrcode.ForeignKeyViolation:
			return apperr.ValidationError(resource + " references a missing or protected record")
		case pgerrcode.InvalidTextRepresentation:
			// A client-supplied value that fails a column cast (typically a
			// malformed uuid in a WHERE clause) can never name a row.
			return apperr.NotFound(resource)
		}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation, optionally narrowed to a specific constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgError *pgconn.PgError
	if !errors.As(err, &pgError) || pgError.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgError.ConstraintName == constraint
}
