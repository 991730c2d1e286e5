// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/alumniportal/internal/platform/apperr"
)

// SQLSTATE codes the portal classifies.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeQueryCanceled   = "57014"
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	// 2. Cancellation is the caller's doing, not a server fault
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// 3. Constraint violations are client errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict(fmt.Sprintf("%s already exists", resource))
		case codeCheckViolation:
			return apperr.ValidationError(fmt.Sprintf("%s is invalid", resource))
		case codeQueryCanceled:
			return apperr.Internal(fmt.Errorf("%s: query canceled: %w", resource, err))
		}
	}

	// 4. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}
