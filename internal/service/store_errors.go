package service

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/noah-isme/university-records/internal/schema"
	appErrors "github.com/noah-isme/university-records/pkg/errors"
)

func notFound(entity string, id int64) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %d not found", entity, id))
}

// checkFailure converts a failed pre-write check into a typed error.
func checkFailure(err error, entity string) error {
	var violation *schema.Violation
	if errors.As(err, &violation) {
		return violation.AsError()
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check "+entity)
}

// storeFailure converts a repository error into a typed error. Constraint
// failures reported by the driver mean a concurrent writer won the race
// against the pre-write check.
func storeFailure(logger *zap.Logger, err error, entity, action string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(entity, id)
	}
	if violation, ok := schema.FromDriver(err); ok {
		logger.Warn("store rejected write", zap.String("entity", entity), zap.String("constraint", violation.Constraint), zap.Error(err))
		return violation.AsError()
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s %s", action, entity))
}

// typedSeq maps repository errors surfaced during iteration.
func typedSeq[T any](logger *zap.Logger, seq iter.Seq2[T, error], entity string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for item, err := range seq {
			if err != nil {
				var zero T
				yield(zero, storeFailure(logger, err, entity, "list", 0))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

func noData(format string, args ...any) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrNoData, fmt.Sprintf(format, args...))
}

func usage(format string, args ...any) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrUsage, fmt.Sprintf(format, args...))
}
