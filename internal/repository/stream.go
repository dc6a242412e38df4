package repository

import (
	"context"
	"fmt"
	"iter"

	"github.com/jmoiron/sqlx"
)

// stream runs query lazily: nothing touches the database until the sequence
// is ranged over, and every range re-runs the query. Rows are released when
// iteration stops, including early breaks.
func stream[T any](ctx context.Context, db sqlx.QueryerContext, label, query string, args ...interface{}) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		rows, err := db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(zero, fmt.Errorf("%s: %w", label, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var item T
			if err := rows.StructScan(&item); err != nil {
				yield(zero, fmt.Errorf("scan %s: %w", label, err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, fmt.Errorf("%s: %w", label, err))
		}
	}
}

func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	items := make([]T, 0)
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
