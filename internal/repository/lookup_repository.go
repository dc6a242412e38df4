package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// lookupColumns whitelists the identifiers LookupRepository may interpolate.
var lookupColumns = map[string]map[string]bool{
	"groups":   {"name": true},
	"teachers": {"name": true},
	"students": {"name": true, "group_id": true},
	"subjects": {"name": true, "teacher_id": true},
	"grades":   {"student_id": true, "subject_id": true, "graded_at": true},
}

// LookupRepository answers the existence and uniqueness lookups behind the
// schema checks.
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository constructs a LookupRepository.
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// Exists reports whether table holds a row with the given id.
func (r *LookupRepository) Exists(ctx context.Context, table string, id int64) (bool, error) {
	if _, ok := lookupColumns[table]; !ok {
		return false, fmt.Errorf("unknown table %q", table)
	}
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", table)
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return exists, nil
}

// Conflicts reports whether a row other than excludeID holds every given
// column value.
func (r *LookupRepository) Conflicts(ctx context.Context, table string, columns map[string]any, excludeID int64) (bool, error) {
	allowed, ok := lookupColumns[table]
	if !ok {
		return false, fmt.Errorf("unknown table %q", table)
	}
	if len(columns) == 0 {
		return false, fmt.Errorf("no columns to compare on %s", table)
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		if !allowed[name] {
			return false, fmt.Errorf("unknown column %s.%s", table, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	conditions := make([]string, 0, len(names)+1)
	args := make([]interface{}, 0, len(names)+1)
	for _, name := range names {
		args = append(args, columns[name])
		conditions = append(conditions, fmt.Sprintf("%s = $%d", name, len(args)))
	}
	if excludeID > 0 {
		args = append(args, excludeID)
		conditions = append(conditions, fmt.Sprintf("id <> $%d", len(args)))
	}

	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s)", table, strings.Join(conditions, " AND "))
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check %s uniqueness: %w", table, err)
	}
	return exists, nil
}
