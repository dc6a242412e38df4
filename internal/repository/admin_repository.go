package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// wipeOrder deletes children before parents.
var wipeOrder = []string{"grades", "subjects", "students", "teachers", "groups"}

// AdminRepository groups store-wide maintenance statements.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Wipe deletes every row of every table in one transaction. Identity
// sequences are left untouched so ids keep increasing.
func (r *AdminRepository) Wipe(ctx context.Context) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin wipe transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range wipeOrder {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit wipe: %w", err)
	}
	return nil
}
