package repository

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/university-records/internal/models"
)

// GroupRepository manages persistence for groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group and fills in its generated id.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	const query = `INSERT INTO groups (name) VALUES ($1) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, group.Name).Scan(&group.ID); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// FindByID fetches a group by id.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	const query = `SELECT id, name FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &group, nil
}

// All streams every group ordered by id.
func (r *GroupRepository) All(ctx context.Context) iter.Seq2[models.Group, error] {
	return stream[models.Group](ctx, r.db, "list groups", `SELECT id, name FROM groups ORDER BY id`)
}

// List returns every group ordered by id.
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	return collect(r.All(ctx))
}

// Update applies the provided fields and returns the stored row.
func (r *GroupRepository) Update(ctx context.Context, id int64, patch models.GroupPatch) (*models.Group, error) {
	if patch.Name == nil {
		return r.FindByID(ctx, id)
	}
	const query = `UPDATE groups SET name = $1 WHERE id = $2 RETURNING id, name`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, *patch.Name, id); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return &group, nil
}

// Delete removes a group. Students keep their rows; the students.group_id
// foreign key is declared ON DELETE SET NULL.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "groups", id)
}

func deleteByID(ctx context.Context, db sqlx.ExecerContext, table string, id int64) error {
	res, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete from %s: %w", table, sql.ErrNoRows)
	}
	return nil
}
