package repository

import (
	"context"
	"fmt"
	"iter"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/university-records/internal/models"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// Create inserts a teacher and fills in its generated id.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	const query = `INSERT INTO teachers (name) VALUES ($1) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, teacher.Name).Scan(&teacher.ID); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// FindByID fetches a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	const query = `SELECT id, name FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &teacher, nil
}

// All streams every teacher ordered by id.
func (r *TeacherRepository) All(ctx context.Context) iter.Seq2[models.Teacher, error] {
	return stream[models.Teacher](ctx, r.db, "list teachers", `SELECT id, name FROM teachers ORDER BY id`)
}

// List returns every teacher ordered by id.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	return collect(r.All(ctx))
}

// Update applies the provided fields and returns the stored row.
func (r *TeacherRepository) Update(ctx context.Context, id int64, patch models.TeacherPatch) (*models.Teacher, error) {
	if patch.Name == nil {
		return r.FindByID(ctx, id)
	}
	const query = `UPDATE teachers SET name = $1 WHERE id = $2 RETURNING id, name`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, *patch.Name, id); err != nil {
		return nil, fmt.Errorf("update teacher: %w", err)
	}
	return &teacher, nil
}

// Delete removes a teacher; owned subjects are detached by the
// subjects.teacher_id ON DELETE SET NULL action.
func (r *TeacherRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "teachers", id)
}
