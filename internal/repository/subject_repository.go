package repository

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/university-records/internal/models"
)

// SubjectRepository manages persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	const query = `INSERT INTO subjects (name, teacher_id) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, subject.Name, subject.TeacherID).Scan(&subject.ID); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// FindByID fetches a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	const query = `SELECT id, name, teacher_id FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &subject, nil
}

// All streams every subject ordered by id.
func (r *SubjectRepository) All(ctx context.Context) iter.Seq2[models.Subject, error] {
	return stream[models.Subject](ctx, r.db, "list subjects", `SELECT id, name, teacher_id FROM subjects ORDER BY id`)
}

// List returns every subject ordered by id.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	return collect(r.All(ctx))
}

// Update modifies only the fields present in patch.
func (r *SubjectRepository) Update(ctx context.Context, id int64, patch models.SubjectPatch) (*models.Subject, error) {
	var sets []string
	var args []interface{}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	switch {
	case patch.DetachTeacher:
		sets = append(sets, "teacher_id = NULL")
	case patch.TeacherID != nil:
		args = append(args, *patch.TeacherID)
		sets = append(sets, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE subjects SET %s WHERE id = $%d RETURNING id, name, teacher_id", strings.Join(sets, ", "), len(args))
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, args...); err != nil {
		return nil, fmt.Errorf("update subject: %w", err)
	}
	return &subject, nil
}

// Delete removes a subject; grades.subject_id cascades.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "subjects", id)
}
