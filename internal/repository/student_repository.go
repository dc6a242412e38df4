package repository

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/university-records/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (name, group_id) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, student.Name, student.GroupID).Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	const query = `SELECT id, name, group_id FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// All streams every student ordered by id.
func (r *StudentRepository) All(ctx context.Context) iter.Seq2[models.Student, error] {
	return stream[models.Student](ctx, r.db, "list students", `SELECT id, name, group_id FROM students ORDER BY id`)
}

// List returns every student ordered by id.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	return collect(r.All(ctx))
}

// Update modifies only the fields present in patch.
func (r *StudentRepository) Update(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error) {
	var sets []string
	var args []interface{}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	switch {
	case patch.DetachGroup:
		sets = append(sets, "group_id = NULL")
	case patch.GroupID != nil:
		args = append(args, *patch.GroupID)
		sets = append(sets, fmt.Sprintf("group_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d RETURNING id, name, group_id", strings.Join(sets, ", "), len(args))
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, args...); err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	return &student, nil
}

// Delete removes a student; grades.student_id cascades.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "students", id)
}
