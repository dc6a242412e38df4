package repository

import (
	"context"
	"fmt"
	"iter"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/university-records/internal/models"
)

const gradeColumns = `id, student_id, subject_id, grade, graded_at`

// GradeRepository manages persistence for grades. Grades are never updated.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Create inserts a grade and reads back the stored id and timestamp.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	const query = `INSERT INTO grades (student_id, subject_id, grade, graded_at) VALUES ($1, $2, $3, $4) RETURNING id, graded_at`
	row := r.db.QueryRowxContext(ctx, query, grade.StudentID, grade.SubjectID, grade.Grade, grade.GradedAt)
	if err := row.Scan(&grade.ID, &grade.GradedAt); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	grade.GradedAt = grade.GradedAt.UTC()
	return nil
}

// FindByID fetches a grade by id.
func (r *GradeRepository) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM grades WHERE id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, fmt.Errorf("get grade: %w", err)
	}
	grade.GradedAt = grade.GradedAt.UTC()
	return &grade, nil
}

// All streams every grade ordered by id.
func (r *GradeRepository) All(ctx context.Context) iter.Seq2[models.Grade, error] {
	return inUTC(stream[models.Grade](ctx, r.db, "list grades", `SELECT `+gradeColumns+` FROM grades ORDER BY id`))
}

// List returns every grade ordered by id.
func (r *GradeRepository) List(ctx context.Context) ([]models.Grade, error) {
	return collect(r.All(ctx))
}

// ListByStudent returns the grades of one student ordered by id.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM grades WHERE student_id = $1 ORDER BY id`
	return collect(inUTC(stream[models.Grade](ctx, r.db, "list student grades", query, studentID)))
}

// inUTC normalises graded_at so read records compare equal to created ones.
func inUTC(seq iter.Seq2[models.Grade, error]) iter.Seq2[models.Grade, error] {
	return func(yield func(models.Grade, error) bool) {
		for grade, err := range seq {
			grade.GradedAt = grade.GradedAt.UTC()
			if !yield(grade, err) {
				return
			}
		}
	}
}

// Delete removes a single grade.
func (r *GradeRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "grades", id)
}
