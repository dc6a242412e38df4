package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/university-records/internal/models"
)

const (
	topStudentsQuery = `
SELECT s.id AS student_id, s.name AS student_name, ROUND(AVG(g.grade), 2) AS avg_grade
FROM grades g
JOIN students s ON s.id = g.student_id
GROUP BY s.id, s.name
ORDER BY avg_grade DESC, s.id ASC
LIMIT $1`

	topStudentForSubjectQuery = `
SELECT s.id AS student_id, s.name AS student_name, ROUND(AVG(g.grade), 2) AS avg_grade
FROM grades g
JOIN students s ON s.id = g.student_id
WHERE g.subject_id = $1
GROUP BY s.id, s.name
ORDER BY avg_grade DESC, s.id ASC
LIMIT 1`

	groupAveragesForSubjectQuery = `
SELECT gr.id AS group_id, gr.name AS group_name, ROUND(AVG(g.grade), 2) AS avg_grade
FROM grades g
JOIN students s ON s.id = g.student_id
JOIN groups gr ON gr.id = s.group_id
WHERE g.subject_id = $1
GROUP BY gr.id, gr.name
ORDER BY gr.id ASC`

	globalAverageQuery = `SELECT ROUND(AVG(grade), 2) FROM grades`

	teacherSubjectsQuery = `SELECT id, name FROM subjects WHERE teacher_id = $1 ORDER BY id ASC`

	groupStudentsQuery = `SELECT id, name FROM students WHERE group_id = $1 ORDER BY id ASC`

	groupSubjectGradesQuery = `
SELECT s.id AS student_id, s.name AS student_name, g.grade, g.graded_at
FROM grades g
JOIN students s ON s.id = g.student_id
WHERE s.group_id = $1 AND g.subject_id = $2
ORDER BY s.id ASC, g.graded_at DESC`

	teacherAverageQuery = `
SELECT ROUND(AVG(g.grade), 2)
FROM grades g
JOIN subjects sb ON sb.id = g.subject_id
WHERE sb.teacher_id = $1`

	studentSubjectsQuery = `
SELECT sb.id, sb.name
FROM grades g
JOIN subjects sb ON sb.id = g.subject_id
WHERE g.student_id = $1
GROUP BY sb.id, sb.name
ORDER BY sb.id ASC`

	studentTeacherSubjectsQuery = `
SELECT sb.id, sb.name
FROM grades g
JOIN subjects sb ON sb.id = g.subject_id
WHERE g.student_id = $1 AND sb.teacher_id = $2
GROUP BY sb.id, sb.name
ORDER BY sb.id ASC`

	studentTeacherAverageQuery = `
SELECT ROUND(AVG(g.grade), 2)
FROM grades g
JOIN subjects sb ON sb.id = g.subject_id
WHERE g.student_id = $1 AND sb.teacher_id = $2`

	// The latest timestamp is computed inside the group and subject filter,
	// then joined back so each student contributes exactly one row.
	latestGroupSubjectGradesQuery = `
SELECT s.id AS student_id, s.name AS student_name, g.grade, g.graded_at
FROM grades g
JOIN students s ON s.id = g.student_id
JOIN (
	SELECT g2.student_id, MAX(g2.graded_at) AS latest_at
	FROM grades g2
	JOIN students s2 ON s2.id = g2.student_id
	WHERE s2.group_id = $1 AND g2.subject_id = $2
	GROUP BY g2.student_id
) latest ON latest.student_id = g.student_id AND latest.latest_at = g.graded_at
WHERE g.subject_id = $2
ORDER BY s.id ASC`
)

// QueryRepository runs the fixed analytical statements.
type QueryRepository struct {
	db *sqlx.DB
}

// NewQueryRepository constructs a QueryRepository.
func NewQueryRepository(db *sqlx.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// TopStudents returns the students with the highest average across all subjects.
func (r *QueryRepository) TopStudents(ctx context.Context, limit int) ([]models.StudentAverage, error) {
	return collect(stream[models.StudentAverage](ctx, r.db, "top students", topStudentsQuery, limit))
}

// TopStudentForSubject returns nil when the subject has no grades.
func (r *QueryRepository) TopStudentForSubject(ctx context.Context, subjectID int64) (*models.StudentAverage, error) {
	var top models.StudentAverage
	if err := r.db.GetContext(ctx, &top, topStudentForSubjectQuery, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("top student for subject: %w", err)
	}
	return &top, nil
}

func (r *QueryRepository) GroupAveragesForSubject(ctx context.Context, subjectID int64) ([]models.GroupAverage, error) {
	return collect(stream[models.GroupAverage](ctx, r.db, "group averages for subject", groupAveragesForSubjectQuery, subjectID))
}

// GlobalAverage returns nil when there are no grades.
func (r *QueryRepository) GlobalAverage(ctx context.Context) (*float64, error) {
	return r.average(ctx, "global average", globalAverageQuery)
}

func (r *QueryRepository) TeacherSubjects(ctx context.Context, teacherID int64) ([]models.SubjectRef, error) {
	return collect(stream[models.SubjectRef](ctx, r.db, "teacher subjects", teacherSubjectsQuery, teacherID))
}

func (r *QueryRepository) GroupStudents(ctx context.Context, groupID int64) ([]models.StudentRef, error) {
	return collect(stream[models.StudentRef](ctx, r.db, "group students", groupStudentsQuery, groupID))
}

func (r *QueryRepository) GroupSubjectGrades(ctx context.Context, groupID, subjectID int64) ([]models.GradeRow, error) {
	rows, err := collect(stream[models.GradeRow](ctx, r.db, "group subject grades", groupSubjectGradesQuery, groupID, subjectID))
	return utcRows(rows), err
}

// TeacherAverage returns nil when none of the teacher's subjects has grades.
func (r *QueryRepository) TeacherAverage(ctx context.Context, teacherID int64) (*float64, error) {
	return r.average(ctx, "teacher average", teacherAverageQuery, teacherID)
}

func (r *QueryRepository) StudentSubjects(ctx context.Context, studentID int64) ([]models.SubjectRef, error) {
	return collect(stream[models.SubjectRef](ctx, r.db, "student subjects", studentSubjectsQuery, studentID))
}

func (r *QueryRepository) StudentTeacherSubjects(ctx context.Context, studentID, teacherID int64) ([]models.SubjectRef, error) {
	return collect(stream[models.SubjectRef](ctx, r.db, "student teacher subjects", studentTeacherSubjectsQuery, studentID, teacherID))
}

// StudentTeacherAverage returns nil when the pair has no grades.
func (r *QueryRepository) StudentTeacherAverage(ctx context.Context, studentID, teacherID int64) (*float64, error) {
	return r.average(ctx, "student teacher average", studentTeacherAverageQuery, studentID, teacherID)
}

func (r *QueryRepository) LatestGroupSubjectGrades(ctx context.Context, groupID, subjectID int64) ([]models.GradeRow, error) {
	rows, err := collect(stream[models.GradeRow](ctx, r.db, "latest group subject grades", latestGroupSubjectGradesQuery, groupID, subjectID))
	return utcRows(rows), err
}

func (r *QueryRepository) average(ctx context.Context, label, query string, args ...interface{}) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&avg); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func utcRows(rows []models.GradeRow) []models.GradeRow {
	for i := range rows {
		rows[i].GradedAt = rows[i].GradedAt.UTC()
	}
	return rows
}
