package models

import "time"

const (
	// GradeMin is the lowest grade accepted by ck_grade_range.
	GradeMin = 0
	// GradeMax is the highest grade accepted by ck_grade_range.
	GradeMax = 100
)

// Grade is a single immutable mark a student received for a subject.
type Grade struct {
	ID        int64     `db:"id" json:"id"`
	StudentID int64     `db:"student_id" json:"student_id" validate:"required"`
	SubjectID int64     `db:"subject_id" json:"subject_id" validate:"required"`
	Grade     int       `db:"grade" json:"grade" validate:"min=0,max=100"`
	GradedAt  time.Time `db:"graded_at" json:"graded_at" validate:"required"`
}
