package models

import "time"

// TopStudentsLimit caps the overall leaderboard.
const TopStudentsLimit = 5

// StudentAverage is a student's rounded average grade.
type StudentAverage struct {
	StudentID   int64   `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	Average     float64 `db:"avg_grade" json:"avg_grade"`
}

// GroupAverage is a group's rounded average grade for one subject.
type GroupAverage struct {
	GroupID   int64   `db:"group_id" json:"group_id"`
	GroupName string  `db:"group_name" json:"group_name"`
	Average   float64 `db:"avg_grade" json:"avg_grade"`
}

// SubjectRef identifies a subject in listings.
type SubjectRef struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// StudentRef identifies a student in listings.
type StudentRef struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// GradeRow is a grade joined with the student who received it.
type GradeRow struct {
	StudentID   int64     `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	Grade       int       `db:"grade" json:"grade"`
	GradedAt    time.Time `db:"graded_at" json:"graded_at"`
}
