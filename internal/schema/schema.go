// Package schema holds the structural rules of the records store: table and
// constraint names mirrored from the migrations, per-entity checks run before
// writes, and classification of constraint failures raised by Postgres.
package schema

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/university-records/internal/models"
	appErrors "github.com/noah-isme/university-records/pkg/errors"
)

// Table names.
const (
	TableGroups   = "groups"
	TableTeachers = "teachers"
	TableStudents = "students"
	TableSubjects = "subjects"
	TableGrades   = "grades"
)

// Constraint names as declared in pkg/database/migrations.
const (
	ConstraintGroupName      = "groups_name_key"
	ConstraintSubjectName    = "uq_subject_name"
	ConstraintGradeRange     = "ck_grade_range"
	ConstraintGradeTime      = "uq_grade_unique_time"
	ConstraintStudentGroup   = "students_group_id_fkey"
	ConstraintSubjectTeacher = "subjects_teacher_id_fkey"
	ConstraintGradeStudent   = "grades_student_id_fkey"
	ConstraintGradeSubject   = "grades_subject_id_fkey"
)

type constraintInfo struct {
	table  string
	column string
}

var constraints = map[string]constraintInfo{
	ConstraintGroupName:      {TableGroups, "name"},
	ConstraintSubjectName:    {TableSubjects, "name"},
	ConstraintGradeRange:     {TableGrades, "grade"},
	ConstraintGradeTime:      {TableGrades, "graded_at"},
	ConstraintStudentGroup:   {TableStudents, "group_id"},
	ConstraintSubjectTeacher: {TableSubjects, "teacher_id"},
	ConstraintGradeStudent:   {TableGrades, "student_id"},
	ConstraintGradeSubject:   {TableGrades, "subject_id"},
}

// State is the read-only view of the store the checks consult.
type State interface {
	// Exists reports whether table holds a row with the given id.
	Exists(ctx context.Context, table string, id int64) (bool, error)
	// Conflicts reports whether a row other than excludeID already holds
	// the given column values.
	Conflicts(ctx context.Context, table string, columns map[string]any, excludeID int64) (bool, error)
}

// Checker validates candidate records against field rules and store state.
type Checker struct {
	validate *validator.Validate
}

// NewChecker constructs a Checker. Field names in violations follow db tags.
func NewChecker(validate *validator.Validate) *Checker {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("db"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Checker{validate: validate}
}

// Group checks a candidate group.
func (c *Checker) Group(ctx context.Context, st State, g models.Group) error {
	if err := c.fields(TableGroups, g); err != nil {
		return err
	}
	return c.unique(ctx, st, TableGroups, ConstraintGroupName, map[string]any{"name": g.Name}, g.ID)
}

// Teacher checks a candidate teacher.
func (c *Checker) Teacher(_ context.Context, _ State, t models.Teacher) error {
	return c.fields(TableTeachers, t)
}

// Student checks a candidate student.
func (c *Checker) Student(ctx context.Context, st State, s models.Student) error {
	if err := c.fields(TableStudents, s); err != nil {
		return err
	}
	if s.GroupID != nil {
		return c.reference(ctx, st, TableStudents, ConstraintStudentGroup, TableGroups, *s.GroupID)
	}
	return nil
}

// Subject checks a candidate subject.
func (c *Checker) Subject(ctx context.Context, st State, s models.Subject) error {
	if err := c.fields(TableSubjects, s); err != nil {
		return err
	}
	if err := c.unique(ctx, st, TableSubjects, ConstraintSubjectName, map[string]any{"name": s.Name}, s.ID); err != nil {
		return err
	}
	if s.TeacherID != nil {
		return c.reference(ctx, st, TableSubjects, ConstraintSubjectTeacher, TableTeachers, *s.TeacherID)
	}
	return nil
}

// Grade checks a candidate grade.
func (c *Checker) Grade(ctx context.Context, st State, g models.Grade) error {
	if err := c.fields(TableGrades, g); err != nil {
		return err
	}
	if err := c.reference(ctx, st, TableGrades, ConstraintGradeStudent, TableStudents, g.StudentID); err != nil {
		return err
	}
	if err := c.reference(ctx, st, TableGrades, ConstraintGradeSubject, TableSubjects, g.SubjectID); err != nil {
		return err
	}
	return c.unique(ctx, st, TableGrades, ConstraintGradeTime, map[string]any{
		"student_id": g.StudentID,
		"subject_id": g.SubjectID,
		"graded_at":  g.GradedAt,
	}, g.ID)
}

func (c *Checker) fields(table string, record any) error {
	err := c.validate.Struct(record)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate %s: %w", table, err)
	}

	fe := fieldErrs[0]
	v := &Violation{Kind: appErrors.KindCheck, Table: table, Column: fe.Field(), Err: err}
	switch {
	case fe.Tag() == "required":
		v.Kind = appErrors.KindNotNull
	case table == TableGrades && fe.Field() == "grade":
		v.Constraint = ConstraintGradeRange
	default:
		v.Constraint = fmt.Sprintf("%s_%s_%s", table, fe.Field(), fe.Tag())
	}
	return v
}

func (c *Checker) unique(ctx context.Context, st State, table, constraint string, columns map[string]any, excludeID int64) error {
	taken, err := st.Conflicts(ctx, table, columns, excludeID)
	if err != nil {
		return fmt.Errorf("check %s: %w", constraint, err)
	}
	if taken {
		return &Violation{Kind: appErrors.KindUnique, Table: table, Column: constraints[constraint].column, Constraint: constraint}
	}
	return nil
}

func (c *Checker) reference(ctx context.Context, st State, table, constraint, parent string, id int64) error {
	ok, err := st.Exists(ctx, parent, id)
	if err != nil {
		return fmt.Errorf("check %s: %w", constraint, err)
	}
	if !ok {
		return &Violation{Kind: appErrors.KindForeignKey, Table: table, Column: constraints[constraint].column, Constraint: constraint}
	}
	return nil
}
