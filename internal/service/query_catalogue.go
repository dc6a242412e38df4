package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/pkg/export"
)

// Query parameter names.
const (
	ParamStudentID = "student_id"
	ParamSubjectID = "subject_id"
	ParamGroupID   = "group_id"
	ParamTeacherID = "teacher_id"
)

// QueryParams carries the identifiers a numbered query may need.
type QueryParams struct {
	StudentID int64 `json:"student_id" form:"student_id"`
	SubjectID int64 `json:"subject_id" form:"subject_id"`
	GroupID   int64 `json:"group_id" form:"group_id"`
	TeacherID int64 `json:"teacher_id" form:"teacher_id"`
}

func (p QueryParams) value(name string) int64 {
	switch name {
	case ParamStudentID:
		return p.StudentID
	case ParamSubjectID:
		return p.SubjectID
	case ParamGroupID:
		return p.GroupID
	case ParamTeacherID:
		return p.TeacherID
	}
	return 0
}

// DemoParams points every parameter at the first record of each table.
var DemoParams = QueryParams{StudentID: 1, SubjectID: 1, GroupID: 1, TeacherID: 1}

// QueryDefinition describes one numbered query.
type QueryDefinition struct {
	Number int
	Title  string
	Params []string
	run    func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error)
}

// Queries lists the numbered queries in order.
var Queries = []QueryDefinition{
	{Number: 1, Title: "Top 5 students by average grade", run: func(ctx context.Context, s *QueryService, _ QueryParams) (any, export.Dataset, error) {
		rows, err := s.TopStudents(ctx)
		return rows, studentAverages(rows), err
	}},
	{Number: 2, Title: "Top student in a subject", Params: []string{ParamSubjectID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		top, err := s.TopStudentForSubject(ctx, p.SubjectID)
		if err != nil {
			return nil, export.Dataset{}, err
		}
		return top, studentAverages([]models.StudentAverage{*top}), nil
	}},
	{Number: 3, Title: "Group averages in a subject", Params: []string{ParamSubjectID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		rows, err := s.GroupAveragesForSubject(ctx, p.SubjectID)
		d := export.Dataset{Headers: []string{"group_id", "group_name", "avg_grade"}}
		for _, row := range rows {
			d.Append(formatID(row.GroupID), row.GroupName, formatAvg(row.Average))
		}
		return rows, d, err
	}},
	{Number: 4, Title: "Average grade overall", run: func(ctx context.Context, s *QueryService, _ QueryParams) (any, export.Dataset, error) {
		value, err := s.GlobalAverage(ctx)
		return averageResult{value}, scalar(value), err
	}},
	{Number: 5, Title: "Subjects taught by a teacher", Params: []string{ParamTeacherID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		rows, err := s.TeacherSubjects(ctx, p.TeacherID)
		return rows, subjectRefs(rows), err
	}},
	{Number: 6, Title: "Students in a group", Params: []string{ParamGroupID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		rows, err := s.GroupStudents(ctx, p.GroupID)
		d := export.Dataset{Headers: []string{"id", "name"}}
		for _, row := range rows {
			d.Append(formatID(row.ID), row.Name)
		}
		return rows, d, err
	}},
	{Number: 7, Title: "Grades of a group in a subject", Params: []string{ParamGroupID, ParamSubjectID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		rows, err := s.GroupSubjectGrades(ctx, p.GroupID, p.SubjectID)
		return rows, gradeRows(rows), err
	}},
	{Number: 8, Title: "Average grade given by a teacher", Params: []string{ParamTeacherID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		value, err := s.TeacherAverage(ctx, p.TeacherID)
		return averageResult{value}, scalar(value), err
	}},
	{Number: 9, Title: "Subjects a student attends", Params: []string{ParamStudentID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		rows, err := s.StudentSubjects(ctx, p.StudentID)
		return rows, subjectRefs(rows), err
	}},
	{Number: 10, Title: "Subjects a teacher gives a student", Params: []string{ParamStudentID, ParamTeacherID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		rows, err := s.StudentTeacherSubjects(ctx, p.StudentID, p.TeacherID)
		return rows, subjectRefs(rows), err
	}},
	{Number: 11, Title: "Average grade a teacher gives a student", Params: []string{ParamStudentID, ParamTeacherID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		value, err := s.StudentTeacherAverage(ctx, p.StudentID, p.TeacherID)
		return averageResult{value}, scalar(value), err
	}},
	{Number: 12, Title: "Latest grades of a group in a subject", Params: []string{ParamGroupID, ParamSubjectID}, run: func(ctx context.Context, s *QueryService, p QueryParams) (any, export.Dataset, error) {
		rows, err := s.LatestGroupSubjectGrades(ctx, p.GroupID, p.SubjectID)
		return rows, gradeRows(rows), err
	}},
}

// LookupQuery returns the definition of a numbered query.
func LookupQuery(number int) (QueryDefinition, bool) {
	if number < 1 || number > len(Queries) {
		return QueryDefinition{}, false
	}
	return Queries[number-1], true
}

// QueryResult is the outcome of a numbered query: the typed rows plus their
// tabular rendering.
type QueryResult struct {
	Number  int            `json:"number"`
	Title   string         `json:"title"`
	Rows    any            `json:"rows"`
	Dataset export.Dataset `json:"-"`
}

type averageResult struct {
	Average float64 `json:"avg_grade"`
}

// Run executes a numbered query.
func (s *QueryService) Run(ctx context.Context, number int, params QueryParams) (*QueryResult, error) {
	def, ok := LookupQuery(number)
	if !ok {
		return nil, usage("unknown query %d, expected 1..%d", number, len(Queries))
	}
	var missing []string
	for _, name := range def.Params {
		if params.value(name) <= 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, usage("query %d requires %s", number, strings.Join(missing, ", "))
	}

	rows, data, err := def.run(ctx, s, params)
	if err != nil {
		return nil, err
	}
	data.Title = fmt.Sprintf("%d. %s", def.Number, def.Title)
	return &QueryResult{Number: def.Number, Title: def.Title, Rows: rows, Dataset: data}, nil
}

func formatID(v int64) string { return strconv.FormatInt(v, 10) }

func formatAvg(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func scalar(v float64) export.Dataset {
	d := export.Dataset{Headers: []string{"avg_grade"}}
	d.Append(formatAvg(v))
	return d
}

func studentAverages(rows []models.StudentAverage) export.Dataset {
	d := export.Dataset{Headers: []string{"student_id", "student_name", "avg_grade"}}
	for _, row := range rows {
		d.Append(formatID(row.StudentID), row.StudentName, formatAvg(row.Average))
	}
	return d
}

func subjectRefs(rows []models.SubjectRef) export.Dataset {
	d := export.Dataset{Headers: []string{"id", "name"}}
	for _, row := range rows {
		d.Append(formatID(row.ID), row.Name)
	}
	return d
}

func gradeRows(rows []models.GradeRow) export.Dataset {
	d := export.Dataset{Headers: []string{"student_id", "student_name", "grade", "graded_at"}}
	for _, row := range rows {
		d.Append(formatID(row.StudentID), row.StudentName, strconv.Itoa(row.Grade), row.GradedAt.UTC().Format(time.RFC3339))
	}
	return d
}
