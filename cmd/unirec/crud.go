package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/service"
	"github.com/noah-isme/university-records/pkg/export"
)

const (
	actionCreate = "create"
	actionList   = "list"
	actionUpdate = "update"
	actionRemove = "remove"
)

type crudFlags struct {
	action        string
	model         string
	name          string
	id            int64
	groupID       int64
	teacherID     int64
	studentID     int64
	subjectID     int64
	grade         int
	gradedAt      string
	detachGroup   bool
	detachTeacher bool
}

func (f *crudFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.action, "action", "a", "", "create, list, update or remove")
	flags.StringVarP(&f.model, "model", "m", "", "Teacher, Group, Student, Subject or Grade")
	flags.StringVarP(&f.name, "name", "n", "", "name of the record")
	flags.Int64Var(&f.id, "id", 0, "record id for update and remove")
	flags.Int64Var(&f.groupID, "group-id", 0, "group of a student")
	flags.Int64Var(&f.teacherID, "teacher-id", 0, "teacher of a subject")
	flags.Int64Var(&f.studentID, "student-id", 0, "student of a grade")
	flags.Int64Var(&f.subjectID, "subject-id", 0, "subject of a grade")
	flags.IntVar(&f.grade, "grade", 0, "grade value, 0 to 100")
	flags.StringVar(&f.gradedAt, "graded-at", "", "grade timestamp in RFC3339, defaults to now")
	flags.BoolVar(&f.detachGroup, "detach-group", false, "remove a student from their group")
	flags.BoolVar(&f.detachTeacher, "detach-teacher", false, "remove the teacher of a subject")
}

// entityCommands is one model's create/list/update/remove behaviour.
type entityCommands struct {
	create func(ctx context.Context) (export.Dataset, error)
	list   func(ctx context.Context) (export.Dataset, error)
	update func(ctx context.Context) (export.Dataset, error)
	remove func(ctx context.Context) error
}

func (c *cli) runCRUD(cmd *cobra.Command, _ []string) error {
	if c.crud.action == "" && c.crud.model == "" {
		return cmd.Help()
	}
	if c.crud.action == "" || c.crud.model == "" {
		return usageErr("both -a/--action and -m/--model are required")
	}

	model, err := canonicalModel(c.crud.model)
	if err != nil {
		return err
	}
	a, err := c.services(cmd.Context())
	if err != nil {
		return err
	}
	ops := c.entityCommands(cmd, a)[model]
	ctx := cmd.Context()

	switch strings.ToLower(c.crud.action) {
	case actionCreate:
		return c.emit(ops.create(ctx))
	case actionList:
		return c.emit(ops.list(ctx))
	case actionUpdate:
		return c.emit(ops.update(ctx))
	case actionRemove:
		if err := ops.remove(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.env.stdout, "Deleted %s %d\n", model, c.crud.id)
		return nil
	default:
		return usageErr("unknown action %q, expected create, list, update or remove", c.crud.action)
	}
}

func (c *cli) emit(data export.Dataset, err error) error {
	if err != nil {
		return err
	}
	return c.write(data)
}

var modelNames = []string{"Teacher", "Group", "Student", "Subject", "Grade"}

func canonicalModel(raw string) (string, error) {
	for _, m := range modelNames {
		if strings.EqualFold(raw, m) {
			return m, nil
		}
	}
	return "", usageErr("unknown model %q, expected one of %s", raw, strings.Join(modelNames, ", "))
}

func (c *cli) entityCommands(cmd *cobra.Command, a *app) map[string]entityCommands {
	f := &c.crud
	changed := cmd.Flags().Changed
	optionalID := func(flag string, v int64) *int64 {
		if !changed(flag) {
			return nil
		}
		return &v
	}
	optionalName := func() *string {
		if !changed("name") {
			return nil
		}
		return &f.name
	}

	return map[string]entityCommands{
		"Group": {
			create: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "name"); err != nil {
					return export.Dataset{}, err
				}
				g, err := a.groups.Create(ctx, service.CreateGroupRequest{Name: f.name})
				return groupRows(g), err
			},
			list: func(ctx context.Context) (export.Dataset, error) {
				items, err := a.groups.List(ctx)
				return groupRows(pointers(items)...), err
			},
			update: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "id"); err != nil {
					return export.Dataset{}, err
				}
				g, err := a.groups.Update(ctx, f.id, service.UpdateGroupRequest{Name: optionalName()})
				return groupRows(g), err
			},
			remove: func(ctx context.Context) error {
				if err := requireFlags(cmd, "id"); err != nil {
					return err
				}
				return a.groups.Delete(ctx, f.id)
			},
		},
		"Teacher": {
			create: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "name"); err != nil {
					return export.Dataset{}, err
				}
				t, err := a.teachers.Create(ctx, service.CreateTeacherRequest{Name: f.name})
				return teacherRows(t), err
			},
			list: func(ctx context.Context) (export.Dataset, error) {
				items, err := a.teachers.List(ctx)
				return teacherRows(pointers(items)...), err
			},
			update: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "id"); err != nil {
					return export.Dataset{}, err
				}
				t, err := a.teachers.Update(ctx, f.id, service.UpdateTeacherRequest{Name: optionalName()})
				return teacherRows(t), err
			},
			remove: func(ctx context.Context) error {
				if err := requireFlags(cmd, "id"); err != nil {
					return err
				}
				return a.teachers.Delete(ctx, f.id)
			},
		},
		"Student": {
			create: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "name"); err != nil {
					return export.Dataset{}, err
				}
				s, err := a.students.Create(ctx, service.CreateStudentRequest{Name: f.name, GroupID: optionalID("group-id", f.groupID)})
				return studentRows(s), err
			},
			list: func(ctx context.Context) (export.Dataset, error) {
				items, err := a.students.List(ctx)
				return studentRows(pointers(items)...), err
			},
			update: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "id"); err != nil {
					return export.Dataset{}, err
				}
				s, err := a.students.Update(ctx, f.id, service.UpdateStudentRequest{
					Name:        optionalName(),
					GroupID:     optionalID("group-id", f.groupID),
					DetachGroup: f.detachGroup,
				})
				return studentRows(s), err
			},
			remove: func(ctx context.Context) error {
				if err := requireFlags(cmd, "id"); err != nil {
					return err
				}
				return a.students.Delete(ctx, f.id)
			},
		},
		"Subject": {
			create: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "name"); err != nil {
					return export.Dataset{}, err
				}
				s, err := a.subjects.Create(ctx, service.CreateSubjectRequest{Name: f.name, TeacherID: optionalID("teacher-id", f.teacherID)})
				return subjectRows(s), err
			},
			list: func(ctx context.Context) (export.Dataset, error) {
				items, err := a.subjects.List(ctx)
				return subjectRows(pointers(items)...), err
			},
			update: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "id"); err != nil {
					return export.Dataset{}, err
				}
				s, err := a.subjects.Update(ctx, f.id, service.UpdateSubjectRequest{
					Name:          optionalName(),
					TeacherID:     optionalID("teacher-id", f.teacherID),
					DetachTeacher: f.detachTeacher,
				})
				return subjectRows(s), err
			},
			remove: func(ctx context.Context) error {
				if err := requireFlags(cmd, "id"); err != nil {
					return err
				}
				return a.subjects.Delete(ctx, f.id)
			},
		},
		"Grade": {
			create: func(ctx context.Context) (export.Dataset, error) {
				if err := requireFlags(cmd, "student-id", "subject-id", "grade"); err != nil {
					return export.Dataset{}, err
				}
				req := service.CreateGradeRequest{StudentID: f.studentID, SubjectID: f.subjectID, Grade: f.grade}
				if f.gradedAt != "" {
					at, err := time.Parse(time.RFC3339, f.gradedAt)
					if err != nil {
						return export.Dataset{}, usageErr("--graded-at must be RFC3339, e.g. 2024-03-01T10:00:00Z")
					}
					req.GradedAt = &at
				}
				g, err := a.grades.Create(ctx, req)
				return gradeRows(g), err
			},
			list: func(ctx context.Context) (export.Dataset, error) {
				items, err := a.grades.List(ctx)
				return gradeRows(pointers(items)...), err
			},
			update: func(ctx context.Context) (export.Dataset, error) {
				req := service.UpdateGradeRequest{}
				if changed("grade") {
					req.Grade = &f.grade
				}
				g, err := a.grades.Update(ctx, f.id, req)
				return gradeRows(g), err
			},
			remove: func(ctx context.Context) error {
				if err := requireFlags(cmd, "id"); err != nil {
					return err
				}
				return a.grades.Delete(ctx, f.id)
			},
		},
	}
}

func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		if !cmd.Flags().Changed(name) {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return usageErr("missing required flags: %s", strings.Join(missing, ", "))
	}
	return nil
}

func pointers[T any](items []T) []*T {
	out := make([]*T, 0, len(items))
	for i := range items {
		out = append(out, &items[i])
	}
	return out
}

func optional(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func groupRows(items ...*models.Group) export.Dataset {
	data := export.Dataset{Headers: []string{"id", "name"}}
	for _, g := range items {
		if g != nil {
			data.Append(id(g.ID), g.Name)
		}
	}
	return data
}

func teacherRows(items ...*models.Teacher) export.Dataset {
	data := export.Dataset{Headers: []string{"id", "name"}}
	for _, t := range items {
		if t != nil {
			data.Append(id(t.ID), t.Name)
		}
	}
	return data
}

func studentRows(items ...*models.Student) export.Dataset {
	data := export.Dataset{Headers: []string{"id", "name", "group_id"}}
	for _, s := range items {
		if s != nil {
			data.Append(id(s.ID), s.Name, optional(s.GroupID))
		}
	}
	return data
}

func subjectRows(items ...*models.Subject) export.Dataset {
	data := export.Dataset{Headers: []string{"id", "name", "teacher_id"}}
	for _, s := range items {
		if s != nil {
			data.Append(id(s.ID), s.Name, optional(s.TeacherID))
		}
	}
	return data
}

func gradeRows(items ...*models.Grade) export.Dataset {
	data := export.Dataset{Headers: []string{"id", "student_id", "subject_id", "grade", "graded_at"}}
	for _, g := range items {
		if g != nil {
			data.Append(id(g.ID), id(g.StudentID), id(g.SubjectID), strconv.Itoa(g.Grade), g.GradedAt.UTC().Format(time.RFC3339))
		}
	}
	return data
}
