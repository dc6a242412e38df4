package service

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/noah-isme/university-records/internal/models"
)

// memStore is an in-memory stand-in for the Postgres schema, including its
// ON DELETE actions.
type memStore struct {
	nextID   int64
	groups   map[int64]models.Group
	teachers map[int64]models.Teacher
	students map[int64]models.Student
	subjects map[int64]models.Subject
	grades   map[int64]models.Grade
	err      error
	wipes    int
}

func newMemStore() *memStore {
	m := &memStore{}
	m.reset()
	return m
}

func (m *memStore) reset() {
	m.groups = map[int64]models.Group{}
	m.teachers = map[int64]models.Teacher{}
	m.students = map[int64]models.Student{}
	m.subjects = map[int64]models.Subject{}
	m.grades = map[int64]models.Grade{}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func ordered[T any](items map[int64]T) []T {
	keys := slices.Sorted(maps.Keys(items))
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, items[k])
	}
	return out
}

func seqOf[T any](items []T, err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (m *memStore) Exists(_ context.Context, table string, id int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	switch table {
	case "groups":
		_, ok := m.groups[id]
		return ok, nil
	case "teachers":
		_, ok := m.teachers[id]
		return ok, nil
	case "students":
		_, ok := m.students[id]
		return ok, nil
	case "subjects":
		_, ok := m.subjects[id]
		return ok, nil
	case "grades":
		_, ok := m.grades[id]
		return ok, nil
	}
	return false, fmt.Errorf("unknown table %q", table)
}

func (m *memStore) Conflicts(_ context.Context, table string, columns map[string]any, excludeID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	switch table {
	case "groups":
		for _, g := range m.groups {
			if g.ID != excludeID && g.Name == columns["name"] {
				return true, nil
			}
		}
	case "subjects":
		for _, s := range m.subjects {
			if s.ID != excludeID && s.Name == columns["name"] {
				return true, nil
			}
		}
	case "grades":
		at, _ := columns["graded_at"].(time.Time)
		for _, g := range m.grades {
			if g.ID != excludeID && g.StudentID == columns["student_id"] && g.SubjectID == columns["subject_id"] && g.GradedAt.Equal(at) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memStore) Wipe(context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.wipes++
	m.reset()
	return nil
}

type memGroups struct{ *memStore }

func (r memGroups) Create(_ context.Context, g *models.Group) error {
	if r.err != nil {
		return r.err
	}
	g.ID = r.id()
	r.groups[g.ID] = *g
	return nil
}

func (r memGroups) FindByID(_ context.Context, id int64) (*models.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (r memGroups) All(context.Context) iter.Seq2[models.Group, error] {
	return seqOf(ordered(r.groups), r.err)
}

func (r memGroups) List(context.Context) ([]models.Group, error) {
	return ordered(r.groups), r.err
}

func (r memGroups) Update(_ context.Context, id int64, patch models.GroupPatch) (*models.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	r.groups[id] = g
	return &g, nil
}

func (r memGroups) Delete(_ context.Context, id int64) error {
	if _, ok := r.groups[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.groups, id)
	for sid, s := range r.students {
		if s.GroupID != nil && *s.GroupID == id {
			s.GroupID = nil
			r.students[sid] = s
		}
	}
	return nil
}

type memTeachers struct{ *memStore }

func (r memTeachers) Create(_ context.Context, t *models.Teacher) error {
	if r.err != nil {
		return r.err
	}
	t.ID = r.id()
	r.teachers[t.ID] = *t
	return nil
}

func (r memTeachers) FindByID(_ context.Context, id int64) (*models.Teacher, error) {
	t, ok := r.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (r memTeachers) All(context.Context) iter.Seq2[models.Teacher, error] {
	return seqOf(ordered(r.teachers), r.err)
}

func (r memTeachers) List(context.Context) ([]models.Teacher, error) {
	return ordered(r.teachers), r.err
}

func (r memTeachers) Update(_ context.Context, id int64, patch models.TeacherPatch) (*models.Teacher, error) {
	t, ok := r.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	r.teachers[id] = t
	return &t, nil
}

func (r memTeachers) Delete(_ context.Context, id int64) error {
	if _, ok := r.teachers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.teachers, id)
	for sid, s := range r.subjects {
		if s.TeacherID != nil && *s.TeacherID == id {
			s.TeacherID = nil
			r.subjects[sid] = s
		}
	}
	return nil
}

type memStudents struct{ *memStore }

func (r memStudents) Create(_ context.Context, s *models.Student) error {
	if r.err != nil {
		return r.err
	}
	s.ID = r.id()
	r.students[s.ID] = *s
	return nil
}

func (r memStudents) FindByID(_ context.Context, id int64) (*models.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r memStudents) All(context.Context) iter.Seq2[models.Student, error] {
	return seqOf(ordered(r.students), r.err)
}

func (r memStudents) List(context.Context) ([]models.Student, error) {
	return ordered(r.students), r.err
}

func (r memStudents) Update(_ context.Context, id int64, patch models.StudentPatch) (*models.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	switch {
	case patch.DetachGroup:
		s.GroupID = nil
	case patch.GroupID != nil:
		group := *patch.GroupID
		s.GroupID = &group
	}
	r.students[id] = s
	return &s, nil
}

func (r memStudents) Delete(_ context.Context, id int64) error {
	if _, ok := r.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.students, id)
	maps.DeleteFunc(r.grades, func(_ int64, g models.Grade) bool { return g.StudentID == id })
	return nil
}

type memSubjects struct{ *memStore }

func (r memSubjects) Create(_ context.Context, s *models.Subject) error {
	if r.err != nil {
		return r.err
	}
	s.ID = r.id()
	r.subjects[s.ID] = *s
	return nil
}

func (r memSubjects) FindByID(_ context.Context, id int64) (*models.Subject, error) {
	s, ok := r.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (r memSubjects) All(context.Context) iter.Seq2[models.Subject, error] {
	return seqOf(ordered(r.subjects), r.err)
}

func (r memSubjects) List(context.Context) ([]models.Subject, error) {
	return ordered(r.subjects), r.err
}

func (r memSubjects) Update(_ context.Context, id int64, patch models.SubjectPatch) (*models.Subject, error) {
	s, ok := r.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	switch {
	case patch.DetachTeacher:
		s.TeacherID = nil
	case patch.TeacherID != nil:
		teacher := *patch.TeacherID
		s.TeacherID = &teacher
	}
	r.subjects[id] = s
	return &s, nil
}

func (r memSubjects) Delete(_ context.Context, id int64) error {
	if _, ok := r.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.subjects, id)
	maps.DeleteFunc(r.grades, func(_ int64, g models.Grade) bool { return g.SubjectID == id })
	return nil
}

type memGrades struct{ *memStore }

func (r memGrades) Create(_ context.Context, g *models.Grade) error {
	if r.err != nil {
		return r.err
	}
	g.ID = r.id()
	r.grades[g.ID] = *g
	return nil
}

func (r memGrades) FindByID(_ context.Context, id int64) (*models.Grade, error) {
	g, ok := r.grades[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (r memGrades) All(context.Context) iter.Seq2[models.Grade, error] {
	return seqOf(ordered(r.grades), r.err)
}

func (r memGrades) List(context.Context) ([]models.Grade, error) {
	return ordered(r.grades), r.err
}

func (r memGrades) ListByStudent(_ context.Context, studentID int64) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range ordered(r.grades) {
		if g.StudentID == studentID {
			out = append(out, g)
		}
	}
	return out, r.err
}

func (r memGrades) Delete(_ context.Context, id int64) error {
	if _, ok := r.grades[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.grades, id)
	return nil
}

// memQueries evaluates the analytical queries over memStore.
type memQueries struct{ *memStore }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (r memQueries) averageOf(keep func(models.Grade) bool) *float64 {
	sum, n := 0, 0
	for _, g := range r.grades {
		if keep(g) {
			sum += g.Grade
			n++
		}
	}
	if n == 0 {
		return nil
	}
	v := round2(float64(sum) / float64(n))
	return &v
}

func (r memQueries) studentAverages(keep func(models.Grade) bool) []models.StudentAverage {
	var out []models.StudentAverage
	for _, s := range ordered(r.students) {
		avg := r.averageOf(func(g models.Grade) bool { return g.StudentID == s.ID && keep(g) })
		if avg != nil {
			out = append(out, models.StudentAverage{StudentID: s.ID, StudentName: s.Name, Average: *avg})
		}
	}
	slices.SortStableFunc(out, func(a, b models.StudentAverage) int {
		if c := cmp.Compare(b.Average, a.Average); c != 0 {
			return c
		}
		return cmp.Compare(a.StudentID, b.StudentID)
	})
	return out
}

func (r memQueries) teacherOf(subjectID int64) int64 {
	if s, ok := r.subjects[subjectID]; ok && s.TeacherID != nil {
		return *s.TeacherID
	}
	return 0
}

func (r memQueries) inGroup(studentID, groupID int64) bool {
	s, ok := r.students[studentID]
	return ok && s.GroupID != nil && *s.GroupID == groupID
}

func (r memQueries) TopStudents(_ context.Context, limit int) ([]models.StudentAverage, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := r.studentAverages(func(models.Grade) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memQueries) TopStudentForSubject(_ context.Context, subjectID int64) (*models.StudentAverage, error) {
	out := r.studentAverages(func(g models.Grade) bool { return g.SubjectID == subjectID })
	if len(out) == 0 {
		return nil, r.err
	}
	return &out[0], r.err
}

func (r memQueries) GroupAveragesForSubject(_ context.Context, subjectID int64) ([]models.GroupAverage, error) {
	var out []models.GroupAverage
	for _, group := range ordered(r.groups) {
		avg := r.averageOf(func(g models.Grade) bool { return g.SubjectID == subjectID && r.inGroup(g.StudentID, group.ID) })
		if avg != nil {
			out = append(out, models.GroupAverage{GroupID: group.ID, GroupName: group.Name, Average: *avg})
		}
	}
	return out, r.err
}

func (r memQueries) GlobalAverage(context.Context) (*float64, error) {
	return r.averageOf(func(models.Grade) bool { return true }), r.err
}

func (r memQueries) TeacherSubjects(_ context.Context, teacherID int64) ([]models.SubjectRef, error) {
	out := []models.SubjectRef{}
	for _, s := range ordered(r.subjects) {
		if s.TeacherID != nil && *s.TeacherID == teacherID {
			out = append(out, models.SubjectRef{ID: s.ID, Name: s.Name})
		}
	}
	return out, r.err
}

func (r memQueries) GroupStudents(_ context.Context, groupID int64) ([]models.StudentRef, error) {
	out := []models.StudentRef{}
	for _, s := range ordered(r.students) {
		if s.GroupID != nil && *s.GroupID == groupID {
			out = append(out, models.StudentRef{ID: s.ID, Name: s.Name})
		}
	}
	return out, r.err
}

func (r memQueries) gradeRows(keep func(models.Grade) bool) []models.GradeRow {
	out := []models.GradeRow{}
	for _, g := range r.grades {
		if keep(g) {
			out = append(out, models.GradeRow{StudentID: g.StudentID, StudentName: r.students[g.StudentID].Name, Grade: g.Grade, GradedAt: g.GradedAt})
		}
	}
	slices.SortFunc(out, func(a, b models.GradeRow) int {
		if c := cmp.Compare(a.StudentID, b.StudentID); c != 0 {
			return c
		}
		return b.GradedAt.Compare(a.GradedAt)
	})
	return out
}

func (r memQueries) GroupSubjectGrades(_ context.Context, groupID, subjectID int64) ([]models.GradeRow, error) {
	return r.gradeRows(func(g models.Grade) bool { return g.SubjectID == subjectID && r.inGroup(g.StudentID, groupID) }), r.err
}

func (r memQueries) TeacherAverage(_ context.Context, teacherID int64) (*float64, error) {
	return r.averageOf(func(g models.Grade) bool { return r.teacherOf(g.SubjectID) == teacherID }), r.err
}

func (r memQueries) subjectsOf(keep func(models.Grade) bool) []models.SubjectRef {
	seen := map[int64]bool{}
	out := []models.SubjectRef{}
	for _, g := range r.grades {
		if keep(g) && !seen[g.SubjectID] {
			seen[g.SubjectID] = true
			out = append(out, models.SubjectRef{ID: g.SubjectID, Name: r.subjects[g.SubjectID].Name})
		}
	}
	slices.SortFunc(out, func(a, b models.SubjectRef) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r memQueries) StudentSubjects(_ context.Context, studentID int64) ([]models.SubjectRef, error) {
	return r.subjectsOf(func(g models.Grade) bool { return g.StudentID == studentID }), r.err
}

func (r memQueries) StudentTeacherSubjects(_ context.Context, studentID, teacherID int64) ([]models.SubjectRef, error) {
	return r.subjectsOf(func(g models.Grade) bool { return g.StudentID == studentID && r.teacherOf(g.SubjectID) == teacherID }), r.err
}

func (r memQueries) StudentTeacherAverage(_ context.Context, studentID, teacherID int64) (*float64, error) {
	return r.averageOf(func(g models.Grade) bool { return g.StudentID == studentID && r.teacherOf(g.SubjectID) == teacherID }), r.err
}

func (r memQueries) LatestGroupSubjectGrades(ctx context.Context, groupID, subjectID int64) ([]models.GradeRow, error) {
	rows, err := r.GroupSubjectGrades(ctx, groupID, subjectID)
	out := []models.GradeRow{}
	for _, row := range rows {
		// rows are ordered newest first within a student
		if len(out) == 0 || out[len(out)-1].StudentID != row.StudentID {
			out = append(out, row)
		}
	}
	return out, err
}

// services wires every service to one memStore.
type services struct {
	store    *memStore
	groups   *GroupService
	teachers *TeacherService
	students *StudentService
	subjects *SubjectService
	grades   *GradeService
	queries  *QueryService
	seed     *SeedService
}

func newServices(clock func() time.Time) *services {
	store := newMemStore()
	s := &services{store: store}
	s.groups = NewGroupService(memGroups{store}, store, nil, nil)
	s.teachers = NewTeacherService(memTeachers{store}, store, nil, nil)
	s.students = NewStudentService(memStudents{store}, store, nil, nil)
	s.subjects = NewSubjectService(memSubjects{store}, store, nil, nil)
	s.grades = NewGradeService(memGrades{store}, store, nil, nil).WithClock(clock)
	s.queries = NewQueryService(memQueries{store}, NewMetricsService(), nil)
	s.seed = NewSeedService(store, s.groups, s.teachers, s.students, s.subjects, s.grades, nil).WithClock(clock)
	return s
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
