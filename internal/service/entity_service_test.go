package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/university-records/pkg/errors"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func requireCode(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, code, appErr.Code, err.Error())
	return appErr
}

func requireConstraint(t *testing.T, err error, kind string) {
	t.Helper()
	appErr := requireCode(t, err, appErrors.ErrConstraint.Code)
	assert.Equal(t, kind, appErr.Kind)
}

func strPtr(v string) *string { return &v }
func idPtr(v int64) *int64    { return &v }

func TestGroupServiceCRUD(t *testing.T) {
	ctx := context.Background()
	svc := newServices(fixedClock(epoch))

	a, err := svc.groups.Create(ctx, CreateGroupRequest{Name: "AD-101"})
	require.NoError(t, err)
	b, err := svc.groups.Create(ctx, CreateGroupRequest{Name: "AD-102"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	_, err = svc.groups.Create(ctx, CreateGroupRequest{Name: "AD-101"})
	requireConstraint(t, err, appErrors.KindUnique)

	_, err = svc.groups.Update(ctx, b.ID, UpdateGroupRequest{Name: strPtr("AD-101")})
	requireConstraint(t, err, appErrors.KindUnique)

	// renaming to its own name is not a conflict
	same, err := svc.groups.Update(ctx, a.ID, UpdateGroupRequest{Name: strPtr("AD-101")})
	require.NoError(t, err)
	assert.Equal(t, "AD-101", same.Name)

	groups, err := svc.groups.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, a.ID, groups[0].ID)

	require.NoError(t, svc.groups.Delete(ctx, a.ID))
	requireCode(t, svc.groups.Delete(ctx, a.ID), appErrors.ErrNotFound.Code)
	_, err = svc.groups.Get(ctx, a.ID)
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestGroupServiceRejectsEmptyName(t *testing.T) {
	svc := newServices(fixedClock(epoch))
	_, err := svc.groups.Create(context.Background(), CreateGroupRequest{})
	requireConstraint(t, err, appErrors.KindNotNull)
}

func TestGroupDeleteDetachesStudents(t *testing.T) {
	ctx := context.Background()
	svc := newServices(fixedClock(epoch))

	group, err := svc.groups.Create(ctx, CreateGroupRequest{Name: "AD-101"})
	require.NoError(t, err)
	student, err := svc.students.Create(ctx, CreateStudentRequest{Name: "Ann", GroupID: &group.ID})
	require.NoError(t, err)

	require.NoError(t, svc.groups.Delete(ctx, group.ID))
	reloaded, err := svc.students.Get(ctx, student.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.GroupID)
}

func TestStudentServiceForeignKeyAndPatch(t *testing.T) {
	ctx := context.Background()
	svc := newServices(fixedClock(epoch))

	_, err := svc.students.Create(ctx, CreateStudentRequest{Name: "Ann", GroupID: idPtr(99)})
	requireConstraint(t, err, appErrors.KindForeignKey)

	group, err := svc.groups.Create(ctx, CreateGroupRequest{Name: "AD-101"})
	require.NoError(t, err)
	student, err := svc.students.Create(ctx, CreateStudentRequest{Name: "Ann"})
	require.NoError(t, err)

	moved, err := svc.students.Update(ctx, student.ID, UpdateStudentRequest{GroupID: &group.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ann", moved.Name)
	require.NotNil(t, moved.GroupID)
	assert.Equal(t, group.ID, *moved.GroupID)

	detached, err := svc.students.Update(ctx, student.ID, UpdateStudentRequest{DetachGroup: true, GroupID: &group.ID})
	require.NoError(t, err)
	assert.Nil(t, detached.GroupID)

	_, err = svc.students.Update(ctx, student.ID, UpdateStudentRequest{GroupID: idPtr(42)})
	requireConstraint(t, err, appErrors.KindForeignKey)

	_, err = svc.students.Update(ctx, 404, UpdateStudentRequest{Name: strPtr("x")})
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestStudentDeleteCascadesGrades(t *testing.T) {
	ctx := context.Background()
	svc := newServices(fixedClock(epoch))

	student, err := svc.students.Create(ctx, CreateStudentRequest{Name: "Ann"})
	require.NoError(t, err)
	subject, err := svc.subjects.Create(ctx, CreateSubjectRequest{Name: "Math"})
	require.NoError(t, err)
	_, err = svc.grades.Create(ctx, CreateGradeRequest{StudentID: student.ID, SubjectID: subject.ID, Grade: 90})
	require.NoError(t, err)

	require.NoError(t, svc.students.Delete(ctx, student.ID))
	grades, err := svc.grades.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, grades)
}

func TestSubjectServiceUniqueNameAndTeacher(t *testing.T) {
	ctx := context.Background()
	svc := newServices(fixedClock(epoch))

	teacher, err := svc.teachers.Create(ctx, CreateTeacherRequest{Name: "Ivan Petrov"})
	require.NoError(t, err)
	math, err := svc.subjects.Create(ctx, CreateSubjectRequest{Name: "Math", TeacherID: &teacher.ID})
	require.NoError(t, err)

	_, err = svc.subjects.Create(ctx, CreateSubjectRequest{Name: "Math"})
	requireConstraint(t, err, appErrors.KindUnique)

	_, err = svc.subjects.Create(ctx, CreateSubjectRequest{Name: "Physics", TeacherID: idPtr(77)})
	requireConstraint(t, err, appErrors.KindForeignKey)

	require.NoError(t, svc.teachers.Delete(ctx, teacher.ID))
	reloaded, err := svc.subjects.Get(ctx, math.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.TeacherID)

	unchanged, err := svc.subjects.Update(ctx, math.ID, UpdateSubjectRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Math", unchanged.Name)
}

func TestTeacherServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newServices(fixedClock(epoch))

	teacher, err := svc.teachers.Create(ctx, CreateTeacherRequest{Name: "Ivan"})
	require.NoError(t, err)
	renamed, err := svc.teachers.Update(ctx, teacher.ID, UpdateTeacherRequest{Name: strPtr("Ivan Petrov")})
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", renamed.Name)

	_, err = svc.teachers.Update(ctx, teacher.ID, UpdateTeacherRequest{Name: strPtr("")})
	requireConstraint(t, err, appErrors.KindNotNull)
}

func TestGradeServiceRulesAndClock(t *testing.T) {
	ctx := context.Background()
	clock := epoch.Add(1500 * time.Nanosecond).In(time.FixedZone("EET", 2*3600))
	svc := newServices(fixedClock(clock))

	student, err := svc.students.Create(ctx, CreateStudentRequest{Name: "Ann"})
	require.NoError(t, err)
	subject, err := svc.subjects.Create(ctx, CreateSubjectRequest{Name: "Math"})
	require.NoError(t, err)

	for _, value := range []int{-1, 101} {
		_, err = svc.grades.Create(ctx, CreateGradeRequest{StudentID: student.ID, SubjectID: subject.ID, Grade: value})
		requireConstraint(t, err, appErrors.KindCheck)
	}

	grade, err := svc.grades.Create(ctx, CreateGradeRequest{StudentID: student.ID, SubjectID: subject.ID, Grade: 100})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, grade.GradedAt.Location())
	assert.True(t, grade.GradedAt.Equal(epoch.Add(time.Microsecond)))

	// same student, subject and instant
	_, err = svc.grades.Create(ctx, CreateGradeRequest{StudentID: student.ID, SubjectID: subject.ID, Grade: 50})
	requireConstraint(t, err, appErrors.KindUnique)

	_, err = svc.grades.Create(ctx, CreateGradeRequest{StudentID: 999, SubjectID: subject.ID, Grade: 50})
	requireConstraint(t, err, appErrors.KindForeignKey)

	_, err = svc.grades.Update(ctx, grade.ID, UpdateGradeRequest{Grade: new(int)})
	requireCode(t, err, appErrors.ErrUsage.Code)

	require.NoError(t, svc.grades.Delete(ctx, grade.ID))
	requireCode(t, svc.grades.Delete(ctx, grade.ID), appErrors.ErrNotFound.Code)
}

func TestServiceAllStreamsAndMapsErrors(t *testing.T) {
	ctx := context.Background()
	svc := newServices(fixedClock(epoch))

	for _, name := range []string{"Ann", "Bob", "Cid"} {
		_, err := svc.students.Create(ctx, CreateStudentRequest{Name: name})
		require.NoError(t, err)
	}

	var names []string
	for student, err := range svc.students.All(ctx) {
		require.NoError(t, err)
		names = append(names, student.Name)
		if len(names) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"Ann", "Bob"}, names)

	svc.store.err = assert.AnError
	for _, err := range svc.students.All(ctx) {
		requireCode(t, err, appErrors.ErrInternal.Code)
	}
}

func TestServiceSurfacesStoreErrorsAsInternal(t *testing.T) {
	svc := newServices(fixedClock(epoch))
	svc.store.err = assert.AnError

	_, err := svc.groups.Create(context.Background(), CreateGroupRequest{Name: "AD-101"})
	appErr := requireCode(t, err, appErrors.ErrInternal.Code)
	assert.ErrorIs(t, appErr, assert.AnError)
}
