package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/university-records/internal/models"
)

func TestSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	teacher := int64(2)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subjects (name, teacher_id) VALUES ($1, $2) RETURNING id")).
		WithArgs("Math", teacher).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	subject := &models.Subject{Name: "Math", TeacherID: &teacher}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.Equal(t, int64(10), subject.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryUpdateBothFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	name := "Algebra"
	teacher := int64(3)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE subjects SET name = $1, teacher_id = $2 WHERE id = $3 RETURNING id, name, teacher_id")).
		WithArgs(name, teacher, int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "teacher_id"}).AddRow(10, name, teacher))

	subject, err := repo.Update(context.Background(), 10, models.SubjectPatch{Name: &name, TeacherID: &teacher})
	require.NoError(t, err)
	assert.Equal(t, name, subject.Name)
	assert.Equal(t, teacher, *subject.TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryUpdateDetachTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE subjects SET teacher_id = NULL WHERE id = $1 RETURNING id, name, teacher_id")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "teacher_id"}).AddRow(10, "Math", nil))

	subject, err := repo.Update(context.Background(), 10, models.SubjectPatch{DetachTeacher: true})
	require.NoError(t, err)
	assert.Nil(t, subject.TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
