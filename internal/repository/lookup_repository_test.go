package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLookupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "groups", 4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupRepositoryConflictsSortsColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLookupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM grades WHERE graded_at = $1 AND student_id = $2 AND subject_id = $3)")).
		WithArgs("t", int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	conflict, err := repo.Conflicts(context.Background(), "grades", map[string]any{
		"subject_id": int64(2),
		"student_id": int64(1),
		"graded_at":  "t",
	}, 0)
	require.NoError(t, err)
	assert.False(t, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupRepositoryConflictsExcludesSelf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLookupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM subjects WHERE name = $1 AND id <> $2)")).
		WithArgs("Math", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	conflict, err := repo.Conflicts(context.Background(), "subjects", map[string]any{"name": "Math"}, 3)
	require.NoError(t, err)
	assert.True(t, conflict)
}

func TestLookupRepositoryRejectsUnknownIdentifiers(t *testing.T) {
	repo := NewLookupRepository(nil)

	_, err := repo.Exists(context.Background(), "users", 1)
	assert.Error(t, err)

	_, err = repo.Conflicts(context.Background(), "groups", map[string]any{"id; DROP": 1}, 0)
	assert.Error(t, err)
}
