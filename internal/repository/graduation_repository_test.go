package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slp-progress-api/internal/models"
)

func newGraduationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGraduationRepositoryExists(t *testing.T) {
	db, mock, cleanup := newGraduationRepoMock(t)
	defer cleanup()

	repo := NewGraduationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM graduation_flags")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu-1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM graduation_flags")).
		WithArgs("stu-2").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.Exists(context.Background(), "stu-2")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGraduationRepositoryInsertFillsDefaults(t *testing.T) {
	db, mock, cleanup := newGraduationRepoMock(t)
	defer cleanup()

	repo := NewGraduationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO graduation_flags")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	flag := &models.GraduationFlag{StudentID: "stu-1", StudentNo: "S1", FullName: "Dana Cole"}
	require.NoError(t, repo.Insert(context.Background(), flag))
	require.NotEmpty(t, flag.ID)
	require.False(t, flag.FlaggedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGraduationRepositorySetTranscriptRequested(t *testing.T) {
	db, mock, cleanup := newGraduationRepoMock(t)
	defer cleanup()

	repo := NewGraduationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE graduation_flags SET transcript_requested = $2")).
		WithArgs("stu-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetTranscriptRequested(context.Background(), "stu-1", true))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE graduation_flags SET transcript_requested = $2")).
		WithArgs("stu-missing", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetTranscriptRequested(context.Background(), "stu-missing", true)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGraduationRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newGraduationRepoMock(t)
	defer cleanup()

	repo := NewGraduationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM graduation_flags")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "stu-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
