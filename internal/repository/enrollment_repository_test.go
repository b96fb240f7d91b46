package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slp-progress-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryListActiveModuleIDs(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	rows := sqlmock.NewRows([]string{"module_id"}).AddRow("mod-1").AddRow("mod-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT module_id FROM enrollments")).
		WithArgs("stu-1", string(models.EnrollmentStatusActive), string(models.EnrollmentStatusReplaced)).
		WillReturnRows(rows)

	ids, err := repo.ListActiveModuleIDs(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Equal(t, []string{"mod-1", "mod-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListGradesByStudent(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	rows := sqlmock.NewRows([]string{"enrollment_id", "module_id", "module_code", "formative", "summative", "supplementary", "pass_rate"}).
		AddRow("enr-1", "mod-1", "SLP-101", 80.0, 70.0, nil, 50).
		AddRow("enr-2", "mod-2", "SLP-102", nil, nil, nil, 50)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id AS enrollment_id")).
		WithArgs("stu-1", string(models.EnrollmentStatusActive), string(models.EnrollmentStatusReplaced)).
		WillReturnRows(rows)

	grades, err := repo.ListGradesByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, grades, 2)
	require.Equal(t, 50, grades[0].PassRate)
	require.Nil(t, grades[1].Formative, "missing scores stay nil and evaluate as zero")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySyncRosterCommits(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = $1 AND module_id = $2")).
		WithArgs("stu-1", "mod-old", string(models.EnrollmentStatusActive), string(models.EnrollmentStatusReplaced)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.SyncRoster(context.Background(), "stu-1", []string{"mod-old"}, []string{"mod-new"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySyncRosterRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := repo.SyncRoster(context.Background(), "stu-1", []string{"mod-old"}, []string{"mod-new"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySyncRosterEmptyDiffSkipsTransaction(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	require.NoError(t, repo.SyncRoster(context.Background(), "stu-1", nil, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryReregisterTransaction(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, proof_path = NULL, received_book = false")).
		WithArgs("enr-old", string(models.EnrollmentStatusReplaced), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notes")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	replacement, err := repo.Reregister(context.Background(), ReregisterParams{
		OldEnrollmentID: "enr-old",
		StudentID:       "stu-1",
		NewModuleID:     "mod-2",
		NoteAuthor:      "registrar",
		NoteText:        "module SLP-101 replaced with module SLP-101",
	})
	require.NoError(t, err)
	require.Equal(t, "stu-1", replacement.StudentID)
	require.Equal(t, "mod-2", replacement.ModuleID)
	require.Equal(t, models.EnrollmentStatusActive, replacement.Status)
	require.NotNil(t, replacement.Formative)
	require.Equal(t, 0.0, *replacement.Formative, "replacement starts with zeroed scores")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryReregisterRollsBackOnNoteFailure(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notes")).
		WillReturnError(errors.New("notes table locked"))
	mock.ExpectRollback()

	_, err := repo.Reregister(context.Background(), ReregisterParams{
		OldEnrollmentID: "enr-old",
		StudentID:       "stu-1",
		NewModuleID:     "mod-2",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateScores(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	formative := 80.0
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET formative = $2")).
		WithArgs("enr-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateScores(context.Background(), "enr-1", &formative, nil, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
