package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slp-progress-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{StudentNo: "S100", FirstName: "Ana"}
	require.NoError(t, repo.Create(context.Background(), student))
	require.NotEmpty(t, student.ID)
	require.Equal(t, models.StudentStatusActive, student.Status)
	require.False(t, student.EnrolledAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListSummaries(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_no", "first_name", "last_name", "email", "phone", "curriculum_id", "curriculum_code", "curriculum_name"}).
		AddRow("stu-1", "S100", "Ana", "Reyes", "ana@example.org", "", "cur-1", "SLP-01", "Speech Pathology").
		AddRow("stu-2", "S101", "Ben", "Ola", "", "", nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN curricula c ON c.id = s.curriculum_id")).
		WillReturnRows(rows)

	summaries, err := repo.ListSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "Ana Reyes", summaries[0].FullName())
	require.Nil(t, summaries[1].CurriculumCode, "unassigned students carry no curriculum context")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateCurriculumClears(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET curriculum_id = $2")).
		WithArgs("stu-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateCurriculum(context.Background(), "stu-1", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_no", "first_name", "last_name", "email", "phone", "address", "curriculum_id", "status", "enrolled_at", "created_at", "updated_at"}).
		AddRow("stu-1", "S100", "Ana", "Reyes", "", "", "", "cur-1", "ACTIVE", time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.student_no")).
		WithArgs("cur-1", string(models.StudentStatusActive)).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("cur-1", string(models.StudentStatusActive)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{
		CurriculumID: "cur-1",
		Status:       models.StudentStatusActive,
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
