package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slp-progress-api/internal/models"
)

func newModuleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestModuleRepositoryCreateAppliesDefaultPassRate(t *testing.T) {
	db, mock, cleanup := newModuleRepoMock(t)
	defer cleanup()

	repo := NewModuleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO modules")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	module := &models.Module{Code: "SLP-101", Name: "Phonetics"}
	require.NoError(t, repo.Create(context.Background(), module))
	require.Equal(t, models.DefaultPassRate, module.PassRate)
	require.NotEmpty(t, module.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleRepositoryCreateKeepsExplicitPassRate(t *testing.T) {
	db, mock, cleanup := newModuleRepoMock(t)
	defer cleanup()

	repo := NewModuleRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO modules")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	module := &models.Module{Code: "SLP-102", Name: "Audiology", PassRate: 75}
	require.NoError(t, repo.Create(context.Background(), module))
	require.Equal(t, 75, module.PassRate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newModuleRepoMock(t)
	defer cleanup()

	repo := NewModuleRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM modules WHERE code = $1 AND id <> $2")).
		WithArgs("SLP-101", "mod-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByCode(context.Background(), "SLP-101", "mod-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
