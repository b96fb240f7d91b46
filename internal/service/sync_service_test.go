package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slp-progress-api/internal/models"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
)

func ptrString(v string) *string {
	return &v
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

type mockCurriculumModules struct {
	modules map[string][]string
}

func (m *mockCurriculumModules) ListModuleIDs(ctx context.Context, curriculumID string) ([]string, error) {
	return m.modules[curriculumID], nil
}

type mockRosterStore struct {
	active     map[string][]string
	syncErr    error
	syncCalled bool
	removed    []string
	added      []string
}

func (m *mockRosterStore) ListActiveModuleIDs(ctx context.Context, studentID string) ([]string, error) {
	return m.active[studentID], nil
}

func (m *mockRosterStore) SyncRoster(ctx context.Context, studentID string, removeModuleIDs, addModuleIDs []string) error {
	m.syncCalled = true
	if m.syncErr != nil {
		return m.syncErr
	}
	m.removed = removeModuleIDs
	m.added = addModuleIDs
	return nil
}

func TestSyncStudentNotFound(t *testing.T) {
	svc := NewSyncService(&mockStudentReader{}, &mockCurriculumModules{}, &mockRosterStore{}, nil)

	err := svc.Sync(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSyncWithoutCurriculumIsNoOp(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1"},
	}}
	roster := &mockRosterStore{}
	svc := NewSyncService(students, &mockCurriculumModules{}, roster, nil)

	require.NoError(t, svc.Sync(context.Background(), "stu-1"))
	assert.False(t, roster.syncCalled)
}

func TestSyncAppliesDiff(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", CurriculumID: ptrString("cur-1")},
	}}
	curricula := &mockCurriculumModules{modules: map[string][]string{
		"cur-1": {"mod-1", "mod-2", "mod-3"},
	}}
	roster := &mockRosterStore{active: map[string][]string{
		"stu-1": {"mod-2", "mod-3", "mod-4"},
	}}
	svc := NewSyncService(students, curricula, roster, nil)

	require.NoError(t, svc.Sync(context.Background(), "stu-1"))
	assert.Equal(t, []string{"mod-1"}, roster.added)
	assert.Equal(t, []string{"mod-4"}, roster.removed)
}

func TestSyncAlignedRosterSkipsStore(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", CurriculumID: ptrString("cur-1")},
	}}
	curricula := &mockCurriculumModules{modules: map[string][]string{
		"cur-1": {"mod-1", "mod-2"},
	}}
	roster := &mockRosterStore{active: map[string][]string{
		"stu-1": {"mod-2", "mod-1"},
	}}
	svc := NewSyncService(students, curricula, roster, nil)

	require.NoError(t, svc.Sync(context.Background(), "stu-1"))
	assert.False(t, roster.syncCalled)
}

func TestSyncSurfacesStoreFailure(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", CurriculumID: ptrString("cur-1")},
	}}
	curricula := &mockCurriculumModules{modules: map[string][]string{
		"cur-1": {"mod-1"},
	}}
	roster := &mockRosterStore{syncErr: errors.New("deadlock detected")}
	svc := NewSyncService(students, curricula, roster, nil)

	err := svc.Sync(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErr.Code)
}
