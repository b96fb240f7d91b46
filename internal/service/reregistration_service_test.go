package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slp-progress-api/internal/models"
	"github.com/noah-isme/slp-progress-api/internal/repository"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
)

type mockReregisterStore struct {
	enrollments map[string]models.Enrollment
	params      *repository.ReregisterParams
}

func (m *mockReregisterStore) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, ok := m.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &enrollment, nil
}

func (m *mockReregisterStore) Reregister(ctx context.Context, params repository.ReregisterParams) (*models.Enrollment, error) {
	m.params = &params
	return &models.Enrollment{
		ID:        "enr-new",
		StudentID: params.StudentID,
		ModuleID:  params.NewModuleID,
		Status:    models.EnrollmentStatusActive,
	}, nil
}

type mockModuleReader struct {
	modules map[string]models.Module
}

func (m *mockModuleReader) FindByID(ctx context.Context, id string) (*models.Module, error) {
	module, ok := m.modules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &module, nil
}

func TestReregisterRequiresActor(t *testing.T) {
	svc := NewReregistrationService(&mockReregisterStore{}, &mockModuleReader{}, nil, nil, nil)

	_, err := svc.Reregister(context.Background(), "", "enr-1", ReregisterRequest{NewModuleID: "mod-2"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReregisterNotFound(t *testing.T) {
	svc := NewReregistrationService(&mockReregisterStore{}, &mockModuleReader{}, nil, nil, nil)

	_, err := svc.Reregister(context.Background(), "admin", "missing", ReregisterRequest{NewModuleID: "mod-2"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReregisterAlreadyReplaced(t *testing.T) {
	store := &mockReregisterStore{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", ModuleID: "mod-1", Status: models.EnrollmentStatusReplaced},
	}}
	svc := NewReregistrationService(store, &mockModuleReader{}, nil, nil, nil)

	_, err := svc.Reregister(context.Background(), "admin", "enr-1", ReregisterRequest{NewModuleID: "mod-2"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestReregisterTransitionsAndNotes(t *testing.T) {
	store := &mockReregisterStore{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", ModuleID: "mod-1", Status: models.EnrollmentStatusActive},
	}}
	modules := &mockModuleReader{modules: map[string]models.Module{
		"mod-1": {ID: "mod-1", Code: "SLP-101"},
		"mod-2": {ID: "mod-2", Code: "SLP-101"},
	}}
	queue := &mockEnqueuer{}
	svc := NewReregistrationService(store, modules, queue, nil, nil)

	replacement, err := svc.Reregister(context.Background(), "registrar", "enr-1", ReregisterRequest{NewModuleID: "mod-2"})
	require.NoError(t, err)
	assert.Equal(t, "mod-2", replacement.ModuleID)
	assert.Equal(t, models.EnrollmentStatusActive, replacement.Status)

	require.NotNil(t, store.params)
	assert.Equal(t, "enr-1", store.params.OldEnrollmentID)
	assert.Equal(t, "stu-1", store.params.StudentID)
	assert.Equal(t, "registrar", store.params.NoteAuthor)
	assert.Equal(t, "module SLP-101 replaced with module SLP-101", store.params.NoteText)

	assert.Equal(t, []string{"stu-1"}, queue.enqueued)
}
