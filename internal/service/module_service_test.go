package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slp-progress-api/internal/models"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
)

type mockModuleStore struct {
	modules map[string]models.Module
	taken   map[string]bool
}

func (m *mockModuleStore) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error) {
	var result []models.Module
	for _, module := range m.modules {
		result = append(result, module)
	}
	return result, len(result), nil
}

func (m *mockModuleStore) FindByID(ctx context.Context, id string) (*models.Module, error) {
	module, ok := m.modules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &module, nil
}

func (m *mockModuleStore) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	return m.taken[code], nil
}

func (m *mockModuleStore) Create(ctx context.Context, module *models.Module) error {
	if m.modules == nil {
		m.modules = make(map[string]models.Module)
	}
	if module.ID == "" {
		module.ID = "mod-new"
	}
	m.modules[module.ID] = *module
	return nil
}

func (m *mockModuleStore) Update(ctx context.Context, module *models.Module) error {
	m.modules[module.ID] = *module
	return nil
}

func TestCreateModuleConflict(t *testing.T) {
	store := &mockModuleStore{taken: map[string]bool{"SLP-101": true}}
	svc := NewModuleService(store, nil, nil)

	_, err := svc.Create(context.Background(), CreateModuleRequest{Code: "SLP-101", Name: "Phonetics"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCreateModuleRejectsOutOfRangePassRate(t *testing.T) {
	svc := NewModuleService(&mockModuleStore{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateModuleRequest{Code: "SLP-101", Name: "Phonetics", PassRate: 120})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUpdateModulePassRate(t *testing.T) {
	store := &mockModuleStore{modules: map[string]models.Module{
		"mod-1": {ID: "mod-1", Code: "SLP-101", Name: "Phonetics", PassRate: 50},
	}}
	svc := NewModuleService(store, nil, nil)

	updated, err := svc.Update(context.Background(), "mod-1", UpdateModuleRequest{Code: "SLP-101", Name: "Phonetics", PassRate: 75})
	require.NoError(t, err)
	assert.Equal(t, 75, updated.PassRate)
	assert.Equal(t, 75, store.modules["mod-1"].PassRate)
}
