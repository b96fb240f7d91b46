package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slp-progress-api/internal/models"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
)

type curriculumStore interface {
	List(ctx context.Context) ([]models.Curriculum, error)
	FindByID(ctx context.Context, id string) (*models.Curriculum, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, curriculum *models.Curriculum) error
	Update(ctx context.Context, curriculum *models.Curriculum) error
	Delete(ctx context.Context, id string) error
	ListModuleIDs(ctx context.Context, curriculumID string) ([]string, error)
	LinkModule(ctx context.Context, curriculumID, moduleID string) error
	UnlinkModule(ctx context.Context, curriculumID, moduleID string) error
	ListStudentIDs(ctx context.Context, curriculumID string) ([]string, error)
}

// CreateCurriculumRequest describes curriculum creation payload.
type CreateCurriculumRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// UpdateCurriculumRequest describes curriculum update payload.
type UpdateCurriculumRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// LinkModuleRequest attaches a module to a curriculum.
type LinkModuleRequest struct {
	ModuleID string `json:"module_id" validate:"required"`
}

// RosterSyncFailure records a student whose roster could not be brought in
// line with the curriculum during a membership change. Failures never abort
// the remaining students.
type RosterSyncFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// CurriculumService manages curricula and their module membership. Changing
// membership propagates to every assigned student's enrollment roster.
type CurriculumService struct {
	repo       curriculumStore
	modules    moduleReader
	sync       rosterSynchronizer
	reconciles reconcileEnqueuer
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCurriculumService constructs CurriculumService.
func NewCurriculumService(repo curriculumStore, modules moduleReader, sync rosterSynchronizer, reconciles reconcileEnqueuer, validate *validator.Validate, logger *zap.Logger) *CurriculumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{repo: repo, modules: modules, sync: sync, reconciles: reconciles, validator: validate, logger: logger}
}

// List returns all curricula.
func (s *CurriculumService) List(ctx context.Context) ([]models.Curriculum, error) {
	curricula, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list curricula")
	}
	return curricula, nil
}

// Get returns one curriculum.
func (s *CurriculumService) Get(ctx context.Context, id string) (*models.Curriculum, error) {
	curriculum, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "curriculum not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load curriculum")
	}
	return curriculum, nil
}

// Create registers a new curriculum.
func (s *CurriculumService) Create(ctx context.Context, req CreateCurriculumRequest) (*models.Curriculum, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum payload")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to validate curriculum code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "curriculum code already used")
	}

	curriculum := &models.Curriculum{Code: req.Code, Name: req.Name}
	if err := s.repo.Create(ctx, curriculum); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create curriculum")
	}
	return curriculum, nil
}

// Update modifies a curriculum's descriptive fields.
func (s *CurriculumService) Update(ctx context.Context, id string, req UpdateCurriculumRequest) (*models.Curriculum, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid curriculum payload")
	}
	curriculum, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != curriculum.Code {
		exists, err := s.repo.ExistsByCode(ctx, req.Code, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to validate curriculum code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "curriculum code already used")
		}
	}

	curriculum.Code = req.Code
	curriculum.Name = req.Name
	if err := s.repo.Update(ctx, curriculum); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update curriculum")
	}
	return curriculum, nil
}

// Delete removes a curriculum that no student is assigned to.
func (s *CurriculumService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	studentIDs, err := s.repo.ListStudentIDs(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list assigned students")
	}
	if len(studentIDs) > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "curriculum still has assigned students")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete curriculum")
	}
	return nil
}

// ModuleIDs returns the IDs of the modules a curriculum requires.
func (s *CurriculumService) ModuleIDs(ctx context.Context, id string) ([]string, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	ids, err := s.repo.ListModuleIDs(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list curriculum modules")
	}
	return ids, nil
}

// LinkModule attaches a module to the curriculum and re-syncs every
// assigned student's roster. Per-student failures are collected rather
// than aborting the propagation.
func (s *CurriculumService) LinkModule(ctx context.Context, id string, req LinkModuleRequest) ([]RosterSyncFailure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.modules.FindByID(ctx, req.ModuleID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load module")
	}
	if err := s.repo.LinkModule(ctx, id, req.ModuleID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to link module")
	}
	return s.propagate(ctx, id)
}

// UnlinkModule detaches a module from the curriculum and re-syncs every
// assigned student's roster.
func (s *CurriculumService) UnlinkModule(ctx context.Context, id, moduleID string) ([]RosterSyncFailure, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UnlinkModule(ctx, id, moduleID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to unlink module")
	}
	return s.propagate(ctx, id)
}

func (s *CurriculumService) propagate(ctx context.Context, curriculumID string) ([]RosterSyncFailure, error) {
	studentIDs, err := s.repo.ListStudentIDs(ctx, curriculumID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list assigned students")
	}

	failures := make([]RosterSyncFailure, 0)
	for _, studentID := range studentIDs {
		if err := s.sync.Sync(ctx, studentID); err != nil {
			s.logger.Warn("roster sync failed",
				zap.String("curriculum_id", curriculumID),
				zap.String("student_id", studentID),
				zap.Error(err),
			)
			failures = append(failures, RosterSyncFailure{StudentID: studentID, Reason: err.Error()})
			continue
		}
		if s.reconciles != nil {
			if err := s.reconciles.EnqueueStudent(studentID); err != nil {
				s.logger.Warn("failed to enqueue reconciliation", zap.String("student_id", studentID), zap.Error(err))
			}
		}
	}

	s.logger.Info("curriculum membership propagated",
		zap.String("curriculum_id", curriculumID),
		zap.Int("students", len(studentIDs)),
		zap.Int("failures", len(failures)),
	)
	return failures, nil
}
