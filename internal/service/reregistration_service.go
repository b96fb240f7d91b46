package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slp-progress-api/internal/models"
	"github.com/noah-isme/slp-progress-api/internal/repository"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
)

type reregisterStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Reregister(ctx context.Context, params repository.ReregisterParams) (*models.Enrollment, error)
}

type moduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Module, error)
}

// ReregisterRequest describes a reregistration payload.
type ReregisterRequest struct {
	NewModuleID string `json:"new_module_id" validate:"required"`
}

// ReregistrationService transitions a failed or expired enrollment to a new
// attempt under a substitute module while preserving history.
//
// Callers own the preconditions that the substitute module shares the
// replaced module's code, belongs to the student's curriculum, and is not
// already actively enrolled; the workflow does not re-validate them.
type ReregistrationService struct {
	enrollments reregisterStore
	modules     moduleReader
	reconciles  reconcileEnqueuer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReregistrationService constructs ReregistrationService.
func NewReregistrationService(enrollments reregisterStore, modules moduleReader, reconciles reconcileEnqueuer, validate *validator.Validate, logger *zap.Logger) *ReregistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReregistrationService{enrollments: enrollments, modules: modules, reconciles: reconciles, validator: validate, logger: logger}
}

// Reregister marks the old enrollment replaced, inserts a fresh active
// enrollment for the substitute module and appends the audit note, as one
// transaction. actor attributes the audit note.
func (s *ReregistrationService) Reregister(ctx context.Context, actor, enrollmentID string, req ReregisterRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reregistration payload")
	}
	if actor == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "actor is required")
	}

	oldEnrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load enrollment")
	}
	if oldEnrollment.Status == models.EnrollmentStatusReplaced {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment already replaced")
	}

	oldModule, err := s.modules.FindByID(ctx, oldEnrollment.ModuleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "replaced module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load module")
	}
	newModule, err := s.modules.FindByID(ctx, req.NewModuleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "replacement module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load module")
	}

	replacement, err := s.enrollments.Reregister(ctx, repository.ReregisterParams{
		OldEnrollmentID: oldEnrollment.ID,
		StudentID:       oldEnrollment.StudentID,
		NewModuleID:     newModule.ID,
		NoteAuthor:      actor,
		NoteText:        fmt.Sprintf("module %s replaced with module %s", oldModule.Code, newModule.Code),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to reregister enrollment")
	}

	if s.reconciles != nil {
		if err := s.reconciles.EnqueueStudent(oldEnrollment.StudentID); err != nil {
			s.logger.Warn("failed to enqueue reconciliation", zap.String("student_id", oldEnrollment.StudentID), zap.Error(err))
		}
	}

	s.logger.Info("enrollment reregistered",
		zap.String("student_id", oldEnrollment.StudentID),
		zap.String("old_module", oldModule.Code),
		zap.String("new_module", newModule.Code),
		zap.String("actor", actor),
	)
	return replacement, nil
}
