package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"

	"github.com/noah-isme/slp-progress-api/internal/models"
)

type studentCurriculumReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type curriculumModuleLister interface {
	ListModuleIDs(ctx context.Context, curriculumID string) ([]string, error)
}

type rosterStore interface {
	ListActiveModuleIDs(ctx context.Context, studentID string) ([]string, error)
	SyncRoster(ctx context.Context, studentID string, removeModuleIDs, addModuleIDs []string) error
}

// SyncService keeps a student's active enrollment set equal to the module
// set of their assigned curriculum.
type SyncService struct {
	students    studentCurriculumReader
	curricula   curriculumModuleLister
	enrollments rosterStore
	logger      *zap.Logger
}

// NewSyncService constructs SyncService.
func NewSyncService(students studentCurriculumReader, curricula curriculumModuleLister, enrollments rosterStore, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{students: students, curricula: curricula, enrollments: enrollments, logger: logger}
}

// Sync reconciles one student's enrollment roster against their curriculum.
// Stale active enrollments are hard-deleted and missing ones are inserted
// with zeroed scores, atomically. A student without an assigned curriculum is
// a no-op. On failure the enrollment set is left untouched.
func (s *SyncService) Sync(ctx context.Context, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load student")
	}
	if student.CurriculumID == nil {
		return nil
	}

	moduleIDs, err := s.curricula.ListModuleIDs(ctx, *student.CurriculumID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load curriculum modules")
	}
	activeIDs, err := s.enrollments.ListActiveModuleIDs(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load active enrollments")
	}

	toAdd, toRemove := DiffModuleRoster(moduleIDs, activeIDs)
	if len(toAdd) == 0 && len(toRemove) == 0 {
		return nil
	}

	if err := s.enrollments.SyncRoster(ctx, studentID, toRemove, toAdd); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to synchronize roster")
	}

	s.logger.Info("roster synchronized",
		zap.String("student_id", studentID),
		zap.Int("added", len(toAdd)),
		zap.Int("removed", len(toRemove)),
	)
	return nil
}
