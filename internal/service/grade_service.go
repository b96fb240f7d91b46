package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slp-progress-api/internal/models"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
)

// Evaluate decides a single module's pass/fail verdict from its three score
// attempts and the module's pass threshold. The threshold is inclusive.
// Policy: a failing formative score fails the module outright; otherwise the
// module passes when either the summative or the supplementary attempt meets
// the threshold. Scores are used as given, no clamping.
func Evaluate(formative, summative, supplementary float64, passRate int) bool {
	threshold := float64(passRate)
	if formative < threshold {
		return false
	}
	if summative < threshold && supplementary < threshold {
		return false
	}
	return true
}

type gradeStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	UpdateScores(ctx context.Context, id string, formative, summative, supplementary *float64) error
	ListGradesByStudent(ctx context.Context, studentID string) ([]models.EnrollmentGrade, error)
}

type reconcileEnqueuer interface {
	EnqueueStudent(studentID string) error
}

// UpdateScoresRequest carries a score edit for one enrollment.
type UpdateScoresRequest struct {
	Formative     *float64 `json:"formative"`
	Summative     *float64 `json:"summative"`
	Supplementary *float64 `json:"supplementary"`
}

// GradeService evaluates module outcomes and applies score edits.
type GradeService struct {
	enrollments gradeStore
	reconciles  reconcileEnqueuer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(enrollments gradeStore, reconciles reconcileEnqueuer, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{enrollments: enrollments, reconciles: reconciles, validator: validate, logger: logger}
}

// HasPassedAllModules reports graduation eligibility for one student: every
// non-replaced enrollment must pass. A student with no such enrollments is
// incomplete, not vacuously passed.
func (s *GradeService) HasPassedAllModules(ctx context.Context, studentID string) (bool, error) {
	grades, err := s.enrollments.ListGradesByStudent(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load enrollments")
	}
	if len(grades) == 0 {
		return false, nil
	}
	for _, grade := range grades {
		if !Evaluate(models.Score(grade.Formative), models.Score(grade.Summative), models.Score(grade.Supplementary), grade.PassRate) {
			return false, nil
		}
	}
	return true, nil
}

// UpdateScores overwrites an enrollment's three score fields and schedules a
// reconciliation of the affected student.
func (s *GradeService) UpdateScores(ctx context.Context, enrollmentID string, req UpdateScoresRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scores payload")
	}
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusReplaced {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is replaced")
	}

	formative := enrollment.Formative
	summative := enrollment.Summative
	supplementary := enrollment.Supplementary
	if req.Formative != nil {
		formative = req.Formative
	}
	if req.Summative != nil {
		summative = req.Summative
	}
	if req.Supplementary != nil {
		supplementary = req.Supplementary
	}

	if err := s.enrollments.UpdateScores(ctx, enrollmentID, formative, summative, supplementary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update scores")
	}

	if s.reconciles != nil {
		if err := s.reconciles.EnqueueStudent(enrollment.StudentID); err != nil {
			s.logger.Warn("failed to enqueue reconciliation", zap.String("student_id", enrollment.StudentID), zap.Error(err))
		}
	}

	enrollment.Formative = formative
	enrollment.Summative = summative
	enrollment.Supplementary = supplementary
	return enrollment, nil
}
