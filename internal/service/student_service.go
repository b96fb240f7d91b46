package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slp-progress-api/internal/models"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByStudentNo(ctx context.Context, studentNo string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateCurriculum(ctx context.Context, id string, curriculumID *string) error
	UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error
}

type curriculumReader interface {
	FindByID(ctx context.Context, id string) (*models.Curriculum, error)
}

type noteStore interface {
	Create(ctx context.Context, note *models.Note) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Note, error)
}

type rosterSynchronizer interface {
	Sync(ctx context.Context, studentID string) error
}

// CreateStudentRequest describes student creation payload.
type CreateStudentRequest struct {
	StudentNo    string  `json:"student_no" validate:"required"`
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email" validate:"omitempty,email"`
	Phone        string  `json:"phone"`
	Address      string  `json:"address"`
	CurriculumID *string `json:"curriculum_id"`
}

// UpdateStudentRequest describes student update payload.
type UpdateStudentRequest struct {
	StudentNo string `json:"student_no" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// AssignCurriculumRequest reassigns or clears a student's curriculum.
type AssignCurriculumRequest struct {
	CurriculumID *string `json:"curriculum_id"`
}

// UpdateStudentStatusRequest applies an explicit status transition.
type UpdateStudentStatusRequest struct {
	Status models.StudentStatus `json:"status" validate:"required,oneof=ACTIVE ON_HOLD GRADUATED"`
}

// StudentService orchestrates student administration. Curriculum
// reassignment triggers roster synchronization and schedules a
// reconciliation of the affected student.
type StudentService struct {
	repo       studentRepository
	curricula  curriculumReader
	notes      noteStore
	sync       rosterSynchronizer
	reconciles reconcileEnqueuer
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, curricula curriculumReader, notes noteStore, sync rosterSynchronizer, reconciles reconcileEnqueuer, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, curricula: curricula, notes: notes, sync: sync, reconciles: reconciles, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student and, when a curriculum is assigned,
// populates the initial enrollment roster.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByStudentNo(ctx, req.StudentNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to validate student number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number already used")
	}
	if req.CurriculumID != nil {
		if _, err := s.curricula.FindByID(ctx, *req.CurriculumID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "curriculum not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load curriculum")
		}
	}

	student := &models.Student{
		StudentNo:    req.StudentNo,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		CurriculumID: req.CurriculumID,
		Status:       models.StudentStatusActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create student")
	}

	if student.CurriculumID != nil {
		if err := s.sync.Sync(ctx, student.ID); err != nil {
			return nil, err
		}
	}
	return student, nil
}

// Update modifies a student's personal fields.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.StudentNo != student.StudentNo {
		exists, err := s.repo.ExistsByStudentNo(ctx, req.StudentNo, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to validate student number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student number already used")
		}
	}

	student.StudentNo = req.StudentNo
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Email = req.Email
	student.Phone = req.Phone
	student.Address = req.Address
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update student")
	}
	return student, nil
}

// AssignCurriculum reassigns (or clears) the student's curriculum, records
// the change in the audit trail and synchronizes the enrollment roster when
// the assignment changed.
func (s *StudentService) AssignCurriculum(ctx context.Context, actor, id string, req AssignCurriculumRequest) error {
	if actor == "" {
		return appErrors.Clone(appErrors.ErrValidation, "actor is required")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var noteText string
	if req.CurriculumID != nil {
		curriculum, err := s.curricula.FindByID(ctx, *req.CurriculumID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "curriculum not found")
			}
			return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load curriculum")
		}
		noteText = fmt.Sprintf("curriculum changed to %s", curriculum.Code)
	} else {
		noteText = "curriculum cleared"
	}

	changed := !equalCurriculum(student.CurriculumID, req.CurriculumID)

	if err := s.repo.UpdateCurriculum(ctx, id, req.CurriculumID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update curriculum")
	}
	if err := s.notes.Create(ctx, &models.Note{StudentID: id, Author: actor, Text: noteText}); err != nil {
		s.logger.Warn("failed to record curriculum note", zap.String("student_id", id), zap.Error(err))
	}

	if changed && req.CurriculumID != nil {
		if err := s.sync.Sync(ctx, id); err != nil {
			return err
		}
		if s.reconciles != nil {
			if err := s.reconciles.EnqueueStudent(id); err != nil {
				s.logger.Warn("failed to enqueue reconciliation", zap.String("student_id", id), zap.Error(err))
			}
		}
	}
	return nil
}

// UpdateStatus applies an explicit administrative status transition. The
// graduation flag table is maintained independently by reconciliation;
// status is never flipped automatically.
func (s *StudentService) UpdateStatus(ctx context.Context, actor, id string, req UpdateStudentStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if actor == "" {
		return appErrors.Clone(appErrors.ErrValidation, "actor is required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update status")
	}
	if err := s.notes.Create(ctx, &models.Note{StudentID: id, Author: actor, Text: fmt.Sprintf("status changed to %s", req.Status)}); err != nil {
		s.logger.Warn("failed to record status note", zap.String("student_id", id), zap.Error(err))
	}
	return nil
}

// Notes returns a student's audit trail.
func (s *StudentService) Notes(ctx context.Context, id string) ([]models.Note, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list notes")
	}
	return notes, nil
}

func equalCurriculum(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
