package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/slp-progress-api/internal/models"
	appErrors "github.com/noah-isme/slp-progress-api/pkg/errors"
	"github.com/noah-isme/slp-progress-api/pkg/jobs"
)

type summaryLister interface {
	ListSummaries(ctx context.Context) ([]models.StudentSummary, error)
	FindSummaryByID(ctx context.Context, id string) (*models.StudentSummary, error)
}

type graduationStore interface {
	Exists(ctx context.Context, studentID string) (bool, error)
	Insert(ctx context.Context, flag *models.GraduationFlag) error
	Delete(ctx context.Context, studentID string) error
}

type eligibilityEvaluator interface {
	HasPassedAllModules(ctx context.Context, studentID string) (bool, error)
}

// ReconcileService recomputes graduation eligibility. A flag row exists for
// a student iff, at last reconciliation, every non-replaced enrollment
// passed. The sweep is idempotent and never aborted by one student's
// failure; per-student errors are collected in the results.
type ReconcileService struct {
	students summaryLister
	flags    graduationStore
	grades   eligibilityEvaluator
	cache    *CacheService
	metrics  *MetricsService
	workers  int
	logger   *zap.Logger
}

// NewReconcileService constructs ReconcileService. workers bounds the
// cross-student fan-out of the sweep; each student is still reconciled in
// isolation.
func NewReconcileService(students summaryLister, flags graduationStore, grades eligibilityEvaluator, cache *CacheService, metrics *MetricsService, workers int, logger *zap.Logger) *ReconcileService {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{students: students, flags: flags, grades: grades, cache: cache, metrics: metrics, workers: workers, logger: logger}
}

// Reconcile sweeps every student and flags or unflags graduation
// eligibility. Results are returned in student listing order.
func (s *ReconcileService) Reconcile(ctx context.Context) ([]models.PerStudentResult, error) {
	start := time.Now()
	summaries, err := s.students.ListSummaries(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list students")
	}

	results := make([]models.PerStudentResult, len(summaries))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i := range summaries {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.reconcileOne(ctx, summaries[i])
		}(i)
	}
	wg.Wait()

	var created, removed, failed int
	for _, result := range results {
		if result.FlagCreated {
			created++
		}
		if result.FlagRemoved {
			removed++
		}
		if result.Error != "" {
			failed++
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveReconcileRun(len(results), created, removed, failed, time.Since(start))
	}
	s.invalidateCache(ctx)

	s.logger.Info("graduation reconciliation complete",
		zap.Int("students", len(results)),
		zap.Int("flags_created", created),
		zap.Int("flags_removed", removed),
		zap.Int("failures", failed),
		zap.Duration("took", time.Since(start)),
	)
	return results, nil
}

// ReconcileStudent recomputes eligibility for a single student, the targeted
// path used after score edits, roster syncs and reregistrations.
func (s *ReconcileService) ReconcileStudent(ctx context.Context, studentID string) (models.PerStudentResult, error) {
	summary, err := s.students.FindSummaryByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.PerStudentResult{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return models.PerStudentResult{}, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load student")
	}

	result := s.reconcileOne(ctx, *summary)
	s.invalidateCache(ctx)
	if result.Error != "" {
		return result, appErrors.Wrap(fmt.Errorf("%s", result.Error), appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to reconcile student")
	}
	return result, nil
}

func (s *ReconcileService) reconcileOne(ctx context.Context, summary models.StudentSummary) models.PerStudentResult {
	result := models.PerStudentResult{StudentID: summary.ID, StudentNo: summary.StudentNo}

	eligible, err := s.grades.HasPassedAllModules(ctx, summary.ID)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Eligible = eligible

	exists, err := s.flags.Exists(ctx, summary.ID)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	switch {
	case eligible && !exists:
		if err := s.flags.Insert(ctx, flagSnapshot(summary)); err != nil {
			result.Error = err.Error()
			return result
		}
		result.FlagCreated = true
	case !eligible && exists:
		if err := s.flags.Delete(ctx, summary.ID); err != nil {
			result.Error = err.Error()
			return result
		}
		result.FlagRemoved = true
	}
	// An existing flag for a still-eligible student is left untouched; the
	// snapshot is not refreshed.
	return result
}

func (s *ReconcileService) invalidateCache(ctx context.Context) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, graduationCachePattern); err != nil {
		s.logger.Warn("failed to invalidate graduation cache", zap.Error(err))
	}
}

func flagSnapshot(summary models.StudentSummary) *models.GraduationFlag {
	flag := &models.GraduationFlag{
		StudentID: summary.ID,
		StudentNo: summary.StudentNo,
		FullName:  summary.FullName(),
		Email:     summary.Email,
		Phone:     summary.Phone,
	}
	if summary.CurriculumCode != nil {
		flag.CurriculumCode = *summary.CurriculumCode
	}
	if summary.CurriculumName != nil {
		flag.CurriculumName = *summary.CurriculumName
	}
	return flag
}

// ReconcileQueue adapts the jobs queue for services that schedule targeted
// reconciliation after a mutation.
type ReconcileQueue struct {
	queue *jobs.Queue
}

// NewReconcileQueue wraps a started jobs queue.
func NewReconcileQueue(queue *jobs.Queue) *ReconcileQueue {
	return &ReconcileQueue{queue: queue}
}

// EnqueueStudent schedules a per-student reconciliation job.
func (q *ReconcileQueue) EnqueueStudent(studentID string) error {
	if q == nil || q.queue == nil {
		return nil
	}
	return q.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Kind: "reconcile_student", StudentID: studentID})
}
