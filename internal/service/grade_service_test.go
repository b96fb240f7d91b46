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

func ptrFloat(v float64) *float64 {
	return &v
}

type mockGradeStore struct {
	enrollments map[string]models.Enrollment
	grades      map[string][]models.EnrollmentGrade
	gradesErr   error
	updated     map[string][3]*float64
}

func (m *mockGradeStore) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, ok := m.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &enrollment, nil
}

func (m *mockGradeStore) UpdateScores(ctx context.Context, id string, formative, summative, supplementary *float64) error {
	if m.updated == nil {
		m.updated = make(map[string][3]*float64)
	}
	m.updated[id] = [3]*float64{formative, summative, supplementary}
	return nil
}

func (m *mockGradeStore) ListGradesByStudent(ctx context.Context, studentID string) ([]models.EnrollmentGrade, error) {
	if m.gradesErr != nil {
		return nil, m.gradesErr
	}
	return m.grades[studentID], nil
}

type mockEnqueuer struct {
	enqueued []string
	err      error
}

func (m *mockEnqueuer) EnqueueStudent(studentID string) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, studentID)
	return nil
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name          string
		formative     float64
		summative     float64
		supplementary float64
		passRate      int
		want          bool
	}{
		{"failing formative fails outright", 49, 100, 100, 50, false},
		{"formative alone is not enough", 50, 0, 0, 50, false},
		{"summative at threshold passes", 50, 50, 0, 50, true},
		{"supplementary rescues failed summative", 50, 40, 50, 50, true},
		{"both attempts below threshold fail", 50, 49, 49, 50, false},
		{"exact threshold is inclusive", 50, 50, 50, 50, true},
		{"zero threshold always passes", 0, 0, 0, 0, true},
		{"high bar", 90, 89, 90, 90, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.formative, tc.summative, tc.supplementary, tc.passRate))
		})
	}
}

func TestHasPassedAllModulesEmptyRoster(t *testing.T) {
	svc := NewGradeService(&mockGradeStore{}, nil, nil, nil)

	passed, err := svc.HasPassedAllModules(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.False(t, passed, "a student with no enrollments is not eligible")
}

func TestHasPassedAllModules(t *testing.T) {
	store := &mockGradeStore{grades: map[string][]models.EnrollmentGrade{
		"stu-1": {
			{EnrollmentID: "enr-1", ModuleCode: "MOD-A", Formative: ptrFloat(80), Summative: ptrFloat(75), PassRate: 50},
			{EnrollmentID: "enr-2", ModuleCode: "MOD-B", Formative: ptrFloat(60), Summative: ptrFloat(30), Supplementary: ptrFloat(55), PassRate: 50},
		},
		"stu-2": {
			{EnrollmentID: "enr-3", ModuleCode: "MOD-A", Formative: ptrFloat(80), Summative: ptrFloat(75), PassRate: 50},
			{EnrollmentID: "enr-4", ModuleCode: "MOD-B", Formative: ptrFloat(40), Summative: ptrFloat(90), PassRate: 50},
		},
		"stu-3": {
			// Nil scores count as zero.
			{EnrollmentID: "enr-5", ModuleCode: "MOD-A", PassRate: 50},
		},
	}}
	svc := NewGradeService(store, nil, nil, nil)

	passed, err := svc.HasPassedAllModules(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, passed)

	passed, err = svc.HasPassedAllModules(context.Background(), "stu-2")
	require.NoError(t, err)
	assert.False(t, passed, "one failed module sinks eligibility")

	passed, err = svc.HasPassedAllModules(context.Background(), "stu-3")
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestHasPassedAllModulesStoreError(t *testing.T) {
	store := &mockGradeStore{gradesErr: errors.New("connection refused")}
	svc := NewGradeService(store, nil, nil, nil)

	_, err := svc.HasPassedAllModules(context.Background(), "stu-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErr.Code)
}

func TestUpdateScoresNotFound(t *testing.T) {
	svc := NewGradeService(&mockGradeStore{}, nil, nil, nil)

	_, err := svc.UpdateScores(context.Background(), "missing", UpdateScoresRequest{Formative: ptrFloat(70)})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUpdateScoresReplacedEnrollment(t *testing.T) {
	store := &mockGradeStore{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", Status: models.EnrollmentStatusReplaced},
	}}
	svc := NewGradeService(store, nil, nil, nil)

	_, err := svc.UpdateScores(context.Background(), "enr-1", UpdateScoresRequest{Formative: ptrFloat(70)})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestUpdateScoresMergesAndEnqueues(t *testing.T) {
	store := &mockGradeStore{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", Status: models.EnrollmentStatusActive, Formative: ptrFloat(40), Summative: ptrFloat(60)},
	}}
	queue := &mockEnqueuer{}
	svc := NewGradeService(store, queue, nil, nil)

	updated, err := svc.UpdateScores(context.Background(), "enr-1", UpdateScoresRequest{Formative: ptrFloat(80)})
	require.NoError(t, err)

	// Only the provided field changes; the rest carry over.
	assert.Equal(t, 80.0, *updated.Formative)
	assert.Equal(t, 60.0, *updated.Summative)
	saved := store.updated["enr-1"]
	assert.Equal(t, 80.0, *saved[0])
	assert.Equal(t, 60.0, *saved[1])
	assert.Nil(t, saved[2])

	require.Equal(t, []string{"stu-1"}, queue.enqueued)
}

func TestUpdateScoresEnqueueFailureDoesNotFail(t *testing.T) {
	store := &mockGradeStore{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", Status: models.EnrollmentStatusActive},
	}}
	queue := &mockEnqueuer{err: errors.New("queue stopped")}
	svc := NewGradeService(store, queue, nil, nil)

	_, err := svc.UpdateScores(context.Background(), "enr-1", UpdateScoresRequest{Summative: ptrFloat(90)})
	require.NoError(t, err)
}
