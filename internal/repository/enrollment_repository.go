package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/slp-progress-api/internal/models"
)

// EnrollmentRepository handles persistence of module enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN modules m ON m.id = e.module_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ModuleID != "" {
		conditions = append(conditions, fmt.Sprintf("e.module_id = $%d", len(args)+1))
		args = append(args, filter.ModuleID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("COALESCE(e.status, '%s') = $%d", models.EnrollmentStatusActive, len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"issued_at":   "e.issued_at",
		"module_code": "m.code",
		"created_at":  "e.created_at",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "issued_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "e.issued_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.module_id, e.formative, e.summative, e.supplementary,
        e.received_book, COALESCE(e.status, '%s') AS status, e.proof_path, e.issued_at, e.created_at, e.updated_at,
        m.code AS module_code, m.name AS module_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, models.EnrollmentStatusActive, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT id, student_id, module_id, formative, summative, supplementary, received_book,
        COALESCE(status, '%s') AS status, proof_path, issued_at, created_at, updated_at
        FROM enrollments WHERE id = $1`, models.EnrollmentStatusActive)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveModuleIDs returns module ids of the student's non-replaced enrollments.
func (r *EnrollmentRepository) ListActiveModuleIDs(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT module_id FROM enrollments WHERE student_id = $1 AND COALESCE(status, $2) <> $3`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID, models.EnrollmentStatusActive, models.EnrollmentStatusReplaced); err != nil {
		return nil, fmt.Errorf("list active module ids: %w", err)
	}
	return ids, nil
}

// ListGradesByStudent returns the student's non-replaced enrollments joined
// with each module's pass threshold, the input of graduation evaluation.
func (r *EnrollmentRepository) ListGradesByStudent(ctx context.Context, studentID string) ([]models.EnrollmentGrade, error) {
	const query = `SELECT e.id AS enrollment_id, e.module_id, m.code AS module_code,
        e.formative, e.summative, e.supplementary, m.pass_rate
        FROM enrollments e
        JOIN modules m ON m.id = e.module_id
        WHERE e.student_id = $1 AND COALESCE(e.status, $2) <> $3`
	var grades []models.EnrollmentGrade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, models.EnrollmentStatusActive, models.EnrollmentStatusReplaced); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	prepareEnrollment(enrollment)
	const query = `INSERT INTO enrollments (id, student_id, module_id, formative, summative, supplementary, received_book, status, proof_path, issued_at, created_at, updated_at)
        VALUES (:id, :student_id, :module_id, :formative, :summative, :supplementary, :received_book, :status, :proof_path, :issued_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateScores overwrites the three score fields of an enrollment.
func (r *EnrollmentRepository) UpdateScores(ctx context.Context, id string, formative, summative, supplementary *float64) error {
	const query = `UPDATE enrollments SET formative = $2, summative = $3, supplementary = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, formative, summative, supplementary, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment scores: %w", err)
	}
	return nil
}

// SyncRoster applies a roster diff for one student in a single transaction:
// hard-deletes enrollments whose module left the curriculum and inserts
// fresh zero-score active enrollments for newly linked modules. Either all
// changes apply or none do.
func (r *EnrollmentRepository) SyncRoster(ctx context.Context, studentID string, removeModuleIDs, addModuleIDs []string) error {
	if len(removeModuleIDs) == 0 && len(addModuleIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster sync: %w", err)
	}
	for _, moduleID := range removeModuleIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1 AND module_id = $2 AND COALESCE(status, $3) <> $4`,
			studentID, moduleID, models.EnrollmentStatusActive, models.EnrollmentStatusReplaced); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("delete stale enrollment: %w", err)
		}
	}
	const insert = `INSERT INTO enrollments (id, student_id, module_id, formative, summative, supplementary, received_book, status, proof_path, issued_at, created_at, updated_at)
        VALUES (:id, :student_id, :module_id, :formative, :summative, :supplementary, :received_book, :status, :proof_path, :issued_at, :created_at, :updated_at)`
	for _, moduleID := range addModuleIDs {
		enrollment := &models.Enrollment{StudentID: studentID, ModuleID: moduleID}
		prepareEnrollment(enrollment)
		if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert enrollment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster sync: %w", err)
	}
	return nil
}

// ReregisterParams carries the reregistration transition inputs.
type ReregisterParams struct {
	OldEnrollmentID string
	StudentID       string
	NewModuleID     string
	NoteAuthor      string
	NoteText        string
}

// Reregister transitions an enrollment to its replacement in a single
// transaction: the old row is marked replaced with its proof path and
// received-book flag cleared, a fresh active enrollment is inserted for the
// substitute module, and the audit note is appended. Any failure rolls the
// whole transition back.
func (r *EnrollmentRepository) Reregister(ctx context.Context, params ReregisterParams) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reregistration: %w", err)
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE enrollments SET status = $2, proof_path = NULL, received_book = false, updated_at = $3 WHERE id = $1`,
		params.OldEnrollmentID, models.EnrollmentStatusReplaced, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("mark enrollment replaced: %w", err)
	}

	replacement := &models.Enrollment{StudentID: params.StudentID, ModuleID: params.NewModuleID}
	prepareEnrollment(replacement)
	const insert = `INSERT INTO enrollments (id, student_id, module_id, formative, summative, supplementary, received_book, status, proof_path, issued_at, created_at, updated_at)
        VALUES (:id, :student_id, :module_id, :formative, :summative, :supplementary, :received_book, :status, :proof_path, :issued_at, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, replacement); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("insert replacement enrollment: %w", err)
	}

	note := &models.Note{ID: uuid.NewString(), StudentID: params.StudentID, Author: params.NoteAuthor, Text: params.NoteText, CreatedAt: now}
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO notes (id, student_id, author, text, created_at) VALUES (:id, :student_id, :author, :text, :created_at)`, note); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("append reregistration note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reregistration: %w", err)
	}
	return replacement, nil
}

func prepareEnrollment(enrollment *models.Enrollment) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.IssuedAt.IsZero() {
		enrollment.IssuedAt = now
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	zero := 0.0
	if enrollment.Formative == nil {
		enrollment.Formative = &zero
	}
	if enrollment.Summative == nil {
		enrollment.Summative = &zero
	}
	if enrollment.Supplementary == nil {
		enrollment.Supplementary = &zero
	}
}
