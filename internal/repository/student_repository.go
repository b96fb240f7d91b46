package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/slp-progress-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.CurriculumID != "" {
		conditions = append(conditions, fmt.Sprintf("s.curriculum_id = $%d", len(args)+1))
		args = append(args, filter.CurriculumID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name || ' ' || s.last_name) LIKE $%d OR LOWER(s.student_no) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"student_no": "s.student_no",
		"last_name":  "s.last_name",
		"created_at": "s.created_at",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
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

	query := fmt.Sprintf(`SELECT s.id, s.student_no, s.first_name, s.last_name, s.email, s.phone, s.address,
        s.curriculum_id, s.status, s.enrolled_at, s.created_at, s.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, student_no, first_name, last_name, email, phone, address, curriculum_id, status, enrolled_at, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListSummaries returns every student joined with its curriculum name,
// the working set of the graduation sweep.
func (r *StudentRepository) ListSummaries(ctx context.Context) ([]models.StudentSummary, error) {
	const query = `SELECT s.id, s.student_no, s.first_name, s.last_name, s.email, s.phone,
        s.curriculum_id, c.code AS curriculum_code, c.name AS curriculum_name
        FROM students s
        LEFT JOIN curricula c ON c.id = s.curriculum_id
        ORDER BY s.student_no`
	var summaries []models.StudentSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("list student summaries: %w", err)
	}
	return summaries, nil
}

// FindSummaryByID returns one student with curriculum context.
func (r *StudentRepository) FindSummaryByID(ctx context.Context, id string) (*models.StudentSummary, error) {
	const query = `SELECT s.id, s.student_no, s.first_name, s.last_name, s.email, s.phone,
        s.curriculum_id, c.code AS curriculum_code, c.name AS curriculum_name
        FROM students s
        LEFT JOIN curricula c ON c.id = s.curriculum_id
        WHERE s.id = $1`
	var summary models.StudentSummary
	if err := r.db.GetContext(ctx, &summary, query, id); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ExistsByStudentNo checks uniqueness of the student number business key.
func (r *StudentRepository) ExistsByStudentNo(ctx context.Context, studentNo string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE student_no = $1"
	args := []interface{}{studentNo}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student number: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	if student.EnrolledAt.IsZero() {
		student.EnrolledAt = now
	}
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, student_no, first_name, last_name, email, phone, address, curriculum_id, status, enrolled_at, created_at, updated_at)
        VALUES (:id, :student_no, :first_name, :last_name, :email, :phone, :address, :curriculum_id, :status, :enrolled_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student's editable fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_no = :student_no, first_name = :first_name, last_name = :last_name,
        email = :email, phone = :phone, address = :address, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateCurriculum reassigns (or clears) the student's curriculum reference.
func (r *StudentRepository) UpdateCurriculum(ctx context.Context, id string, curriculumID *string) error {
	const query = `UPDATE students SET curriculum_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, curriculumID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student curriculum: %w", err)
	}
	return nil
}

// UpdateStatus applies an explicit administrative status transition.
func (r *StudentRepository) UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error {
	const query = `UPDATE students SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return nil
}
