package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/slp-progress-api/internal/models"
)

// GraduationRepository manages the graduation flag table. One row per
// eligible student; row existence is the eligibility signal.
type GraduationRepository struct {
	db *sqlx.DB
}

// NewGraduationRepository constructs a GraduationRepository.
func NewGraduationRepository(db *sqlx.DB) *GraduationRepository {
	return &GraduationRepository{db: db}
}

// Exists reports whether a graduation flag exists for the student.
func (r *GraduationRepository) Exists(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT 1 FROM graduation_flags WHERE student_id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check graduation flag: %w", err)
	}
	return true, nil
}

// Insert stores a new graduation flag snapshot.
func (r *GraduationRepository) Insert(ctx context.Context, flag *models.GraduationFlag) error {
	if flag.ID == "" {
		flag.ID = uuid.NewString()
	}
	if flag.FlaggedAt.IsZero() {
		flag.FlaggedAt = time.Now().UTC()
	}
	const query = `INSERT INTO graduation_flags (id, student_id, student_no, full_name, email, phone, curriculum_code, curriculum_name, transcript_requested, flagged_at)
        VALUES (:id, :student_id, :student_no, :full_name, :email, :phone, :curriculum_code, :curriculum_name, :transcript_requested, :flagged_at)`
	if _, err := r.db.NamedExecContext(ctx, query, flag); err != nil {
		return fmt.Errorf("insert graduation flag: %w", err)
	}
	return nil
}

// Delete removes the graduation flag for a student, if any.
func (r *GraduationRepository) Delete(ctx context.Context, studentID string) error {
	const query = `DELETE FROM graduation_flags WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("delete graduation flag: %w", err)
	}
	return nil
}

// List returns all graduation flags ordered by student number.
func (r *GraduationRepository) List(ctx context.Context) ([]models.GraduationFlag, error) {
	const query = `SELECT id, student_id, student_no, full_name, email, phone, curriculum_code, curriculum_name, transcript_requested, flagged_at
        FROM graduation_flags ORDER BY student_no`
	var flags []models.GraduationFlag
	if err := r.db.SelectContext(ctx, &flags, query); err != nil {
		return nil, fmt.Errorf("list graduation flags: %w", err)
	}
	return flags, nil
}

// SetTranscriptRequested toggles the externally driven transcript flag.
func (r *GraduationRepository) SetTranscriptRequested(ctx context.Context, studentID string, requested bool) error {
	const query = `UPDATE graduation_flags SET transcript_requested = $2 WHERE student_id = $1`
	result, err := r.db.ExecContext(ctx, query, studentID, requested)
	if err != nil {
		return fmt.Errorf("set transcript requested: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
