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

// CurriculumRepository manages persistence for curricula and their module links.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs a CurriculumRepository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// List returns all curricula ordered by code.
func (r *CurriculumRepository) List(ctx context.Context) ([]models.Curriculum, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM curricula ORDER BY code`
	var curricula []models.Curriculum
	if err := r.db.SelectContext(ctx, &curricula, query); err != nil {
		return nil, fmt.Errorf("list curricula: %w", err)
	}
	return curricula, nil
}

// FindByID returns a curriculum by its ID.
func (r *CurriculumRepository) FindByID(ctx context.Context, id string) (*models.Curriculum, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM curricula WHERE id = $1`
	var curriculum models.Curriculum
	if err := r.db.GetContext(ctx, &curriculum, query, id); err != nil {
		return nil, err
	}
	return &curriculum, nil
}

// ExistsByCode checks uniqueness of the curriculum code.
func (r *CurriculumRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM curricula WHERE code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check curriculum code: %w", err)
	}
	return true, nil
}

// Create inserts a new curriculum.
func (r *CurriculumRepository) Create(ctx context.Context, curriculum *models.Curriculum) error {
	if curriculum.ID == "" {
		curriculum.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if curriculum.CreatedAt.IsZero() {
		curriculum.CreatedAt = now
	}
	curriculum.UpdatedAt = now
	const query = `INSERT INTO curricula (id, code, name, created_at, updated_at)
        VALUES (:id, :code, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, curriculum); err != nil {
		return fmt.Errorf("create curriculum: %w", err)
	}
	return nil
}

// Update renames an existing curriculum.
func (r *CurriculumRepository) Update(ctx context.Context, curriculum *models.Curriculum) error {
	curriculum.UpdatedAt = time.Now().UTC()
	const query = `UPDATE curricula SET code = :code, name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, curriculum); err != nil {
		return fmt.Errorf("update curriculum: %w", err)
	}
	return nil
}

// Delete removes a curriculum and its module links.
func (r *CurriculumRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin curriculum delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM curriculum_modules WHERE curriculum_id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete curriculum links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM curricula WHERE id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete curriculum: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit curriculum delete: %w", err)
	}
	return nil
}

// ListModuleIDs returns the ids of modules linked to a curriculum.
func (r *CurriculumRepository) ListModuleIDs(ctx context.Context, curriculumID string) ([]string, error) {
	const query = `SELECT module_id FROM curriculum_modules WHERE curriculum_id = $1 ORDER BY module_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, curriculumID); err != nil {
		return nil, fmt.Errorf("list curriculum modules: %w", err)
	}
	return ids, nil
}

// LinkModule associates a module with a curriculum.
func (r *CurriculumRepository) LinkModule(ctx context.Context, curriculumID, moduleID string) error {
	const query = `INSERT INTO curriculum_modules (curriculum_id, module_id, created_at)
        VALUES ($1, $2, $3) ON CONFLICT (curriculum_id, module_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, curriculumID, moduleID, time.Now().UTC()); err != nil {
		return fmt.Errorf("link module: %w", err)
	}
	return nil
}

// UnlinkModule removes a module from a curriculum.
func (r *CurriculumRepository) UnlinkModule(ctx context.Context, curriculumID, moduleID string) error {
	const query = `DELETE FROM curriculum_modules WHERE curriculum_id = $1 AND module_id = $2`
	if _, err := r.db.ExecContext(ctx, query, curriculumID, moduleID); err != nil {
		return fmt.Errorf("unlink module: %w", err)
	}
	return nil
}

// ListStudentIDs returns ids of students currently assigned to the curriculum.
func (r *CurriculumRepository) ListStudentIDs(ctx context.Context, curriculumID string) ([]string, error) {
	const query = `SELECT id FROM students WHERE curriculum_id = $1 ORDER BY student_no`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, curriculumID); err != nil {
		return nil, fmt.Errorf("list curriculum students: %w", err)
	}
	return ids, nil
}
