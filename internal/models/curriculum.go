package models

import "time"

// Curriculum represents a study programme (SLP) composed of modules.
type Curriculum struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CurriculumModule links a curriculum to one of its modules.
type CurriculumModule struct {
	CurriculumID string    `db:"curriculum_id" json:"curriculum_id"`
	ModuleID     string    `db:"module_id" json:"module_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
