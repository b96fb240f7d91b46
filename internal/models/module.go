package models

import "time"

// DefaultPassRate is applied at the data-mapping boundary when a module
// is created without an explicit pass threshold.
const DefaultPassRate = 50

// Module represents a gradable unit with a pass threshold, shared across
// curricula via curriculum_modules links.
type Module struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	PassRate  int       `db:"pass_rate" json:"pass_rate"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ModuleFilter captures supported filters for listing modules.
type ModuleFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
