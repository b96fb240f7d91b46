package models

import "time"

// StudentStatus represents the administrative state of a student.
type StudentStatus string

// Possible student statuses.
const (
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusOnHold    StudentStatus = "ON_HOLD"
	StudentStatusGraduated StudentStatus = "GRADUATED"
)

// Student represents a learner registered on a study programme.
type Student struct {
	ID           string        `db:"id" json:"id"`
	StudentNo    string        `db:"student_no" json:"student_no"`
	FirstName    string        `db:"first_name" json:"first_name"`
	LastName     string        `db:"last_name" json:"last_name"`
	Email        string        `db:"email" json:"email"`
	Phone        string        `db:"phone" json:"phone"`
	Address      string        `db:"address" json:"address"`
	CurriculumID *string       `db:"curriculum_id" json:"curriculum_id,omitempty"`
	Status       StudentStatus `db:"status" json:"status"`
	EnrolledAt   time.Time     `db:"enrolled_at" json:"enrolled_at"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentSummary is a student row joined with its curriculum name,
// the unit the graduation sweep iterates over.
type StudentSummary struct {
	ID             string  `db:"id" json:"id"`
	StudentNo      string  `db:"student_no" json:"student_no"`
	FirstName      string  `db:"first_name" json:"first_name"`
	LastName       string  `db:"last_name" json:"last_name"`
	Email          string  `db:"email" json:"email"`
	Phone          string  `db:"phone" json:"phone"`
	CurriculumID   *string `db:"curriculum_id" json:"curriculum_id,omitempty"`
	CurriculumCode *string `db:"curriculum_code" json:"curriculum_code,omitempty"`
	CurriculumName *string `db:"curriculum_name" json:"curriculum_name,omitempty"`
}

// FullName joins the student's name fields for display and snapshots.
func (s StudentSummary) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	CurriculumID string
	Status       StudentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
