package models

import "time"

// EnrollmentStatus represents the lifecycle of a module enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. A replaced enrollment is kept as audit
// history and never deleted.
const (
	EnrollmentStatusActive   EnrollmentStatus = "ACTIVE"
	EnrollmentStatusReplaced EnrollmentStatus = "REPLACED"
)

// Enrollment captures a student's instance of a module with up to three
// graded attempts. Score fields are nullable in storage and treated as 0
// when absent.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	ModuleID      string           `db:"module_id" json:"module_id"`
	Formative     *float64         `db:"formative" json:"formative,omitempty"`
	Summative     *float64         `db:"summative" json:"summative,omitempty"`
	Supplementary *float64         `db:"supplementary" json:"supplementary,omitempty"`
	ReceivedBook  bool             `db:"received_book" json:"received_book"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	ProofPath     *string          `db:"proof_path" json:"proof_path,omitempty"`
	IssuedAt      time.Time        `db:"issued_at" json:"issued_at"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with module info.
type EnrollmentDetail struct {
	Enrollment
	ModuleCode string `db:"module_code" json:"module_code"`
	ModuleName string `db:"module_name" json:"module_name"`
}

// EnrollmentGrade is an enrollment's scores joined with its module's pass
// threshold, the unit the grade evaluator consumes.
type EnrollmentGrade struct {
	EnrollmentID  string   `db:"enrollment_id" json:"enrollment_id"`
	ModuleID      string   `db:"module_id" json:"module_id"`
	ModuleCode    string   `db:"module_code" json:"module_code"`
	Formative     *float64 `db:"formative" json:"formative,omitempty"`
	Summative     *float64 `db:"summative" json:"summative,omitempty"`
	Supplementary *float64 `db:"supplementary" json:"supplementary,omitempty"`
	PassRate      int      `db:"pass_rate" json:"pass_rate"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	ModuleID  string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Score returns a nullable score as its stored value, defaulting to 0.
func Score(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
