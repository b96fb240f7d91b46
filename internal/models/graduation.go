package models

import "time"

// GraduationFlag marks a student as eligible to graduate. The existence of
// the row is the eligibility signal; contact and curriculum fields are a
// denormalized snapshot taken at flag time.
type GraduationFlag struct {
	ID                  string    `db:"id" json:"id"`
	StudentID           string    `db:"student_id" json:"student_id"`
	StudentNo           string    `db:"student_no" json:"student_no"`
	FullName            string    `db:"full_name" json:"full_name"`
	Email               string    `db:"email" json:"email"`
	Phone               string    `db:"phone" json:"phone"`
	CurriculumCode      string    `db:"curriculum_code" json:"curriculum_code"`
	CurriculumName      string    `db:"curriculum_name" json:"curriculum_name"`
	TranscriptRequested bool      `db:"transcript_requested" json:"transcript_requested"`
	FlaggedAt           time.Time `db:"flagged_at" json:"flagged_at"`
}

// PerStudentResult reports the outcome of reconciling one student.
// Failures are collected per student instead of aborting the sweep.
type PerStudentResult struct {
	StudentID   string `json:"student_id"`
	StudentNo   string `json:"student_no"`
	Eligible    bool   `json:"eligible"`
	FlagCreated bool   `json:"flag_created"`
	FlagRemoved bool   `json:"flag_removed"`
	Error       string `json:"error,omitempty"`
}
