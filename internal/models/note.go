package models

import "time"

// Note is an audit-trail entry attached to a student. Notes are plain data
// entities owned by the store, independent of any presentation component.
type Note struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Author    string    `db:"author" json:"author"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
