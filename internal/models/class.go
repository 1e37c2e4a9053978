package models

import "time"

// ClassGroup represents one class of students.
type ClassGroup struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	GradeLevel *string   `db:"grade_level" json:"grade_level,omitempty"`
	Track      *string   `db:"track" json:"track,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
