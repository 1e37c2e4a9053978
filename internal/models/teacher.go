package models

import (
	"strings"
	"time"
)

// Teacher is an instructor bound to a single subject.
type Teacher struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Name            string    `db:"name" json:"name"`
	SubjectID       *string   `db:"subject_id" json:"subject_id,omitempty"`
	MaxHoursPerWeek int       `db:"max_hours_per_week" json:"max_hours_per_week"`
	UnavailableDays *string   `db:"unavailable_days" json:"unavailable_days,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// TeachesSubject reports whether the teacher is bound to subjectID.
func (t Teacher) TeachesSubject(subjectID string) bool {
	return t.SubjectID != nil && *t.SubjectID == subjectID
}

// UnavailableDaySet parses the comma separated day list. Keys are lower-cased.
func (t Teacher) UnavailableDaySet() map[string]struct{} {
	set := make(map[string]struct{})
	if t.UnavailableDays == nil {
		return set
	}
	for _, part := range strings.Split(*t.UnavailableDays, ",") {
		day := strings.ToLower(strings.TrimSpace(part))
		if day != "" {
			set[day] = struct{}{}
		}
	}
	return set
}
