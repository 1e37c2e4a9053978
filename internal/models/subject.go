package models

import "time"

// Subject is a course that every class receives SessionsPerWeek times a week.
type Subject struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Name             string    `db:"name" json:"name"`
	SessionsPerWeek  int       `db:"sessions_per_week" json:"sessions_per_week"`
	RequiredRoomType *string   `db:"required_room_type" json:"required_room_type,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
