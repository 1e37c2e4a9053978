package models

import "time"

// ScheduleSlot is one persisted session assignment of a run.
type ScheduleSlot struct {
	ID        string    `db:"id" json:"id"`
	GARunID   string    `db:"ga_run_id" json:"ga_run_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	Day       string    `db:"day" json:"day"`
	Period    int       `db:"period" json:"period"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScheduleSlotDetail joins a slot with display names of its entities.
type ScheduleSlotDetail struct {
	ScheduleSlot
	ClassName   string `db:"class_name" json:"class_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	RoomName    string `db:"room_name" json:"room_name"`
}

// ScheduleSlotFilter narrows slot listings.
type ScheduleSlotFilter struct {
	ClassID   string
	TeacherID string
}
