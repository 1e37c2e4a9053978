package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

// TeacherRepository reads teachers owned by a user.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListByUser returns the user's teachers in creation order.
func (r *TeacherRepository) ListByUser(ctx context.Context, userID string) ([]models.Teacher, error) {
	const query = `SELECT id, user_id, name, subject_id, max_hours_per_week, unavailable_days, created_at, updated_at
FROM teachers WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, userID); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}
