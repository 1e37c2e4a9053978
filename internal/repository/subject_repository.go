package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

// SubjectRepository reads subjects owned by a user.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByUser returns the user's subjects in creation order.
func (r *SubjectRepository) ListByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	const query = `SELECT id, user_id, name, sessions_per_week, required_room_type, created_at, updated_at
FROM subjects WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, userID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
