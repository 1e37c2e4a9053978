package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

// ClassRepository reads class groups owned by a user.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListByUser returns the user's classes ordered by name.
func (r *ClassRepository) ListByUser(ctx context.Context, userID string) ([]models.ClassGroup, error) {
	const query = `SELECT id, user_id, name, grade_level, track, created_at, updated_at
FROM class_groups WHERE user_id = $1 ORDER BY name ASC, id ASC`
	var classes []models.ClassGroup
	if err := r.db.SelectContext(ctx, &classes, query, userID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}
