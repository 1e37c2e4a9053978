package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

// RoomRepository reads rooms owned by a user.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// ListByUser returns the user's rooms ordered by name.
func (r *RoomRepository) ListByUser(ctx context.Context, userID string) ([]models.Room, error) {
	const query = `SELECT id, user_id, name, capacity, room_type, created_at, updated_at
FROM rooms WHERE user_id = $1 ORDER BY name ASC, id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, userID); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
