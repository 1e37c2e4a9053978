package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

// slotInsertBatch keeps one statement well below the Postgres bind parameter limit.
const slotInsertBatch = 500

// ScheduleSlotRepository persists the session assignments of a run.
type ScheduleSlotRepository struct {
	db *sqlx.DB
}

// NewScheduleSlotRepository constructs repository.
func NewScheduleSlotRepository(db *sqlx.DB) *ScheduleSlotRepository {
	return &ScheduleSlotRepository{db: db}
}

func (r *ScheduleSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BulkInsert writes slots in multi-row statements.
func (r *ScheduleSlotRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, slots []models.ScheduleSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
		if slots[i].CreatedAt.IsZero() {
			slots[i].CreatedAt = now
		}
	}

	const query = `
INSERT INTO schedule_slots (id, ga_run_id, class_id, teacher_id, subject_id, room_id, day, period, created_at)
VALUES (:id, :ga_run_id, :class_id, :teacher_id, :subject_id, :room_id, :day, :period, :created_at)`
	for start := 0; start < len(slots); start += slotInsertBatch {
		end := start + slotInsertBatch
		if end > len(slots) {
			end = len(slots)
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slots[start:end]); err != nil {
			return fmt.Errorf("insert schedule slots: %w", err)
		}
	}
	return nil
}

// ListByRun returns the run's slots joined with entity names, ordered by the given day order then period.
func (r *ScheduleSlotRepository) ListByRun(ctx context.Context, runID string, days []string, filter models.ScheduleSlotFilter) ([]models.ScheduleSlotDetail, error) {
	var b strings.Builder
	b.WriteString(`SELECT s.id, s.ga_run_id, s.class_id, s.teacher_id, s.subject_id, s.room_id, s.day, s.period, s.created_at,
COALESCE(c.name, '') AS class_name, COALESCE(t.name, '') AS teacher_name,
COALESCE(sub.name, '') AS subject_name, COALESCE(rm.name, '') AS room_name
FROM schedule_slots s
LEFT JOIN class_groups c ON c.id = s.class_id
LEFT JOIN teachers t ON t.id = s.teacher_id
LEFT JOIN subjects sub ON sub.id = s.subject_id
LEFT JOIN rooms rm ON rm.id = s.room_id
WHERE s.ga_run_id = $1`)
	args := []interface{}{runID, pq.Array(days)}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		fmt.Fprintf(&b, " AND s.class_id = $%d", len(args))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		fmt.Fprintf(&b, " AND s.teacher_id = $%d", len(args))
	}
	b.WriteString(" ORDER BY array_position($2::text[], s.day) ASC, s.period ASC, class_name ASC")

	var slots []models.ScheduleSlotDetail
	if err := r.db.SelectContext(ctx, &slots, b.String(), args...); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	return slots, nil
}

// CountByRun returns the number of slots stored for a run.
func (r *ScheduleSlotRepository) CountByRun(ctx context.Context, runID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM schedule_slots WHERE ga_run_id = $1`, runID); err != nil {
		return 0, fmt.Errorf("count schedule slots: %w", err)
	}
	return total, nil
}

// DeleteByRun removes every slot of a run.
func (r *ScheduleSlotRepository) DeleteByRun(ctx context.Context, exec sqlx.ExtContext, runID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM schedule_slots WHERE ga_run_id = $1`, runID); err != nil {
		return fmt.Errorf("delete schedule slots: %w", err)
	}
	return nil
}
