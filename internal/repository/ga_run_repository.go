package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

const gaRunColumns = `id, user_id, status, max_generations, population_size, elite_size, mutation_rate,
crossover_rate, seed, final_fitness, generation_count, conflict_count, error_message, started_at, finished_at`

// GARunRepository persists generator run metadata.
type GARunRepository struct {
	db *sqlx.DB
}

// NewGARunRepository constructs repository.
func NewGARunRepository(db *sqlx.DB) *GARunRepository {
	return &GARunRepository{db: db}
}

func (r *GARunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a run in the running state.
func (r *GARunRepository) Create(ctx context.Context, run *models.GARun) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.GARunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO ga_runs (id, user_id, status, max_generations, population_size, elite_size, mutation_rate, crossover_rate, seed, started_at)
VALUES (:id, :user_id, :status, :max_generations, :population_size, :elite_size, :mutation_rate, :crossover_rate, :seed, :started_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("insert ga run: %w", err)
	}
	return nil
}

// FindByID loads a run. Missing rows yield sql.ErrNoRows.
func (r *GARunRepository) FindByID(ctx context.Context, id string) (*models.GARun, error) {
	query := `SELECT ` + gaRunColumns + ` FROM ga_runs WHERE id = $1`
	var run models.GARun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListByUser returns the user's runs, newest first, with their slot counts and the total run count.
func (r *GARunRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.GARunSummary, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM ga_runs WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("count ga runs: %w", err)
	}

	const query = `SELECT r.id, r.user_id, r.status, r.max_generations, r.population_size, r.elite_size, r.mutation_rate,
r.crossover_rate, r.seed, r.final_fitness, r.generation_count, r.conflict_count, r.error_message, r.started_at, r.finished_at,
COALESCE(s.slot_count, 0) AS slot_count
FROM ga_runs r
LEFT JOIN (SELECT ga_run_id, COUNT(*) AS slot_count FROM schedule_slots GROUP BY ga_run_id) s ON s.ga_run_id = r.id
WHERE r.user_id = $1
ORDER BY r.started_at DESC
LIMIT $2 OFFSET $3`
	var runs []models.GARunSummary
	if err := r.db.SelectContext(ctx, &runs, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list ga runs: %w", err)
	}
	return runs, total, nil
}

// LatestCompleted returns the user's most recent successful run.
func (r *GARunRepository) LatestCompleted(ctx context.Context, userID string) (*models.GARun, error) {
	query := `SELECT ` + gaRunColumns + ` FROM ga_runs WHERE user_id = $1 AND status = $2 ORDER BY finished_at DESC LIMIT 1`
	var run models.GARun
	if err := r.db.GetContext(ctx, &run, query, userID, models.GARunStatusCompleted); err != nil {
		return nil, err
	}
	return &run, nil
}

// Complete marks a running run as completed with its outcome.
func (r *GARunRepository) Complete(ctx context.Context, exec sqlx.ExtContext, id string, outcome models.GARunCompletion) error {
	const query = `UPDATE ga_runs SET status = $1, final_fitness = $2, generation_count = $3, conflict_count = $4, finished_at = $5
WHERE id = $6 AND status = $7`
	res, err := r.exec(exec).ExecContext(ctx, query,
		models.GARunStatusCompleted, outcome.FinalFitness, outcome.GenerationCount, outcome.ConflictCount, outcome.FinishedAt,
		id, models.GARunStatusRunning)
	if err != nil {
		return fmt.Errorf("complete ga run: %w", err)
	}
	return expectRow(res)
}

// Fail marks a running run as failed.
func (r *GARunRepository) Fail(ctx context.Context, id, message string, finishedAt time.Time) error {
	const query = `UPDATE ga_runs SET status = $1, error_message = $2, finished_at = $3 WHERE id = $4 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, models.GARunStatusFailed, message, finishedAt, id, models.GARunStatusRunning)
	if err != nil {
		return fmt.Errorf("fail ga run: %w", err)
	}
	return expectRow(res)
}

// FailRunning marks every run still in the running state as failed and reports how many changed.
func (r *GARunRepository) FailRunning(ctx context.Context, message string, finishedAt time.Time) (int64, error) {
	const query = `UPDATE ga_runs SET status = $1, error_message = $2, finished_at = $3 WHERE status = $4`
	res, err := r.db.ExecContext(ctx, query, models.GARunStatusFailed, message, finishedAt, models.GARunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("fail running ga runs: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a run row.
func (r *GARunRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM ga_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ga run: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
