package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/noah-isme/sma-timetable-ga/internal/genetic"
	"github.com/noah-isme/sma-timetable-ga/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ga_runs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	status TEXT NOT NULL,
	max_generations INTEGER NOT NULL,
	population_size INTEGER NOT NULL,
	elite_size INTEGER NOT NULL,
	mutation_rate REAL NOT NULL,
	crossover_rate REAL NOT NULL,
	seed INTEGER,
	final_fitness REAL,
	generation_count INTEGER,
	conflict_count INTEGER,
	error_message TEXT,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS schedule_slots (
	id TEXT PRIMARY KEY,
	ga_run_id TEXT NOT NULL REFERENCES ga_runs(id) ON DELETE CASCADE,
	class_id TEXT NOT NULL,
	teacher_id TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	room_id TEXT NOT NULL,
	day TEXT NOT NULL,
	period INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedule_slots_run ON schedule_slots(ga_run_id);
`

const offlineUser = "offline"

// saveToSQLite records the run and its best schedule using the same table layout as the
// API database, so results can be inspected with any SQLite client.
func saveToSQLite(ctx context.Context, path string, cfg genetic.Config, report runReport) (runID string, err error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return "", fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return "", fmt.Errorf("create sqlite schema: %w", err)
	}

	finishedAt := time.Now().UTC()
	seed := cfg.Seed
	fitness := report.Best.Fitness
	generations := report.Generations
	conflicts := len(report.Best.Conflicts)
	run := models.GARun{
		ID:              uuid.NewString(),
		UserID:          offlineUser,
		Status:          models.GARunStatusCompleted,
		MaxGenerations:  cfg.MaxGenerations,
		PopulationSize:  cfg.PopulationSize,
		EliteSize:       cfg.EliteSize,
		MutationRate:    cfg.MutationRate,
		CrossoverRate:   cfg.CrossoverRate,
		Seed:            &seed,
		FinalFitness:    &fitness,
		GenerationCount: &generations,
		ConflictCount:   &conflicts,
		StartedAt:       finishedAt.Add(-time.Duration(report.DurationMillis) * time.Millisecond),
		FinishedAt:      &finishedAt,
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO ga_runs (id, user_id, status, max_generations, population_size, elite_size, mutation_rate, crossover_rate, seed, final_fitness, generation_count, conflict_count, error_message, started_at, finished_at)
VALUES (:id, :user_id, :status, :max_generations, :population_size, :elite_size, :mutation_rate, :crossover_rate, :seed, :final_fitness, :generation_count, :conflict_count, :error_message, :started_at, :finished_at)`, run); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, gene := range report.Best.Genes {
		slot := models.ScheduleSlot{
			ID:        uuid.NewString(),
			GARunID:   run.ID,
			ClassID:   gene.ClassID,
			TeacherID: gene.TeacherID,
			SubjectID: gene.SubjectID,
			RoomID:    gene.RoomID,
			Day:       gene.Day,
			Period:    gene.Period,
			CreatedAt: finishedAt,
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO schedule_slots (id, ga_run_id, class_id, teacher_id, subject_id, room_id, day, period, created_at)
VALUES (:id, :ga_run_id, :class_id, :teacher_id, :subject_id, :room_id, :day, :period, :created_at)`, slot); err != nil {
			return "", fmt.Errorf("insert slot: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}
