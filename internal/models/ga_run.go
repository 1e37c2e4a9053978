package models

import "time"

// GARunStatus represents lifecycle phases of a generator run.
type GARunStatus string

const (
	GARunStatusRunning   GARunStatus = "running"
	GARunStatusCompleted GARunStatus = "completed"
	GARunStatusFailed    GARunStatus = "failed"
)

// GARun records the configuration and outcome of one generator run.
type GARun struct {
	ID              string      `db:"id" json:"id"`
	UserID          string      `db:"user_id" json:"user_id"`
	Status          GARunStatus `db:"status" json:"status"`
	MaxGenerations  int         `db:"max_generations" json:"max_generations"`
	PopulationSize  int         `db:"population_size" json:"population_size"`
	EliteSize       int         `db:"elite_size" json:"elite_size"`
	MutationRate    float64     `db:"mutation_rate" json:"mutation_rate"`
	CrossoverRate   float64     `db:"crossover_rate" json:"crossover_rate"`
	Seed            *int64      `db:"seed" json:"seed,omitempty"`
	FinalFitness    *float64    `db:"final_fitness" json:"final_fitness,omitempty"`
	GenerationCount *int        `db:"generation_count" json:"generation_count,omitempty"`
	ConflictCount   *int        `db:"conflict_count" json:"conflict_count,omitempty"`
	ErrorMessage    *string     `db:"error_message" json:"error_message,omitempty"`
	StartedAt       time.Time   `db:"started_at" json:"started_at"`
	FinishedAt      *time.Time  `db:"finished_at" json:"finished_at,omitempty"`
}

// GARunSummary extends GARun with the number of persisted slots.
type GARunSummary struct {
	GARun
	SlotCount int `db:"slot_count" json:"slot_count"`
}

// GARunCompletion carries the outcome written when a run finishes successfully.
type GARunCompletion struct {
	FinalFitness    float64
	GenerationCount int
	ConflictCount   int
	FinishedAt      time.Time
}
