package genetic

import "fmt"

const (
	defaultMutationRate      = 0.3
	defaultCrossoverRate     = 0.8
	defaultTournamentSize    = 5
	defaultGeneMutationRate  = 0.1
	defaultPlacementAttempts = 200
)

// Config holds the tunables of a single run.
type Config struct {
	MaxGenerations int
	PopulationSize int
	EliteSize      int
	MutationRate   float64
	CrossoverRate  float64

	TournamentSize    int
	GeneMutationRate  float64
	PlacementAttempts int

	// Seed makes a run reproducible when non-zero.
	Seed int64
}

// DefaultConfig fills every tunable from the two required sizes.
func DefaultConfig(maxGenerations, populationSize int) Config {
	return Config{
		MaxGenerations:    maxGenerations,
		PopulationSize:    populationSize,
		EliteSize:         DefaultEliteSize(populationSize),
		MutationRate:      defaultMutationRate,
		CrossoverRate:     defaultCrossoverRate,
		TournamentSize:    defaultTournamentSize,
		GeneMutationRate:  defaultGeneMutationRate,
		PlacementAttempts: defaultPlacementAttempts,
	}
}

// DefaultEliteSize keeps ten percent of the population, never fewer than two.
func DefaultEliteSize(populationSize int) int {
	elite := populationSize / 10
	if elite < 2 {
		elite = 2
	}
	if elite > populationSize {
		elite = populationSize
	}
	return elite
}

// Validate reports the first out of range field.
func (c Config) Validate() error {
	switch {
	case c.MaxGenerations < 1:
		return fmt.Errorf("%w: max generations must be at least 1", ErrInvalidConfig)
	case c.PopulationSize < 2:
		return fmt.Errorf("%w: population size must be at least 2", ErrInvalidConfig)
	case c.EliteSize < 0 || c.EliteSize > c.PopulationSize:
		return fmt.Errorf("%w: elite size must be between 0 and population size", ErrInvalidConfig)
	case !inUnitRange(c.MutationRate):
		return fmt.Errorf("%w: mutation rate must be within [0,1]", ErrInvalidConfig)
	case !inUnitRange(c.CrossoverRate):
		return fmt.Errorf("%w: crossover rate must be within [0,1]", ErrInvalidConfig)
	case !inUnitRange(c.GeneMutationRate):
		return fmt.Errorf("%w: gene mutation rate must be within [0,1]", ErrInvalidConfig)
	case c.TournamentSize < 1:
		return fmt.Errorf("%w: tournament size must be at least 1", ErrInvalidConfig)
	case c.PlacementAttempts < 1:
		return fmt.Errorf("%w: placement attempts must be at least 1", ErrInvalidConfig)
	}
	return nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
