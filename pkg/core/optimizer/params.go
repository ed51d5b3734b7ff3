package optimizer

import (
	"fmt"
	"time"
)

// Params controls the population search. Every run builds its own operators
// and random source from these values; nothing is shared between runs.
type Params struct {
	PopulationSize      int
	Generations         int
	CrossoverRate       float64 // Probability a successive pair is mated
	MutationRate        float64 // Probability an individual is mutated
	PerGeneMutationRate float64 // Probability each gene of a mutated individual is redrawn
	TournamentSize      int
	Seed                int64

	// TimeBudget stops the search once exceeded. Zero means no wall-clock limit.
	TimeBudget time.Duration

	// Workers bounds concurrent fitness evaluations
	Workers int
}

// DefaultParams mirrors the defaults used by the scheduler config
func DefaultParams() Params {
	return Params{
		PopulationSize:      50,
		Generations:         100,
		CrossoverRate:       0.8,
		MutationRate:        0.1,
		PerGeneMutationRate: 0.1,
		TournamentSize:      3,
		Seed:                42,
		Workers:             4,
	}
}

// Validate checks the params are usable
func (p Params) Validate() error {
	if p.PopulationSize < 2 {
		return fmt.Errorf("population size must be at least 2, got %d", p.PopulationSize)
	}
	if p.Generations < 0 {
		return fmt.Errorf("generations must not be negative, got %d", p.Generations)
	}
	if p.TournamentSize < 1 {
		return fmt.Errorf("tournament size must be at least 1, got %d", p.TournamentSize)
	}
	if err := checkRate("crossover rate", p.CrossoverRate); err != nil {
		return err
	}
	if err := checkRate("mutation rate", p.MutationRate); err != nil {
		return err
	}
	if err := checkRate("per-gene mutation rate", p.PerGeneMutationRate); err != nil {
		return err
	}
	if p.TimeBudget < 0 {
		return fmt.Errorf("time budget must not be negative, got %v", p.TimeBudget)
	}
	return nil
}

func checkRate(name string, rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%s must be within [0, 1], got %v", name, rate)
	}
	return nil
}
