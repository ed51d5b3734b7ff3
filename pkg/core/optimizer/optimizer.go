package optimizer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/exam-scheduler/pkg/core/model"
)

// StopReason explains why the search ended
type StopReason string

const (
	StopGenerations StopReason = "generations"
	StopTimeBudget  StopReason = "time_budget"
	StopCancelled   StopReason = "cancelled"
)

// Optimizer runs a generational population search over slot assignments
type Optimizer struct {
	problem     Problem
	params      Params
	constraints []Constraint
	rng         *rand.Rand
	logger      *zap.Logger
}

// Result is the best individual found and how the search went
type Result struct {
	// Best holds one slot index per course
	Best        []int
	Score       float64
	Generations int
	Evaluations int
	StopReason  StopReason
}

// New builds an optimizer for a single run. The random source is seeded from
// params.Seed, so identical problems and params give identical results.
func New(problem Problem, params Params, logger *zap.Logger) (*Optimizer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer params: %w", err)
	}
	if len(problem.Courses) > 0 && len(problem.Slots) == 0 {
		return nil, model.NewValidationError("exam_slots", "no time slots available for %d courses", len(problem.Courses))
	}

	constraints, err := problem.Constraints()
	if err != nil {
		return nil, fmt.Errorf("failed to build constraints: %w", err)
	}

	if params.Workers < 1 {
		params.Workers = 1
	}

	seed := uint64(params.Seed)
	return &Optimizer{
		problem:     problem,
		params:      params,
		constraints: constraints,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:      logger,
	}, nil
}

// Fitness scores a genotype: Baseline minus the sum of all constraint penalties
func (o *Optimizer) Fitness(genes []int) float64 {
	fitness := Baseline
	for _, c := range o.constraints {
		fitness -= c.Penalty(genes)
	}
	return fitness
}

// Run executes the search until the generation count or time budget is used
// up, or ctx is cancelled. It always returns the best individual seen across
// all generations.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	courseCount := len(o.problem.Courses)
	slotCount := len(o.problem.Slots)

	o.logger.Debug("Starting slot optimization",
		zap.Int("courses", courseCount),
		zap.Int("slots", slotCount),
		zap.Int("population", o.params.PopulationSize),
		zap.Int("generations", o.params.Generations),
		zap.Int64("seed", o.params.Seed))

	if courseCount == 0 {
		return &Result{
			Best:       []int{},
			Score:      o.Fitness(nil),
			StopReason: StopGenerations,
		}, nil
	}

	population := make([]*Individual, o.params.PopulationSize)
	for i := range population {
		population[i] = randomIndividual(o.rng, courseCount, slotCount)
	}

	evaluations := o.evaluate(population)

	hallOfFame := o.updateHallOfFame(nil, population)

	result := &Result{StopReason: StopGenerations}

	for gen := 0; gen < o.params.Generations; gen++ {
		if ctx.Err() != nil {
			result.StopReason = StopCancelled
			break
		}
		if o.params.TimeBudget > 0 && time.Since(start) >= o.params.TimeBudget {
			result.StopReason = StopTimeBudget
			break
		}

		offspring := o.nextGeneration(population, slotCount)
		evaluations += o.evaluate(offspring)

		population = offspring
		hallOfFame = o.updateHallOfFame(hallOfFame, population)
		result.Generations++
	}

	result.Best = hallOfFame.Genes
	result.Score = hallOfFame.Fitness
	result.Evaluations = evaluations

	o.logger.Debug("Slot optimization finished",
		zap.Float64("score", result.Score),
		zap.Int("generations", result.Generations),
		zap.Int("evaluations", result.Evaluations),
		zap.String("stop_reason", string(result.StopReason)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// nextGeneration selects, clones and varies a full replacement population
func (o *Optimizer) nextGeneration(population []*Individual, slotCount int) []*Individual {
	selected := selectTournament(o.rng, population, len(population), o.params.TournamentSize)

	offspring := make([]*Individual, len(selected))
	for i, ind := range selected {
		offspring[i] = ind.clone()
	}

	// Mate successive pairs
	for i := 1; i < len(offspring); i += 2 {
		if o.rng.Float64() < o.params.CrossoverRate {
			crossoverTwoPoint(o.rng, offspring[i-1], offspring[i])
			offspring[i-1].evaluated = false
			offspring[i].evaluated = false
		}
	}

	for _, ind := range offspring {
		if o.rng.Float64() < o.params.MutationRate {
			mutateUniformInt(o.rng, ind, slotCount, o.params.PerGeneMutationRate)
			ind.evaluated = false
		}
	}

	return offspring
}

// evaluate computes fitness for every individual whose genes changed, on a
// bounded worker pool. Each worker writes only its own individual, so the
// outcome does not depend on scheduling order.
func (o *Optimizer) evaluate(population []*Individual) int {
	var g errgroup.Group
	g.SetLimit(o.params.Workers)

	count := 0
	for _, ind := range population {
		if ind.evaluated {
			continue
		}
		count++
		g.Go(func() error {
			ind.Fitness = o.Fitness(ind.Genes)
			ind.evaluated = true
			return nil
		})
	}

	// Workers never return errors
	_ = g.Wait()

	return count
}

// updateHallOfFame keeps a copy of the best individual ever seen. Only a
// strictly fitter individual replaces it; among equals the earliest wins.
func (o *Optimizer) updateHallOfFame(best *Individual, population []*Individual) *Individual {
	for _, ind := range population {
		if best == nil || ind.Fitness > best.Fitness {
			best = ind.clone()
			o.logger.Debug("New best individual", zap.Float64("fitness", best.Fitness))
		}
	}
	return best
}
