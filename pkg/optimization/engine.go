package optimization

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// ErrInternal marks a consistency failure during ranking or selection.
// A run hitting it aborts, since the population can no longer be trusted.
var ErrInternal = errors.New("optimization: internal consistency failure")

// GenerationStats is the per-generation history record.
type GenerationStats struct {
	Generation      int       `json:"generation"`
	BestObjectives  []float64 `json:"best_objectives"`
	AvgObjectives   []float64 `json:"avg_objectives"`
	Diversity       float64   `json:"population_diversity"`
	ParetoFrontSize int       `json:"pareto_front_size"`
}

// Snapshot is a consistent view of the engine's progress, refreshed at
// generation boundaries. Unlike the rest of the engine surface it is
// safe to read from other goroutines while a run is in flight.
type Snapshot struct {
	Generation      int
	ParetoFrontSize int
}

// Engine runs the NSGA-II generational loop over a population of
// operation-sequence individuals. It is not safe for concurrent use
// except for Snapshot and Cache; evaluation fan-out happens inside a
// single EvolveGeneration call.
type Engine struct {
	cfg       *Config
	evaluator types.PositionEvaluator
	initial   types.InitialState
	codec     *Codec
	rng       *rand.Rand
	cache     *EvaluationCache
	logger    zerolog.Logger

	population []*Individual
	generation int
	history    []GenerationStats
	snap       atomic.Pointer[Snapshot]
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithRand injects a deterministic random source.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger injects a structured logger.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithCache injects a shared evaluation cache (for example to reuse
// memoized results across restarts with identical inputs).
func WithCache(cache *EvaluationCache) EngineOption {
	return func(e *Engine) { e.cache = cache }
}

// NewEngine creates an engine for one optimization run. The config must
// already be validated.
func NewEngine(cfg *Config, evaluator types.PositionEvaluator, initial types.InitialState, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:       cfg,
		evaluator: evaluator,
		initial:   initial,
		codec:     NewCodec(cfg),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil && cfg.UseCache {
		e.cache = NewEvaluationCache()
	}
	return e
}

// Codec exposes the engine's chromosome codec.
func (e *Engine) Codec() *Codec { return e.codec }

// Generation returns the number of completed generations.
func (e *Engine) Generation() int { return e.generation }

// Population returns the current population.
func (e *Engine) Population() []*Individual { return e.population }

// History returns the per-generation statistics recorded so far.
func (e *Engine) History() []GenerationStats { return e.history }

// Cache returns the engine's evaluation cache, nil when caching is off.
func (e *Engine) Cache() *EvaluationCache { return e.cache }

// Snapshot returns the last published progress view. Before the
// population is initialized it is the zero Snapshot.
func (e *Engine) Snapshot() Snapshot {
	if s := e.snap.Load(); s != nil {
		return *s
	}
	return Snapshot{}
}

// publishSnapshot captures the progress view at a generation boundary,
// while no evaluation or selection is mutating the population.
func (e *Engine) publishSnapshot() {
	e.snap.Store(&Snapshot{
		Generation:      e.generation,
		ParetoFrontSize: len(e.ParetoFront()),
	})
}

// InitializePopulation creates and evaluates the random generation 0.
func (e *Engine) InitializePopulation() error {
	e.population = make([]*Individual, e.cfg.PopulationSize)
	for i := range e.population {
		e.population[i] = NewIndividual(e.codec.CreateRandom(e.rng))
	}
	e.evaluatePopulation(e.population)
	if _, err := e.rankAndCrowd(e.population); err != nil {
		return err
	}
	e.publishSnapshot()
	return nil
}

// evaluatePopulation evaluates every not-yet-evaluated individual,
// fanning out across MaxParallelEvals workers when configured. All
// individuals finish before the caller proceeds to ranking.
func (e *Engine) evaluatePopulation(population []*Individual) {
	workers := e.cfg.MaxParallelEvals
	if workers <= 1 {
		for _, ind := range population {
			e.evaluateIndividual(ind)
		}
		return
	}

	var wg sync.WaitGroup
	slots := make(chan struct{}, workers)
	for _, ind := range population {
		if ind.Evaluated() {
			continue
		}
		wg.Add(1)
		go func(ind *Individual) {
			defer wg.Done()
			slots <- struct{}{}
			defer func() { <-slots }()
			e.evaluateIndividual(ind)
		}(ind)
	}
	wg.Wait()
}

// evaluateIndividual decodes, validates and scores one individual.
// Invalid sequences and evaluator failures never propagate: the
// individual is penalized so the search simply ranks it last.
func (e *Engine) evaluateIndividual(ind *Individual) {
	if ind.Evaluated() {
		return
	}

	if e.cache != nil {
		if entry, ok := e.cache.get(ind.Chromosome); ok {
			ind.Operations = entry.operations
			ind.Result = entry.result
			ind.Objectives = entry.objectives
			ind.Constraints = entry.constraints
			ind.evaluated = true
			return
		}
	}

	ind.Operations = e.codec.Decode(ind.Chromosome)
	if !e.codec.IsValidSequence(ind.Operations) {
		ind.penalize()
		return
	}

	result, err := e.callEvaluator(ind.Operations)
	if err != nil {
		e.logger.Warn().Err(err).Int("operations", len(ind.Operations)).
			Msg("position evaluator failed, penalizing individual")
		ind.penalize()
		return
	}

	ind.Result = result
	ind.Objectives = EvaluateObjectives(result, e.cfg, e.initial)
	ind.Constraints = EvaluateConstraints(result, e.cfg, e.initial)
	ind.evaluated = true

	if e.cache != nil {
		e.cache.put(ind.Chromosome, cachedEvaluation{
			operations:  ind.Operations,
			result:      ind.Result,
			objectives:  ind.Objectives,
			constraints: ind.Constraints,
		})
	}
}

// callEvaluator invokes the injected evaluator, converting panics into
// errors so a misbehaving evaluator only disqualifies one sample.
func (e *Engine) callEvaluator(operations []types.Operation) (result *types.EvaluationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("position evaluator panicked: %v", r)
		}
	}()
	result, err = e.evaluator(operations, e.initial)
	if err == nil && result == nil {
		err = errors.New("position evaluator returned no result")
	}
	return result, err
}

// rankAndCrowd recomputes Pareto ranks and crowding distances for the
// given pool and returns the fronts. A front layering that does not
// partition the pool aborts with ErrInternal.
func (e *Engine) rankAndCrowd(population []*Individual) ([][]int, error) {
	objectives := make([][]float64, len(population))
	for i, ind := range population {
		objectives[i] = ind.Objectives
	}

	fronts := FastNonDominatedSort(objectives)

	seen := make([]bool, len(population))
	total := 0
	for rank, front := range fronts {
		for _, idx := range front {
			if idx < 0 || idx >= len(population) || seen[idx] {
				return nil, fmt.Errorf("%w: non-dominated sort produced invalid front layering", ErrInternal)
			}
			seen[idx] = true
			population[idx].Rank = rank
			total++
		}
	}
	if total != len(population) {
		return nil, fmt.Errorf("%w: %d of %d individuals ranked", ErrInternal, total, len(population))
	}

	for _, front := range fronts {
		distances := CrowdingDistance(objectives, front)
		for i, idx := range front {
			population[idx].Crowding = distances[i]
		}
	}
	return fronts, nil
}

// TournamentSelection samples k individuals without replacement and
// returns the one with the lowest rank, breaking ties by the highest
// crowding distance.
func (e *Engine) TournamentSelection(k int) *Individual {
	if k > len(e.population) {
		k = len(e.population)
	}
	best := (*Individual)(nil)
	for _, idx := range e.rng.Perm(len(e.population))[:k] {
		candidate := e.population[idx]
		if best == nil {
			best = candidate
			continue
		}
		if candidate.Rank < best.Rank ||
			(candidate.Rank == best.Rank && candidate.Crowding > best.Crowding) {
			best = candidate
		}
	}
	return best
}

// CreateOffspring builds a full offspring pool via tournament selection,
// crossover and mutation. Surplus children from the final pair are
// discarded so the pool size is exactly PopulationSize.
func (e *Engine) CreateOffspring() []*Individual {
	offspring := make([]*Individual, 0, e.cfg.PopulationSize)

	for len(offspring) < e.cfg.PopulationSize {
		parent1 := e.TournamentSelection(e.cfg.TournamentSize)
		parent2 := e.TournamentSelection(e.cfg.TournamentSize)

		var child1, child2 Chromosome
		if e.rng.Float64() < e.cfg.CrossoverProb {
			child1, child2 = e.codec.Crossover(parent1.Chromosome, parent2.Chromosome, e.rng)
		} else {
			child1 = parent1.Chromosome.Clone()
			child2 = parent2.Chromosome.Clone()
		}

		if e.rng.Float64() < e.cfg.MutationProb {
			child1 = e.codec.Mutate(child1, e.cfg.MutationProb, e.rng)
		}
		if e.rng.Float64() < e.cfg.MutationProb {
			child2 = e.codec.Mutate(child2, e.cfg.MutationProb, e.rng)
		}

		offspring = append(offspring, NewIndividual(child1))
		if len(offspring) < e.cfg.PopulationSize {
			offspring = append(offspring, NewIndividual(child2))
		}
	}
	return offspring
}

// EnvironmentalSelection reduces a combined parent+offspring pool back
// to PopulationSize: whole fronts are kept while they fit, then the
// overflowing front is truncated by descending crowding distance.
func (e *Engine) EnvironmentalSelection(combined []*Individual) ([]*Individual, error) {
	e.evaluatePopulation(combined)

	fronts, err := e.rankAndCrowd(combined)
	if err != nil {
		return nil, err
	}

	next := make([]*Individual, 0, e.cfg.PopulationSize)
	for _, front := range fronts {
		if len(next)+len(front) <= e.cfg.PopulationSize {
			for _, idx := range front {
				next = append(next, combined[idx])
			}
			continue
		}

		members := make([]*Individual, len(front))
		for i, idx := range front {
			members[i] = combined[idx]
		}
		// stable enough: crowding, descending
		for i := 1; i < len(members); i++ {
			for j := i; j > 0 && members[j].Crowding > members[j-1].Crowding; j-- {
				members[j], members[j-1] = members[j-1], members[j]
			}
		}
		remaining := e.cfg.PopulationSize - len(next)
		next = append(next, members[:remaining]...)
		break
	}
	return next, nil
}

// EvolveGeneration runs one full generational step: variation,
// evaluation, ranking and environmental selection.
func (e *Engine) EvolveGeneration() error {
	offspring := e.CreateOffspring()

	combined := make([]*Individual, 0, len(e.population)+len(offspring))
	combined = append(combined, e.population...)
	combined = append(combined, offspring...)

	next, err := e.EnvironmentalSelection(combined)
	if err != nil {
		e.logger.Error().Err(err).Int("generation", e.generation).
			Msg("environmental selection aborted")
		return err
	}

	e.population = next
	e.generation++
	e.recordHistory()
	e.publishSnapshot()
	return nil
}

// ParetoFront returns the rank-0 individuals of the current population.
func (e *Engine) ParetoFront() []*Individual {
	var front []*Individual
	for _, ind := range e.population {
		if ind.Rank == 0 {
			front = append(front, ind)
		}
	}
	return front
}

// BestIndividual picks the recommended solution from the Pareto front:
// the member minimizing the weighted sum of absolute objective values.
func (e *Engine) BestIndividual() *Individual {
	front := e.ParetoFront()
	if len(front) == 0 {
		// degenerate population, fall back to the lowest rank present
		var best *Individual
		for _, ind := range e.population {
			if best == nil || ind.Rank < best.Rank {
				best = ind
			}
		}
		return best
	}

	best := front[0]
	bestScore := WeightedScore(best.Objectives, e.cfg.ObjectiveWeights)
	for _, ind := range front[1:] {
		if score := WeightedScore(ind.Objectives, e.cfg.ObjectiveWeights); score < bestScore {
			best = ind
			bestScore = score
		}
	}
	return best
}

// recordHistory captures generation statistics: per-objective extremes
// and averages across front 0, plus a population-wide diversity metric.
func (e *Engine) recordHistory() {
	front := e.ParetoFront()
	pool := front
	if len(pool) == 0 {
		pool = e.population
	}

	best := make([]float64, NumObjectives)
	avg := make([]float64, NumObjectives)
	column := make([]float64, len(pool))
	for m := 0; m < NumObjectives; m++ {
		for i, ind := range pool {
			column[i] = ind.Objectives[m]
		}
		best[m] = floatsMin(column)
		avg[m] = stat.Mean(column, nil)
	}

	e.history = append(e.history, GenerationStats{
		Generation:      e.generation,
		BestObjectives:  best,
		AvgObjectives:   avg,
		Diversity:       e.diversity(),
		ParetoFrontSize: len(front),
	})
}

// diversity is the mean per-objective standard deviation across the
// whole population; it shrinks as the search converges.
func (e *Engine) diversity() float64 {
	if len(e.population) < 2 {
		return 0
	}
	column := make([]float64, len(e.population))
	total := 0.0
	for m := 0; m < NumObjectives; m++ {
		for i, ind := range e.population {
			column[i] = ind.Objectives[m]
		}
		total += stat.StdDev(column, nil)
	}
	return total / NumObjectives
}

func floatsMin(xs []float64) float64 {
	min := math.Inf(1)
	for _, x := range xs {
		if x < min {
			min = x
		}
	}
	return min
}
