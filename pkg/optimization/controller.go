package optimization

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// ObjectiveReadings re-expresses the best individual's objective vector
// with the growth objective un-negated, for human consumption.
type ObjectiveReadings struct {
	FinalEquityRatio float64 `json:"final_equity_ratio"`
	MaxLiqPrice      float64 `json:"max_liq_price"`
	NumOperations    float64 `json:"num_operations"`
	TargetDeviation  float64 `json:"target_deviation"`
}

func readingsFromObjectives(objectives []float64) ObjectiveReadings {
	return ObjectiveReadings{
		FinalEquityRatio: -objectives[0],
		MaxLiqPrice:      objectives[1],
		NumOperations:    objectives[2],
		TargetDeviation:  objectives[3],
	}
}

// Result is the outcome of a full optimization run.
type Result struct {
	BestSequence  []types.Operation `json:"best_sequence"`
	FinalEquity   float64           `json:"final_equity"`
	Objectives    ObjectiveReadings `json:"objectives"`
	ParetoFront   []*Individual     `json:"-"`
	History       []GenerationStats `json:"optimization_history"`
	ExecutionTime time.Duration     `json:"execution_time"`
	Converged     bool              `json:"converged"`
	Generations   int               `json:"n_generations"`
}

// ParetoSolution is one front-0 individual projected into a plain record.
type ParetoSolution struct {
	Operations    []types.Operation `json:"operations"`
	Objectives    ObjectiveReadings `json:"objectives"`
	FinalEquity   float64           `json:"final_equity"`
	WeightedScore float64           `json:"weighted_score"`
}

// Progress is a point-in-time snapshot of a run.
type Progress struct {
	Generation      int     `json:"generation"`
	MaxGenerations  int     `json:"max_generations"`
	Progress        float64 `json:"progress"`
	IsRunning       bool    `json:"is_running"`
	ParetoFrontSize int     `json:"pareto_front_size"`
}

// Controller orchestrates a run: initialization, the generational loop,
// early stopping, progress fan-out and result extraction.
type Controller struct {
	cfg        Config
	evaluator  types.PositionEvaluator
	logger     zerolog.Logger
	observers  []ProgressObserver
	engineOpts []EngineOption

	mu      sync.Mutex
	engine  *Engine
	result  *Result
	running bool

	shouldStop atomic.Bool
}

// ControllerOption customizes controller construction.
type ControllerOption func(*Controller)

// WithObserver registers a progress observer; may be given repeatedly.
func WithObserver(o ProgressObserver) ControllerOption {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// WithControllerLogger injects a structured logger, shared with the engine.
func WithControllerLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithEngineOptions forwards options to the engine built per run.
func WithEngineOptions(opts ...EngineOption) ControllerOption {
	return func(c *Controller) { c.engineOpts = append(c.engineOpts, opts...) }
}

// NewController validates the configuration and builds a controller.
func NewController(cfg Config, evaluator types.PositionEvaluator, opts ...ControllerOption) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, &ConfigError{Field: "evaluator", Reason: "position evaluator is required"}
	}
	c := &Controller{
		cfg:       cfg,
		evaluator: evaluator,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StartOptimization runs the full optimization and returns the extracted
// result. Only internal consistency failures propagate as errors;
// individual evaluation failures are penalized and absorbed.
func (c *Controller) StartOptimization(initial types.InitialState) (*Result, error) {
	start := time.Now()
	c.shouldStop.Store(false)

	engine := NewEngine(&c.cfg, c.evaluator, initial,
		append([]EngineOption{WithLogger(c.logger)}, c.engineOpts...)...)

	c.mu.Lock()
	c.engine = engine
	c.result = nil
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	c.logger.Info().
		Int("population_size", c.cfg.PopulationSize).
		Int("n_generations", c.cfg.NGenerations).
		Msg("initializing population")

	if err := engine.InitializePopulation(); err != nil {
		return nil, fmt.Errorf("population initialization: %w", err)
	}

	stopper := newEarlyStopper(c.cfg.EarlyStoppingPatience, c.cfg.EarlyStoppingMinDelta)
	converged := false

	for gen := 0; gen < c.cfg.NGenerations; gen++ {
		if c.shouldStop.Load() {
			c.logger.Info().Int("generation", gen).Msg("optimization stopped by caller")
			break
		}

		if err := engine.EvolveGeneration(); err != nil {
			return nil, err
		}

		best := engine.BestIndividual()
		front := engine.ParetoFront()
		last := engine.History()[len(engine.History())-1]

		for _, obs := range c.observers {
			obs.OnGeneration(gen+1, best.Objectives, last.AvgObjectives, len(front))
		}

		// early stopping tracks the leading (equity) objective
		if stopper.step(best.Objectives[0]) {
			c.logger.Info().Int("generation", gen+1).Msg("early stopping: converged")
			converged = true
			break
		}
	}

	result := c.extractResult(engine)
	result.Converged = converged
	result.ExecutionTime = time.Since(start)
	result.Generations = engine.Generation()

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()

	c.logger.Info().
		Dur("elapsed", result.ExecutionTime).
		Int("operations", len(result.BestSequence)).
		Float64("final_equity", result.FinalEquity).
		Bool("converged", result.Converged).
		Msg("optimization complete")

	return result, nil
}

// extractResult packages the recommended solution and the Pareto set.
func (c *Controller) extractResult(engine *Engine) *Result {
	best := engine.BestIndividual()

	result := &Result{
		BestSequence: best.Operations,
		Objectives:   readingsFromObjectives(best.Objectives),
		ParetoFront:  engine.ParetoFront(),
		History:      engine.History(),
	}
	if best.Result != nil {
		result.FinalEquity = best.Result.FinalEquity
	}
	return result
}

// CacheStats reports evaluation cache hits and misses for the current
// or last run; zeros when caching is disabled or no run has started.
func (c *Controller) CacheStats() (hits, misses uint64) {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()

	if engine == nil || engine.Cache() == nil {
		return 0, 0
	}
	return engine.Cache().Stats()
}

// StopOptimization requests a cooperative stop, honored at the next
// generation boundary.
func (c *Controller) StopOptimization() {
	c.shouldStop.Store(true)
}

// Progress reports the run's current state.
func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := Progress{MaxGenerations: c.cfg.NGenerations, IsRunning: c.running}
	if c.engine == nil {
		return p
	}
	// the run goroutine mutates the engine concurrently; read only the
	// snapshot it publishes at generation boundaries
	snap := c.engine.Snapshot()
	p.Generation = snap.Generation
	p.Progress = float64(snap.Generation) / float64(c.cfg.NGenerations)
	p.ParetoFrontSize = snap.ParetoFrontSize
	return p
}

// ParetoSolutions projects up to topN front-0 individuals of the last
// completed run into plain records.
func (c *Controller) ParetoSolutions(topN int) []ParetoSolution {
	c.mu.Lock()
	result := c.result
	c.mu.Unlock()

	if result == nil {
		return nil
	}

	if topN < 0 {
		topN = 0
	}
	front := result.ParetoFront
	if topN < len(front) {
		front = front[:topN]
	}

	solutions := make([]ParetoSolution, 0, len(front))
	for _, ind := range front {
		sol := ParetoSolution{
			Operations:    ind.Operations,
			Objectives:    readingsFromObjectives(ind.Objectives),
			WeightedScore: WeightedScore(ind.Objectives, c.cfg.ObjectiveWeights),
		}
		if ind.Result != nil {
			sol.FinalEquity = ind.Result.FinalEquity
		}
		solutions = append(solutions, sol)
	}
	return solutions
}

// earlyStopper implements (patience, minDelta) early stopping over a
// minimized scalar: stop once patience consecutive generations fail to
// improve the best seen value by at least minDelta.
type earlyStopper struct {
	patience int
	minDelta float64
	best     float64
	counter  int
}

func newEarlyStopper(patience int, minDelta float64) *earlyStopper {
	return &earlyStopper{patience: patience, minDelta: minDelta, best: math.Inf(1)}
}

// step records one generation's value and reports whether to stop.
func (s *earlyStopper) step(value float64) bool {
	if value < s.best-s.minDelta {
		s.best = value
		s.counter = 0
		return false
	}
	s.counter++
	return s.counter >= s.patience
}

// reset restores the stopper to its initial state.
func (s *earlyStopper) reset() {
	s.best = math.Inf(1)
	s.counter = 0
}
