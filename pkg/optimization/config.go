package optimization

import (
	"fmt"
	"math"
)

// Package optimization implements a multi-objective genetic optimizer
// (NSGA-II) that searches over candidate trading-operation sequences.

// Range is an inclusive [Lo, Hi] bound for a chromosome field.
type Range struct {
	Lo float64
	Hi float64
}

// Clamp forces v into the range.
func (r Range) Clamp(v float64) float64 {
	return math.Min(math.Max(v, r.Lo), r.Hi)
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Weights is the 4-way objective weighting used only when picking the
// single recommended solution out of the final Pareto front. The entries
// must sum to 1.0 within a 0.01 tolerance.
type Weights struct {
	FinalEquity       float64
	RiskControl       float64
	Efficiency        float64
	TargetAchievement float64
}

// Sum returns the total weight mass.
func (w Weights) Sum() float64 {
	return w.FinalEquity + w.RiskControl + w.Efficiency + w.TargetAchievement
}

// Vector returns the weights in objective order.
func (w Weights) Vector() []float64 {
	return []float64{w.FinalEquity, w.RiskControl, w.Efficiency, w.TargetAchievement}
}

// Config bundles every parameter of an optimization run. Construct one
// from DefaultConfig, adjust, then call Validate before use; components
// treat a validated Config as read-only.
type Config struct {
	// Optimization targets
	TargetFinalEquity float64 // 0 = no equity target
	TargetPrice       float64 // 0 = objective 4 degrades to 0
	MaxRiskTolerance  float64 // percent, consumed by domain scripts

	// Genetic algorithm parameters
	PopulationSize int
	NGenerations   int
	CrossoverProb  float64
	MutationProb   float64
	TournamentSize int
	EliteRatio     float64 // reserved; NSGA-II elitism is implicit

	// Constraints
	MinEquity     float64
	MinRiskBuffer float64 // percent, consumed by domain scripts
	MaxLeverage   int     // consumed by position evaluators, not the engine
	MaxLiqPrice   float64 // constraint 2 bound on the observed liquidation price
	MaxOperations int
	MinOperations int

	// Chromosome layout
	MaxChromosomeLength int
	PriceRange          Range
	LeverageRange       Range // consumed by position evaluators, not the engine
	SizeRatioRange      Range

	// Solution selection
	ObjectiveWeights Weights

	// Performance
	UseCache              bool
	MaxParallelEvals      int // <=1 evaluates sequentially
	EarlyStoppingPatience int
	EarlyStoppingMinDelta float64
}

// DefaultConfig returns the baseline run parameters.
func DefaultConfig() Config {
	return Config{
		MaxRiskTolerance: 5.0,

		PopulationSize: 100,
		NGenerations:   50,
		CrossoverProb:  0.9,
		MutationProb:   0.2,
		TournamentSize: 3,
		EliteRatio:     0.1,

		MinEquity:     0,
		MinRiskBuffer: 5.0,
		MaxLeverage:   20,
		MaxLiqPrice:   25_000,
		MaxOperations: 50,
		MinOperations: 1,

		MaxChromosomeLength: 20,
		PriceRange:          Range{Lo: 60_000, Hi: 120_000},
		LeverageRange:       Range{Lo: 1, Hi: 20},
		SizeRatioRange:      Range{Lo: 0.1, Hi: 1.0},

		ObjectiveWeights: Weights{
			FinalEquity:       0.4,
			RiskControl:       0.3,
			Efficiency:        0.1,
			TargetAchievement: 0.2,
		},

		UseCache:              true,
		MaxParallelEvals:      1,
		EarlyStoppingPatience: 10,
		EarlyStoppingMinDelta: 0.001,
	}
}

// ConfigError reports a rejected configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

const weightTolerance = 0.01

// Validate checks the configuration and returns a *ConfigError describing
// the first violation found.
func (c *Config) Validate() error {
	if sum := c.ObjectiveWeights.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return &ConfigError{
			Field:  "weights",
			Reason: fmt.Sprintf("must sum to 1.0, got %.4f", sum),
		}
	}
	if c.PopulationSize < 10 {
		return &ConfigError{
			Field:  "population_size",
			Reason: fmt.Sprintf("must be at least 10, got %d", c.PopulationSize),
		}
	}
	if c.NGenerations < 1 {
		return &ConfigError{
			Field:  "n_generations",
			Reason: fmt.Sprintf("must be at least 1, got %d", c.NGenerations),
		}
	}
	if c.CrossoverProb < 0 || c.CrossoverProb > 1 {
		return &ConfigError{
			Field:  "crossover_prob",
			Reason: fmt.Sprintf("must be within [0,1], got %.4f", c.CrossoverProb),
		}
	}
	if c.MutationProb < 0 || c.MutationProb > 1 {
		return &ConfigError{
			Field:  "mutation_prob",
			Reason: fmt.Sprintf("must be within [0,1], got %.4f", c.MutationProb),
		}
	}
	if c.MaxOperations < c.MinOperations {
		return &ConfigError{
			Field:  "max_operations",
			Reason: fmt.Sprintf("must be >= min_operations (%d), got %d", c.MinOperations, c.MaxOperations),
		}
	}
	return nil
}
