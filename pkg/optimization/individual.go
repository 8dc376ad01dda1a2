package optimization

import (
	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// Individual is one candidate solution: a chromosome plus everything the
// engine learned about it. Rank 0 means non-dominated within the current
// population.
type Individual struct {
	Chromosome  Chromosome
	Operations  []types.Operation
	Result      *types.EvaluationResult
	Objectives  []float64
	Constraints []float64
	Rank        int
	Crowding    float64

	evaluated bool
}

// NewIndividual wraps a chromosome into an unevaluated individual.
func NewIndividual(c Chromosome) *Individual {
	return &Individual{Chromosome: c, Rank: -1}
}

// Evaluated reports whether objectives and constraints have been set.
func (ind *Individual) Evaluated() bool {
	return ind.evaluated
}

// Feasible reports whether every constraint is satisfied.
func (ind *Individual) Feasible() bool {
	if !ind.evaluated {
		return false
	}
	for _, c := range ind.Constraints {
		if c > 0 {
			return false
		}
	}
	return true
}

// penalize marks the individual as a disqualified sample that ranks
// behind every legitimately evaluated one.
func (ind *Individual) penalize() {
	ind.Objectives = penaltyObjectives()
	ind.Constraints = penaltyConstraints()
	ind.Result = nil
	ind.evaluated = true
}
