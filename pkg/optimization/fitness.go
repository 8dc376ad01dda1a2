package optimization

import (
	"math"

	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// NumObjectives is the fixed dimensionality of the objective vector.
const NumObjectives = 4

// NumConstraints is the fixed dimensionality of the constraint vector.
const NumConstraints = 3

// penaltyValue is the sentinel assigned to every objective and
// constraint entry of a disqualified individual (invalid sequence or
// evaluator failure). Large enough to rank last under minimization.
const penaltyValue = 1e6

// penaltyObjectives returns a fresh fully-penalized objective vector.
func penaltyObjectives() []float64 {
	return []float64{penaltyValue, penaltyValue, penaltyValue, penaltyValue}
}

// penaltyConstraints returns a fresh fully-violated constraint vector.
func penaltyConstraints() []float64 {
	return []float64{penaltyValue, penaltyValue, penaltyValue}
}

// EvaluateObjectives turns an evaluator result into the 4-dimensional
// objective vector. Every entry is minimized:
//
//	0: -(final equity / initial equity)        growth, negated
//	1: max liquidation price over executed ops lower is safer, 0 = no data
//	2: executed operation count                fewer is better
//	3: |target price - final price| / target   0 when no target configured
func EvaluateObjectives(result *types.EvaluationResult, cfg *Config, initial types.InitialState) []float64 {
	initialEquity := initial.Equity
	if initialEquity < 1 {
		initialEquity = 1
	}

	finalPrice := result.FinalPrice
	if finalPrice == 0 {
		finalPrice = initial.Price
	}

	obj := make([]float64, NumObjectives)
	obj[0] = -(result.FinalEquity / initialEquity)
	obj[1] = result.MaxLiqPrice()
	obj[2] = float64(len(result.Operations))

	if cfg.TargetPrice > 0 {
		obj[3] = math.Abs(cfg.TargetPrice-finalPrice) / math.Max(cfg.TargetPrice, 1)
	}
	return obj
}

// EvaluateConstraints computes the 3-dimensional constraint-violation
// vector; every entry <= 0 means the constraint is satisfied.
//
//	0: MinEquity - final equity
//	1: max observed liquidation price - MaxLiqPrice
//	2: executed operation count - MaxOperations
func EvaluateConstraints(result *types.EvaluationResult, cfg *Config, initial types.InitialState) []float64 {
	constr := make([]float64, NumConstraints)
	constr[0] = cfg.MinEquity - result.FinalEquity
	constr[1] = result.MaxLiqPrice() - cfg.MaxLiqPrice
	constr[2] = float64(len(result.Operations)) - float64(cfg.MaxOperations)
	return constr
}

// Dominates reports strict Pareto dominance of a over b under
// minimization: a is no worse in every objective and strictly better in
// at least one. It is irreflexive and asymmetric.
func Dominates(a, b []float64) bool {
	strictlyBetter := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			strictlyBetter = true
		}
	}
	return strictlyBetter
}

// FastNonDominatedSort layers the population into Pareto fronts.
// Front 0 holds the non-dominated individuals; each later front is
// non-dominated once the earlier fronts are removed. Under exact
// objective ties the peel can stall with individuals still unranked;
// those stragglers are assigned the next rank together so every index
// lands in exactly one front.
func FastNonDominatedSort(objectives [][]float64) [][]int {
	n := len(objectives)
	if n == 0 {
		return nil
	}

	dominationCount := make([]int, n)
	dominated := make([][]int, n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if Dominates(objectives[i], objectives[j]) {
				dominated[i] = append(dominated[i], j)
				dominationCount[j]++
			} else if Dominates(objectives[j], objectives[i]) {
				dominated[j] = append(dominated[j], i)
				dominationCount[i]++
			}
		}
	}

	assigned := 0
	var front []int
	for i := 0; i < n; i++ {
		if dominationCount[i] == 0 {
			front = append(front, i)
		}
	}

	var fronts [][]int
	for len(front) > 0 {
		fronts = append(fronts, front)
		assigned += len(front)

		var next []int
		for _, i := range front {
			for _, j := range dominated[i] {
				dominationCount[j]--
				if dominationCount[j] == 0 {
					next = append(next, j)
				}
			}
		}
		front = next
	}

	// Fallback for disconnected domination graphs: sweep up anything the
	// peel never reached into one final front.
	if assigned < n {
		inFront := make([]bool, n)
		for _, f := range fronts {
			for _, i := range f {
				inFront[i] = true
			}
		}
		var rest []int
		for i := 0; i < n; i++ {
			if !inFront[i] {
				rest = append(rest, i)
			}
		}
		fronts = append(fronts, rest)
	}

	return fronts
}

// CrowdingDistance computes the NSGA-II diversity measure for one front.
// For each objective the front is sorted, the two boundary individuals
// get +Inf, and interior individuals accumulate the normalized gap
// between their neighbors. Objectives with zero range within the front
// are skipped. The returned slice is indexed like frontIndices.
func CrowdingDistance(objectives [][]float64, frontIndices []int) []float64 {
	n := len(frontIndices)
	distances := make([]float64, n)
	if n == 0 {
		return distances
	}
	nObj := len(objectives[frontIndices[0]])

	order := make([]int, n)
	for m := 0; m < nObj; m++ {
		for i := range order {
			order[i] = i
		}
		// insertion sort of positions by objective m; fronts are small
		for i := 1; i < n; i++ {
			for j := i; j > 0; j-- {
				a := objectives[frontIndices[order[j]]][m]
				b := objectives[frontIndices[order[j-1]]][m]
				if a >= b {
					break
				}
				order[j], order[j-1] = order[j-1], order[j]
			}
		}

		distances[order[0]] = math.Inf(1)
		distances[order[n-1]] = math.Inf(1)

		objMin := objectives[frontIndices[order[0]]][m]
		objMax := objectives[frontIndices[order[n-1]]][m]
		objRange := objMax - objMin
		if objRange <= 0 {
			continue
		}

		for i := 1; i < n-1; i++ {
			lo := objectives[frontIndices[order[i-1]]][m]
			hi := objectives[frontIndices[order[i+1]]][m]
			distances[order[i]] += (hi - lo) / objRange
		}
	}

	return distances
}

// WeightedScore collapses an objective vector into a scalar for final
// solution selection: the weighted sum of the absolute objective values.
// Lower is better.
func WeightedScore(objectives []float64, weights Weights) float64 {
	w := weights.Vector()
	score := 0.0
	for i, obj := range objectives {
		if i >= len(w) {
			break
		}
		score += math.Abs(obj) * w[i]
	}
	return score
}

// ConstraintPenalty sums the positive (violated) part of a constraint
// vector; 0 means every constraint is satisfied.
func ConstraintPenalty(constraints []float64) float64 {
	penalty := 0.0
	for _, c := range constraints {
		if c > 0 {
			penalty += c
		}
	}
	return penalty
}
