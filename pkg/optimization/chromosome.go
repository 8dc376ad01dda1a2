package optimization

import (
	"math"
	"math/rand"
	"sort"

	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// Chromosome is the fixed-length numeric encoding of an operation
// sequence: MaxChromosomeLength slots of 3 fields each
// [price, action code, size ratio]. Unused slots are zero-filled.
type Chromosome []float64

// fieldsPerSlot is the number of scalar fields per encoded operation.
const fieldsPerSlot = 3

// A slot is treated as unused when its price falls below this floor or
// its size ratio below minSizeRatio.
const (
	unusedPriceFloor = 1000.0
	minSizeRatio     = 0.01
	maxSizeRatio     = 1.0
)

// Clone returns an independent copy of the chromosome.
func (c Chromosome) Clone() Chromosome {
	out := make(Chromosome, len(c))
	copy(out, c)
	return out
}

// slots returns the number of operation slots the chromosome holds.
func (c Chromosome) slots() int {
	return len(c) / fieldsPerSlot
}

// usedSlots counts slots that decode to an operation.
func (c Chromosome) usedSlots() int {
	n := 0
	for i := 0; i < c.slots(); i++ {
		if c[i*fieldsPerSlot] >= unusedPriceFloor {
			n++
		}
	}
	return n
}

// Codec maps between chromosomes and operation sequences and owns the
// genetic operators for that representation. All randomness comes from
// the caller-supplied rng so runs stay reproducible.
type Codec struct {
	cfg *Config
}

// NewCodec creates a codec bound to a validated configuration.
func NewCodec(cfg *Config) *Codec {
	return &Codec{cfg: cfg}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Decode converts a chromosome into its operation sequence. Unused slots
// are skipped and the result is sorted ascending by price, which stands
// in for execution order.
func (cd *Codec) Decode(c Chromosome) []types.Operation {
	ops := make([]types.Operation, 0, c.usedSlots())
	for i := 0; i < c.slots(); i++ {
		idx := i * fieldsPerSlot
		price := c[idx]
		sizeRatio := c[idx+2]
		if price < unusedPriceFloor || sizeRatio < minSizeRatio {
			continue
		}
		action := types.ActionBuy
		if int(c[idx+1])%2 != 0 {
			action = types.ActionSell
		}
		ops = append(ops, types.Operation{
			Price:     round2(price),
			Type:      action,
			SizeRatio: round2(sizeRatio),
		})
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Price < ops[j].Price })
	return ops
}

// Encode builds a chromosome from an operation sequence, silently
// truncating operations beyond maxLength.
func (cd *Codec) Encode(operations []types.Operation, maxLength int) Chromosome {
	c := make(Chromosome, maxLength*fieldsPerSlot)
	for i, op := range operations {
		if i >= maxLength {
			break
		}
		idx := i * fieldsPerSlot
		c[idx] = op.Price
		if op.Type == types.ActionSell {
			c[idx+1] = 1
		}
		c[idx+2] = op.SizeRatio
	}
	return c
}

// CreateRandom draws a fresh chromosome with between 3 and
// min(MaxChromosomeLength, 15) operations at sorted random prices.
func (cd *Codec) CreateRandom(rng *rand.Rand) Chromosome {
	maxOps := cd.cfg.MaxChromosomeLength
	if maxOps > 15 {
		maxOps = 15
	}
	nOps := 3
	if maxOps > 3 {
		nOps = 3 + rng.Intn(maxOps-2) // inclusive [3, maxOps]
	}
	if nOps > cd.cfg.MaxChromosomeLength {
		nOps = cd.cfg.MaxChromosomeLength
	}

	prices := make([]float64, nOps)
	for i := range prices {
		prices[i] = cd.cfg.PriceRange.Lo + rng.Float64()*(cd.cfg.PriceRange.Hi-cd.cfg.PriceRange.Lo)
	}
	sort.Float64s(prices)

	c := make(Chromosome, cd.cfg.MaxChromosomeLength*fieldsPerSlot)
	for i := 0; i < nOps; i++ {
		idx := i * fieldsPerSlot
		c[idx] = prices[i]
		c[idx+1] = float64(rng.Intn(2))
		c[idx+2] = cd.cfg.SizeRatioRange.Lo + rng.Float64()*(cd.cfg.SizeRatioRange.Hi-cd.cfg.SizeRatioRange.Lo)
	}
	return c
}

// mutation kinds, drawn uniformly per mutated slot
const (
	mutPriceShift = iota
	mutActionFlip
	mutSizeChange
	mutDeleteOperation
	mutKinds
)

// Mutate returns a mutated copy of the chromosome. Each used slot
// mutates independently with probability rate; afterwards surviving
// operations are re-sorted by price and repacked from slot 0 so the
// chromosome stays gap-free.
func (cd *Codec) Mutate(c Chromosome, rate float64, rng *rand.Rand) Chromosome {
	mutated := c.Clone()

	for i := 0; i < mutated.slots(); i++ {
		if rng.Float64() >= rate {
			continue
		}
		idx := i * fieldsPerSlot
		if mutated[idx] < unusedPriceFloor {
			continue
		}

		switch rng.Intn(mutKinds) {
		case mutPriceShift:
			shift := -0.05 + rng.Float64()*0.10
			mutated[idx] = cd.cfg.PriceRange.Clamp(mutated[idx] * (1 + shift))
		case mutActionFlip:
			if int(mutated[idx+1]) == 0 {
				mutated[idx+1] = 1
			} else {
				mutated[idx+1] = 0
			}
		case mutSizeChange:
			shift := -0.2 + rng.Float64()*0.4
			mutated[idx+2] = cd.cfg.SizeRatioRange.Clamp(mutated[idx+2] + shift)
		case mutDeleteOperation:
			mutated[idx] = 0
			mutated[idx+1] = 0
			mutated[idx+2] = 0
		}
	}

	return repack(mutated)
}

// repack collects surviving slots, sorts them by price and rewrites them
// compactly from slot 0.
func repack(c Chromosome) Chromosome {
	type slot struct{ price, action, size float64 }
	var used []slot
	for i := 0; i < c.slots(); i++ {
		idx := i * fieldsPerSlot
		if c[idx] >= unusedPriceFloor {
			used = append(used, slot{c[idx], c[idx+1], c[idx+2]})
		}
	}
	sort.Slice(used, func(i, j int) bool { return used[i].price < used[j].price })

	out := make(Chromosome, len(c))
	for i, s := range used {
		idx := i * fieldsPerSlot
		out[idx] = s.price
		out[idx+1] = s.action
		out[idx+2] = s.size
	}
	return out
}

// Crossover performs single-point crossover with the cut chosen in whole
// operations, bounded by the smaller parent's used-slot count. Parents
// with no usable cut point are returned as plain copies.
func (cd *Codec) Crossover(parent1, parent2 Chromosome, rng *rand.Rand) (Chromosome, Chromosome) {
	n1 := parent1.usedSlots()
	n2 := parent2.usedSlots()
	if n1 == 0 || n2 == 0 {
		return parent1.Clone(), parent2.Clone()
	}

	maxPoint := n1
	if n2 < maxPoint {
		maxPoint = n2
	}
	if maxPoint <= 1 {
		return parent1.Clone(), parent2.Clone()
	}

	cut := (1 + rng.Intn(maxPoint-1)) * fieldsPerSlot

	child1 := make(Chromosome, len(parent1))
	child2 := make(Chromosome, len(parent2))
	copy(child1, parent1[:cut])
	copy(child1[cut:], parent2[cut:])
	copy(child2, parent2[:cut])
	copy(child2[cut:], parent1[cut:])
	return child1, child2
}

// IsValidSequence reports whether a decoded sequence can be simulated:
// non-empty, prices non-decreasing and inside the configured price
// range, size ratios inside [0.01, 1.0], every action a known type.
func (cd *Codec) IsValidSequence(operations []types.Operation) bool {
	if len(operations) == 0 {
		return false
	}
	prev := math.Inf(-1)
	for _, op := range operations {
		if op.Price < prev {
			return false
		}
		prev = op.Price

		if !cd.cfg.PriceRange.Contains(op.Price) {
			return false
		}
		if op.SizeRatio < minSizeRatio || op.SizeRatio > maxSizeRatio {
			return false
		}
		if !op.Type.IsValid() {
			return false
		}
	}
	return true
}
