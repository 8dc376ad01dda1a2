package optimization

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// cachedEvaluation is the memoized outcome for one exact chromosome.
type cachedEvaluation struct {
	operations  []types.Operation
	result      *types.EvaluationResult
	objectives  []float64
	constraints []float64
}

// EvaluationCache memoizes evaluator calls by exact chromosome. Each
// engine owns its own cache so independent runs never interfere; the
// lock makes it safe under parallel evaluation fan-out.
type EvaluationCache struct {
	mu      sync.RWMutex
	entries map[string]cachedEvaluation
	hits    uint64
	misses  uint64
}

// NewEvaluationCache creates an empty cache.
func NewEvaluationCache() *EvaluationCache {
	return &EvaluationCache{entries: make(map[string]cachedEvaluation)}
}

// cacheKey maps a chromosome to the exact-bit string of its values.
func cacheKey(c Chromosome) string {
	buf := make([]byte, 8*len(c))
	for i, v := range c {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return string(buf)
}

// get returns the memoized evaluation for the chromosome, if any.
func (ec *EvaluationCache) get(c Chromosome) (cachedEvaluation, bool) {
	key := cacheKey(c)
	ec.mu.Lock()
	defer ec.mu.Unlock()
	entry, ok := ec.entries[key]
	if ok {
		ec.hits++
	} else {
		ec.misses++
	}
	return entry, ok
}

// put memoizes an evaluation outcome.
func (ec *EvaluationCache) put(c Chromosome, entry cachedEvaluation) {
	key := cacheKey(c)
	ec.mu.Lock()
	ec.entries[key] = entry
	ec.mu.Unlock()
}

// Len returns the number of distinct chromosomes cached.
func (ec *EvaluationCache) Len() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return len(ec.entries)
}

// Stats returns cache hit and miss counts.
func (ec *EvaluationCache) Stats() (hits, misses uint64) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return ec.hits, ec.misses
}
