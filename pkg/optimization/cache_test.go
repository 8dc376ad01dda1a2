package optimization

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// TestEvaluationCache_PutGet tests basic memoization by exact chromosome
func TestEvaluationCache_PutGet(t *testing.T) {
	cache := NewEvaluationCache()

	c := Chromosome{70_000, 0, 0.5, 0, 0, 0}
	entry := cachedEvaluation{
		objectives:  []float64{-1.1, 0, 1, 0},
		constraints: []float64{-100, -25_000, -49},
	}

	_, ok := cache.get(c)
	assert.False(t, ok)

	cache.put(c, entry)
	got, ok := cache.get(c)
	require.True(t, ok)
	assert.Equal(t, entry.objectives, got.objectives)
	assert.Equal(t, entry.constraints, got.constraints)
	assert.Equal(t, 1, cache.Len())

	// a different chromosome misses
	_, ok = cache.get(Chromosome{70_000, 1, 0.5, 0, 0, 0})
	assert.False(t, ok)
}

// TestEvaluationCache_Stats tests hit and miss accounting
func TestEvaluationCache_Stats(t *testing.T) {
	cache := NewEvaluationCache()
	c := Chromosome{80_000, 1, 0.3}

	cache.get(c) // miss
	cache.put(c, cachedEvaluation{})
	cache.get(c) // hit
	cache.get(c) // hit

	hits, misses := cache.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
}

// TestEvaluationCache_Concurrent tests the cache under parallel access
func TestEvaluationCache_Concurrent(t *testing.T) {
	cache := NewEvaluationCache()
	c := Chromosome{90_000, 0, 0.8}
	cache.put(c, cachedEvaluation{objectives: []float64{-1, 0, 1, 0}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				entry, ok := cache.get(c)
				assert.True(t, ok)
				assert.NotNil(t, entry.objectives)
			}
		}()
	}
	wg.Wait()

	hits, _ := cache.Stats()
	assert.Equal(t, uint64(1600), hits)
}

// TestEngine_CacheDeduplicatesEvaluatorCalls tests that identical chromosomes
// hit the evaluator exactly once
func TestEngine_CacheDeduplicatesEvaluatorCalls(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseCache = true

	calls := 0
	evaluator := func(operations []types.Operation, state types.InitialState) (*types.EvaluationResult, error) {
		calls++
		return &types.EvaluationResult{FinalEquity: state.Equity, FinalPrice: operations[len(operations)-1].Price}, nil
	}

	engine := NewEngine(&cfg, evaluator, types.InitialState{Equity: 1_000_000, Price: 92_000})

	c := engine.Codec().Encode([]types.Operation{
		{Price: 65_000, Type: types.ActionBuy, SizeRatio: 0.5},
		{Price: 95_000, Type: types.ActionSell, SizeRatio: 0.5},
	}, cfg.MaxChromosomeLength)

	first := NewIndividual(c.Clone())
	second := NewIndividual(c.Clone())
	engine.evaluateIndividual(first)
	engine.evaluateIndividual(second)

	assert.Equal(t, 1, calls, "second identical chromosome must be served from the cache")
	assert.Equal(t, first.Objectives, second.Objectives)
	assert.Equal(t, first.Constraints, second.Constraints)

	hits, misses := engine.Cache().Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

// TestEngine_CacheDisabled tests that UseCache=false re-invokes the evaluator
func TestEngine_CacheDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseCache = false

	calls := 0
	evaluator := func(operations []types.Operation, state types.InitialState) (*types.EvaluationResult, error) {
		calls++
		return &types.EvaluationResult{FinalEquity: state.Equity}, nil
	}

	engine := NewEngine(&cfg, evaluator, types.InitialState{Equity: 1_000_000, Price: 92_000})
	require.Nil(t, engine.Cache())

	c := engine.Codec().Encode([]types.Operation{
		{Price: 65_000, Type: types.ActionBuy, SizeRatio: 0.5},
		{Price: 95_000, Type: types.ActionSell, SizeRatio: 0.5},
	}, cfg.MaxChromosomeLength)

	engine.evaluateIndividual(NewIndividual(c.Clone()))
	engine.evaluateIndividual(NewIndividual(c.Clone()))

	assert.Equal(t, 2, calls)
}
