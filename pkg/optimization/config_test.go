package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig_Validates tests that the baseline configuration passes validation
func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.PopulationSize)
	assert.Equal(t, 50, cfg.NGenerations)
	assert.Equal(t, 0.9, cfg.CrossoverProb)
	assert.Equal(t, 0.2, cfg.MutationProb)
	assert.InDelta(t, 1.0, cfg.ObjectiveWeights.Sum(), weightTolerance)
}

// TestConfigValidate_WeightSum tests rejection of weights not summing to 1
func TestConfigValidate_WeightSum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObjectiveWeights.FinalEquity = 0.9 // sum is now 1.5

	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "weights", cfgErr.Field)
}

// TestConfigValidate_WeightTolerance tests that small weight drift is accepted
func TestConfigValidate_WeightTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObjectiveWeights.FinalEquity += 0.005 // within the 0.01 tolerance

	assert.NoError(t, cfg.Validate())
}

// TestConfigValidate_PopulationSize tests the minimum population bound
func TestConfigValidate_PopulationSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 9

	err := cfg.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "population_size", cfgErr.Field)
}

// TestConfigValidate_Generations tests the minimum generation count
func TestConfigValidate_Generations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NGenerations = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n_generations")
}

// TestConfigValidate_Probabilities tests probability range checks
func TestConfigValidate_Probabilities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CrossoverProb = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MutationProb = -0.1
	assert.Error(t, cfg.Validate())
}

// TestConfigValidate_OperationBounds tests the min/max operation ordering
func TestConfigValidate_OperationBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinOperations = 10
	cfg.MaxOperations = 5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_operations")
}

// TestRange_ClampContains tests range clamping and membership
func TestRange_ClampContains(t *testing.T) {
	r := Range{Lo: 10, Hi: 20}

	assert.Equal(t, 10.0, r.Clamp(5))
	assert.Equal(t, 20.0, r.Clamp(25))
	assert.Equal(t, 15.0, r.Clamp(15))

	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(9.99))
	assert.False(t, r.Contains(20.01))
}
