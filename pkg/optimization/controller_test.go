package optimization

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/capital-commander/pkg/position"
	"github.com/ducminhle1904/capital-commander/pkg/types"
)

// constantEvaluator always reports the same outcome, so the search can
// never improve after the first generation.
func constantEvaluator(operations []types.Operation, state types.InitialState) (*types.EvaluationResult, error) {
	return &types.EvaluationResult{
		FinalEquity:   state.Equity * 1.1,
		FinalPrice:    state.Price,
		InitialEquity: state.Equity,
	}, nil
}

// TestNewController_RejectsInvalidConfig tests config validation at construction
func TestNewController_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 5

	_, err := NewController(cfg, constantEvaluator)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

// TestNewController_RejectsNilEvaluator tests the evaluator requirement
func TestNewController_RejectsNilEvaluator(t *testing.T) {
	_, err := NewController(DefaultConfig(), nil)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "evaluator", cfgErr.Field)
}

// TestController_EndToEnd runs a short optimization against the reference
// position simulator and checks the extracted result
func TestController_EndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.NGenerations = 10
	cfg.TargetFinalEquity = 2_500_000
	cfg.MinEquity = 2_500_000

	evaluator := position.NewSimulator(10).Evaluator()

	controller, err := NewController(cfg, evaluator,
		WithEngineOptions(WithRand(rand.New(rand.NewSource(42)))))
	require.NoError(t, err)

	initial := types.InitialState{
		Equity: 2_000_000,
		Qty:    25,
		Entry:  100_000,
		Price:  92_000,
	}

	result, err := controller.StartOptimization(initial)
	require.NoError(t, err)
	require.NotNil(t, result)

	// the recommendation is a usable sequence
	require.NotEmpty(t, result.BestSequence)
	prev := 0.0
	for _, op := range result.BestSequence {
		assert.GreaterOrEqual(t, op.Price, prev, "best sequence must be price ascending")
		assert.True(t, cfg.PriceRange.Contains(op.Price))
		assert.True(t, op.Type.IsValid())
		prev = op.Price
	}

	assert.False(t, math.IsNaN(result.FinalEquity))
	assert.False(t, math.IsInf(result.FinalEquity, 0))

	// readings mirror the minimized objective vector, un-negated for growth
	assert.False(t, math.IsNaN(result.Objectives.FinalEquityRatio))
	assert.Equal(t, float64(len(result.BestSequence)), result.Objectives.NumOperations)
	assert.GreaterOrEqual(t, result.Objectives.MaxLiqPrice, 0.0)

	assert.Greater(t, result.Generations, 0)
	assert.LessOrEqual(t, result.Generations, 10)
	assert.Len(t, result.History, result.Generations)
	assert.Greater(t, result.ExecutionTime.Nanoseconds(), int64(0))
	assert.NotEmpty(t, result.ParetoFront)

	// after the run the controller reports an idle progress snapshot
	progress := controller.Progress()
	assert.False(t, progress.IsRunning)
	assert.Equal(t, result.Generations, progress.Generation)

	// caching is on by default, so the run touched the cache
	hits, misses := controller.CacheStats()
	assert.Greater(t, hits+misses, uint64(0))
}

// TestController_EarlyStopping tests that a flat search converges at patience
func TestController_EarlyStopping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 10
	cfg.NGenerations = 30
	cfg.EarlyStoppingPatience = 3
	cfg.TargetPrice = 0

	controller, err := NewController(cfg, constantEvaluator,
		WithEngineOptions(WithRand(rand.New(rand.NewSource(7)))))
	require.NoError(t, err)

	result, err := controller.StartOptimization(types.InitialState{Equity: 1_000_000, Price: 92_000})
	require.NoError(t, err)

	assert.True(t, result.Converged, "a flat objective must trigger early stopping")
	// one improving generation plus patience stagnant ones
	assert.Equal(t, 4, result.Generations)
}

// TestController_RunsAllGenerationsWithoutConvergence tests the converged flag stays false
func TestController_RunsAllGenerationsWithoutConvergence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 10
	cfg.NGenerations = 5
	cfg.EarlyStoppingPatience = 50

	controller, err := NewController(cfg, position.NewSimulator(10).Evaluator(),
		WithEngineOptions(WithRand(rand.New(rand.NewSource(11)))))
	require.NoError(t, err)

	result, err := controller.StartOptimization(types.InitialState{
		Equity: 2_000_000, Qty: 25, Entry: 100_000, Price: 92_000,
	})
	require.NoError(t, err)

	assert.False(t, result.Converged, "exhausting the budget is not convergence")
	assert.Equal(t, 5, result.Generations)
}

// TestController_Observers tests generation fan-out ordering and payloads
func TestController_Observers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 10
	cfg.NGenerations = 4
	cfg.EarlyStoppingPatience = 50

	var generations []int
	observer := ObserverFunc(func(generation int, bestObjectives, avgObjectives []float64, paretoFrontSize int) {
		generations = append(generations, generation)
		assert.Len(t, bestObjectives, NumObjectives)
		assert.Len(t, avgObjectives, NumObjectives)
		assert.Greater(t, paretoFrontSize, 0)
	})

	controller, err := NewController(cfg, position.NewSimulator(10).Evaluator(),
		WithObserver(observer),
		WithEngineOptions(WithRand(rand.New(rand.NewSource(21)))))
	require.NoError(t, err)

	_, err = controller.StartOptimization(types.InitialState{
		Equity: 2_000_000, Qty: 25, Entry: 100_000, Price: 92_000,
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, generations)
}

// TestController_StopOptimization tests the cooperative stop at a generation boundary
func TestController_StopOptimization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 10
	cfg.NGenerations = 50
	cfg.EarlyStoppingPatience = 100

	var controller *Controller
	stopAfterFirst := ObserverFunc(func(generation int, bestObjectives, avgObjectives []float64, paretoFrontSize int) {
		if generation == 1 {
			controller.StopOptimization()
		}
	})

	controller, err := NewController(cfg, position.NewSimulator(10).Evaluator(),
		WithObserver(stopAfterFirst),
		WithEngineOptions(WithRand(rand.New(rand.NewSource(3)))))
	require.NoError(t, err)

	result, err := controller.StartOptimization(types.InitialState{
		Equity: 2_000_000, Qty: 25, Entry: 100_000, Price: 92_000,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Generations, "the stop is honored at the next boundary")
	assert.False(t, result.Converged)
}

// TestController_ParetoSolutions tests front projection and truncation
func TestController_ParetoSolutions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.NGenerations = 5
	cfg.EarlyStoppingPatience = 50

	controller, err := NewController(cfg, position.NewSimulator(10).Evaluator(),
		WithEngineOptions(WithRand(rand.New(rand.NewSource(17)))))
	require.NoError(t, err)

	// before any run there is nothing to project
	assert.Nil(t, controller.ParetoSolutions(5))

	result, err := controller.StartOptimization(types.InitialState{
		Equity: 2_000_000, Qty: 25, Entry: 100_000, Price: 92_000,
	})
	require.NoError(t, err)

	solutions := controller.ParetoSolutions(3)
	assert.LessOrEqual(t, len(solutions), 3)
	require.NotEmpty(t, solutions)

	for _, sol := range solutions {
		assert.NotEmpty(t, sol.Operations)
		assert.False(t, math.IsNaN(sol.WeightedScore))
	}

	// asking for more than the front holds returns the whole front
	all := controller.ParetoSolutions(1_000)
	assert.Len(t, all, len(result.ParetoFront))

	// a negative limit yields no solutions instead of panicking
	assert.Empty(t, controller.ParetoSolutions(-1))
}

// TestController_ProgressDuringRun polls the progress snapshot from a
// second goroutine while the optimization runs; the reads must stay
// consistent with the generation budget (run with -race)
func TestController_ProgressDuringRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.NGenerations = 40
	cfg.EarlyStoppingPatience = 1_000

	controller, err := NewController(cfg, position.NewSimulator(10).Evaluator(),
		WithEngineOptions(WithRand(rand.New(rand.NewSource(7)))))
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			p := controller.Progress()
			assert.GreaterOrEqual(t, p.Generation, 0)
			assert.LessOrEqual(t, p.Generation, cfg.NGenerations)
			assert.GreaterOrEqual(t, p.ParetoFrontSize, 0)
		}
	}()

	result, err := controller.StartOptimization(types.InitialState{
		Equity: 2_000_000, Qty: 25, Entry: 100_000, Price: 92_000,
	})
	close(stop)
	wg.Wait()
	require.NoError(t, err)

	// after the run the snapshot settles on the final generation
	assert.Equal(t, result.Generations, controller.Progress().Generation)
}

// TestEarlyStopper tests the patience counter directly
func TestEarlyStopper(t *testing.T) {
	stopper := newEarlyStopper(2, 0.01)

	assert.False(t, stopper.step(-1.0)) // improvement from +Inf
	assert.False(t, stopper.step(-1.5)) // improvement
	assert.False(t, stopper.step(-1.505), "below minDelta is stagnation") // counter 1
	assert.True(t, stopper.step(-1.5)) // counter 2 == patience

	stopper.reset()
	assert.False(t, stopper.step(-0.5))
}
