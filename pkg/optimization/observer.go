package optimization

import (
	"github.com/rs/zerolog"
)

// ProgressObserver receives one event per completed generation. Multiple
// observers can watch the same run (logging, metrics, UI).
type ProgressObserver interface {
	OnGeneration(generation int, bestObjectives, avgObjectives []float64, paretoFrontSize int)
}

// ObserverFunc adapts a plain function into a ProgressObserver.
type ObserverFunc func(generation int, bestObjectives, avgObjectives []float64, paretoFrontSize int)

// OnGeneration implements ProgressObserver.
func (f ObserverFunc) OnGeneration(generation int, bestObjectives, avgObjectives []float64, paretoFrontSize int) {
	f(generation, bestObjectives, avgObjectives, paretoFrontSize)
}

// LogObserver logs a progress line every Interval generations.
type LogObserver struct {
	Logger   zerolog.Logger
	Interval int
}

// NewLogObserver creates a LogObserver reporting every interval
// generations (1 logs each generation).
func NewLogObserver(logger zerolog.Logger, interval int) *LogObserver {
	if interval < 1 {
		interval = 1
	}
	return &LogObserver{Logger: logger, Interval: interval}
}

// OnGeneration implements ProgressObserver.
func (o *LogObserver) OnGeneration(generation int, bestObjectives, avgObjectives []float64, paretoFrontSize int) {
	if generation%o.Interval != 0 {
		return
	}
	o.Logger.Info().
		Int("generation", generation).
		Int("pareto_front", paretoFrontSize).
		Floats64("best_objectives", bestObjectives).
		Floats64("avg_objectives", avgObjectives).
		Msg("generation complete")
}
