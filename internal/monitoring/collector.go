package monitoring

import (
	"sync"
	"time"
)

// ProgressCollector translates optimizer generation callbacks into
// Prometheus metrics. It satisfies optimization.ProgressObserver.
type ProgressCollector struct {
	mu      sync.Mutex
	symbol  string
	lastGen time.Time
	health  *HealthChecker
}

// NewProgressCollector creates a collector labeling all metrics with symbol
func NewProgressCollector(symbol string) *ProgressCollector {
	return &ProgressCollector{
		symbol:  symbol,
		lastGen: time.Now(),
	}
}

// AttachHealth feeds generation liveness into a health checker.
func (c *ProgressCollector) AttachHealth(h *HealthChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health = h
}

// OnGeneration records per-generation metrics
func (c *ProgressCollector) OnGeneration(generation int, bestObjectives, avgObjectives []float64, frontSize int) {
	c.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(c.lastGen).Seconds()
	c.lastGen = now
	health := c.health
	c.mu.Unlock()

	if health != nil {
		health.TouchGeneration()
	}

	RecordGeneration(c.symbol, elapsed)
	UpdateParetoFrontSize(c.symbol, frontSize)
	if len(bestObjectives) > 0 {
		// Objective 0 is the negated equity ratio.
		UpdateBestEquityRatio(c.symbol, -bestObjectives[0])
	}
	if len(avgObjectives) > 0 {
		UpdateAvgEquityRatio(c.symbol, -avgObjectives[0])
	}
}
