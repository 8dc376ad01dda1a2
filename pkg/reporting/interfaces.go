package reporting

import (
	"github.com/ducminhle1904/capital-commander/pkg/optimization"
)

// Package reporting provides output generation for optimization results

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputResult(result *optimization.Result)
	OutputParetoFront(solutions []optimization.ParetoSolution)
	OutputHistory(history []optimization.GenerationStats)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteOperationsCSV(result *optimization.Result, path string) error
	WriteResultXLSX(result *optimization.Result, solutions []optimization.ParetoSolution, path string) error
	WriteResultJSON(result *optimization.Result, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(symbol string) string
	EnsureDirectoryExists(path string) error
}

// Reporter combines all reporting interfaces
type Reporter interface {
	ConsoleReporter
	FileReporter
	PathManager
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	NumberStyle   int
	BaseStyle     int
	SummaryStyle  int
}
