package reporting

import (
	"github.com/ducminhle1904/capital-commander/pkg/optimization"
)

// DefaultReporter implements the complete Reporter interface
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	json    *DefaultJSONFormatter
	paths   *DefaultPathManager
}

// NewDefaultReporter creates a new default reporter with all functionality
func NewDefaultReporter() *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		json:    NewDefaultJSONFormatter(),
		paths:   NewDefaultPathManager(),
	}
}

// Console output methods
func (r *DefaultReporter) OutputResult(result *optimization.Result) {
	r.console.OutputResult(result)
}

func (r *DefaultReporter) OutputParetoFront(solutions []optimization.ParetoSolution) {
	r.console.OutputParetoFront(solutions)
}

func (r *DefaultReporter) OutputHistory(history []optimization.GenerationStats) {
	r.console.OutputHistory(history)
}

// File output methods
func (r *DefaultReporter) WriteOperationsCSV(result *optimization.Result, path string) error {
	return r.csv.WriteOperationsCSV(result, path)
}

func (r *DefaultReporter) WriteResultXLSX(result *optimization.Result, solutions []optimization.ParetoSolution, path string) error {
	return r.excel.WriteResultXLSX(result, solutions, path)
}

func (r *DefaultReporter) WriteResultJSON(result *optimization.Result, path string) error {
	return WriteResultJSON(result, path)
}

// Path management methods
func (r *DefaultReporter) GetDefaultOutputDir(symbol string) string {
	return r.paths.GetDefaultOutputDir(symbol)
}

func (r *DefaultReporter) EnsureDirectoryExists(path string) error {
	return r.paths.EnsureDirectoryExists(path)
}
