package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ducminhle1904/capital-commander/pkg/optimization"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteOperationsCSV writes the best operation sequence to a CSV file
func (r *DefaultCSVReporter) WriteOperationsCSV(result *optimization.Result, path string) error {
	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	// If the user requests an Excel file, delegate to Excel writer
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return NewDefaultExcelReporter().WriteResultXLSX(result, nil, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Index",
		"Price",
		"Action",
		"Size_Ratio",
	}); err != nil {
		return err
	}

	for i, op := range result.BestSequence {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(op.Price, 'f', 2, 64),
			op.Type.String(),
			strconv.FormatFloat(op.SizeRatio, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// WriteHistoryCSV writes per-generation convergence statistics to a CSV file
func (r *DefaultCSVReporter) WriteHistoryCSV(history []optimization.GenerationStats, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Generation",
		"Best_Equity_Ratio",
		"Avg_Equity_Ratio",
		"Pareto_Front_Size",
		"Diversity",
	}); err != nil {
		return err
	}

	for _, gs := range history {
		if len(gs.BestObjectives) == 0 || len(gs.AvgObjectives) == 0 {
			continue
		}
		record := []string{
			strconv.Itoa(gs.Generation),
			strconv.FormatFloat(-gs.BestObjectives[0], 'f', 6, 64),
			strconv.FormatFloat(-gs.AvgObjectives[0], 'f', 6, 64),
			strconv.Itoa(gs.ParetoFrontSize),
			strconv.FormatFloat(gs.Diversity, 'f', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}
