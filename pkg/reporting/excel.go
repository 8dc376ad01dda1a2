package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/capital-commander/pkg/optimization"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteResultXLSX writes the optimization result to an Excel workbook with
// sheets for the summary, the best operation sequence, the Pareto front, and
// the convergence history.
func (r *DefaultExcelReporter) WriteResultXLSX(result *optimization.Result, solutions []optimization.ParetoSolution, path string) error {
	// Ensure directory exists before creating file
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const operationsSheet = "Operations"
	const paretoSheet = "Pareto Front"
	const historySheet = "History"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(operationsSheet)
	fx.NewSheet(paretoSheet)
	fx.NewSheet(historySheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, result, styles); err != nil {
		return err
	}
	if err := r.writeOperationsSheet(fx, operationsSheet, result, styles); err != nil {
		return err
	}
	if err := r.writeParetoSheet(fx, paretoSheet, solutions, styles); err != nil {
		return err
	}
	if err := r.writeHistorySheet(fx, historySheet, result.History, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

// createExcelStyles creates the workbook styles
func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - Dark blue background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"1F4E79"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 177, // $#,##0.00
		Font:   &excelize.Font{Size: 10, Family: "Calibri"},
	})
	if err != nil {
		return styles, err
	}

	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 2, // 0.00
		Font:   &excelize.Font{Size: 10, Family: "Calibri"},
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri"},
	})
	if err != nil {
		return styles, err
	}

	styles.SummaryStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 10, Family: "Calibri"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"DDEBF7"},
			Pattern: 1,
		},
	})
	return styles, err
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, result *optimization.Result, styles ExcelStyles) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Final Equity", result.FinalEquity},
		{"Final Equity Ratio", result.Objectives.FinalEquityRatio},
		{"Max Liquidation Price", result.Objectives.MaxLiqPrice},
		{"Number of Operations", result.Objectives.NumOperations},
		{"Target Deviation", result.Objectives.TargetDeviation},
		{"Generations", result.Generations},
		{"Converged Early", result.Converged},
		{"Execution Time", result.ExecutionTime.String()},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := fx.SetCellStyle(sheet, "A1", "B1", styles.HeaderStyle); err != nil {
		return err
	}
	last := len(rows)
	if err := fx.SetCellStyle(sheet, "A2", fmt.Sprintf("A%d", last), styles.SummaryStyle); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "B2", fmt.Sprintf("B%d", last), styles.BaseStyle); err != nil {
		return err
	}
	// final equity is a dollar amount
	if err := fx.SetCellStyle(sheet, "B2", "B2", styles.CurrencyStyle); err != nil {
		return err
	}
	return fx.SetColWidth(sheet, "A", "B", 24)
}

func (r *DefaultExcelReporter) writeOperationsSheet(fx *excelize.File, sheet string, result *optimization.Result, styles ExcelStyles) error {
	header := []interface{}{"Index", "Price", "Action", "Size Ratio"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, op := range result.BestSequence {
		row := []interface{}{i + 1, op.Price, op.Type.String(), op.SizeRatio}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := fx.SetCellStyle(sheet, "A1", "D1", styles.HeaderStyle); err != nil {
		return err
	}
	if n := len(result.BestSequence); n > 0 {
		last := n + 1
		if err := fx.SetCellStyle(sheet, "A2", fmt.Sprintf("A%d", last), styles.BaseStyle); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, "B2", fmt.Sprintf("B%d", last), styles.CurrencyStyle); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, "C2", fmt.Sprintf("C%d", last), styles.BaseStyle); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, "D2", fmt.Sprintf("D%d", last), styles.NumberStyle); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "D", 14)
}

func (r *DefaultExcelReporter) writeParetoSheet(fx *excelize.File, sheet string, solutions []optimization.ParetoSolution, styles ExcelStyles) error {
	header := []interface{}{"Rank", "Equity Ratio", "Max Liq Price", "Operations", "Target Deviation", "Weighted Score"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, sol := range solutions {
		row := []interface{}{
			i + 1,
			sol.Objectives.FinalEquityRatio,
			sol.Objectives.MaxLiqPrice,
			sol.Objectives.NumOperations,
			sol.Objectives.TargetDeviation,
			sol.WeightedScore,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := fx.SetCellStyle(sheet, "A1", "F1", styles.HeaderStyle); err != nil {
		return err
	}
	if n := len(solutions); n > 0 {
		last := n + 1
		if err := fx.SetCellStyle(sheet, "A2", fmt.Sprintf("A%d", last), styles.BaseStyle); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, "B2", fmt.Sprintf("F%d", last), styles.NumberStyle); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "F", 16)
}

func (r *DefaultExcelReporter) writeHistorySheet(fx *excelize.File, sheet string, history []optimization.GenerationStats, styles ExcelStyles) error {
	header := []interface{}{"Generation", "Best Equity Ratio", "Avg Equity Ratio", "Pareto Front Size", "Diversity"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	rowIdx := 2
	for _, gs := range history {
		if len(gs.BestObjectives) == 0 || len(gs.AvgObjectives) == 0 {
			continue
		}
		row := []interface{}{
			gs.Generation,
			-gs.BestObjectives[0],
			-gs.AvgObjectives[0],
			gs.ParetoFrontSize,
			gs.Diversity,
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		rowIdx++
	}

	if err := fx.SetCellStyle(sheet, "A1", "E1", styles.HeaderStyle); err != nil {
		return err
	}
	if rowIdx > 2 {
		last := rowIdx - 1
		if err := fx.SetCellStyle(sheet, "A2", fmt.Sprintf("A%d", last), styles.BaseStyle); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, "B2", fmt.Sprintf("E%d", last), styles.NumberStyle); err != nil {
			return err
		}
	}
	return fx.SetColWidth(sheet, "A", "E", 18)
}
