package reporting

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/capital-commander/pkg/optimization"
)

const timeRounding = 10 * time.Millisecond

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputResult prints the optimization summary and the best operation sequence
func (r *DefaultConsoleReporter) OutputResult(result *optimization.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("OPTIMIZATION RESULT")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💰 Final Equity", fmt.Sprintf("$%.2f", result.FinalEquity)},
		{"📈 Equity Ratio", fmt.Sprintf("%.4f", result.Objectives.FinalEquityRatio)},
		{"📉 Max Liq Price", fmt.Sprintf("$%.2f", result.Objectives.MaxLiqPrice)},
		{"🔄 Operations", fmt.Sprintf("%.0f", result.Objectives.NumOperations)},
		{"🎯 Target Deviation", fmt.Sprintf("%.4f", result.Objectives.TargetDeviation)},
		{"⏱️ Execution Time", result.ExecutionTime.Round(timeRounding).String()},
		{"🧬 Generations", fmt.Sprintf("%d", result.Generations)},
		{"✅ Converged Early", fmt.Sprintf("%t", result.Converged)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, WidthMax: 30, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()

	r.outputOperations(result)
}

// outputOperations prints the best sequence as a table of operations
func (r *DefaultConsoleReporter) outputOperations(result *optimization.Result) {
	if len(result.BestSequence) == 0 {
		fmt.Println("⚠️ No operations in best sequence")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BEST OPERATION SEQUENCE")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Price", "Action", "Size Ratio"})

	for i, op := range result.BestSequence {
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("$%.2f", op.Price),
			op.Type.String(),
			fmt.Sprintf("%.2f", op.SizeRatio),
		})
	}

	t.Render()
	fmt.Println()
}

// OutputParetoFront prints the top Pareto-optimal solutions
func (r *DefaultConsoleReporter) OutputParetoFront(solutions []optimization.ParetoSolution) {
	if len(solutions) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PARETO FRONT")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Equity Ratio", "Max Liq Price", "Ops", "Target Dev", "Weighted Score"})

	for i, sol := range solutions {
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.4f", sol.Objectives.FinalEquityRatio),
			fmt.Sprintf("$%.2f", sol.Objectives.MaxLiqPrice),
			fmt.Sprintf("%.0f", sol.Objectives.NumOperations),
			fmt.Sprintf("%.4f", sol.Objectives.TargetDeviation),
			fmt.Sprintf("%.4f", sol.WeightedScore),
		})
	}

	t.Render()
	fmt.Println()
}

// OutputHistory prints per-generation convergence statistics
func (r *DefaultConsoleReporter) OutputHistory(history []optimization.GenerationStats) {
	if len(history) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("CONVERGENCE HISTORY")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Gen", "Best Equity", "Avg Equity", "Front Size", "Diversity"})

	for _, gs := range history {
		if len(gs.BestObjectives) == 0 || len(gs.AvgObjectives) == 0 {
			continue
		}
		t.AppendRow(table.Row{
			gs.Generation,
			fmt.Sprintf("%.4f", -gs.BestObjectives[0]),
			fmt.Sprintf("%.4f", -gs.AvgObjectives[0]),
			gs.ParetoFrontSize,
			fmt.Sprintf("%.4f", gs.Diversity),
		})
	}

	t.Render()
	fmt.Println()
}
