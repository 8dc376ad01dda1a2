package main

import (
	"flag"
	"fmt"
)

// OptimizerFlags holds all command line flags for the optimizer command
type OptimizerFlags struct {
	// Configuration
	EnvFile  *string
	Symbol   *string
	Category *string

	// Position state
	Equity    *float64
	Qty       *float64
	Entry     *float64
	Price     *float64
	LivePrice *bool
	Leverage  *float64

	// Optimization parameters
	Population   *int
	Generations  *int
	TargetEquity *float64
	TargetPrice  *float64
	MinEquity    *float64
	MaxOps       *int
	MaxLiqPrice  *float64
	PriceLo      *float64
	PriceHi      *float64
	Parallel     *int
	Patience     *int
	Seed         *int64

	// Output options
	OutputDir   *string
	ConsoleOnly *bool
	TopN        *int
	MetricsPort *int
	Verbose     *bool
	LogToFile   *bool

	// Version and help
	ShowVersion *bool
	ShowHelp    *bool
}

// NewOptimizerFlags registers all command line flags
func NewOptimizerFlags() *OptimizerFlags {
	return &OptimizerFlags{
		// Configuration
		EnvFile:  flag.String("env", ".env", "Path to environment file"),
		Symbol:   flag.String("symbol", "BTCUSDT", "Trading symbol"),
		Category: flag.String("category", "linear", "Market category (spot, linear, inverse)"),

		// Position state
		Equity:    flag.Float64("equity", 2_000_000, "Current account equity"),
		Qty:       flag.Float64("qty", 25, "Current position quantity"),
		Entry:     flag.Float64("entry", 100_000, "Current average entry price"),
		Price:     flag.Float64("price", 92_000, "Current market price"),
		LivePrice: flag.Bool("live", false, "Fetch the current price from Bybit instead of -price"),
		Leverage:  flag.Float64("leverage", 10, "Account leverage used by the position simulator"),

		// Optimization parameters
		Population:   flag.Int("population", 100, "Population size"),
		Generations:  flag.Int("generations", 50, "Number of generations"),
		TargetEquity: flag.Float64("target-equity", 0, "Minimum acceptable final equity (0 = current equity)"),
		TargetPrice:  flag.Float64("target-price", 0, "Desired final price level (0 = disabled)"),
		MinEquity:    flag.Float64("min-equity", 0, "Hard floor on final equity (0 = target equity)"),
		MaxOps:       flag.Int("max-ops", 50, "Maximum number of operations in a sequence"),
		MaxLiqPrice:  flag.Float64("max-liq", 25_000, "Maximum acceptable liquidation price"),
		PriceLo:      flag.Float64("price-lo", 60_000, "Lower bound of the operation price range"),
		PriceHi:      flag.Float64("price-hi", 120_000, "Upper bound of the operation price range"),
		Parallel:     flag.Int("parallel", 1, "Maximum parallel fitness evaluations"),
		Patience:     flag.Int("patience", 10, "Early stopping patience in generations"),
		Seed:         flag.Int64("seed", 0, "Random seed (0 = time based)"),

		// Output options
		OutputDir:   flag.String("output", "", "Output directory (default results/<SYMBOL>_<timestamp>)"),
		ConsoleOnly: flag.Bool("console-only", false, "Skip file outputs, console only"),
		TopN:        flag.Int("top", 10, "Number of Pareto solutions to report"),
		MetricsPort: flag.Int("metrics-port", 0, "Port for Prometheus metrics and health endpoints (0 = disabled)"),
		Verbose:     flag.Bool("verbose", false, "Enable debug logging"),
		LogToFile:   flag.Bool("log-file", false, "Also write JSON logs under logs/"),

		// Version and help
		ShowVersion: flag.Bool("version", false, "Show version information"),
		ShowHelp:    flag.Bool("help", false, "Show help information"),
	}
}

// ValidateOptimizerFlags performs basic sanity checks before the run starts
func ValidateOptimizerFlags(flags *OptimizerFlags) error {
	if *flags.Equity <= 0 {
		return fmt.Errorf("equity must be positive, got %.2f", *flags.Equity)
	}
	if *flags.Qty < 0 {
		return fmt.Errorf("qty must be non-negative, got %.4f", *flags.Qty)
	}
	if *flags.Entry <= 0 {
		return fmt.Errorf("entry must be positive, got %.2f", *flags.Entry)
	}
	if !*flags.LivePrice && *flags.Price <= 0 {
		return fmt.Errorf("price must be positive, got %.2f", *flags.Price)
	}
	if *flags.PriceLo >= *flags.PriceHi {
		return fmt.Errorf("price-lo (%.2f) must be below price-hi (%.2f)", *flags.PriceLo, *flags.PriceHi)
	}
	if *flags.TopN < 1 {
		return fmt.Errorf("top must be at least 1, got %d", *flags.TopN)
	}
	return nil
}

// PrintUsageExamples prints example invocations
func PrintUsageExamples() {
	fmt.Println("EXAMPLES:")
	fmt.Println("  optimizer -equity 2000000 -qty 25 -entry 100000 -price 92000")
	fmt.Println("  optimizer -live -symbol BTCUSDT -target-equity 2500000")
	fmt.Println("  optimizer -population 200 -generations 100 -parallel 4 -output results/run1")
	fmt.Println()
}
