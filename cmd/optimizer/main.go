package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ducminhle1904/capital-commander/internal/exchange/bybit"
	logpkg "github.com/ducminhle1904/capital-commander/internal/logger"
	"github.com/ducminhle1904/capital-commander/internal/monitoring"
	"github.com/ducminhle1904/capital-commander/pkg/optimization"
	"github.com/ducminhle1904/capital-commander/pkg/position"
	"github.com/ducminhle1904/capital-commander/pkg/reporting"
	"github.com/ducminhle1904/capital-commander/pkg/types"
)

const (
	AppName    = "Capital Commander Optimizer"
	AppVersion = "1.0.0"

	// maintenance margin rate used for the pre-run liquidation estimate
	maintenanceMarginRate = 0.005
)

func main() {
	flags := NewOptimizerFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	if *flags.ShowHelp {
		printUsageHelp()
		return
	}

	if err := ValidateOptimizerFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Flag validation error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logpkg.New(logpkg.Options{
		Symbol: *flags.Symbol,
		Debug:  *flags.Verbose,
		ToFile: *flags.LogToFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Logger setup error: %v\n", err)
		os.Exit(1)
	}

	printHeader()
	loadEnvironment(logger, *flags.EnvFile)

	initial := types.InitialState{
		Equity: *flags.Equity,
		Qty:    *flags.Qty,
		Entry:  *flags.Entry,
		Price:  *flags.Price,
	}

	if *flags.LivePrice {
		price, err := fetchLivePrice(*flags.Category, *flags.Symbol)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to fetch live price")
		}
		logger.Info().Str("symbol", *flags.Symbol).Float64("price", price).Msg("fetched live price")
		initial.Price = price
	}

	cfg := buildConfig(flags, initial)

	leverage := cfg.LeverageRange.Clamp(*flags.Leverage)
	evaluator := position.NewSimulator(leverage).Evaluator()

	if initial.Qty > 0 {
		liq := position.CrossLiqPrice(initial.Equity, initial.Qty, initial.Entry, 0, 0, maintenanceMarginRate, initial.Price)
		logger.Info().
			Float64("liq_price", liq).
			Float64("risk_buffer_pct", position.RiskBuffer(initial.Price, liq)).
			Msg("starting position liquidation estimate")
	}

	opts := []optimization.ControllerOption{
		optimization.WithControllerLogger(logger),
		optimization.WithObserver(optimization.NewLogObserver(logger, 5)),
	}
	var health *monitoring.HealthChecker
	if *flags.MetricsPort > 0 {
		health = monitoring.NewHealthChecker()
		collector := monitoring.NewProgressCollector(*flags.Symbol)
		collector.AttachHealth(health)
		opts = append(opts, optimization.WithObserver(collector))
	}
	if *flags.Seed != 0 {
		rng := rand.New(rand.NewSource(*flags.Seed))
		opts = append(opts, optimization.WithEngineOptions(optimization.WithRand(rng)))
	}

	controller, err := optimization.NewController(cfg, evaluator, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create controller")
	}

	if *flags.MetricsPort > 0 {
		startMonitoringServer(logger, *flags.MetricsPort, health)
	}

	// Stop gracefully on Ctrl+C; the run finishes the current generation.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn().Msg("interrupt received, stopping after current generation")
		controller.StopOptimization()
	}()

	if health != nil {
		health.SetRunning(true)
	}
	result, err := controller.StartOptimization(initial)
	if health != nil {
		health.SetRunning(false)
	}
	if err != nil {
		if health != nil {
			health.AddError(err.Error())
			monitoring.RecordError("optimization")
		}
		logger.Fatal().Err(err).Msg("optimization failed")
	}

	if *flags.MetricsPort > 0 {
		hits, misses := controller.CacheStats()
		monitoring.RecordEvaluations(*flags.Symbol, hits, misses)
	}

	solutions := controller.ParetoSolutions(*flags.TopN)

	reporter := reporting.NewDefaultReporter()
	reporter.OutputResult(result)
	reporter.OutputParetoFront(solutions)

	if !*flags.ConsoleOnly {
		if err := writeReports(reporter, result, solutions, *flags.OutputDir, *flags.Symbol); err != nil {
			logger.Error().Err(err).Msg("failed to write reports")
			os.Exit(1)
		}
	}
}

func printHeader() {
	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func printUsageHelp() {
	fmt.Printf("%s v%s - Multi-objective position recovery optimizer\n\n", AppName, AppVersion)
	fmt.Printf("USAGE:\n  %s [OPTIONS]\n\n", filepath.Base(flag.CommandLine.Name()))
	PrintUsageExamples()
	flag.PrintDefaults()
}

func loadEnvironment(logger zerolog.Logger, envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		logger.Debug().Str("file", envFile).Err(err).Msg("no environment file loaded")
	}
}

// buildConfig maps command line flags onto a run configuration
func buildConfig(flags *OptimizerFlags, initial types.InitialState) optimization.Config {
	cfg := optimization.DefaultConfig()

	cfg.PopulationSize = *flags.Population
	cfg.NGenerations = *flags.Generations
	cfg.MaxOperations = *flags.MaxOps
	cfg.MaxLiqPrice = *flags.MaxLiqPrice
	cfg.PriceRange = optimization.Range{Lo: *flags.PriceLo, Hi: *flags.PriceHi}
	cfg.MaxParallelEvals = *flags.Parallel
	cfg.EarlyStoppingPatience = *flags.Patience

	cfg.TargetFinalEquity = *flags.TargetEquity
	if cfg.TargetFinalEquity == 0 {
		cfg.TargetFinalEquity = initial.Equity
	}
	cfg.TargetPrice = *flags.TargetPrice
	cfg.MinEquity = *flags.MinEquity
	if cfg.MinEquity == 0 {
		cfg.MinEquity = cfg.TargetFinalEquity
	}

	return cfg
}

func fetchLivePrice(category, symbol string) (float64, error) {
	client := bybit.NewClient(bybit.Config{
		APIKey:    os.Getenv("BYBIT_API_KEY"),
		APISecret: os.Getenv("BYBIT_API_SECRET"),
		Testnet:   os.Getenv("BYBIT_TESTNET") == "true",
		Demo:      os.Getenv("BYBIT_DEMO") == "true",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return client.GetLatestPrice(ctx, category, symbol)
}

func startMonitoringServer(logger zerolog.Logger, port int, health *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)

	addr := fmt.Sprintf(":%d", port)
	go func() {
		logger.Info().Str("addr", addr).Msg("monitoring server listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("monitoring server stopped")
		}
	}()
}

func writeReports(reporter *reporting.DefaultReporter, result *optimization.Result, solutions []optimization.ParetoSolution, outputDir, symbol string) error {
	if outputDir == "" {
		outputDir = reporter.GetDefaultOutputDir(symbol)
	}

	csvPath := filepath.Join(outputDir, "operations.csv")
	if err := reporter.WriteOperationsCSV(result, csvPath); err != nil {
		return fmt.Errorf("csv: %w", err)
	}

	xlsxPath := filepath.Join(outputDir, "result.xlsx")
	if err := reporter.WriteResultXLSX(result, solutions, xlsxPath); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	jsonPath := filepath.Join(outputDir, "result.json")
	if err := reporter.WriteResultJSON(result, jsonPath); err != nil {
		return fmt.Errorf("json: %w", err)
	}

	fmt.Printf("📁 Reports written to %s\n", outputDir)
	return nil
}
