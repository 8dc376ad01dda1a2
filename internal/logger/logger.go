package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	// Symbol tags every log line and names the log file.
	Symbol string
	// Debug lowers the level from info to debug.
	Debug bool
	// ToFile additionally writes JSON lines to logs/<symbol>_<date>.log.
	ToFile bool
}

// New builds the process logger: human-readable console output, plus an
// optional dated JSON file under logs/ for later inspection.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var sink io.Writer = console
	if opts.ToFile {
		file, err := openLogFile(opts.Symbol)
		if err != nil {
			return zerolog.Nop(), err
		}
		sink = zerolog.MultiLevelWriter(console, file)
	}

	logger := zerolog.New(sink).Level(level).With().
		Timestamp().
		Str("symbol", opts.Symbol).
		Logger()
	return logger, nil
}

// openLogFile opens (creating if needed) the dated log file for a symbol.
func openLogFile(symbol string) (*os.File, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if symbol == "" {
		symbol = "UNKNOWN"
	}
	filename := fmt.Sprintf("%s_%s.log", symbol, time.Now().Format("2006-01-02"))
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}
