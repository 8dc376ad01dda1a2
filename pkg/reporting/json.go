package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ducminhle1904/capital-commander/pkg/optimization"
)

// DefaultJSONFormatter implements JSON output functionality
type DefaultJSONFormatter struct{}

// NewDefaultJSONFormatter creates a new JSON formatter
func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

// FormatResult formats an optimization result as indented JSON
func (f *DefaultJSONFormatter) FormatResult(result *optimization.Result) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// PrintResult prints an optimization result as JSON to the console
func (f *DefaultJSONFormatter) PrintResult(result *optimization.Result) {
	data, err := f.FormatResult(result)
	if err != nil {
		fmt.Printf("failed to format result: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// WriteResultJSON writes an optimization result to a JSON file
func WriteResultJSON(result *optimization.Result, path string) error {
	formatter := NewDefaultJSONFormatter()

	data, err := formatter.FormatResult(result)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}
