// Package exporter writes extraction results to their sinks: CSV reports for
// the analysts and an optional SQLite database for downstream tooling.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"kitacli/internal/extract"
)

// CSVWriter writes result tables as CSV files under the output directory.
type CSVWriter struct {
	outputDir string
}

// NewCSVWriter creates a CSV writer rooted at outputDir.
func NewCSVWriter(outputDir string) *CSVWriter {
	return &CSVWriter{outputDir: outputDir}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // UTF-8 BOM so Excel opens umlauts correctly
}

// WriteTable writes one extractor's table as kindergarten_<name>.csv.
func (w *CSVWriter) WriteTable(table *extract.Table) (string, error) {
	fileName := fmt.Sprintf("kindergarten_%s.csv", table.Name)
	if err := w.WriteCSV(fileName, WriteOptions{
		Headers:   table.Columns,
		Records:   table.Rows,
		BOMPrefix: true,
	}); err != nil {
		return "", err
	}
	return w.resolvePath(fileName), nil
}

// WriteCSV writes data to a CSV file with the given options.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("writing CSV file",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return writer.Error()
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(w.outputDir, filePath)
}
