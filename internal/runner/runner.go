// Package runner drives a batch extraction: enumerate the input files, run
// one extractor over each, isolate per-file failures, and hand the combined
// table plus the issue report to the exporters.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"kitacli/internal/checkpoint"
	kerrors "kitacli/internal/errors"
	"kitacli/internal/exporter"
	"kitacli/internal/extract"
)

// Options configure one batch run.
type Options struct {
	InputDir       string
	OutputDir      string
	CheckpointPath string
	DatabasePath   string // empty disables the SQLite sink
	FilePattern    string // defaults to *.xlsx
	DebugLimit     int    // >0 processes only the first N files, ignoring checkpoints
}

// Result summarizes a finished run.
type Result struct {
	Table      *extract.Table
	Processed  int
	Skipped    int
	Failed     int
	OutputPath string
	IssuePath  string
}

// Runner executes one extractor over a directory of workbooks.
type Runner struct {
	extractor extract.Extractor
	csv       *exporter.CSVWriter
	opts      Options
}

// New builds a runner for the given extractor.
func New(extractor extract.Extractor, opts Options) *Runner {
	if opts.FilePattern == "" {
		opts.FilePattern = "*.xlsx"
	}
	return &Runner{
		extractor: extractor,
		csv:       exporter.NewCSVWriter(opts.OutputDir),
		opts:      opts,
	}
}

// Run processes the batch. Individual file failures are recorded and skipped;
// the run itself fails only when configuration is broken or no file at all
// could be processed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	files, err := r.listFiles()
	if err != nil {
		return nil, err
	}

	processed, err := r.loadCheckpoint()
	if err != nil {
		return nil, err
	}

	if r.opts.DebugLimit > 0 && len(files) > r.opts.DebugLimit {
		files = files[:r.opts.DebugLimit]
		slog.Info("debug limit active, checkpoints ignored",
			slog.Int("limit", r.opts.DebugLimit))
	}

	combined := extract.NewTable(r.extractor.Name(), r.extractor.Columns())
	report := exporter.NewIssueReport()
	result := &Result{Table: combined}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileName := filepath.Base(path)
		if r.opts.DebugLimit == 0 && processed.Contains(fileName) {
			result.Skipped++
			continue
		}

		table, err := r.extractor.Extract(path)
		if err != nil {
			result.Failed++
			slog.Error("file failed",
				slog.String("extractor", r.extractor.Name()),
				slog.String("file", fileName),
				slog.String("error", err.Error()))
			report.Add(fileName, string(kerrors.KindOf(err)), err.Error())
			continue
		}

		combined.Merge(table)
		result.Processed++
		slog.Info("file processed",
			slog.String("extractor", r.extractor.Name()),
			slog.String("file", fileName),
			slog.Int("rows", table.Len()))

		if r.opts.DebugLimit == 0 {
			if err := processed.Add(fileName); err != nil {
				return nil, err
			}
		}
	}

	if issuePath, err := report.Write(r.csv, r.extractor.Name()); err != nil {
		return nil, err
	} else if issuePath != "" {
		result.IssuePath = issuePath
		slog.Warn("problem files recorded",
			slog.String("report", issuePath),
			slog.Int("count", report.Len()))
	}

	if result.Processed == 0 {
		return nil, kerrors.NewNoFilesProcessed(fmt.Sprintf(
			"no files were successfully processed (%d failed, %d already done)",
			result.Failed, result.Skipped))
	}

	outputPath, err := r.csv.WriteTable(combined)
	if err != nil {
		return nil, err
	}
	result.OutputPath = outputPath

	if r.opts.DatabasePath != "" {
		if err := r.storeDatabase(ctx, combined); err != nil {
			return nil, err
		}
	}

	slog.Info("batch finished",
		slog.String("extractor", r.extractor.Name()),
		slog.Int("processed", result.Processed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Int("rows", combined.Len()))
	return result, nil
}

// listFiles enumerates the input workbooks, sorted for deterministic order.
// Excel lock files ("~$...") are ignored.
func (r *Runner) listFiles() ([]string, error) {
	pattern := filepath.Join(r.opts.InputDir, r.opts.FilePattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, kerrors.NewConfiguration(fmt.Sprintf("bad file pattern %q", pattern), err)
	}
	var files []string
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), "~$") {
			continue
		}
		files = append(files, m)
	}
	if len(files) == 0 {
		return nil, kerrors.NewNoFilesProcessed(fmt.Sprintf("no Excel files found in %s", r.opts.InputDir))
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) loadCheckpoint() (*checkpoint.Set, error) {
	path := r.opts.CheckpointPath
	if path == "" {
		path = filepath.Join(r.opts.OutputDir,
			fmt.Sprintf("processed_files_%s.json", r.extractor.Name()))
	}
	return checkpoint.Load(path)
}

func (r *Runner) storeDatabase(ctx context.Context, table *extract.Table) error {
	store, err := exporter.OpenSQLite(r.opts.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.ReplaceTable(ctx, table)
}
