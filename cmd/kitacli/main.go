// Command kitacli extracts structured data from kindergarten annual
// accounting workbooks and writes it to CSV reports and an optional SQLite
// database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"kitacli/internal/checkpoint"
	"kitacli/internal/config"
	"kitacli/internal/extract"
	"kitacli/internal/infrastructure"
	"kitacli/internal/runner"
	"kitacli/internal/structure"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "kitacli",
		Short:         "Extract structured data from kindergarten accounting workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newTypesCmd())
	cmd.AddCommand(newResetCmd(opts))
	return cmd
}

// loadConfig reads the configuration and brings up the logger.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if _, err := infrastructure.InitializeLogger(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		reportType     string
		inputDir       string
		outputDir      string
		checkpointPath string
		dbPath         string
		debugLimit     int
		full           bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or all extractors over the input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			defer infrastructure.CloseLogFile()

			if inputDir != "" {
				cfg.Paths.InputDir = inputDir
			}
			if outputDir != "" {
				cfg.Paths.OutputDir = outputDir
			}
			if dbPath != "" {
				cfg.Paths.DatabaseFile = dbPath
			}
			if debugLimit > 0 {
				cfg.Batch.DebugLimit = debugLimit
			}

			names := extract.Names()
			if reportType != "all" {
				names = strings.Split(reportType, ",")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var failed []string
			for _, name := range names {
				name = strings.TrimSpace(name)
				if err := runOne(ctx, cfg, name, checkpointPath, full); err != nil {
					slog.Error("extractor run failed",
						slog.String("extractor", name),
						slog.String("error", err.Error()))
					failed = append(failed, name)
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("extractors failed: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&reportType, "type", "t", "all", "report type to extract, comma-separated, or \"all\"")
	cmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "directory of input workbooks")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for CSV output")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file (single --type runs only)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file to mirror results into")
	cmd.Flags().IntVar(&debugLimit, "debug-limit", 0, "process only the first N files, ignoring checkpoints")
	cmd.Flags().BoolVar(&full, "full", false, "clear checkpoints and reprocess everything")
	return cmd
}

func runOne(ctx context.Context, cfg *config.Config, name, checkpointPath string, full bool) error {
	spec, err := structure.Load(cfg.StructurePath(name))
	if err != nil {
		return err
	}
	extractor, err := extract.New(name, spec)
	if err != nil {
		return err
	}

	cpPath := checkpointPath
	if cpPath == "" {
		cpPath = cfg.CheckpointPath(name)
	}
	if full {
		cp, err := checkpoint.Load(cpPath)
		if err != nil {
			return err
		}
		if err := cp.Clear(); err != nil {
			return err
		}
		slog.Info("checkpoint cleared", slog.String("extractor", name))
	}

	result, err := runner.New(extractor, runner.Options{
		InputDir:       cfg.Paths.InputDir,
		OutputDir:      cfg.Paths.OutputDir,
		CheckpointPath: cpPath,
		DatabasePath:   cfg.Paths.DatabaseFile,
		FilePattern:    cfg.Batch.FilePattern,
		DebugLimit:     cfg.Batch.DebugLimit,
	}).Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("extractor finished",
		slog.String("extractor", name),
		slog.Int("files", result.Processed),
		slog.Int("rows", result.Table.Len()),
		slog.String("output", result.OutputPath))
	return nil
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the available report types",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range extract.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newResetCmd(root *rootOptions) *cobra.Command {
	var reportType string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear checkpoints so the next run reprocesses all files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			defer infrastructure.CloseLogFile()

			names := extract.Names()
			if reportType != "all" {
				names = strings.Split(reportType, ",")
			}
			for _, name := range names {
				name = strings.TrimSpace(name)
				cp, err := checkpoint.Load(cfg.CheckpointPath(name))
				if err != nil {
					return err
				}
				if err := cp.Clear(); err != nil {
					return err
				}
				slog.Info("checkpoint cleared", slog.String("extractor", name))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&reportType, "type", "t", "all", "report type, comma-separated, or \"all\"")
	return cmd
}
