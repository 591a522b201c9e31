package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stellans/sheetsync/internal/pipeline"
	"github.com/stellans/sheetsync/pkg/config"
	"github.com/stellans/sheetsync/pkg/logger"
	"github.com/stellans/sheetsync/pkg/query"
	"github.com/stellans/sheetsync/pkg/sheets"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "sheetsync",
		Short: "sheetsync - publish warehouse query results to Google Sheets",
		Long: `sheetsync runs the tasks declared in a YAML configuration: for each
enabled task it executes a SQL file against Snowflake and replaces the
contents of the destination Google Sheets worksheet with the result.`,
	}

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sheetsync v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	var configPath, logLevel string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured tasks",
		Long: `Run every enabled task in the configuration, in order. The first
failing task aborts the rest of the queue.

Example:
  sheetsync run --config_path configuration.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks(configPath, logLevel)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config_path", config.DefaultPath, "Path to the YAML configuration file")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.AddCommand(runCmd)

	var validatePath string

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration without running any task",
		Long: `Load the configuration, check the required sections, each enabled
task's fields and each referenced query file. No warehouse or Google
Sheets call is made.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(validatePath)
		},
	}
	validateCmd.Flags().StringVar(&validatePath, "config_path", config.DefaultPath, "Path to the YAML configuration file")
	root.AddCommand(validateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runTasks loads the configuration and drives the pipeline end to end.
func runTasks(configPath, logLevel string) error {
	if err := logger.Init(logger.Config{Level: logLevel, Encoding: "console"}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := context.WithValue(context.Background(), logger.RunIDKey, uuid.NewString())

	log := logger.WithContext(ctx).With(zap.String("component", "sheetsync-cli"))
	log.Info("starting run",
		zap.String("config", configPath),
		zap.Int("tasks", len(cfg.Tasks)))

	publisher, err := sheets.New(ctx, cfg.Sheets.CredentialFile)
	if err != nil {
		return err
	}

	runner := query.NewRunner(cfg.Connection)

	start := time.Now()
	if err := pipeline.New(runner, publisher).Run(ctx, cfg.Tasks); err != nil {
		return err
	}

	log.Info("run completed", zap.Duration("duration", time.Since(start)))

	return nil
}

// validateConfig checks the configuration and every enabled task's query
// file without touching the warehouse or Google Sheets.
func validateConfig(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	enabled := 0
	for _, task := range cfg.Tasks {
		if !task.Enabled {
			continue
		}

		if err := task.Validate(); err != nil {
			return err
		}

		data, err := os.ReadFile(task.QueryFile) //nolint:gosec // G304: path comes from configuration
		if err != nil {
			return fmt.Errorf("task %q: query file unreadable: %w", task.WorksheetName, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return fmt.Errorf("task %q: query file %s is empty", task.WorksheetName, task.QueryFile)
		}

		enabled++
	}

	fmt.Printf("%s: OK (%d tasks, %d enabled)\n", configPath, len(cfg.Tasks), enabled)

	return nil
}
