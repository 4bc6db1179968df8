package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/altscribe/altscribe-api/internal/config"
	"github.com/altscribe/altscribe-api/internal/platform/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "altscribe-api",
		Short: "Alt text generation service for Webflow collections",
		Long: `AltScribe drafts alt text for the images of CMS collection items,
lets operators review the proposals and writes accepted text back to the CMS.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// A missing .env file is fine.
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file (default ./config.yaml)")

	cmd.AddCommand(
		newServeCmd(opts),
		newWorkerCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// load reads the configuration and sets up the default logger.
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"queue", cfg.Task.Queue,
		"worker_count", cfg.Task.WorkerCount,
		"database_configured", cfg.Storage.DatabaseURL != "")
	return cfg, log, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the in-process job workers",
		Example: `  # Serve with the configured worker count
  altscribe-api serve

  # Serve the API only; run workers with "altscribe-api worker"
  altscribe-api serve --workers 0`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				if workers < 0 {
					return errors.New("--workers must not be negative")
				}
				cfg.Task.WorkerCount = workers
			}
			if cfg.Task.WorkerCount == 0 && cfg.Task.Queue == queueMemory {
				log.Warn("no workers with the in-memory queue, submitted jobs will not run")
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Serve(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "number of job workers, overrides task.worker_count")
	return cmd
}

func newWorkerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run job workers without the HTTP API",
		Long: `Runs job workers that consume the shared Redis job queue. Use it to
scale job execution separately from the API processes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Task.Queue != queueRedis {
				return fmt.Errorf("the worker command needs task.queue=%s, got %q", queueRedis, cfg.Task.Queue)
			}
			if cfg.Task.WorkerCount == 0 {
				return errors.New("the worker command needs task.worker_count > 0")
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.RunWorkers(cmd.Context())
		},
	}
}
