package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/rzbill/jobq/internal/cmd/client"
	serverrun "github.com/rzbill/jobq/internal/cmd/server"
	cfgpkg "github.com/rzbill/jobq/internal/config"
	logpkg "github.com/rzbill/jobq/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// Respect JOBQ_LOG_LEVEL for CLI output before any config is loaded.
	level := os.Getenv("JOBQ_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "jobq",
		Short: "jobq job queue broker CLI",
		Long:  "jobq is a single-binary job queue broker. This CLI manages the server and client operations.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the jobq server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			configPath, _ := cmd.Flags().GetString("config")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			nextJobDelay, _ := cmd.Flags().GetDuration("next-job-delay")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			cfg := cfgpkg.Default()
			if configPath != "" {
				loaded, err := cfgpkg.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			cfgpkg.FromEnv(&cfg)

			// Flags override file and environment.
			if fsyncMode != "" {
				cfg.Storage.Fsync = fsyncMode
			}
			if fsyncIntervalMs > 0 {
				cfg.Storage.FsyncInterval = cfgpkg.Duration(time.Duration(fsyncIntervalMs) * time.Millisecond)
			}
			if cmd.Flags().Changed("next-job-delay") {
				cfg.Server.NextJobDelay = cfgpkg.Duration(nextJobDelay)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:  dataDir,
				HTTPAddr: httpAddr,
				Config:   cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default from config, :8023)")
	serverStartCmd.Flags().String("config", os.Getenv("JOBQ_CONFIG"), "Config file path (.toml or .json)")
	serverStartCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 0, "When --fsync=interval, group-commit window in ms")
	serverStartCmd.Flags().Duration("next-job-delay", 0, "Delay empty next/fetch responses (0 disables)")
	serverStartCmd.Flags().String("log-level", os.Getenv("JOBQ_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("JOBQ_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// client command groups
	rootCmd.AddCommand(clientcmd.NewRoot(apiURL).Commands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("JOBQ_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8023"
}
