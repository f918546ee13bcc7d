// # cmd/orphan/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"orphan/internal/core/app"
	"orphan/internal/core/config"
	"orphan/internal/core/errors"
	"orphan/internal/data/history"
	"orphan/internal/shared/observability"
)

const VERSION = "1.0.0"

type cliFlags struct {
	entry              []string
	project            []string
	cwd                string
	ignore             []string
	format             string
	includeNodeModules bool
	configPath         string
	threads            int
	reachable          bool
	ui                 bool
	metricsAddr        string
	verbose            bool
}

func main() {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "orphan",
		Short:         "Find files no entry point can reach",
		Long:          "orphan detects files in a JavaScript/TypeScript project that are not transitively reachable from any declared entry point.",
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), flags, cmd.Flags())
		},
	}

	root.Flags().StringArrayVarP(&flags.entry, "entry", "e", nil, "entry glob pattern (repeatable, required)")
	root.Flags().StringArrayVar(&flags.project, "project", nil, "project glob pattern (repeatable)")
	root.Flags().StringVar(&flags.cwd, "cwd", "", "working directory")
	root.Flags().StringArrayVar(&flags.ignore, "ignore", nil, "ignore glob pattern (repeatable)")
	root.Flags().StringVar(&flags.format, "format", "text", "output format: text or json")
	root.Flags().BoolVar(&flags.includeNodeModules, "include-node-modules", false, "resolve into node_modules")
	root.Flags().StringVar(&flags.configPath, "config", "", "path to orphan.toml")
	root.Flags().IntVar(&flags.threads, "threads", 0, "worker threads per wave (default: CPU count)")
	root.Flags().BoolVar(&flags.reachable, "reachable", false, "print reachable files instead of unused ones")
	root.Flags().BoolVar(&flags.ui, "ui", false, "browse results in a terminal UI")
	root.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	root.Flags().BoolVar(&flags.verbose, "verbose", false, "enable debug logging")
	root.Flags().BoolP("version", "V", false, "print version and exit")

	root.AddCommand(newTrendsCommand(flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// loadConfig merges the config file with CLI flags; flags override field-wise.
func loadConfig(flags *cliFlags, set *pflag.FlagSet) (*config.Config, error) {
	cwd := flags.cwd
	if cwd == "" {
		cwd = "."
	}

	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath)
	} else {
		cfg, err = config.LoadDefault(cwd)
	}
	if err != nil {
		return nil, err
	}

	if len(flags.entry) > 0 {
		cfg.Entry = flags.entry
	}
	if len(flags.project) > 0 {
		cfg.Project = flags.project
	}
	if len(flags.ignore) > 0 {
		cfg.Ignore = flags.ignore
	}
	if flags.cwd != "" {
		cfg.Cwd = flags.cwd
	}
	if set.Changed("include-node-modules") {
		cfg.IncludeNodeModules = flags.includeNodeModules
	}
	if flags.threads > 0 {
		cfg.Threads = flags.threads
	}
	if flags.metricsAddr != "" {
		cfg.Telemetry.MetricsAddr = flags.metricsAddr
	}
	return cfg, nil
}

func runAnalysis(ctx context.Context, flags *cliFlags, set *pflag.FlagSet) error {
	setupLogging(flags.verbose)

	if flags.format != "text" && flags.format != "json" {
		return errors.New(errors.CodeConfig, fmt.Sprintf("unknown format %q", flags.format))
	}

	cfg, err := loadConfig(flags, set)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	if cfg.Telemetry.MetricsAddr != "" {
		server := observability.NewMetricsServer(cfg.Telemetry.MetricsAddr)
		if err := server.Start(); err == nil {
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = server.Stop(stopCtx)
			}()
		}
	}

	application := app.New(cfg)

	if flags.reachable {
		reachable, err := application.FindReachable(ctx)
		if err != nil {
			return err
		}
		for _, file := range reachable {
			fmt.Println(file)
		}
		return nil
	}

	report, err := application.Analyze(ctx)
	if err != nil {
		return err
	}

	switch {
	case flags.ui:
		if err := runUI(report); err != nil {
			return err
		}
	case flags.format == "json":
		if err := report.WriteJSON(os.Stdout); err != nil {
			return err
		}
	default:
		report.WriteWarnings(os.Stderr)
		report.WriteText(os.Stdout)
	}

	if report.UnusedCount > 0 {
		os.Exit(1)
	}
	return nil
}

func newTrendsCommand(flags *cliFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show recent analysis runs from the history store",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(flags.verbose)

			cfg, err := loadConfig(flags, cmd.Flags())
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New(errors.CodeConfig, "history is not enabled; set [history] enabled = true in orphan.toml")
			}

			cwd, err := filepath.Abs(cfg.Cwd)
			if err != nil {
				return err
			}
			if resolved, err := filepath.EvalSymlinks(cwd); err == nil {
				cwd = resolved
			}

			path := cfg.History.Path
			if !filepath.IsAbs(path) {
				path = filepath.Join(cwd, path)
			}
			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			recent, err := store.Recent(cwd, limit)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				fmt.Println("No recorded runs.")
				return nil
			}

			for _, snap := range recent {
				fmt.Printf("%s  unused %d/%d  warnings %d  %dms  %s\n",
					snap.Timestamp.Local().Format("2006-01-02 15:04:05"),
					snap.UnusedCount, snap.TotalFiles, snap.Warnings, snap.DurationMS, snap.RunID)
			}

			if delta, ok, err := store.Trend(cwd); err == nil && ok {
				switch {
				case delta < 0:
					fmt.Printf("\n%d fewer unused files than the previous run\n", -delta)
				case delta > 0:
					fmt.Printf("\n%d more unused files than the previous run\n", delta)
				default:
					fmt.Println("\nUnused count unchanged since the previous run")
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}
