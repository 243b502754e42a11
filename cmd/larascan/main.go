// Package main provides the larascan binary entry point.
// Larascan infers request validation shapes from a Laravel application's
// source and generates OpenAPI documentation from them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/larascan/larascan/analyzer"
	"github.com/larascan/larascan/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "larascan"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		rootPath   string
		outputPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "larascan",
		Short: "Laravel validation-rule analyzer and OpenAPI generator",
		Long: `Larascan statically analyzes a Laravel application's route files,
controllers, and FormRequest classes to infer the possible shapes of each
endpoint's validation rules, including branch-dependent variants, and
generates an OpenAPI 3.0 document from them.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&rootPath, "root", "", "Application root to scan")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Scan the application and write the OpenAPI document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath, rootPath, logLevel)
			if err != nil {
				return err
			}
			if outputPath != "" {
				cfg.Output.Path = outputPath
			}
			return runGenerate(cfg, logger)
		},
	}
	generate.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	cmd.AddCommand(generate)

	cmd.AddCommand(&cobra.Command{
		Use:   "routes",
		Short: "List discovered endpoints and their validation sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath, rootPath, logLevel)
			if err != nil {
				return err
			}
			return runRoutes(cfg, logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Regenerate the document whenever PHP sources change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath, rootPath, logLevel)
			if err != nil {
				return err
			}
			return runWatch(cfg, logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// setup builds configuration and logging shared by all subcommands.
func setup(configPath, rootPath, logLevel string) (*config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		loader := config.NewLoader(logger)
		cfg, err = loader.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
	}

	if rootPath != "" {
		cfg.Scan.Root = rootPath
	}
	absRoot, err := filepath.Abs(cfg.Scan.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("stat root path: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %s", absRoot)
	}
	cfg.Scan.Root = absRoot

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, nil
}

func runGenerate(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := analyzer.New(cfg, logger)
	report, err := a.Generate(ctx)
	if err != nil {
		return err
	}

	documented := 0
	for _, doc := range report.Endpoints {
		if doc.RuleSets != nil {
			documented++
		}
	}
	fmt.Printf("Wrote %s: %d endpoints, %d with validation rules\n",
		cfg.Output.Path, len(report.Endpoints), documented)
	return nil
}

func runRoutes(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := analyzer.New(cfg, logger)
	report, err := a.Run(ctx)
	if err != nil {
		return err
	}

	for _, doc := range report.Endpoints {
		source := "-"
		if doc.SourceFile != "" {
			if rel, err := filepath.Rel(cfg.Scan.Root, doc.SourceFile); err == nil {
				source = rel
			} else {
				source = doc.SourceFile
			}
		}
		variants := ""
		if len(doc.Variants) > 1 {
			variants = fmt.Sprintf(" (%d variants)", len(doc.Variants))
		}
		fmt.Printf("%-7s %-40s %s%s\n", doc.Endpoint.Method, doc.Endpoint.Path, source, variants)
	}
	return nil
}

func runWatch(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := analyzer.New(cfg, logger)
	if _, err := a.Generate(ctx); err != nil {
		return err
	}

	watcher, err := analyzer.NewWatcher(cfg.Scan.Root, cfg.Watch.Debounce, logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			logger.Info("Source changed, regenerating", "path", event.Path)
			a.InvalidateCache()
			if _, err := a.Generate(ctx); err != nil {
				logger.Error("Regeneration failed", "error", err)
			}
		}
	}
}
