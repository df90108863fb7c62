package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/jsat-analyzer/pkg/config"
	"github.com/ritzau/jsat-analyzer/pkg/logging"
	"github.com/ritzau/jsat-analyzer/pkg/session"
)

type configKey struct{}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "jsat",
		Short:        "Analyze Joint Activity networks of functions, resources and agents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.Verbosity, cfg.Verbose)
			if err != nil {
				return err
			}
			logging.SetOutput(cmd.ErrOrStderr())
			if cfg.JSONLogs {
				logging.SetJSONOutput(level)
			} else {
				logging.SetLevel(level)
			}
			logging.Debug("configuration loaded", "port", cfg.Port, "history_limit", cfg.History.Limit, "cycle_cap", cfg.Analysis.CycleCap)
			cmd.SetContext(withConfig(cmd, cfg))
			return nil
		},
	}

	f := root.PersistentFlags()
	f.String("config", "", "config file (default "+config.DefaultFile+" if present)")
	f.String("verbosity", "", "log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "increase log verbosity (-v debug, -vv trace)")
	f.Bool("json-logs", false, "write logs as JSON")
	f.Int("history-limit", 0, "maximum number of undo steps")
	f.Int("cycle-cap", 0, "maximum number of cycles enumerated")
	f.StringSlice("cycle-palette", nil, "colors assigned to cycles")
	f.StringSlice("community-palette", nil, "colors assigned to communities")

	root.AddCommand(newReportCmd(), newCompareCmd(), newServeCmd())
	return root
}

func withConfig(cmd *cobra.Command, cfg *config.Config) context.Context {
	return context.WithValue(cmd.Context(), configKey{}, cfg)
}

// configFrom returns the configuration loaded before the command ran
func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}

func newSession(cfg *config.Config, opts ...session.Option) *session.Session {
	opts = append([]session.Option{
		session.WithConfig(cfg.AnalysisConfig()),
		session.WithHistoryLimit(cfg.History.Limit),
	}, opts...)
	return session.New(opts...)
}

// importFile loads the document at path into s
func importFile(s *session.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	if _, err := s.Import(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
