package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/graest/orcamento/internal/config"
	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/pipeline"
	"github.com/graest/orcamento/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagStore    string
	flagQuiet    bool
	flagLogLevel string
)

// Loaded by the root PersistentPreRunE.
var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orcamento",
	Short: "Research project budget planner",
	Long: "Plan a research project budget: line items per category, overheads solved\n" +
		"on top of the subtotal, a monthly disbursement schedule, and the filled\n" +
		"institutional financial workbook.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Plan store: SQLite path or postgres:// URL")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	logger = config.NewLogger(cfg.Log, os.Stderr)
	return nil
}

// openStore opens the plan store named by --store, the environment or the config.
func openStore() (*store.Store, error) {
	dsn := flagStore
	if dsn == "" {
		dsn = config.StoreDSN(cfg)
	}
	s, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening plan store: %w", err)
	}
	logger.Debug("opened plan store", "dsn", dsn)
	return s, nil
}

// editPlan loads ref, applies fn and saves the result.
func editPlan(ctx context.Context, ref string, fn func(*model.Snapshot) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := st.Load(ctx, ref)
	if err != nil {
		return err
	}
	pipeline.Prepare(p)
	if err := fn(p); err != nil {
		return err
	}
	return st.Save(ctx, p)
}

func progress(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
