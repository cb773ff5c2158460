// Package cmd implements the orcamento CLI commands.
package cmd

import (
	"fmt"

	"github.com/graest/orcamento/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Printf("  Config file: %s\n", path)
	if flagConfig != "" || config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Plan store: %s\n", config.StoreDSN(cfg))
	fmt.Println()

	fmt.Println("  [Overhead]")
	fmt.Printf("    ISS:     %.2f%%\n", cfg.Overhead.ISSPercent)
	fmt.Printf("    DOA:     %.2f%%\n", cfg.Overhead.DOAPercent)
	fmt.Printf("    Reserva: %.2f%%\n", cfg.Overhead.ReservePercent)
	fmt.Println()

	fmt.Println("  [Template]")
	fmt.Printf("    Template: %s\n", orUnset(cfg.Template.Path))
	fmt.Printf("    Source:   %s\n", orUnset(cfg.Template.SourcePath))
	fmt.Println()

	fmt.Println("  [Export]")
	fmt.Printf("    Output dir: %s\n", cfg.Export.OutputDir)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address: %s\n", cfg.Server.Addr)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s  Format: %s\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Println()

	fmt.Println("  Run `orcamento setup` to reconfigure.")
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "not configured"
	}
	return s
}
