package cmd

import (
	"fmt"
	"os"

	"github.com/graest/orcamento/internal/cli"
	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/pipeline"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json|dir>",
	Short: "Import plan documents into the store",
	Long: "Import one JSON plan document, or every *.json document under a directory.\n" +
		"Imported plans replace stored plans with the same ID.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}

	var plans []*model.Snapshot
	if info.IsDir() {
		progress("  Scanning %s...\n", args[0])
		result, err := pipeline.Load(args[0], func(current, total int) {
			progress("\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
		})
		if err != nil {
			return err
		}
		if result.TotalFiles > 0 {
			progress("\n")
		}
		for _, ferr := range result.FileErrors {
			logger.Warn("skipped document", "err", ferr)
		}
		plans = result.Plans
	} else {
		p, err := pipeline.LoadFile(args[0])
		if err != nil {
			return err
		}
		plans = []*model.Snapshot{p}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	for _, p := range plans {
		if err := st.Save(cmd.Context(), p); err != nil {
			return fmt.Errorf("saving %s: %w", p.Nickname, err)
		}
	}
	fmt.Printf("  Imported %d plan(s)\n", len(plans))
	return nil
}
