package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/graest/orcamento/internal/cli"
	"github.com/graest/orcamento/internal/export"

	"github.com/spf13/cobra"
)

var (
	exportOutput   string
	exportTemplate string
)

var exportCmd = &cobra.Command{
	Use:   "export <plan>",
	Short: "Fill the financial workbook template for a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default <export.output_dir>/financeiro-<plan>.xlsx)")
	exportCmd.Flags().StringVar(&exportTemplate, "template", "", "Template workbook (default template.path from config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	tpl := exportTemplate
	if tpl == "" {
		tpl = cfg.Template.Path
	}
	if tpl == "" {
		return fmt.Errorf("no template: pass --template or run `orcamento template build`")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	progress("  Filling %s...\n", filepath.Base(tpl))
	ex := &export.Exporter{Plans: st, TemplatePath: tpl, Logger: logger}
	var out string
	res, err := ex.ExportTo(cmd.Context(), args[0], func(res *export.Result) error {
		out = exportOutput
		if out == "" {
			out = filepath.Join(cfg.Export.OutputDir, res.Filename)
		}
		if err := os.WriteFile(out, res.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("  Wrote %s (%s bytes, total %s)\n",
		out, cli.FormatNumber(int64(len(res.Data))), cli.FormatBRL(res.Record.Total))
	return nil
}
