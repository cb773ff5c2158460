package cmd

import (
	"fmt"

	"github.com/graest/orcamento/internal/workbook"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Build and inspect the workbook template",
}

var templateBuildCmd = &cobra.Command{
	Use:   "build [source.xlsx] [template.xlsx]",
	Short: "Turn the institutional workbook into a tagged template",
	Long: "Read the institutional workbook, expand the labs section, write a {tag}\n" +
		"placeholder into every input cell and save the template. Paths default to\n" +
		"template.source_path and template.path from the config.",
	Args: cobra.MaximumNArgs(2),
	RunE: runTemplateBuild,
}

var templateTagsCmd = &cobra.Command{
	Use:   "tags [template.xlsx]",
	Short: "List the placeholders present in a template",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplateTags,
}

func init() {
	templateCmd.AddCommand(templateBuildCmd, templateTagsCmd)
	rootCmd.AddCommand(templateCmd)
}

func runTemplateBuild(_ *cobra.Command, args []string) error {
	in, out := cfg.Template.SourcePath, cfg.Template.Path
	if len(args) > 0 {
		in = args[0]
	}
	if len(args) > 1 {
		out = args[1]
	}
	if in == "" || out == "" {
		return fmt.Errorf("source and template paths are required")
	}

	report, err := workbook.AuthorFile(in, out)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n  Saved %s\n", report, out)
	return nil
}

func runTemplateTags(_ *cobra.Command, args []string) error {
	path := cfg.Template.Path
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no template path")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	tags, err := workbook.Placeholders(f)
	if err != nil {
		return err
	}
	for _, t := range tags {
		fmt.Println(t)
	}
	progress("  %d placeholders\n", len(tags))
	return nil
}
