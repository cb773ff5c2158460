package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/graest/orcamento/internal/cli"
	"github.com/graest/orcamento/internal/config"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	c := cfg
	iss := cli.FormatDecimal(c.Overhead.ISSPercent)
	doa := cli.FormatDecimal(c.Overhead.DOAPercent)
	reserve := cli.FormatDecimal(c.Overhead.ReservePercent)
	format := c.Log.Format

	percent := func(s string) error {
		v, err := cli.ParseAmount(s)
		if err != nil {
			return err
		}
		if v < 0 || v > 100 {
			return errors.New("must be between 0 and 100")
		}
		return nil
	}
	file := func(s string) error {
		if s == "" {
			return nil
		}
		if _, err := os.Stat(s); err != nil {
			return errors.New("file not found")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Institutional workbook").
				Description("The .xlsm/.xlsx the template is built from").
				Value(&c.Template.SourcePath).
				Validate(file),
			huh.NewInput().
				Title("Template path").
				Description("Where `orcamento template build` writes the tagged template").
				Value(&c.Template.Path),
			huh.NewInput().
				Title("Export directory").
				Value(&c.Export.OutputDir),
		),
		huh.NewGroup(
			huh.NewInput().Title("ISS %").Value(&iss).Validate(percent),
			huh.NewInput().Title("DOA %").Value(&doa).Validate(percent),
			huh.NewInput().Title("Reserva técnica %").Value(&reserve).Validate(percent),
		).Title("Default overheads for new plans"),
		huh.NewGroup(
			huh.NewInput().
				Title("Plan store").
				Description("SQLite path or postgres:// URL; empty for the default").
				Value(&c.General.StoreDSN),
			huh.NewInput().
				Title("Server address").
				Value(&c.Server.Addr),
			huh.NewSelect[string]().
				Title("Log format").
				Options(huh.NewOption("Text", "text"), huh.NewOption("JSON", "json")).
				Value(&format),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing saved.")
			return nil
		}
		return err
	}

	c.Overhead.ISSPercent, _ = cli.ParseAmount(iss)
	c.Overhead.DOAPercent, _ = cli.ParseAmount(doa)
	c.Overhead.ReservePercent, _ = cli.ParseAmount(reserve)
	c.Log.Format = format

	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	if err := config.SaveFile(path, c); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `orcamento setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
