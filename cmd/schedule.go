package cmd

import (
	"fmt"
	"strconv"

	"github.com/graest/orcamento/internal/cli"
	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/pipeline"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <plan>",
	Short: "Show the monthly disbursement schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set <plan> <category> <month> <amount>",
	Short: "Set one month of a category, clamped to what is left to distribute",
	Args:  cobra.ExactArgs(4),
	RunE:  runScheduleSet,
}

var scheduleClearCmd = &cobra.Command{
	Use:   "clear <plan> <category>",
	Short: "Zero every month of a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runScheduleClear,
}

var scheduleAutoCmd = &cobra.Command{
	Use:   "auto <plan> [category...]",
	Short: "Spread category totals evenly across the project months",
	Long:  "Spread each named category, or every category when none is given, evenly over the project.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScheduleAuto,
}

func init() {
	scheduleCmd.AddCommand(scheduleSetCmd, scheduleClearCmd, scheduleAutoCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	pipeline.Prepare(p)
	view := pipeline.BuildSchedule(p)
	if view.DurationMonths == 0 {
		fmt.Println("\n  Set the plan dates first: `orcamento dates <plan> <start> <end>`.")
		return nil
	}

	// One sparkline per row; the exported workbook has the full grid.
	rows := make([][]string, 0, len(view.Rows))
	indent := make(map[int]bool)
	for i, r := range view.Rows {
		if r.Indent {
			indent[i] = true
		}
		check := cli.FormatBRL(r.Check)
		if r.Editable {
			check = cli.RenderStatus(check, r.Check, pipeline.Reconciled(r.Check))
		}
		rows = append(rows, []string{
			r.Label,
			cli.FormatBRL(r.Budgeted),
			cli.FormatBRL(r.Distributed),
			check,
			cli.RenderSparkline(r.Months),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Cronograma  %s  (%d meses)", p.Nickname, view.DurationMonths),
		Headers: []string{"Linha", "Orçado", "Distribuído", "Verificação", "Meses"},
		Rows:    rows,
		Indent:  indent,
	}))
	return nil
}

func runScheduleSet(cmd *cobra.Command, args []string) error {
	c, err := model.ParseCategory(args[1])
	if err != nil {
		return err
	}
	month, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid month %q", args[2])
	}
	amount, err := cli.ParseAmount(args[3])
	if err != nil {
		return err
	}
	return editPlan(cmd.Context(), args[0], func(p *model.Snapshot) error {
		stored, err := pipeline.SetCell(p, month, c, amount)
		if err != nil {
			return err
		}
		if stored != amount {
			fmt.Println(cli.Muted(fmt.Sprintf("  Clamped %s to %s", cli.FormatBRL(amount), cli.FormatBRL(stored))))
		}
		printCheck(p, c)
		return nil
	})
}

func runScheduleClear(cmd *cobra.Command, args []string) error {
	c, err := model.ParseCategory(args[1])
	if err != nil {
		return err
	}
	return editPlan(cmd.Context(), args[0], func(p *model.Snapshot) error {
		pipeline.ClearRow(p, c)
		printCheck(p, c)
		return nil
	})
}

func runScheduleAuto(cmd *cobra.Command, args []string) error {
	cats := model.Categories()
	if len(args) > 1 {
		cats = cats[:0]
		for _, key := range args[1:] {
			c, err := model.ParseCategory(key)
			if err != nil {
				return err
			}
			cats = append(cats, c)
		}
	}
	return editPlan(cmd.Context(), args[0], func(p *model.Snapshot) error {
		if p.Duration() == 0 {
			return fmt.Errorf("%s has no execution period", p.Nickname)
		}
		for _, c := range cats {
			pipeline.AutoDistribute(p, c)
			printCheck(p, c)
		}
		return nil
	})
}

func printCheck(p *model.Snapshot, c model.Category) {
	check := pipeline.Check(p, c)
	fmt.Printf("  %-28s distributed %s of %s, check %s\n",
		c.Label(),
		cli.FormatBRL(pipeline.Distributed(p, c)),
		cli.FormatBRL(pipeline.CategoryTotal(p, c)),
		cli.RenderStatus(cli.FormatBRL(check), check, pipeline.Reconciled(check)))
}
