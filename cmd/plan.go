package cmd

import (
	"fmt"
	"time"

	"github.com/graest/orcamento/internal/cli"
	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/pipeline"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var (
	newNickname string
	newTitle    string
	newStart    string
	newEnd      string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty plan",
	Args:  cobra.NoArgs,
	RunE:  runNew,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored plans",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <plan>",
	Short: "Delete a plan and its export history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var datesCmd = &cobra.Command{
	Use:   "dates <plan> <start> <end>",
	Short: "Change the execution period (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(3),
	RunE:  runDates,
}

func init() {
	newCmd.Flags().StringVar(&newNickname, "nickname", "", "Short plan name, used for the export filename")
	newCmd.Flags().StringVar(&newTitle, "title", "", "Project title")
	newCmd.Flags().StringVar(&newStart, "start", "", "Start date (YYYY-MM-DD)")
	newCmd.Flags().StringVar(&newEnd, "end", "", "End date (YYYY-MM-DD)")
	_ = newCmd.MarkFlagRequired("nickname")

	rootCmd.AddCommand(newCmd, listCmd, deleteCmd, datesCmd)
}

func runNew(cmd *cobra.Command, _ []string) error {
	p := model.NewSnapshot()
	p.Nickname = newNickname
	p.Title = newTitle
	p.Overhead = cfg.DefaultOverhead()

	start, err := parseDateArg(newStart)
	if err != nil {
		return err
	}
	end, err := parseDateArg(newEnd)
	if err != nil {
		return err
	}
	if err := pipeline.SetDates(p, start, end); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	if err := st.Save(cmd.Context(), p); err != nil {
		return err
	}

	fmt.Printf("  Created %s (%s), %d months\n", p.Nickname, p.ID, p.Duration())
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	plans, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Println("\n  No plans yet. Create one with `orcamento new --nickname <name>`.")
		return nil
	}

	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, []string{
			p.Nickname,
			p.Title,
			cli.FormatDate(p.StartDate),
			cli.FormatDate(p.EndDate),
			cli.Muted(shortID(p.ID)),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Plan", "Title", "Start", "End", "ID"},
		Rows:    rows,
	}))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	p, err := st.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := st.Delete(cmd.Context(), p.ID); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s\n", p.Nickname)
	return nil
}

func runDates(cmd *cobra.Command, args []string) error {
	start, err := parseDateArg(args[1])
	if err != nil {
		return err
	}
	end, err := parseDateArg(args[2])
	if err != nil {
		return err
	}
	return editPlan(cmd.Context(), args[0], func(p *model.Snapshot) error {
		if err := pipeline.SetDates(p, start, end); err != nil {
			return err
		}
		fmt.Printf("  %s now runs %d months\n", p.Nickname, p.Duration())
		return nil
	})
}

func parseDateArg(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
