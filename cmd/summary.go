package cmd

import (
	"fmt"

	"github.com/graest/orcamento/internal/cli"
	"github.com/graest/orcamento/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <plan>",
	Short: "Budget summary with overheads",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
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
	sum := pipeline.Summarize(p)
	b := sum.Breakdown.Rounded()

	title := p.Nickname
	if p.Title != "" {
		title += "  " + p.Title
	}
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Printf("  %s to %s, %d months\n\n", cli.FormatDate(p.StartDate), cli.FormatDate(p.EndDate), sum.DurationMonths)

	rows := make([][]string, 0, len(sum.Categories)+8)
	for _, c := range sum.Categories {
		rows = append(rows, []string{
			c.Label,
			fmt.Sprintf("%d/%d", c.Items, c.Category.MaxItems()),
			cli.FormatBRL(c.Total),
			cli.RenderShareBar(c.Total, b.Subtotal, 12),
		})
	}
	iss, doa, reserve := p.Overhead.Fractions()
	rows = append(rows,
		[]string{"---"},
		[]string{"Custos diretos (I a V)", "", cli.FormatBRL(sum.DirectCosts), ""},
		[]string{"Subtotal", "", cli.FormatBRL(b.Subtotal), ""},
		[]string{"ISS " + cli.FormatPercent(iss), "", cli.FormatBRL(b.ISS), ""},
		[]string{"DOA " + cli.FormatPercent(doa), "", cli.FormatBRL(b.DOA), ""},
		[]string{"Reserva técnica " + cli.FormatPercent(reserve), "", cli.FormatBRL(b.Reserve), ""},
		[]string{"---"},
		[]string{"Total", "", cli.FormatBRL(b.Total), ""},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Categoria", "Itens", "Valor", "Parcela"},
		Rows:    rows,
	}))
	return nil
}
