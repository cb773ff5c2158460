package cmd

import (
	"fmt"

	"github.com/graest/orcamento/internal/cli"
	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/pipeline"

	"github.com/spf13/cobra"
)

var overheadFlags struct {
	iss     string
	doa     string
	reserve string
}

var overheadCmd = &cobra.Command{
	Use:   "overhead <plan>",
	Short: "Set the ISS, DOA and technical reserve percentages",
	Long: "Set overhead percentages, each clamped to 0..100. Flags left out keep\n" +
		"their current value. When the three add up to 100% or more, overheads\n" +
		"are treated as zero and the total equals the subtotal.",
	Args: cobra.ExactArgs(1),
	RunE: runOverhead,
}

func init() {
	overheadCmd.Flags().StringVar(&overheadFlags.iss, "iss", "", "ISS percent")
	overheadCmd.Flags().StringVar(&overheadFlags.doa, "doa", "", "DOA percent")
	overheadCmd.Flags().StringVar(&overheadFlags.reserve, "reserve", "", "Technical reserve percent")
	rootCmd.AddCommand(overheadCmd)
}

func runOverhead(cmd *cobra.Command, args []string) error {
	return editPlan(cmd.Context(), args[0], func(p *model.Snapshot) error {
		o := p.Overhead
		for _, f := range []struct {
			flag string
			dst  *float64
		}{
			{overheadFlags.iss, &o.ISSPercent},
			{overheadFlags.doa, &o.DOAPercent},
			{overheadFlags.reserve, &o.ReservePercent},
		} {
			if f.flag == "" {
				continue
			}
			v, err := cli.ParseAmount(f.flag)
			if err != nil {
				return err
			}
			*f.dst = v
		}
		pipeline.SetOverhead(p, o)

		iss, doa, reserve := p.Overhead.Fractions()
		b := pipeline.Summarize(p).Breakdown.Rounded()
		fmt.Printf("  ISS %s  DOA %s  Reserva %s\n",
			cli.FormatPercent(iss), cli.FormatPercent(doa), cli.FormatPercent(reserve))
		if iss+doa+reserve >= 1 {
			fmt.Println(cli.Muted("  Overheads add up to 100% or more and are ignored."))
		}
		fmt.Printf("  Total %s\n", cli.FormatBRL(b.Total))
		return nil
	})
}
