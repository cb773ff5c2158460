package pipeline

import (
	"github.com/graest/orcamento/internal/model"

	"github.com/shopspring/decimal"
)

// Breakdown is the result of solving the overhead percentages for a base amount.
type Breakdown struct {
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
	ISS      float64 `json:"iss"`
	DOA      float64 `json:"doa"`
	Reserve  float64 `json:"reserva"`
}

// Solve grosses up base so that each overhead is its percentage of the total:
// total = base / (1 - iss - doa - reserve). When the percentages reach 100%
// combined, the total falls back to the base and overheads are zero.
func Solve(base float64, o model.OverheadConfig) Breakdown {
	iss, doa, reserve := o.Fractions()
	divisor := 1 - iss - doa - reserve
	if divisor <= 0 {
		return Breakdown{Subtotal: base, Total: base}
	}
	total := base / divisor
	return Breakdown{
		Subtotal: base,
		Total:    total,
		ISS:      total * iss,
		DOA:      total * doa,
		Reserve:  total * reserve,
	}
}

// Rounded returns the breakdown with every amount rounded to cents.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		Subtotal: roundCents(b.Subtotal),
		Total:    roundCents(b.Total),
		ISS:      roundCents(b.ISS),
		DOA:      roundCents(b.DOA),
		Reserve:  roundCents(b.Reserve),
	}
}

func roundCents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// CategoryCost is one row of the budget summary.
type CategoryCost struct {
	Category model.Category `json:"category"`
	Label    string         `json:"label"`
	Items    int            `json:"items"`
	Total    float64        `json:"total"`
}

// Summary is the whole-project budget view.
type Summary struct {
	DurationMonths int            `json:"duration_months"`
	Categories     []CategoryCost `json:"categories"`
	DirectCosts    float64        `json:"direct_costs"`
	Breakdown      Breakdown      `json:"breakdown"`
}

// Summarize totals every category and solves the overheads over the sum of all ten.
func Summarize(s *model.Snapshot) Summary {
	totals := CategoryTotals(s)

	sum := Summary{DurationMonths: s.Duration()}
	var subtotal float64
	for _, c := range model.Categories() {
		sum.Categories = append(sum.Categories, CategoryCost{
			Category: c,
			Label:    c.Label(),
			Items:    s.Len(c),
			Total:    totals[c],
		})
		subtotal += totals[c]
		if c.Direct() {
			sum.DirectCosts += totals[c]
		}
	}
	sum.Breakdown = Solve(subtotal, s.Overhead)
	return sum
}
