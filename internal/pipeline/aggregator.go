// Package pipeline computes category totals, overhead breakdowns and the
// monthly distribution schedule from a budget snapshot.
package pipeline

import (
	"github.com/graest/orcamento/internal/model"
)

// Aggregate sums the cost of every item over the project duration.
func Aggregate[T model.LineItem](items []T, durationMonths int) float64 {
	var total float64
	for _, it := range items {
		total += it.Cost(durationMonths)
	}
	return total
}

// CategoryTotal computes the budgeted value of one category.
func CategoryTotal(s *model.Snapshot, c model.Category) float64 {
	return Aggregate(s.Items(c), s.Duration())
}

// CategoryTotals computes every category total, indexed by category.
func CategoryTotals(s *model.Snapshot) [model.NumCategories]float64 {
	var totals [model.NumCategories]float64
	months := s.Duration()
	for _, c := range model.Categories() {
		totals[c] = Aggregate(s.Items(c), months)
	}
	return totals
}
