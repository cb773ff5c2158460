package pipeline

import (
	"testing"

	"github.com/graest/orcamento/internal/model"
)

// fullPlan fills every category to capacity over an 18-month schedule.
func fullPlan(b *testing.B) *model.Snapshot {
	b.Helper()
	s := twelveMonths()
	s.EndDate = s.StartDate.AddDate(0, 18, 0)
	for _, c := range model.Categories() {
		for i := 0; i < c.MaxItems(); i++ {
			var item model.LineItem
			switch c.Kind() {
			case model.KindPersonnel:
				item = model.PersonnelItem{BaseSalary: 4000 + float64(i), MonthlyCharges: 800}
			case model.KindOther:
				item = model.OtherItem{Quantity: 2, UnitCost: 350.5}
			default:
				item = model.EquipmentItem{Quantity: float64(i + 1), UnitCost: 1999.9}
			}
			if err := AddItem(s, c, item); err != nil {
				b.Fatal(err)
			}
		}
		AutoDistribute(s, c)
	}
	return s
}

func BenchmarkSummarize(b *testing.B) {
	s := fullPlan(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Summarize(s)
	}
}

func BenchmarkBuildSchedule(b *testing.B) {
	s := fullPlan(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BuildSchedule(s)
	}
}

func BenchmarkSetCell(b *testing.B) {
	s := fullPlan(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := SetCell(s, i%18+1, model.DirectStaff, 1000); err != nil {
			b.Fatal(err)
		}
	}
}
