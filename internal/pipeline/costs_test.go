package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/graest/orcamento/internal/model"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// twelveMonths returns a snapshot whose execution period spans 12 months.
func twelveMonths() *model.Snapshot {
	s := model.NewSnapshot()
	s.StartDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.EndDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return s
}

func TestSolve_InstitutionalDefaults(t *testing.T) {
	b := Solve(100_000, model.DefaultOverhead()).Rounded()

	if b.Total != 133_333.33 {
		t.Errorf("Total = %.2f, want 133333.33", b.Total)
	}
	if b.ISS != 6_666.67 {
		t.Errorf("ISS = %.2f, want 6666.67", b.ISS)
	}
	if b.DOA != 20_000.00 {
		t.Errorf("DOA = %.2f, want 20000.00", b.DOA)
	}
	if b.Reserve != 6_666.67 {
		t.Errorf("Reserve = %.2f, want 6666.67", b.Reserve)
	}
	if b.Subtotal != 100_000 {
		t.Errorf("Subtotal = %.2f, want 100000", b.Subtotal)
	}
}

func TestSolve_SubtotalIsTotalMinusOverheads(t *testing.T) {
	const subtotal = 87_654.32
	for iss := 0.0; iss < 40; iss += 3.5 {
		for doa := 0.0; doa < 40; doa += 4.25 {
			for res := 0.0; res < 19; res += 2 {
				o := model.OverheadConfig{ISSPercent: iss, DOAPercent: doa, ReservePercent: res}
				b := Solve(subtotal, o)
				sum := (iss + doa + res) / 100
				if got := b.Total*(1-sum) - subtotal; math.Abs(got) > 1e-9*b.Total {
					t.Fatalf("%+v: total*(1-sum) - subtotal = %g", o, got)
				}
				if !almostEqual(b.ISS+b.DOA+b.Reserve+subtotal, b.Total, 1e-6) {
					t.Fatalf("%+v: overheads + subtotal = %f, total %f", o, b.ISS+b.DOA+b.Reserve+subtotal, b.Total)
				}
			}
		}
	}
}

func TestSolve_DegenerateFallback(t *testing.T) {
	cases := []model.OverheadConfig{
		{ISSPercent: 50, DOAPercent: 50, ReservePercent: 0},
		{ISSPercent: 40, DOAPercent: 40, ReservePercent: 40},
		{ISSPercent: 100, DOAPercent: 100, ReservePercent: 100},
	}
	for _, o := range cases {
		b := Solve(1234.5, o)
		if b.Total != 1234.5 {
			t.Errorf("%+v: Total = %f, want subtotal", o, b.Total)
		}
		if b.ISS != 0 || b.DOA != 0 || b.Reserve != 0 {
			t.Errorf("%+v: overheads = %f/%f/%f, want zero", o, b.ISS, b.DOA, b.Reserve)
		}
	}
}

func TestCategoryTotal_Personnel(t *testing.T) {
	s := twelveMonths()
	if err := AddItem(s, model.DirectStaff, model.PersonnelItem{
		RoleName: "Pesquisador", BaseSalary: 3000, MonthlyCharges: 600,
	}); err != nil {
		t.Fatal(err)
	}
	if got := CategoryTotal(s, model.DirectStaff); got != 43_200 {
		t.Fatalf("DirectStaff total = %.2f, want 43200", got)
	}

	s.DirectStaff[0].HourlyCost = 0
	s.DirectStaff[0].TotalProjectHours = 1920
	if got := CategoryTotal(s, model.DirectStaff); got != 43_200 {
		t.Fatalf("DirectStaff total with hours = %.2f, want 43200", got)
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	items := []model.EquipmentItem{
		{Quantity: 2, UnitCost: 1500.10},
		{Quantity: 1, UnitCost: 0.3},
		{Quantity: 7, UnitCost: 12.5},
	}
	reversed := []model.EquipmentItem{items[2], items[1], items[0]}
	if a, b := Aggregate(items, 0), Aggregate(reversed, 0); !almostEqual(a, b, 1e-9) {
		t.Fatalf("Aggregate differs by order: %f vs %f", a, b)
	}
}

func TestSummarize(t *testing.T) {
	s := twelveMonths()
	_ = AddItem(s, model.Equipment, model.EquipmentItem{Quantity: 2, UnitCost: 25_000})
	_ = AddItem(s, model.Books, model.OtherItem{Quantity: 10, UnitCost: 100})
	_ = AddItem(s, model.IndirectStaff, model.PersonnelItem{BaseSalary: 3000, MonthlyCharges: 1000})

	sum := Summarize(s)
	if sum.DurationMonths != 12 {
		t.Errorf("DurationMonths = %d, want 12", sum.DurationMonths)
	}
	if len(sum.Categories) != model.NumCategories {
		t.Fatalf("Categories = %d rows, want %d", len(sum.Categories), model.NumCategories)
	}
	if sum.DirectCosts != 98_000 {
		t.Errorf("DirectCosts = %.2f, want 98000", sum.DirectCosts)
	}
	if sum.Breakdown.Subtotal != 99_000 {
		t.Errorf("Subtotal = %.2f, want 99000", sum.Breakdown.Subtotal)
	}
	if !almostEqual(sum.Breakdown.Total, 132_000, 1e-6) {
		t.Errorf("Total = %.4f, want 132000", sum.Breakdown.Total)
	}
}
