package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/graest/orcamento/internal/model"
)

// ErrMonthOutOfRange is returned when a schedule edit targets a month outside 1..duration.
var ErrMonthOutOfRange = errors.New("month outside project duration")

// ReconcileTolerance is the default absolute difference, in currency units,
// under which a schedule row counts as fully distributed.
const ReconcileTolerance = 0.01

// Reconciled applies ReconcileTolerance to a Check result.
func Reconciled(check float64) bool {
	return math.Abs(check) < ReconcileTolerance
}

// SetCell writes value into one month of a category row, clamped to
// [0, categoryTotal - sumOfOtherMonths]. It returns the value actually stored.
func SetCell(s *model.Snapshot, month int, c model.Category, value float64) (float64, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("set cell: unknown category %d", int(c))
	}
	n := s.Duration()
	if month < 1 || month > n {
		return 0, fmt.Errorf("month %d of %d: %w", month, n, ErrMonthOutOfRange)
	}

	normalizeSchedule(s, n)
	total := CategoryTotal(s, c)
	reclampCategory(s, c, total)

	var others float64
	for _, m := range s.Schedule {
		if m.Month != month {
			others += m.Amount(c)
		}
	}

	applied := model.NonNegative(value)
	if headroom := math.Max(total-others, 0); applied > headroom {
		applied = headroom
	}
	s.Schedule[month-1].Amounts[c] = applied
	return applied, nil
}

// ClearRow zeroes every month of a category row.
func ClearRow(s *model.Snapshot, c model.Category) {
	normalizeSchedule(s, s.Duration())
	for i := range s.Schedule {
		s.Schedule[i].Amounts[c] = 0
	}
}

// AutoDistribute spreads the category total evenly over every project month.
// It does nothing when the duration or the total is not positive.
func AutoDistribute(s *model.Snapshot, c model.Category) {
	n := s.Duration()
	total := CategoryTotal(s, c)
	if n <= 0 || total <= 0 {
		return
	}
	normalizeSchedule(s, n)
	perMonth := total / float64(n)
	for i := range s.Schedule {
		s.Schedule[i].Amounts[c] = perMonth
	}
	// Summing n equal shares can overshoot by an ulp; the last month absorbs it.
	reclampCategory(s, c, total)
}

// Distributed sums a category over every month of the schedule.
func Distributed(s *model.Snapshot, c model.Category) float64 {
	var sum float64
	for _, m := range s.Schedule {
		sum += m.Amount(c)
	}
	return sum
}

// Check is the budgeted total minus what has been distributed so far.
func Check(s *model.Snapshot, c model.Category) float64 {
	return CategoryTotal(s, c) - Distributed(s, c)
}

// Reclamp restores the schedule invariant after category totals change.
// Months are walked in order; earlier months keep their values and later
// months are trimmed to whatever headroom remains.
func Reclamp(s *model.Snapshot) {
	sort.SliceStable(s.Schedule, func(i, j int) bool {
		return s.Schedule[i].Month < s.Schedule[j].Month
	})
	totals := CategoryTotals(s)
	for _, c := range model.Categories() {
		reclampCategory(s, c, totals[c])
	}
}

func reclampCategory(s *model.Snapshot, c model.Category, total float64) {
	var running float64
	for i := range s.Schedule {
		v, ok := s.Schedule[i].Amounts[c]
		if !ok {
			continue
		}
		clamped := model.NonNegative(v)
		if headroom := math.Max(total-running, 0); clamped > headroom {
			clamped = headroom
		}
		if clamped != v {
			s.Schedule[i].Amounts[c] = clamped
		}
		running += clamped
	}
}

// normalizeSchedule rewrites the schedule as exactly months 1..n, keeping
// existing values and dropping months past the duration.
func normalizeSchedule(s *model.Snapshot, n int) {
	byMonth := make(map[int]model.MonthlyAllocation, len(s.Schedule))
	for _, m := range s.Schedule {
		byMonth[m.Month] = m
	}
	out := make([]model.MonthlyAllocation, 0, n)
	for month := 1; month <= n; month++ {
		m, ok := byMonth[month]
		if !ok {
			m = model.MonthlyAllocation{Month: month}
		}
		if m.Amounts == nil {
			m.Amounts = make(map[model.Category]float64)
		}
		out = append(out, m)
	}
	s.Schedule = out
}

// MonthTotals holds the derived summary rows for one month, or for the
// whole project when computed from category totals.
type MonthTotals struct {
	Month         int       `json:"month"`
	DirectCosts   float64   `json:"direct_costs"`
	OtherSubtotal float64   `json:"other_subtotal"`
	TotalIToVI    float64   `json:"total_i_to_vi"`
	Breakdown     Breakdown `json:"breakdown"`
}

// MonthDerived computes the summary rows of a single schedule month.
func MonthDerived(m model.MonthlyAllocation, o model.OverheadConfig) MonthTotals {
	t := deriveTotals(m.Amount, o)
	t.Month = m.Month
	return t
}

func deriveTotals(amount func(model.Category) float64, o model.OverheadConfig) MonthTotals {
	var t MonthTotals
	var others float64
	for _, c := range model.Categories() {
		if c.Direct() {
			t.DirectCosts += amount(c)
		} else {
			others += amount(c)
		}
	}
	t.Breakdown = Solve(t.DirectCosts+others, o)
	t.OtherSubtotal = others + t.Breakdown.ISS
	t.TotalIToVI = t.DirectCosts + t.OtherSubtotal
	return t
}

// ScheduleRow is one line of the schedule view.
type ScheduleRow struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Category    model.Category `json:"-"`
	Editable    bool           `json:"editable"`
	Summary     bool           `json:"summary"`
	Indent      bool           `json:"indent"`
	Budgeted    float64        `json:"budgeted"`
	Months      []float64      `json:"months"`
	Distributed float64        `json:"distributed"`
	Check       float64        `json:"check"`
}

// Schedule is the full monthly view in template row order.
type Schedule struct {
	DurationMonths int           `json:"duration_months"`
	Rows           []ScheduleRow `json:"rows"`
	Months         []MonthTotals `json:"months"`
	Project        MonthTotals   `json:"project"`
}

type rowSpec struct {
	id       string
	label    string
	category model.Category
	editable bool
	summary  bool
	indent   bool
	derived  func(MonthTotals) float64
}

func categoryRow(id string, c model.Category, indent bool) rowSpec {
	return rowSpec{id: id, label: c.Label(), category: c, editable: true, indent: indent}
}

var scheduleRows = []rowSpec{
	categoryRow("equip", model.Equipment, false),
	categoryRow("lab", model.Labs, false),
	categoryRow("rhd", model.DirectStaff, false),
	categoryRow("rhi", model.IndirectStaff, false),
	categoryRow("st", model.ThirdPartyServices, false),
	categoryRow("mc", model.Consumables, false),
	{id: "total-i-v", label: "Total Dispêndios (I a V)", summary: true,
		derived: func(t MonthTotals) float64 { return t.DirectCosts }},
	{id: "vi-subtotal", label: "VI - Outros disp. correlatos", summary: true,
		derived: func(t MonthTotals) float64 { return t.OtherSubtotal }},
	categoryRow("livros", model.Books, true),
	categoryRow("trein", model.Training, true),
	categoryRow("viagens", model.Travel, true),
	{id: "iss", label: "ISS", indent: true,
		derived: func(t MonthTotals) float64 { return t.Breakdown.ISS }},
	categoryRow("outros", model.OtherExpenses, true),
	{id: "total-i-vi", label: "Total Dispêndios (I a VI)", summary: true,
		derived: func(t MonthTotals) float64 { return t.TotalIToVI }},
	{id: "doa", label: "DOA", summary: true,
		derived: func(t MonthTotals) float64 { return t.Breakdown.DOA }},
	{id: "reserva", label: "Reserva Técnica", summary: true,
		derived: func(t MonthTotals) float64 { return t.Breakdown.Reserve }},
	{id: "total", label: "Total", summary: true,
		derived: func(t MonthTotals) float64 { return t.Breakdown.Total }},
}

// BuildSchedule renders the schedule view for months 1..duration.
func BuildSchedule(s *model.Snapshot) Schedule {
	n := s.Duration()
	totals := CategoryTotals(s)

	byMonth := make(map[int]model.MonthlyAllocation, len(s.Schedule))
	for _, m := range s.Schedule {
		byMonth[m.Month] = m
	}
	alloc := make([]model.MonthlyAllocation, n)
	for i := range alloc {
		alloc[i] = byMonth[i+1]
		alloc[i].Month = i + 1
	}

	view := Schedule{
		DurationMonths: n,
		Project:        deriveTotals(func(c model.Category) float64 { return totals[c] }, s.Overhead),
		Months:         make([]MonthTotals, n),
	}
	for i, m := range alloc {
		view.Months[i] = MonthDerived(m, s.Overhead)
	}

	for _, spec := range scheduleRows {
		row := ScheduleRow{
			ID:       spec.id,
			Label:    spec.label,
			Category: spec.category,
			Editable: spec.editable,
			Summary:  spec.summary,
			Indent:   spec.indent,
			Months:   make([]float64, n),
		}
		if spec.editable {
			row.Budgeted = totals[spec.category]
		} else {
			row.Budgeted = spec.derived(view.Project)
		}
		for i := range alloc {
			if spec.editable {
				row.Months[i] = alloc[i].Amount(spec.category)
			} else {
				row.Months[i] = spec.derived(view.Months[i])
			}
			row.Distributed += row.Months[i]
		}
		row.Check = row.Budgeted - row.Distributed
		view.Rows = append(view.Rows, row)
	}
	return view
}
