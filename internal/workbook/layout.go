// Package workbook fills the institutional budget template with plan data
// and builds that template from the institution's source workbook.
package workbook

import (
	"fmt"
	"strconv"

	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/tagmap"
)

// Sheet names of the institutional workbook.
const (
	SheetEquipment     = "I - Equipamentos"
	SheetLabs          = "II - Laboratórios"
	SheetDirectStaff   = "III - RH Direto"
	SheetIndirectStaff = "III - RH Indireto"
	SheetServices      = "IV - Serviços de Terceiros"
	SheetConsumables   = "V - Mat. Consumo"
	SheetBooks         = "VI - Outros - Livros Periódicos"
	SheetTraining      = "VI - Outros - Treinamentos"
	SheetTravel        = "VI - Outros - Viagens"
	SheetOther         = "VI - Outros Dispêndios"
	SheetSummary       = "14. Orçamento"
	SheetSchedule      = "15. Cronograma de Execução"
)

// headerRows is the number of title rows above the first item row.
const headerRows = 3

const firstItemRow = headerRows + 1

// itemSheet maps a category to its sheet and to the column of each tag
// field, in tagmap.Fields order.
type itemSheet struct {
	name     string
	category model.Category
	columns  []string
}

var (
	equipmentColumns = []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	otherColumns     = []string{"A", "B", "C", "D", "E"}
)

var itemSheets = []itemSheet{
	{SheetEquipment, model.Equipment, equipmentColumns},
	{SheetLabs, model.Labs, equipmentColumns},
	{SheetDirectStaff, model.DirectStaff, []string{"B", "C", "D", "F", "G"}},
	{SheetIndirectStaff, model.IndirectStaff, []string{"A", "B", "C", "E", "F"}},
	{SheetServices, model.ThirdPartyServices, equipmentColumns},
	{SheetConsumables, model.Consumables, equipmentColumns},
	{SheetBooks, model.Books, otherColumns},
	{SheetTraining, model.Training, otherColumns},
	{SheetTravel, model.Travel, otherColumns},
	{SheetOther, model.OtherExpenses, otherColumns},
}

func (s itemSheet) lastRow() int { return firstItemRow + s.category.MaxItems() - 1 }

// rowFormula is a per-row formula written into one column over a row range.
// pattern references the row twice.
type rowFormula struct {
	sheet       string
	first, last int
	column      string
	pattern     string
}

func (f rowFormula) formula(row int) string {
	return fmt.Sprintf(f.pattern, row, row)
}

// injectedFormulas are the line totals the source workbook computed with
// macros. Every export rewrites them.
var injectedFormulas = []rowFormula{
	{SheetEquipment, 4, 17, "I", "G%d*H%d"},
	{SheetLabs, 4, 6, "I", "G%d*H%d"},
	{SheetDirectStaff, 4, 25, "E", "C%d+D%d"},
	{SheetIndirectStaff, 4, 9, "D", "B%d+C%d"},
	{SheetServices, 4, 6, "I", "G%d*H%d"},
	{SheetConsumables, 4, 8, "I", "G%d*H%d"},
	{SheetBooks, 4, 9, "F", "D%d*E%d"},
	{SheetTraining, 4, 9, "F", "D%d*E%d"},
	{SheetTravel, 4, 9, "F", "D%d*E%d"},
	{SheetOther, 4, 8, "F", "D%d*E%d"},
}

// personnelTotal describes the project total column of a personnel sheet.
// It holds (salary + charges) × months as a number when either is set,
// and hourly cost × hours as a formula otherwise.
type personnelTotal struct {
	sheet    string
	category model.Category
	column   string
	fallback string
}

var personnelTotals = []personnelTotal{
	{SheetDirectStaff, model.DirectStaff, "H", "F%d*G%d"},
	{SheetIndirectStaff, model.IndirectStaff, "G", "E%d*F%d"},
}

// Summary sheet cells holding the overhead percentages.
var summaryTags = []struct {
	cell string
	tag  string
}{
	{"D16", tagmap.TagISS},
	{"D19", tagmap.TagDOA},
	{"D20", tagmap.TagReserve},
}

// The summary sheet's labs line points at the labs total row, which moves
// from row 5 to row 7 once the labs sheet holds three item rows.
const (
	summaryLabsCell    = "C6"
	summaryLabsFormula = "'" + SheetLabs + "'!$I$7"
	labsTotalCell      = "I7"
	labsTotalFormula   = "SUM(I4:I6)"
)

// Schedule grid: month 1 is column E, month 18 is column V.
const scheduleFirstColumn = 5

var scheduleRows = [model.NumCategories]int{
	model.Equipment:          10,
	model.Labs:               11,
	model.DirectStaff:        12,
	model.IndirectStaff:      13,
	model.ThirdPartyServices: 14,
	model.Consumables:        15,
	model.Books:              18,
	model.Training:           19,
	model.Travel:             20,
	model.OtherExpenses:      22,
}

func placeholder(tag string) string { return "{" + tag + "}" }

func cellRef(col string, row int) string { return col + strconv.Itoa(row) }
