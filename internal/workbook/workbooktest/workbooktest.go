// Package workbooktest builds synthetic institutional workbooks for tests.
// The workbooks follow the real layout closely enough to exercise the
// authoring tool and the materializer: same sheet names, header rows, data
// rows, total rows, and a mix of plain and shared formulas.
package workbooktest

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet names, duplicated here so the fixture stays independent of the
// package under test.
const (
	equipment     = "I - Equipamentos"
	labs          = "II - Laboratórios"
	directStaff   = "III - RH Direto"
	indirectStaff = "III - RH Indireto"
	services      = "IV - Serviços de Terceiros"
	consumables   = "V - Mat. Consumo"
	books         = "VI - Outros - Livros Periódicos"
	training      = "VI - Outros - Treinamentos"
	travel        = "VI - Outros - Viagens"
	other         = "VI - Outros Dispêndios"
	summary       = "14. Orçamento"
	schedule      = "15. Cronograma de Execução"
)

// Cells outside every per-row formula range that hold formulas. Tests use
// them to check formulas survive untouched.
const (
	EquipmentTotalCell    = "I18"
	EquipmentTotalFormula = "SUM(I4:I17)"
	SummaryTotalCell      = "C22"
	SummaryTotalFormula   = "SUM(C5:C21)"
	ScheduleTotalRow      = 16 // shared SUM over E16:V16
)

var (
	equipmentHeader = []string{"Nome", "Atividade", "Descrição", "Justificativa", "Se mais de um", "Tipo", "Qtde", "Custo unitário", "Custo total"}
	otherHeader     = []string{"Descrição", "Justificativa", "Tipo", "Qtde", "Custo unitário", "Custo total"}
)

type sheetSpec struct {
	name   string
	header []string
	rows   int // item rows starting at row 4
	// formula column and pattern per item row; shared marks a shared group
	formulaCol string
	pattern    string
	shared     bool
}

var sheets = []sheetSpec{
	{equipment, equipmentHeader, 14, "I", "G%d*H%d", true},
	{labs, equipmentHeader, 1, "I", "G%d*H%d", false},
	{directStaff, []string{"Nome", "Cargo", "Salário base", "Encargos", "Custo/mês", "Custo hora", "Total horas", "Custo total"}, 22, "E", "C%d+D%d", true},
	{indirectStaff, []string{"Cargo", "Salário base", "Encargos", "Custo/mês", "Custo hora", "Total horas", "Custo total"}, 6, "D", "B%d+C%d", false},
	{services, equipmentHeader, 3, "I", "G%d*H%d", false},
	{consumables, equipmentHeader, 5, "", "", false},
	{books, otherHeader, 6, "F", "D%d*E%d", true},
	{training, otherHeader, 6, "F", "D%d*E%d", false},
	{travel, otherHeader, 6, "", "", false},
	{other, otherHeader, 5, "F", "D%d*E%d", false},
}

// Options trims the fixture.
type Options struct {
	// Omit lists sheet names left out of the workbook.
	Omit []string
}

// SourceWorkbook returns a new institutional workbook. The caller closes it.
func SourceWorkbook(opts Options) (*excelize.File, error) {
	omit := make(map[string]bool, len(opts.Omit))
	for _, name := range opts.Omit {
		omit[name] = true
	}

	f := excelize.NewFile()
	first := true
	add := func(name string) error {
		if first {
			first = false
			return f.SetSheetName("Sheet1", name)
		}
		_, err := f.NewSheet(name)
		return err
	}

	for _, spec := range sheets {
		if omit[spec.name] {
			continue
		}
		if err := add(spec.name); err != nil {
			return nil, err
		}
		if err := fillItemSheet(f, spec); err != nil {
			return nil, fmt.Errorf("%s: %w", spec.name, err)
		}
	}
	if !omit[summary] {
		if err := add(summary); err != nil {
			return nil, err
		}
		if err := fillSummary(f); err != nil {
			return nil, fmt.Errorf("%s: %w", summary, err)
		}
	}
	if !omit[schedule] {
		if err := add(schedule); err != nil {
			return nil, err
		}
		if err := fillSchedule(f); err != nil {
			return nil, fmt.Errorf("%s: %w", schedule, err)
		}
	}
	if first {
		return nil, fmt.Errorf("every sheet omitted")
	}
	return f, nil
}

// Template returns a source workbook run through author, serialized.
func Template(author func(*excelize.File) error, opts Options) ([]byte, error) {
	f, err := SourceWorkbook(opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	if err := author(f); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fillItemSheet(f *excelize.File, spec sheetSpec) error {
	if err := f.SetCellStr(spec.name, "A1", spec.name); err != nil {
		return err
	}
	if err := f.SetSheetRow(spec.name, "A3", &spec.header); err != nil {
		return err
	}
	if err := f.SetColWidth(spec.name, "A", "D", 30); err != nil {
		return err
	}

	last := 3 + spec.rows
	if spec.formulaCol != "" {
		if spec.shared {
			ref := fmt.Sprintf("%s4:%s%d", spec.formulaCol, spec.formulaCol, last)
			kind := excelize.STCellFormulaTypeShared
			if err := f.SetCellFormula(spec.name, spec.formulaCol+"4", fmt.Sprintf(spec.pattern, 4, 4),
				excelize.FormulaOpts{Type: &kind, Ref: &ref}); err != nil {
				return err
			}
		} else {
			for row := 4; row <= last; row++ {
				cell := fmt.Sprintf("%s%d", spec.formulaCol, row)
				if err := f.SetCellFormula(spec.name, cell, fmt.Sprintf(spec.pattern, row, row)); err != nil {
					return err
				}
			}
		}
	}

	totalCol := spec.formulaCol
	if totalCol == "" {
		totalCol = "I"
	}
	total := fmt.Sprintf("%s%d", totalCol, last+1)
	if err := f.SetCellStr(spec.name, fmt.Sprintf("A%d", last+1), "TOTAL"); err != nil {
		return err
	}
	if err := f.SetCellFormula(spec.name, total, fmt.Sprintf("SUM(%s4:%s%d)", totalCol, totalCol, last)); err != nil {
		return err
	}

	if spec.name == labs {
		return f.SetCellStr(labs, "A4", "Modernização de laboratório")
	}
	return nil
}

func fillSummary(f *excelize.File) error {
	cells := []struct {
		cell  string
		value any
	}{
		{"A1", "Orçamento consolidado"},
		{"B5", "I - Equipamentos"},
		{"B6", "II - Laboratórios"},
		{"B16", "ISS"},
		{"B19", "DOA"},
		{"B20", "Reserva técnica"},
		{"D16", 0.05},
		{"D19", 0.15},
		{"D20", 0.05},
	}
	for _, c := range cells {
		if err := f.SetCellValue(summary, c.cell, c.value); err != nil {
			return err
		}
	}
	formulas := [][2]string{
		{"C5", "'" + equipment + "'!$I$18"},
		{"C6", "'" + labs + "'!$I$5"},
		{SummaryTotalCell, SummaryTotalFormula},
	}
	for _, fm := range formulas {
		if err := f.SetCellFormula(summary, fm[0], fm[1]); err != nil {
			return err
		}
	}
	return nil
}

func fillSchedule(f *excelize.File) error {
	labels := map[int]string{
		10: "I - Equipamentos", 11: "II - Laboratórios", 12: "III - RH Direto",
		13: "III - RH Indireto", 14: "IV - Serviços de Terceiros", 15: "V - Material de Consumo",
		16: "Total (I a V)", 17: "VI - Outros", 18: "Livros e periódicos", 19: "Treinamentos",
		20: "Viagens", 21: "ISS", 22: "Outros dispêndios",
	}
	if err := f.SetCellStr(schedule, "A1", "Cronograma de execução"); err != nil {
		return err
	}
	for row, label := range labels {
		if err := f.SetCellStr(schedule, fmt.Sprintf("A%d", row), label); err != nil {
			return err
		}
	}
	for month := 1; month <= 18; month++ {
		cell, _ := excelize.CoordinatesToCellName(4+month, 9)
		if err := f.SetCellValue(schedule, cell, fmt.Sprintf("Mês %d", month)); err != nil {
			return err
		}
	}
	ref := fmt.Sprintf("E%d:V%d", ScheduleTotalRow, ScheduleTotalRow)
	kind := excelize.STCellFormulaTypeShared
	return f.SetCellFormula(schedule, fmt.Sprintf("E%d", ScheduleTotalRow), "SUM(E10:E15)",
		excelize.FormulaOpts{Type: &kind, Ref: &ref})
}
