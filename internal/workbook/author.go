package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/graest/orcamento/internal/model"
	"github.com/graest/orcamento/internal/tagmap"
)

// Report summarizes a template authoring run.
type Report struct {
	Inserted     int      // placeholders written by this run
	Placeholders int      // placeholder cells present in the finished template
	Skipped      []string // expected sheets missing from the source workbook
}

// AuthorFile builds a template from the source workbook at in and saves it
// to out. The source may be a macro-enabled workbook; out should end in .xlsx.
func AuthorFile(in, out string) (Report, error) {
	f, err := excelize.OpenFile(in)
	if err != nil {
		return Report{}, fmt.Errorf("opening source workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	report, err := Author(f)
	if err != nil {
		return report, err
	}
	if err := f.SaveAs(out); err != nil {
		return report, fmt.Errorf("saving template: %w", err)
	}
	return report, nil
}

// Author turns the institutional workbook in f into a template: it grows
// the labs sheet to three item rows, writes a placeholder into every
// non-formula data cell, tags the summary percentages and the schedule grid.
// Formula cells are never overwritten with placeholders.
func Author(f *excelize.File) (Report, error) {
	var r Report

	if hasSheet(f, SheetLabs) {
		if err := expandLabs(f); err != nil {
			return r, err
		}
	}

	for _, is := range itemSheets {
		if !hasSheet(f, is.name) {
			r.Skipped = append(r.Skipped, is.name)
			continue
		}
		fields := tagmap.Fields(is.category)
		for n := 1; n <= is.category.MaxItems(); n++ {
			row := firstItemRow + n - 1
			for i, field := range fields {
				ok, err := setTag(f, is.name, cellRef(is.columns[i], row), tagmap.ItemTag(is.category, field, n))
				if err != nil {
					return r, err
				}
				if ok {
					r.Inserted++
				}
			}
		}
	}

	if hasSheet(f, SheetSummary) {
		for _, st := range summaryTags {
			ok, err := setTag(f, SheetSummary, st.cell, st.tag)
			if err != nil {
				return r, err
			}
			if ok {
				r.Inserted++
			}
		}
		if err := f.SetCellFormula(SheetSummary, summaryLabsCell, summaryLabsFormula); err != nil {
			return r, fmt.Errorf("repairing labs reference: %w", err)
		}
	} else {
		r.Skipped = append(r.Skipped, SheetSummary)
	}

	if hasSheet(f, SheetSchedule) {
		for _, c := range model.Categories() {
			for month := 1; month <= tagmap.ScheduleMonths; month++ {
				cell, _ := excelize.CoordinatesToCellName(scheduleFirstColumn+month-1, scheduleRows[c])
				ok, err := setTag(f, SheetSchedule, cell, tagmap.ScheduleTag(c, month))
				if err != nil {
					return r, err
				}
				if ok {
					r.Inserted++
				}
			}
		}
	} else {
		r.Skipped = append(r.Skipped, SheetSchedule)
	}

	n, err := countPlaceholders(f)
	if err != nil {
		return r, err
	}
	r.Placeholders = n
	return r, nil
}

// expandLabs duplicates the single labs data row twice so the sheet holds
// three item rows, then repairs the row formulas and the total below them.
func expandLabs(f *excelize.File) error {
	for i := 0; i < 2; i++ {
		if err := f.DuplicateRow(SheetLabs, firstItemRow); err != nil {
			return fmt.Errorf("duplicating labs row: %w", err)
		}
	}
	for row := firstItemRow; row < firstItemRow+model.Labs.MaxItems(); row++ {
		if err := f.SetCellFormula(SheetLabs, cellRef("I", row), fmt.Sprintf("G%d*H%d", row, row)); err != nil {
			return fmt.Errorf("repairing labs row %d: %w", row, err)
		}
	}
	if err := f.SetCellFormula(SheetLabs, labsTotalCell, labsTotalFormula); err != nil {
		return fmt.Errorf("repairing labs total: %w", err)
	}
	// The source ships a sample lab name in the first row.
	return f.SetCellValue(SheetLabs, cellRef("A", firstItemRow), nil)
}

// setTag writes a placeholder unless the cell holds a formula.
func setTag(f *excelize.File, sheet, cell, tag string) (bool, error) {
	formula, err := f.GetCellFormula(sheet, cell)
	if err != nil {
		return false, err
	}
	if formula != "" {
		return false, nil
	}
	if err := f.SetCellStr(sheet, cell, placeholder(tag)); err != nil {
		return false, fmt.Errorf("tagging %s!%s: %w", sheet, cell, err)
	}
	return true, nil
}

// Placeholders lists the tag names found in every sheet of f.
func Placeholders(f *excelize.File) ([]string, error) {
	var tags []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			for _, text := range row {
				if m := placeholderRe.FindStringSubmatch(text); m != nil {
					tags = append(tags, m[1])
				}
			}
		}
	}
	return tags, nil
}

func countPlaceholders(f *excelize.File) (int, error) {
	tags, err := Placeholders(f)
	return len(tags), err
}

// String renders the report for the terminal.
func (r Report) String() string {
	s := fmt.Sprintf("%d placeholders inserted, %d in template", r.Inserted, r.Placeholders)
	if len(r.Skipped) > 0 {
		s += "; missing sheets: " + strings.Join(r.Skipped, ", ")
	}
	return s
}
