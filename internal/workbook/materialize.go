package workbook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/graest/orcamento/internal/tagmap"
)

// ContentType is the MIME type of a materialized workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var placeholderRe = regexp.MustCompile(`^\{(.+)\}$`)

// Minimum area scanned for formula cells. Workbooks written by tools that
// store no cached formula values can hide formula-only cells from the
// row reader and from a stale dimension.
const (
	minScanColumns = 26
	minScanRows    = 60
)

// Materializer fills a template workbook. The zero value is ready to use.
type Materializer struct {
	Logger *slog.Logger
}

func (m *Materializer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MaterializeFile reads the template at path and materializes it.
func (m *Materializer) MaterializeFile(ctx context.Context, path string, tags tagmap.Map, months int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	defer func() { _ = f.Close() }()
	return m.Materialize(ctx, f, tags, months)
}

// Materialize returns a copy of template with every placeholder replaced
// from tags, shared formulas flattened, line total formulas injected and
// text rows sized to fit. months drives the personnel project totals.
// The template itself is never modified.
func (m *Materializer) Materialize(ctx context.Context, template io.Reader, tags tagmap.Map, months int) ([]byte, error) {
	log := m.logger()
	months = max(months, 0)

	f, err := excelize.OpenReader(template)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()

	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := normalizeFormulas(f, sheet)
		if err != nil {
			return nil, fmt.Errorf("normalizing %q: %w", sheet, err)
		}
		log.Debug("normalized formulas", "sheet", sheet, "cells", n)
	}

	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		replaced, unknown, err := substitute(f, sheet, tags)
		if err != nil {
			return nil, fmt.Errorf("substituting %q: %w", sheet, err)
		}
		if unknown > 0 {
			log.Debug("cleared unknown placeholders", "sheet", sheet, "count", unknown)
		}
		log.Debug("substituted placeholders", "sheet", sheet, "cells", replaced)
	}

	if err := m.inject(f, tags, months); err != nil {
		return nil, err
	}

	style := newStyleCache(f)
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := autoFit(f, sheet, style); err != nil {
			return nil, fmt.Errorf("sizing rows of %q: %w", sheet, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// normalizeFormulas rewrites every formula cell of sheet, shared group
// masters and dependents alike, as a standalone formula with a cached
// value of 0.
func normalizeFormulas(f *excelize.File, sheet string) (int, error) {
	cols, rows, err := scanBounds(f, sheet)
	if err != nil {
		return 0, err
	}

	type formulaCell struct{ cell, formula string }
	var found []formulaCell
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			cell, _ := excelize.CoordinatesToCellName(c, r)
			formula, err := f.GetCellFormula(sheet, cell)
			if err != nil {
				return 0, err
			}
			if formula != "" {
				found = append(found, formulaCell{cell, formula})
			}
		}
	}

	// Writing a value drops the cell's formula and, for a shared group
	// master, the formulas of its dependents too; all of them were
	// resolved above and are restored here.
	for _, fc := range found {
		if err := setFormula(f, sheet, fc.cell, fc.formula); err != nil {
			return 0, err
		}
	}
	return len(found), nil
}

// setFormula writes formula as a plain formula cell with cached value 0.
func setFormula(f *excelize.File, sheet, cell, formula string) error {
	if err := f.SetCellValue(sheet, cell, 0); err != nil {
		return err
	}
	return f.SetCellFormula(sheet, cell, formula)
}

// scanBounds returns the number of columns and rows to visit in sheet.
func scanBounds(f *excelize.File, sheet string) (cols, rows int, err error) {
	cols, rows = minScanColumns, minScanRows

	data, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0, err
	}
	rows = max(rows, len(data))
	for _, row := range data {
		cols = max(cols, len(row))
	}

	dim, err := f.GetSheetDimension(sheet)
	if err != nil {
		return 0, 0, err
	}
	if i := strings.LastIndex(dim, ":"); i >= 0 {
		if c, r, err := excelize.CellNameToCoordinates(dim[i+1:]); err == nil {
			cols, rows = max(cols, c), max(rows, r)
		}
	}
	return cols, rows, nil
}

// substitute replaces every non-formula cell whose whole text is a
// placeholder. Unknown tags and empty values clear the cell.
func substitute(f *excelize.File, sheet string, tags tagmap.Map) (replaced, unknown int, err error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0, err
	}
	for r, row := range rows {
		for c, text := range row {
			match := placeholderRe.FindStringSubmatch(text)
			if match == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			formula, err := f.GetCellFormula(sheet, cell)
			if err != nil {
				return replaced, unknown, err
			}
			if formula != "" {
				continue
			}

			v, ok := tags[match[1]]
			if !ok {
				unknown++
			}
			if err := writeValue(f, sheet, cell, v); err != nil {
				return replaced, unknown, err
			}
			replaced++
		}
	}
	return replaced, unknown, nil
}

func writeValue(f *excelize.File, sheet, cell string, v tagmap.Value) error {
	switch v.Kind {
	case tagmap.Text:
		return f.SetCellStr(sheet, cell, v.Str)
	case tagmap.Number:
		return f.SetCellFloat(sheet, cell, v.Num, -1, 64)
	default:
		return f.SetCellValue(sheet, cell, nil)
	}
}

// inject writes the line total formulas and the personnel project totals.
func (m *Materializer) inject(f *excelize.File, tags tagmap.Map, months int) error {
	log := m.logger()

	for _, rf := range injectedFormulas {
		if !hasSheet(f, rf.sheet) {
			log.Debug("sheet not in template, skipping formulas", "sheet", rf.sheet)
			continue
		}
		for row := rf.first; row <= rf.last; row++ {
			cell := cellRef(rf.column, row)
			if err := setFormula(f, rf.sheet, cell, rf.formula(row)); err != nil {
				return fmt.Errorf("injecting %s!%s: %w", rf.sheet, cell, err)
			}
		}
	}

	for _, pt := range personnelTotals {
		if !hasSheet(f, pt.sheet) {
			log.Debug("sheet not in template, skipping totals", "sheet", pt.sheet)
			continue
		}
		for n := 1; n <= pt.category.MaxItems(); n++ {
			row := firstItemRow + n - 1
			cell := cellRef(pt.column, row)
			salary := tags[tagmap.ItemTag(pt.category, "salariobase", n)].Num
			charges := tags[tagmap.ItemTag(pt.category, "encargos", n)].Num

			var err error
			if salary != 0 || charges != 0 {
				err = f.SetCellFloat(pt.sheet, cell, (salary+charges)*float64(months), -1, 64)
			} else {
				err = setFormula(f, pt.sheet, cell, rowFormula{pattern: pt.fallback}.formula(row))
			}
			if err != nil {
				return fmt.Errorf("injecting %s!%s: %w", pt.sheet, cell, err)
			}
		}
	}
	return nil
}

func hasSheet(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}
