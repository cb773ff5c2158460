package workbook

import (
	"math"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	// fallbackColumnWidth replaces the width excelize reports for columns
	// without an explicit width.
	fallbackColumnWidth = 15
	unsetColumnWidth    = 9.140625

	pixelsPerWidthUnit = 7
	pixelsPerChar      = 7
	minCharsPerLine    = 10
	pointsPerLine      = 15
)

// styleCache derives wrap-text variants of existing cell styles, creating
// each variant once per workbook.
type styleCache struct {
	f       *excelize.File
	wrapped map[int]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, wrapped: make(map[int]int)}
}

func (c *styleCache) wrap(styleID int) (int, error) {
	if id, ok := c.wrapped[styleID]; ok {
		return id, nil
	}
	style, err := c.f.GetStyle(styleID)
	if err != nil {
		return 0, err
	}
	derived := *style
	align := excelize.Alignment{}
	if style.Alignment != nil {
		align = *style.Alignment
	}
	align.WrapText = true
	align.Vertical = "top"
	derived.Alignment = &align

	id, err := c.f.NewStyle(&derived)
	if err != nil {
		return 0, err
	}
	c.wrapped[styleID] = id
	return id, nil
}

// autoFit wraps text cells below the header rows and raises each row's
// height to fit its longest text, estimated from the column width.
func autoFit(f *excelize.File, sheet string, styles *styleCache) error {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}

	widths := make(map[int]float64)
	for r, row := range rows {
		rowNum := r + 1
		if rowNum <= headerRows {
			continue
		}

		maxLines := 1
		for c, text := range row {
			if text == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			kind, err := f.GetCellType(sheet, cell)
			if err != nil {
				return err
			}
			if kind != excelize.CellTypeSharedString && kind != excelize.CellTypeInlineString {
				continue
			}

			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return err
			}
			wrapped, err := styles.wrap(styleID)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, wrapped); err != nil {
				return err
			}

			width, ok := widths[c+1]
			if !ok {
				if width, err = columnWidth(f, sheet, c+1); err != nil {
					return err
				}
				widths[c+1] = width
			}
			if lines := linesFor(text, width); lines > maxLines {
				maxLines = lines
			}
		}

		if maxLines > 1 {
			height := float64(maxLines * pointsPerLine)
			current, err := f.GetRowHeight(sheet, rowNum)
			if err != nil {
				return err
			}
			if height > current {
				if err := f.SetRowHeight(sheet, rowNum, height); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func columnWidth(f *excelize.File, sheet string, col int) (float64, error) {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return 0, err
	}
	w, err := f.GetColWidth(sheet, name)
	if err != nil {
		return 0, err
	}
	if w <= 0 || w == unsetColumnWidth {
		w = fallbackColumnWidth
	}
	return w, nil
}

// linesFor estimates how many wrapped lines text needs in a column of the
// given width.
func linesFor(text string, width float64) int {
	perLine := int(math.Floor(width * pixelsPerWidthUnit / pixelsPerChar))
	perLine = max(perLine, minCharsPerLine)
	n := utf8.RuneCountInString(text)
	return (n + perLine - 1) / perLine
}
