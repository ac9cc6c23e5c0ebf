package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// decodeXLSX reads every worksheet twice: once with number formats applied
// (the text users see) and once raw (the stored value used for typing).
// Sheets that cannot be read are reported as warnings and left out.
func decodeXLSX(data []byte, opts Options) ([]Sheet, []string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if opts.MaxSheets > 0 && len(names) > opts.MaxSheets {
		names = names[:opts.MaxSheets]
	}

	sheets := make([]Sheet, 0, len(names))
	var warnings []string
	for _, name := range names {
		rows, err := readXLSXSheet(f, name, opts.MaxRows)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sheet %q: %v", name, err))
			continue
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, warnings, nil
}

func readXLSXSheet(f *excelize.File, name string, maxRows int) ([]Row, error) {
	shown, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	if maxRows > 0 && len(shown) > maxRows {
		shown = shown[:maxRows]
	}

	rows := make([]Row, len(shown))
	for i, cells := range shown {
		row := make(Row, len(cells))
		for j, text := range cells {
			rawText := ""
			if i < len(raw) && j < len(raw[i]) {
				rawText = raw[i][j]
			}
			if text == "" && rawText == "" {
				continue
			}

			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(name, axis)
			if err != nil {
				return nil, err
			}
			row[j] = xlsxCell(typ, text, rawText)
		}
		rows[i] = row
	}
	return trimTrailingBlank(rows), nil
}

// xlsxCell types a cell from its stored type. Cells without an explicit
// type hold numbers in OOXML; formula results are typed by their value.
func xlsxCell(typ excelize.CellType, text, raw string) Cell {
	if text == "" {
		text = raw
	}

	switch typ {
	case excelize.CellTypeBool:
		return BoolCell(text, raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return TextCell(text)
	}

	if n, ok := parseNumber(strings.TrimSpace(raw)); ok {
		return NumberCell(text, n)
	}
	return TextCell(text)
}
