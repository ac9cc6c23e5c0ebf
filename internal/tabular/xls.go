package tabular

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// xlsCharset is the target charset for BIFF8 strings.
const xlsCharset = "utf-8"

// decodeXLS reads a legacy BIFF workbook. The reader exposes cell text
// only, so values are typed with InferCell like delimited text.
func decodeXLS(data []byte, opts Options) ([]Sheet, []string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), xlsCharset)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}

	n := wb.NumSheets()
	if opts.MaxSheets > 0 && n > opts.MaxSheets {
		n = opts.MaxSheets
	}

	sheets := make([]Sheet, 0, n)
	var warnings []string
	for i := 0; i < n; i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			warnings = append(warnings, fmt.Sprintf("sheet %d: unreadable", i))
			continue
		}

		last := int(ws.MaxRow)
		if opts.MaxRows > 0 && last >= opts.MaxRows {
			last = opts.MaxRows - 1
		}

		rows := make([]Row, 0, last+1)
		for r := 0; r <= last; r++ {
			xr := xlsRow(ws, r)
			if xr == nil {
				rows = append(rows, nil)
				continue
			}

			width := xr.LastCol()
			if width < 0 {
				width = 0
			}
			row := make(Row, width)
			for c := xr.FirstCol(); c < width; c++ {
				if c < 0 {
					continue
				}
				row[c] = InferCell(xr.Col(c))
			}
			rows = append(rows, row)
		}

		sheets = append(sheets, Sheet{Name: ws.Name, Rows: trimTrailingBlank(rows)})
	}
	return sheets, warnings, nil
}

// xlsRow returns row r of ws, or nil when the sheet has no record for it.
// Empty rows are not stored and the reader dereferences them unchecked.
func xlsRow(ws *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(r)
}
