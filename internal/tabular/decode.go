package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultPreviewRows is the number of data rows shown in a preview.
const DefaultPreviewRows = 20

var (
	// ErrUnsupportedFormat is returned for containers no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMalformed wraps failures raised from inside a third-party parser.
	ErrMalformed = errors.New("malformed file")
)

// Format identifies a tabular container.
type Format int

const (
	FormatAuto Format = iota
	FormatCSV
	FormatXLSX
	FormatXLS
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	default:
		return "auto"
	}
}

var (
	zipMagic  = []byte("PK\x03\x04")
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat sniffs the container from its magic bytes, falling back to
// the file extension. Unknown inputs are treated as delimited text.
func DetectFormat(fileName string, data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, ole2Magic):
		return FormatXLS
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	}
	return FormatCSV
}

// Options controls decoding.
type Options struct {
	// Format forces a decoder; FormatAuto sniffs the data.
	Format Format

	// FileName is used for format detection and log context.
	FileName string

	// Comma is the CSV field delimiter; 0 detects it from the first line.
	Comma rune

	// MaxSheets limits how many sheets are decoded; 0 decodes all.
	MaxSheets int

	// MaxRows limits rows per sheet, header included; 0 reads all.
	MaxRows int
}

// Sheet is one named grid of rows.
type Sheet struct {
	Name string
	Rows []Row
}

// Header returns the shown text of row 0, or nil for an empty sheet.
func (s Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0].Strings()
}

// DataRows returns every row after the header.
func (s Sheet) DataRows() []Row {
	if len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}

// Workbook is the decoded content of one file.
type Workbook struct {
	Format Format
	Sheets []Sheet

	// Warnings lists sheets that could not be read and were left out.
	Warnings []string
}

// Decode turns raw file bytes into sheets of rows. Empty input yields an
// empty workbook. Parser panics are recovered and reported as ErrMalformed.
func Decode(data []byte, opts Options) (wb *Workbook, err error) {
	format := opts.Format
	if format == FormatAuto {
		format = DetectFormat(opts.FileName, data)
	}

	wb = &Workbook{Format: format}
	if len(bytes.TrimSpace(data)) == 0 {
		return wb, nil
	}

	defer func() {
		if r := recover(); r != nil {
			wb = nil
			err = fmt.Errorf("decode %s: %w: %v", format, ErrMalformed, r)
		}
	}()

	switch format {
	case FormatCSV:
		wb.Sheets, err = decodeCSV(data, opts)
	case FormatXLSX:
		wb.Sheets, wb.Warnings, err = decodeXLSX(data, opts)
	case FormatXLS:
		wb.Sheets, wb.Warnings, err = decodeXLS(data, opts)
	default:
		return nil, fmt.Errorf("decode: %w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return wb, nil
}

// SheetPreview is the header of the first sheet plus its leading data rows.
type SheetPreview struct {
	Sheet     string   `json:"sheet"`
	Columns   []string `json:"columns"`
	Rows      []Row    `json:"rows"`
	TotalRows int      `json:"total_rows"`
}

// Preview decodes the first sheet and returns its header and up to limit
// data rows (DefaultPreviewRows when limit <= 0). A file without rows gives
// an empty preview.
func Preview(data []byte, opts Options, limit int) (*SheetPreview, error) {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	opts.MaxSheets = 1

	wb, err := Decode(data, opts)
	if err != nil {
		return nil, err
	}

	p := &SheetPreview{}
	if len(wb.Sheets) == 0 {
		return p, nil
	}

	sheet := wb.Sheets[0]
	p.Sheet = sheet.Name
	p.Columns = sheet.Header()

	rows := sheet.DataRows()
	p.TotalRows = len(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	p.Rows = rows
	return p, nil
}

// trimTrailingBlank drops blank rows at the end of a sheet.
func trimTrailingBlank(rows []Row) []Row {
	n := len(rows)
	for n > 0 && rows[n-1].IsBlank() {
		n--
	}
	return rows[:n]
}
