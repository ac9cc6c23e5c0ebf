// Package tabular decodes uploaded spreadsheet files into rows of cells.
//
// It is the only part of the application that reads third-party authored
// files, so every entry point tolerates malformed input: a broken file
// produces an error for that file only, never a panic.
//
// Supported containers:
//
//   - Office Open XML workbooks (.xlsx, .xlsm) via excelize
//   - Legacy BIFF workbooks (.xls)
//   - Delimited text (.csv, .tsv, .txt) in UTF-8, UTF-16 or Windows-1252
//
// Every sheet of a workbook is returned in workbook order. Row 0 of a sheet
// is its header row by convention; [Sheet.Header] and [Sheet.DataRows]
// split it for header-aware callers. [Preview] returns the header of the
// first sheet separately plus a bounded number of data rows.
package tabular
