package core

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/ofertas/internal/tabular"
)

var (
	// ErrReferenceEmpty is returned when the reference workbook has no sheets.
	ErrReferenceEmpty = errors.New("reference workbook has no sheets")
	// ErrReferenceMissingColumn is returned when the reference header lacks the code column.
	ErrReferenceMissingColumn = errors.New("reference workbook missing column")
)

// ReferenceRecord holds the catalogue attributes of one product code.
// Missing attributes are "".
type ReferenceRecord struct {
	Code             string `json:"code"`
	ActiveIngredient string `json:"active_ingredient"`
	Presentation     string `json:"presentation"`
	ListingDate      string `json:"listing_date"`
	SupplyIssue      string `json:"supply_issue_flag"`
}

// ReferenceIndex maps product codes to reference records. It is built once
// at startup and never mutated, so it is safe for concurrent readers.
type ReferenceIndex struct {
	records    map[string]ReferenceRecord
	duplicates int
}

// NewReferenceIndex builds an index from records. Records with an empty
// code are dropped; when a code repeats, the last record wins.
func NewReferenceIndex(records []ReferenceRecord) *ReferenceIndex {
	idx := &ReferenceIndex{records: make(map[string]ReferenceRecord, len(records))}
	for _, r := range records {
		idx.add(r)
	}
	return idx
}

func (x *ReferenceIndex) add(r ReferenceRecord) {
	if r.Code == "" {
		return
	}
	if _, exists := x.records[r.Code]; exists {
		x.duplicates++
		slog.Debug("duplicate reference code, keeping last", "code", r.Code)
	}
	x.records[r.Code] = r
}

// Lookup returns the record for code. The empty code never matches.
func (x *ReferenceIndex) Lookup(code string) (ReferenceRecord, bool) {
	if x == nil || code == "" {
		return ReferenceRecord{}, false
	}
	r, ok := x.records[code]
	return r, ok
}

// Len returns the number of distinct codes.
func (x *ReferenceIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.records)
}

// Duplicates returns how many rows were overridden by a later row with
// the same code.
func (x *ReferenceIndex) Duplicates() int {
	if x == nil {
		return 0
	}
	return x.duplicates
}

// LoadReference builds an index from the first sheet of a workbook. The
// header must contain the code column; the attribute columns are optional
// and read as "" when absent.
func LoadReference(data []byte, fileName string) (*ReferenceIndex, error) {
	wb, err := tabular.Decode(data, tabular.Options{FileName: fileName, MaxSheets: 1})
	if err != nil {
		return nil, fmt.Errorf("decode reference: %w", err)
	}
	if len(wb.Sheets) == 0 {
		return nil, ErrReferenceEmpty
	}

	sheet := wb.Sheets[0]
	cols := MakeColumnIndex(sheet.Header())
	codePos, ok := cols.Lookup(RefColumnCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReferenceMissingColumn, RefColumnCode)
	}
	ingredientPos := cols.position(RefColumnActiveIngredient)
	presentationPos := cols.position(RefColumnPresentation)
	listingPos := cols.position(RefColumnListingDate)
	supplyPos := cols.position(RefColumnSupplyIssue)

	rows := sheet.DataRows()
	idx := &ReferenceIndex{records: make(map[string]ReferenceRecord, len(rows))}
	for _, row := range rows {
		idx.add(ReferenceRecord{
			Code:             cellText(row, codePos),
			ActiveIngredient: cellText(row, ingredientPos),
			Presentation:     cellText(row, presentationPos),
			ListingDate:      cellText(row, listingPos),
			SupplyIssue:      cellText(row, supplyPos),
		})
	}
	return idx, nil
}

// LoadReferenceFile reads and indexes the reference workbook at path.
func LoadReferenceFile(path string) (*ReferenceIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference %s: %w", path, err)
	}
	idx, err := LoadReference(data, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("load reference %s: %w", path, err)
	}
	return idx, nil
}
