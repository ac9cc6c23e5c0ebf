package core

import (
	"time"

	"github.com/JonMunkholm/ofertas/internal/tabular"
)

// Column names expected in uploaded offer files.
const (
	ColumnCode       = "CN"
	ColumnLaboratory = "LABORATORIO"
)

// Column names of the reference workbook.
const (
	RefColumnCode             = "CN"
	RefColumnActiveIngredient = "principio_activo"
	RefColumnPresentation     = "presentacion"
	RefColumnListingDate      = "fecha_alta"
	RefColumnSupplyIssue      = "problema_suministro"
)

// OfferRecord is one supplier offer enriched with reference attributes.
// Every field except Price is "" when unavailable; Price is the raw cell.
type OfferRecord struct {
	Code             string       `json:"code"`
	Price            tabular.Cell `json:"price"`
	Laboratory       string       `json:"laboratory"`
	ActiveIngredient string       `json:"active_ingredient"`
	Presentation     string       `json:"presentation"`
	ListingDate      string       `json:"listing_date"`
	SupplyIssue      string       `json:"supply_issue_flag"`
}

// UploadedFile is one offer file as received from the client.
type UploadedFile struct {
	Name string
	Data []byte
}

// Size returns the file size in bytes.
func (f UploadedFile) Size() int64 {
	return int64(len(f.Data))
}

// SheetStats summarizes how one sheet contributed to a join.
type SheetStats struct {
	Sheet   string `json:"sheet"`
	Skipped bool   `json:"skipped"`
	Rows    int    `json:"rows"`
	Offers  int    `json:"offers"`
	Matched int    `json:"matched"`
}

// FileReport summarizes how one uploaded file contributed to a run.
// A file that failed to decode has Error set and contributes no offers.
type FileReport struct {
	Name          string       `json:"name"`
	Format        string       `json:"format"`
	Sheets        []SheetStats `json:"sheets"`
	SheetsSkipped int          `json:"sheets_skipped"`
	Offers        int          `json:"offers"`
	Matched       int          `json:"matched"`
	Warnings      []string     `json:"warnings,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// ProcessResult is the outcome of one processing run. Ran is false when
// there was nothing to do (no files or no price column selected).
type ProcessResult struct {
	Ran         bool          `json:"ran"`
	PriceColumn string        `json:"price_column"`
	Offers      []OfferRecord `json:"-"`
	Files       []FileReport  `json:"files"`
	Duration    time.Duration `json:"-"`
}

// Matched returns how many offers found a reference entry.
func (r ProcessResult) Matched() int {
	n := 0
	for _, f := range r.Files {
		n += f.Matched
	}
	return n
}

// FailedFiles returns how many files could not be decoded.
func (r ProcessResult) FailedFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}
