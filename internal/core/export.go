package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/ofertas/internal/tabular"
)

// ExportFormat names a download format for offers.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

const exportSheetName = "Ofertas"

var exportHeader = []string{
	"CN",
	"Precio",
	"Laboratorio",
	"Principio activo",
	"Presentación",
	"Fecha alta",
	"Problema suministro",
}

// ParseExportFormat parses a format name. The empty string means CSV.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportXLSX:
		return ExportXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidExportFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == ExportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the download name for the format.
func (f ExportFormat) FileName() string {
	return "ofertas." + string(f)
}

// WriteOffers writes offers to w in format, header first.
func WriteOffers(w io.Writer, format ExportFormat, offers []OfferRecord) error {
	switch format {
	case ExportCSV:
		return writeOffersCSV(w, offers)
	case ExportXLSX:
		return writeOffersXLSX(w, offers)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidExportFormat, string(format))
	}
}

func offerFields(o OfferRecord) []string {
	return []string{
		o.Code,
		o.Price.String(),
		o.Laboratory,
		o.ActiveIngredient,
		o.Presentation,
		o.ListingDate,
		o.SupplyIssue,
	}
}

func writeOffersCSV(w io.Writer, offers []OfferRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range offers {
		if err := cw.Write(offerFields(o)); err != nil {
			return fmt.Errorf("write offer %s: %w", o.Code, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeOffersXLSX(w io.Writer, offers []OfferRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(exportSheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, o := range offers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		fields := offerFields(o)
		row := make([]interface{}, len(fields))
		for j, v := range fields {
			row[j] = v
		}
		row[1] = priceValue(o.Price)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write offer %s: %w", o.Code, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// priceValue keeps numeric prices numeric in the exported workbook.
func priceValue(c tabular.Cell) interface{} {
	if c.Kind == tabular.CellNumber {
		return c.Number
	}
	return c.Text
}
