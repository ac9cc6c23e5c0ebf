package core

import "github.com/JonMunkholm/ofertas/internal/tabular"

// JoinOffers turns the rows of every sheet into offer records enriched from
// ref. Sheets are visited in order, rows in order within a sheet.
//
// A sheet whose header lacks priceColumn contributes nothing. A row is kept
// only when its price cell has a value (empty, zero and false are dropped).
// Codes absent from ref still produce a record, with the reference
// attributes set to "".
func JoinOffers(sheets []tabular.Sheet, priceColumn string, ref *ReferenceIndex) []OfferRecord {
	offers, _ := JoinSheets(sheets, priceColumn, ref)
	return offers
}

// JoinSheets is JoinOffers that also reports per-sheet statistics.
func JoinSheets(sheets []tabular.Sheet, priceColumn string, ref *ReferenceIndex) ([]OfferRecord, []SheetStats) {
	var offers []OfferRecord
	stats := make([]SheetStats, 0, len(sheets))

	for _, sheet := range sheets {
		rows := sheet.DataRows()
		st := SheetStats{Sheet: sheet.Name, Rows: len(rows)}

		cols := MakeColumnIndex(sheet.Header())
		pricePos, ok := cols.Lookup(priceColumn)
		if !ok {
			st.Skipped = true
			stats = append(stats, st)
			continue
		}
		codePos := cols.position(ColumnCode)
		labPos := cols.position(ColumnLaboratory)

		for _, row := range rows {
			price := row.Cell(pricePos)
			if !price.Truthy() {
				continue
			}

			rec := OfferRecord{
				Code:       cellText(row, codePos),
				Price:      price,
				Laboratory: cellText(row, labPos),
			}
			if r, found := ref.Lookup(rec.Code); found {
				rec.ActiveIngredient = r.ActiveIngredient
				rec.Presentation = r.Presentation
				rec.ListingDate = r.ListingDate
				rec.SupplyIssue = r.SupplyIssue
				st.Matched++
			}
			offers = append(offers, rec)
			st.Offers++
		}
		stats = append(stats, st)
	}
	return offers, stats
}
