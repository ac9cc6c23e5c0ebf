package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// FilterQuery narrows offers by reference attributes. An empty field
// matches everything.
type FilterQuery struct {
	ActiveIngredient string `json:"active_ingredient"`
	Presentation     string `json:"presentation"`
}

// IsEmpty reports whether the query matches every record.
func (q FilterQuery) IsEmpty() bool {
	return q.ActiveIngredient == "" && q.Presentation == ""
}

// FilterOffers returns the records whose active ingredient and presentation
// both contain the corresponding query text, ignoring case. Order is
// preserved and records are not modified. An empty query returns records
// as is.
func FilterOffers(records []OfferRecord, q FilterQuery) []OfferRecord {
	if q.IsEmpty() {
		return records
	}

	fold := cases.Fold()
	ingredient := fold.String(q.ActiveIngredient)
	presentation := fold.String(q.Presentation)

	out := make([]OfferRecord, 0, len(records))
	for _, r := range records {
		if !strings.Contains(fold.String(r.ActiveIngredient), ingredient) {
			continue
		}
		if !strings.Contains(fold.String(r.Presentation), presentation) {
			continue
		}
		out = append(out, r)
	}
	return out
}
