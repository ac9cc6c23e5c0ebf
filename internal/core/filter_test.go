package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func filterFixture() []OfferRecord {
	return []OfferRecord{
		{Code: "1", ActiveIngredient: "Paracetamol", Presentation: "500mg comprimidos"},
		{Code: "2", ActiveIngredient: "Ibuprofeno", Presentation: "600mg comprimidos"},
		{Code: "3", ActiveIngredient: "IBUPROFENO", Presentation: "Suspensión oral"},
		{Code: "4"},
	}
}

func codesOf(records []OfferRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Code
	}
	return out
}

func TestFilterOffers(t *testing.T) {
	tests := []struct {
		name string
		q    FilterQuery
		want []string
	}{
		{"empty query is identity", FilterQuery{}, []string{"1", "2", "3", "4"}},
		{"case-insensitive substring", FilterQuery{ActiveIngredient: "ibu"}, []string{"2", "3"}},
		{"upper-case query", FilterQuery{ActiveIngredient: "PARA"}, []string{"1"}},
		{"presentation only", FilterQuery{Presentation: "comprimidos"}, []string{"1", "2"}},
		{"both predicates AND", FilterQuery{ActiveIngredient: "ibu", Presentation: "oral"}, []string{"3"}},
		{"accented text", FilterQuery{Presentation: "SUSPENSIÓN"}, []string{"3"}},
		{"no match", FilterQuery{ActiveIngredient: "omeprazol"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterOffers(filterFixture(), tt.q)
			assert.Equal(t, tt.want, codesOf(got))
		})
	}
}

func TestFilterOffers_Idempotent(t *testing.T) {
	records := filterFixture()
	q := FilterQuery{ActiveIngredient: "ibu", Presentation: "mg"}

	once := FilterOffers(records, q)
	twice := FilterOffers(once, q)

	assert.Equal(t, once, twice)
}

func TestFilterOffers_DoesNotMutateInput(t *testing.T) {
	records := filterFixture()
	before := append([]OfferRecord(nil), records...)

	_ = FilterOffers(records, FilterQuery{ActiveIngredient: "para"})

	assert.Equal(t, before, records)
}

func TestFilterQuery_IsEmpty(t *testing.T) {
	assert.True(t, FilterQuery{}.IsEmpty())
	assert.False(t, FilterQuery{Presentation: "x"}.IsEmpty())
}
