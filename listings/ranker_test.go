package listings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buscapisos/config"
	"buscapisos/models"
)

func priceList(prices ...float64) []models.RawListing {
	raw := make([]models.RawListing, 0, len(prices))
	for _, p := range prices {
		raw = append(raw, models.RawListing{"price": p})
	}
	return raw
}

func budget(v float64) *float64 {
	return &v
}

func prices(sel Selection) []float64 {
	out := make([]float64, 0, len(sel.Listings))
	for _, l := range sel.Listings {
		out = append(out, l.Price)
	}
	return out
}

func TestSelect_BandIsInclusive(t *testing.T) {
	raw := priceList(121000, 50000, 120000, 69000, 70000)
	intent := models.SearchIntent{City: "madrid", PriceMax: budget(100000), ResultCount: 5}

	sel := NewRanker(config.BandFallbackUnfiltered).Select(raw, intent)

	assert.Equal(t, []float64{70000, 120000}, prices(sel)[:2])
	assert.Len(t, sel.Listings, 2)
	require.NotNil(t, sel.Band)
	assert.Equal(t, Band{Min: 70000, Max: 120000}, *sel.Band)
	assert.False(t, sel.FellBack)
	assert.False(t, sel.BandEmpty)
	assert.Equal(t, 5, sel.Priced)
}

func TestSelect_BandExampleMiddleThree(t *testing.T) {
	raw := priceList(50000, 69000, 70000, 100000, 120000, 121000)
	intent := models.SearchIntent{City: "madrid", PriceMax: budget(100000), ResultCount: 5}

	sel := NewRanker("").Select(raw, intent)

	assert.Equal(t, []float64{70000, 100000, 120000}, prices(sel))
	for i, l := range sel.Listings {
		assert.Equal(t, i+1, l.Rank)
	}
}

func TestSelect_TruncatesAndSortsStable(t *testing.T) {
	raw := []models.RawListing{
		{"price": 90000.0, "title": "b"},
		{"price": 80000.0, "title": "a"},
		{"price": 90000.0, "title": "c"},
		{"price": 95000.0, "title": "d"},
	}
	intent := models.SearchIntent{City: "madrid", PriceMax: budget(100000), ResultCount: 3}

	sel := NewRanker("").Select(raw, intent)

	require.Len(t, sel.Listings, 3)
	assert.Equal(t, "a", sel.Listings[0].Title)
	assert.Equal(t, "b", sel.Listings[1].Title)
	assert.Equal(t, "c", sel.Listings[2].Title)
}

func TestSelect_Idempotent(t *testing.T) {
	raw := []models.RawListing{
		{"price": json.Number("100000"), "title": "<b>Piso</b> luminoso"},
		{"precio": "85.000 €"},
		{"priceInfo": map[string]interface{}{"price": map[string]interface{}{"amount": 92000.0}}},
		{"price": "Consultar"},
	}
	intent := models.SearchIntent{City: "madrid", PriceMax: budget(100000), ResultCount: 5}
	ranker := NewRanker("")

	first := ranker.Select(raw, intent)
	second := ranker.Select(raw, intent)

	assert.Equal(t, first, second)
	assert.Equal(t, []float64{85000, 92000, 100000}, prices(first))
	assert.Equal(t, "Piso luminoso", first.Listings[2].Title)
}

func TestSelect_ZeroSurvivorPolicies(t *testing.T) {
	raw := priceList(300000, 250000)
	intent := models.SearchIntent{City: "madrid", PriceMax: budget(100000), ResultCount: 5}

	unfiltered := NewRanker(config.BandFallbackUnfiltered).Select(raw, intent)
	assert.True(t, unfiltered.FellBack)
	assert.Equal(t, []float64{250000, 300000}, prices(unfiltered))

	empty := NewRanker(config.BandFallbackEmpty).Select(raw, intent)
	assert.True(t, empty.BandEmpty)
	assert.Empty(t, empty.Listings)
}

func TestSelect_NoBudgetKeepsAllPriced(t *testing.T) {
	raw := append(priceList(3000, 1000, 2000), models.RawListing{"title": "sin precio"})
	intent := models.SearchIntent{City: "madrid", ForRent: true, ResultCount: 5}

	sel := NewRanker("").Select(raw, intent)

	assert.Nil(t, sel.Band)
	assert.Equal(t, []float64{1000, 2000, 3000}, prices(sel))
	for _, l := range sel.Listings {
		assert.Equal(t, models.OperationRent, l.OperationType)
		assert.Nil(t, l.RentEstimate)
	}
}

func TestSelect_ResultCountMinimumOne(t *testing.T) {
	sel := NewRanker("").Select(priceList(1000, 2000), models.SearchIntent{City: "madrid", ResultCount: 0})
	assert.Len(t, sel.Listings, 1)
}

func TestExtractPrice_Chain(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawListing
		want float64
		ok   bool
	}{
		{"number", models.RawListing{"price": 120000.0}, 120000, true},
		{"json number", models.RawListing{"price": json.Number("99500")}, 99500, true},
		{"digit string", models.RawListing{"price": "250.000 €"}, 250000, true},
		{"decimal comma", models.RawListing{"price": "1.250,50 €/mes"}, 1250.5, true},
		{"decimal point", models.RawListing{"price": "250000.00"}, 250000, true},
		{"decimal point rent", models.RawListing{"price": "1250.50 €"}, 1250.5, true},
		{"grouped with decimal point", models.RawListing{"price": "1,250.5"}, 1250.5, true},
		{"price.amount", models.RawListing{"price": map[string]interface{}{"amount": 71000.0}}, 71000, true},
		{"priceInfo.price.amount", models.RawListing{"priceInfo": map[string]interface{}{"price": map[string]interface{}{"amount": json.Number("88000")}}}, 88000, true},
		{"priceInfo.amount", models.RawListing{"priceInfo": map[string]interface{}{"amount": 65000}}, 65000, true},
		{"precio number", models.RawListing{"precio": 150000}, 150000, true},
		{"precio string", models.RawListing{"precio": "150.000"}, 150000, true},
		{"priceValue", models.RawListing{"priceValue": 1200.0}, 1200, true},
		{"rawPrice", models.RawListing{"rawPrice": "900 €"}, 900, true},
		{"zero skipped", models.RawListing{"price": 0.0, "precio": 500.0}, 500, true},
		{"text only", models.RawListing{"price": "A consultar"}, 0, false},
		{"negative", models.RawListing{"price": -5.0}, 0, false},
		{"absent", models.RawListing{"title": "x"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPrice(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestCanonicalize_Placeholders(t *testing.T) {
	intent := models.SearchIntent{City: "madrid"}

	l := Canonicalize(models.RawListing{}, 100000, intent)
	assert.Equal(t, PlaceholderTitle, l.Title)
	assert.Equal(t, PlaceholderAddress, l.Address)
	assert.Equal(t, PlaceholderURL, l.URL)
	assert.Equal(t, PlaceholderPhotoURL, l.PhotoURL)
	assert.Equal(t, PlaceholderTypology, l.Typology)
	assert.Equal(t, models.OperationSale, l.OperationType)
	require.NotNil(t, l.RentEstimate)
	assert.InDelta(t, 333.33, *l.RentEstimate, 0.001)
}

func TestCanonicalize_Fields(t *testing.T) {
	raw := models.RawListing{
		"address":   "Calle <i>Toledo</i> 5, Madrid",
		"url":       "https://example.com/inmueble/1?a=1&b=2",
		"images":    []interface{}{map[string]interface{}{"url": "https://img.example.com/1.jpg"}},
		"typology":  "Piso",
		"operation": "rent",
	}

	l := Canonicalize(raw, 900, models.SearchIntent{City: "madrid"})

	assert.Equal(t, "Calle Toledo 5, Madrid", l.Address)
	assert.Equal(t, "https://example.com/inmueble/1?a=1&b=2", l.URL)
	assert.Equal(t, "https://img.example.com/1.jpg", l.PhotoURL)
	assert.Equal(t, "Piso en Calle Toledo 5, Madrid", l.Title)
	assert.Equal(t, models.OperationRent, l.OperationType)
	assert.Nil(t, l.RentEstimate)
}
