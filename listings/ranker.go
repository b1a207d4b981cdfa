// Package listings turns raw dataset items into the ranked, canonical
// listings returned to clients.
package listings

import (
	"log"
	"sort"
	"strings"

	"buscapisos/config"
	"buscapisos/finance"
	"buscapisos/models"
)

// Band edges relative to the requested maximum price.
const (
	BandLowFactor  = 0.70
	BandHighFactor = 1.20
)

// Placeholders for fields the backend did not provide.
const (
	PlaceholderTitle    = "Vivienda sin título"
	PlaceholderAddress  = "Dirección no disponible"
	PlaceholderURL      = "#"
	PlaceholderPhotoURL = "https://via.placeholder.com/400x300?text=Sin+foto"
	PlaceholderTypology = "Vivienda"
)

// Band is the inclusive price window applied when a budget is known.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (b Band) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

// BandFor returns the window around a maximum price, rounded to cents.
func BandFor(priceMax float64) Band {
	return Band{
		Min: finance.Round2(priceMax * BandLowFactor),
		Max: finance.Round2(priceMax * BandHighFactor),
	}
}

// Selection is the outcome of filtering and ranking one dataset.
type Selection struct {
	Listings []models.CanonicalListing
	// Priced counts items with a usable price.
	Priced int
	Band   *Band
	// BandEmpty is set when no item fell in the band and the policy keeps
	// the selection empty.
	BandEmpty bool
	// FellBack is set when no item fell in the band and all priced items
	// were used instead.
	FellBack bool
}

// Ranker filters by price band, sorts by ascending price, truncates and
// maps to canonical listings. It holds no state besides its policy.
type Ranker struct {
	Policy string
}

func NewRanker(policy string) *Ranker {
	if policy != config.BandFallbackEmpty {
		policy = config.BandFallbackUnfiltered
	}
	return &Ranker{Policy: policy}
}

type pricedItem struct {
	raw   models.RawListing
	price float64
}

// Select never modifies raw; the same input yields the same output.
func (r *Ranker) Select(raw []models.RawListing, intent models.SearchIntent) Selection {
	priced := make([]pricedItem, 0, len(raw))
	for _, item := range raw {
		if price, ok := ExtractPrice(item); ok {
			priced = append(priced, pricedItem{raw: item, price: price})
		}
	}

	sel := Selection{Priced: len(priced)}
	candidates := priced

	if intent.PriceMax != nil {
		band := BandFor(*intent.PriceMax)
		sel.Band = &band

		inBand := make([]pricedItem, 0, len(priced))
		for _, p := range priced {
			if band.Contains(p.price) {
				inBand = append(inBand, p)
			}
		}

		if len(inBand) == 0 && len(priced) > 0 {
			if r.Policy == config.BandFallbackEmpty {
				sel.BandEmpty = true
				log.Printf("Listings: none of %d priced items in band [%.2f, %.2f]", len(priced), band.Min, band.Max)
				return sel
			}
			sel.FellBack = true
			log.Printf("Listings: none of %d priced items in band [%.2f, %.2f], using all", len(priced), band.Min, band.Max)
		} else {
			candidates = inBand
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].price < candidates[j].price
	})

	limit := intent.Count()
	if len(candidates) < limit {
		limit = len(candidates)
	}

	sel.Listings = make([]models.CanonicalListing, 0, limit)
	for i := 0; i < limit; i++ {
		listing := Canonicalize(candidates[i].raw, candidates[i].price, intent)
		listing.Rank = i + 1
		sel.Listings = append(sel.Listings, listing)
	}

	log.Printf("Listings: %d raw, %d priced, %d selected", len(raw), len(priced), len(sel.Listings))
	return sel
}

// Canonicalize maps one raw item with a known price.
func Canonicalize(raw models.RawListing, price float64, intent models.SearchIntent) models.CanonicalListing {
	listing := models.CanonicalListing{
		Address:       textAt(raw, at("address"), at("direccion"), at("suggestedTexts", "subtitle"), at("location")),
		URL:           textAt(raw, at("url"), at("link"), at("detailUrl")),
		PhotoURL:      textAt(raw, at("thumbnail"), at("photo"), at("image"), at("imageUrl"), at("images"), at("multimedia", "images")),
		Typology:      textAt(raw, at("typology"), at("tipologia"), at("propertyType"), at("detailedType", "typology")),
		Price:         price,
		OperationType: operationOf(raw, intent),
	}

	if listing.Address == "" {
		listing.Address = PlaceholderAddress
	}
	if listing.URL == "" {
		listing.URL = PlaceholderURL
	}
	if listing.PhotoURL == "" {
		listing.PhotoURL = PlaceholderPhotoURL
	}
	if listing.Typology == "" {
		listing.Typology = PlaceholderTypology
	}

	listing.Title = textAt(raw, at("title"), at("titulo"), at("suggestedTexts", "title"))
	if listing.Title == "" {
		listing.Title = listing.Typology + " en " + listing.Address
		if listing.Address == PlaceholderAddress {
			listing.Title = PlaceholderTitle
		}
	}

	if listing.OperationType == models.OperationSale {
		rent := finance.Round2(finance.EstimatedRent(price))
		listing.RentEstimate = &rent
	}
	return listing
}

func operationOf(raw models.RawListing, intent models.SearchIntent) models.OperationType {
	op := strings.ToLower(textAt(raw, at("operation"), at("operacion")))
	switch op {
	case "rent", "alquiler", "alquilar":
		return models.OperationRent
	case "sale", "venta", "comprar", "compra":
		return models.OperationSale
	}
	return intent.Operation()
}
