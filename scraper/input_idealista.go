package scraper

import (
	"math"

	"buscapisos/config"
	"buscapisos/models"
)

// IdealistaInput feeds portal actors that search by district and operation
// and page through results behind a residential proxy.
type IdealistaInput struct {
	Country      string
	PropertyType string
	MaxItems     int
	ProxyGroup   string
	ProxyCountry string
}

func NewIdealistaInput(backend *config.BackendConfig) *IdealistaInput {
	a := &IdealistaInput{
		Country:      backend.Country,
		PropertyType: backend.PropertyType,
		MaxItems:     backend.MaxItems,
		ProxyGroup:   backend.ProxyGroup,
		ProxyCountry: backend.ProxyCountry,
	}
	if a.Country == "" {
		a.Country = "es"
	}
	if a.PropertyType == "" {
		a.PropertyType = "homes"
	}
	if a.MaxItems <= 0 {
		a.MaxItems = 50
	}
	if a.ProxyGroup == "" {
		a.ProxyGroup = "RESIDENTIAL"
	}
	if a.ProxyCountry == "" {
		a.ProxyCountry = "ES"
	}
	return a
}

func (a *IdealistaInput) Style() string {
	return "idealista"
}

func (a *IdealistaInput) BuildInput(intent models.SearchIntent) map[string]interface{} {
	operation := "sale"
	if intent.ForRent {
		operation = "rent"
	}

	district := intent.LocationQuery
	if district == "" {
		district = intent.City
	}

	// Ask for enough items to fill the request even after band filtering.
	maxItems := a.MaxItems
	if want := intent.Count() * 4; want > maxItems {
		maxItems = want
	}

	input := map[string]interface{}{
		"location":     intent.City,
		"district":     district,
		"country":      a.Country,
		"operation":    operation,
		"propertyType": a.PropertyType,
		"maxItems":     maxItems,
		"page":         1,
		"proxyConfiguration": map[string]interface{}{
			"useApifyProxy":     true,
			"apifyProxyGroups":  []string{a.ProxyGroup},
			"apifyProxyCountry": a.ProxyCountry,
		},
	}
	if intent.PriceMax != nil {
		input["maxPrice"] = int(math.Round(*intent.PriceMax * 1.2))
	}
	return input
}
