package scraper

import (
	"buscapisos/models"
)

// DefaultSimplePriceMax is sent when the intent carries no budget.
const DefaultSimplePriceMax = 200000

// SimpleInput feeds an actor that takes a city, a price ceiling and a
// rent flag.
type SimpleInput struct{}

func (a *SimpleInput) Style() string {
	return "simple"
}

func (a *SimpleInput) BuildInput(intent models.SearchIntent) map[string]interface{} {
	priceMax := DefaultSimplePriceMax
	if intent.PriceMax != nil {
		priceMax = int(*intent.PriceMax)
	}
	return map[string]interface{}{
		"ciudad":     intent.City,
		"precio_max": priceMax,
		"for_rent":   intent.ForRent,
	}
}
