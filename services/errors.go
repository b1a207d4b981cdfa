package services

import (
	"fmt"
	"strings"

	"buscapisos/listings"
	"buscapisos/models"
)

// QueryExamples are shown when a request cannot be interpreted.
var QueryExamples = []string{
	"Quiero 3 pisos en Chamberí por 300 mil",
	"Busco alquilar en Valencia por 900",
	"2 casas en código postal 28005 para comprar por 250000",
}

// QueryAmbiguousError means the parser could not resolve budget or location.
type QueryAmbiguousError struct {
	Intent   models.SearchIntent
	Missing  []string
	Examples []string
}

func (e *QueryAmbiguousError) Error() string {
	return fmt.Sprintf("query ambiguous: missing %s", strings.Join(e.Missing, ", "))
}

// Message is the client-facing explanation.
func (e *QueryAmbiguousError) Message() string {
	return fmt.Sprintf("Necesito más información para buscar: indica %s.", strings.Join(e.Missing, " y "))
}

func newAmbiguous(intent models.SearchIntent) *QueryAmbiguousError {
	return &QueryAmbiguousError{
		Intent:   intent,
		Missing:  intent.MissingFields,
		Examples: QueryExamples,
	}
}

// NoResultsError is a search that produced no listings. It is answered as a
// regular, empty response.
type NoResultsError struct {
	Intent    models.SearchIntent
	Band      *listings.Band
	BandEmpty bool
	Priced    int
}

func (e *NoResultsError) Error() string {
	if e.BandEmpty {
		return fmt.Sprintf("no results in band [%.2f, %.2f] (%d priced)", e.Band.Min, e.Band.Max, e.Priced)
	}
	return "no results"
}

func (e *NoResultsError) Message() string {
	if e.BandEmpty && e.Band != nil {
		return fmt.Sprintf("Hay %d propiedades en %s, pero ninguna entre %s y %s.",
			e.Priced, e.location(), formatEuros(e.Band.Min), formatEuros(e.Band.Max))
	}
	return fmt.Sprintf("No se encontraron propiedades en %s.", e.location())
}

func (e *NoResultsError) Suggestions() []string {
	suggestions := []string{
		"Prueba con una zona cercana o con la ciudad completa.",
		"Pide más resultados, por ejemplo \"10 pisos\".",
	}
	if e.BandEmpty {
		return append([]string{"Amplía el presupuesto o indica una cifra distinta."}, suggestions...)
	}
	if e.Intent.ForRent {
		return append(suggestions, "Busca también pisos en venta.")
	}
	return append(suggestions, "Busca también pisos en alquiler.")
}

func (e *NoResultsError) location() string {
	if e.Intent.LocationQuery != "" {
		return e.Intent.LocationQuery
	}
	return e.Intent.City
}
