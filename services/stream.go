package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"buscapisos/models"
	"buscapisos/query"
)

// Stream runs a search and emits its progress and results as text chunks.
// The channel is closed when the search ends or ctx is done.
func (s *SearchService) Stream(ctx context.Context, text string) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		emit := func(format string, args ...interface{}) bool {
			select {
			case out <- fmt.Sprintf(format, args...):
				return true
			case <-ctx.Done():
				return false
			}
		}

		intent := query.Parse(text)
		if !emit("Buscando: %s\n", text) {
			return
		}
		if !intent.OK() {
			amb := newAmbiguous(intent)
			if !emit("%s\n", amb.Message()) {
				return
			}
			emit("Ejemplos:\n- %s\n", strings.Join(amb.Examples, "\n- "))
			return
		}
		if !emit("Interpretación: %s\n", describeIntent(intent)) {
			return
		}
		if !emit("Lanzando búsqueda en %s...\n", s.Backend()) {
			return
		}

		resp, err := s.SearchIntent(ctx, intent)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var noResults *NoResultsError
			if errors.As(err, &noResults) {
				if !emit("%s\n", noResults.Message()) {
					return
				}
				for _, sug := range noResults.Suggestions() {
					if !emit("- %s\n", sug) {
						return
					}
				}
				return
			}
			emit("Error: %v\n", err)
			return
		}

		if !emit("%s\n", resp.Intro) {
			return
		}
		for _, l := range resp.Properties {
			if !emit("%d. %s | %s | %s | %s\n", l.Rank, l.Title, formatEuros(l.Price), l.Address, l.URL) {
				return
			}
		}
		sum := resp.Summary
		emit("Precio mínimo %s, medio %s, máximo %s.\n", formatEuros(sum.MinPrice), formatEuros(sum.AvgPrice), formatEuros(sum.MaxPrice))
	}()

	return out
}

func describeIntent(intent models.SearchIntent) string {
	parts := []string{"ciudad " + intent.City}
	if intent.LocationQuery != "" {
		parts = append(parts, "zona "+intent.LocationQuery)
	}
	if intent.PriceMax != nil {
		parts = append(parts, "hasta "+formatEuros(*intent.PriceMax))
	}
	if intent.ForRent {
		parts = append(parts, "alquiler")
	} else {
		parts = append(parts, "compra")
	}
	parts = append(parts, fmt.Sprintf("%d resultados", intent.Count()))
	return strings.Join(parts, ", ")
}
