// Package query turns a free-text Spanish search request into a SearchIntent.
package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"buscapisos/models"
)

const (
	DefaultCity        = "madrid"
	DefaultResultCount = 5

	// Integers at or above this value are read as prices even without a
	// thousand marker.
	priceFloor = 5000
)

var (
	countRegex = regexp.MustCompile(`(\d+)\s*(?:pisos?|apartamentos?|viviendas?|casas?)\b`)

	// A dot or comma groups thousands only after a 1-3 digit lead, so
	// "90000,120000" stays two numbers.
	thousandRegex = regexp.MustCompile(`\b(\d{1,3}(?:[.,]\d{3})+\b|\d+)\s*(?:mil|k)\b`)
	integerRegex  = regexp.MustCompile(`\b(?:\d{1,3}(?:[.,]\d{3})+\b|\d+)`)
	postalRegex   = regexp.MustCompile(`\b\d{5}\b`)

	rentKeywords = []string{
		"alquiler", "alquilar", "alquilo", "renta", "rentar",
		"arrendar", "arrendamiento", "arriendo",
	}

	// Order matters: the first marker found closes the location clause.
	clauseBoundaries = []string{" por ", " para ", " que ", " y ", ".", ","}

	postalPrefixes = []string{"el código postal", "código postal", "codigo postal", "el cp ", "cp "}

	// Checked in this order; the first substring hit wins.
	knownCities = []string{
		"madrid", "barcelona", "valencia", "sevilla", "zaragoza", "málaga",
		"malaga", "murcia", "palma", "bilbao", "alicante", "córdoba",
		"cordoba", "valladolid", "vigo", "gijón", "gijon", "granada",
		"a coruña", "vitoria", "santander", "salamanca", "pamplona",
		"toledo", "cádiz", "cadiz",
	}
)

// Parse reads text and returns a best-effort intent. It never fails;
// anything it cannot determine is listed in MissingFields.
func Parse(text string) models.SearchIntent {
	lower := strings.ToLower(strings.TrimSpace(text))

	intent := models.SearchIntent{
		RawQuery:    text,
		ResultCount: parseCount(lower),
		ForRent:     containsAny(lower, rentKeywords),
	}

	if price, ok := parsePrice(lower); ok {
		intent.PriceMax = &price
	} else {
		intent.MissingFields = append(intent.MissingFields, models.MissingBudget)
	}

	location, city := parseLocation(lower)
	intent.LocationQuery = location
	if location == "" {
		intent.MissingFields = append(intent.MissingFields, models.MissingLocation)
	}

	switch {
	case city != "":
		intent.City = city
	case location != "":
		intent.City = cityFromLocation(location)
	default:
		intent.City = DefaultCity
	}

	return intent
}

func parseCount(lower string) int {
	m := countRegex.FindStringSubmatch(lower)
	if m == nil {
		return DefaultResultCount
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return DefaultResultCount
	}
	return n
}

// parsePrice applies the budget heuristic: "<n> mil" first, then the largest
// integer >= priceFloor, then the last integer in the text.
func parsePrice(lower string) (float64, bool) {
	if m := thousandRegex.FindStringSubmatch(lower); m != nil {
		if n, ok := parseInteger(m[1]); ok {
			return n * 1000, true
		}
	}

	var values []float64
	for _, tok := range integerRegex.FindAllString(lower, -1) {
		if n, ok := parseInteger(tok); ok {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return 0, false
	}

	var large []float64
	for _, v := range values {
		if v >= priceFloor {
			large = append(large, v)
		}
	}
	if len(large) > 0 {
		sort.Float64s(large)
		return large[len(large)-1], true
	}
	return values[len(values)-1], true
}

func parseInteger(tok string) (float64, bool) {
	clean := strings.NewReplacer(".", "", ",", "").Replace(tok)
	n, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseLocation returns the location fragment and, when it came from the
// known-city list, the city as well.
func parseLocation(lower string) (location, city string) {
	if loc := locationAfterEn(lower); loc != "" {
		return loc, ""
	}
	for _, c := range knownCities {
		if strings.Contains(lower, c) {
			return c, c
		}
	}
	if postal := postalRegex.FindString(lower); postal != "" {
		return postal, ""
	}
	return "", ""
}

func locationAfterEn(lower string) string {
	idx := strings.LastIndex(lower, " en ")
	if idx < 0 {
		return ""
	}
	fragment := lower[idx+len(" en "):]

	cut := len(fragment)
	for _, marker := range clauseBoundaries {
		if i := strings.Index(fragment, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	fragment = trimLocation(fragment[:cut])

	for _, prefix := range postalPrefixes {
		if strings.HasPrefix(fragment, prefix) {
			fragment = trimLocation(fragment[len(prefix):])
			break
		}
	}
	return fragment
}

func trimLocation(s string) string {
	return strings.Trim(s, " \t\n.,;:!?¿¡\"'()")
}

func cityFromLocation(location string) string {
	first := strings.SplitN(location, ",", 2)[0]
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return DefaultCity
	}
	return fields[0]
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
