package listings

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"buscapisos/models"
)

// priceExtractor reads one candidate price location of a raw listing.
// It reports false when the location is absent or holds no positive price.
type priceExtractor func(raw models.RawListing) (float64, bool)

// priceChain is tried in order; the first hit wins.
var priceChain = []priceExtractor{
	numberAt("price"),
	digitStringAt("price"),
	numberAt("price", "amount"),
	numberAt("priceInfo", "price", "amount"),
	numberAt("priceInfo", "amount"),
	numberAt("precio"),
	digitStringAt("precio"),
	numberAt("priceValue"),
	digitStringAt("priceValue"),
	numberAt("rawPrice"),
	digitStringAt("rawPrice"),
}

// ExtractPrice returns the first positive price found along the chain.
func ExtractPrice(raw models.RawListing) (float64, bool) {
	for _, extract := range priceChain {
		if price, ok := extract(raw); ok {
			return price, true
		}
	}
	return 0, false
}

func numberAt(path ...string) priceExtractor {
	return func(raw models.RawListing) (float64, bool) {
		v, ok := lookup(raw, path...)
		if !ok {
			return 0, false
		}
		f, ok := asNumber(v)
		return f, ok && f > 0
	}
}

func digitStringAt(path ...string) priceExtractor {
	return func(raw models.RawListing) (float64, bool) {
		v, ok := lookup(raw, path...)
		if !ok {
			return 0, false
		}
		s, ok := v.(string)
		if !ok {
			return 0, false
		}
		f, ok := parsePriceString(s)
		return f, ok && f > 0
	}
}

// lookup walks nested objects along path.
func lookup(raw map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = raw
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch o := v.(type) {
	case map[string]interface{}:
		return o, true
	case models.RawListing:
		return o, true
	}
	return nil, false
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// parsePriceString reads prices such as "250.000 €", "1.250,50", "95000"
// or "250000.00". Dot and comma group thousands; the last separator is the
// decimal point when one or two digits follow it and no digit after that.
func parsePriceString(s string) (float64, bool) {
	var digits strings.Builder
	decimals := ""
	seen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			digits.WriteByte(c)
			seen = true
		case (c == '.' || c == ',') && seen:
			rest := trailingDigits(s[i+1:])
			if len(rest) >= 1 && len(rest) <= 2 && !strings.ContainsAny(s[i+1+len(rest):], "0123456789") {
				decimals = rest
				i += len(rest)
			}
		case c == ' ' && seen:
		default:
			if seen {
				i = len(s)
			}
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	text := digits.String()
	if decimals != "" {
		text += "." + decimals
	}
	f, err := strconv.ParseFloat(text, 64)
	return f, err == nil
}

func trailingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// textAt returns the first non-empty text among the given paths.
func textAt(raw models.RawListing, paths ...[]string) string {
	for _, path := range paths {
		v, ok := lookup(raw, path...)
		if !ok {
			continue
		}
		if s := plainText(asText(v)); s != "" {
			return s
		}
	}
	return ""
}

func asText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case []interface{}:
		// Image galleries: first entry, either a URL or an object with one.
		if len(t) == 0 {
			return ""
		}
		if obj, ok := asObject(t[0]); ok {
			for _, key := range []string{"url", "src", "href"} {
				if s, ok := obj[key].(string); ok {
					return s
				}
			}
			return ""
		}
		return asText(t[0])
	}
	return ""
}

// plainText reduces an HTML fragment to its text content.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func at(keys ...string) []string {
	return keys
}
