package models

// Names reported in SearchIntent.MissingFields.
const (
	MissingBudget   = "presupuesto"
	MissingLocation = "ubicación"
)

// SearchIntent is the structured reading of one free-text search request.
// It is built once per request and not modified afterwards.
type SearchIntent struct {
	RawQuery      string   `json:"raw_query"`
	LocationQuery string   `json:"location_query"`
	City          string   `json:"city"`
	PriceMax      *float64 `json:"price_max,omitempty"`
	ForRent       bool     `json:"for_rent"`
	ResultCount   int      `json:"result_count"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// OK reports whether the parser resolved every required field.
func (i SearchIntent) OK() bool {
	return len(i.MissingFields) == 0
}

// Operation returns the operation type the intent asks for.
func (i SearchIntent) Operation() OperationType {
	if i.ForRent {
		return OperationRent
	}
	return OperationSale
}

// Count returns ResultCount clamped to at least one.
func (i SearchIntent) Count() int {
	if i.ResultCount < 1 {
		return 1
	}
	return i.ResultCount
}
