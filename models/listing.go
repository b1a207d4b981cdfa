package models

// RawListing is one dataset item exactly as the backend returned it.
// No schema is guaranteed.
type RawListing map[string]interface{}

type OperationType string

const (
	OperationRent OperationType = "RENT"
	OperationSale OperationType = "SALE"
)

// CanonicalListing is the normalized, UI-ready form of a listing.
type CanonicalListing struct {
	Rank          int           `json:"rank"`
	Title         string        `json:"title"`
	Address       string        `json:"address"`
	URL           string        `json:"url"`
	PhotoURL      string        `json:"photo_url"`
	Price         float64       `json:"price"`
	OperationType OperationType `json:"operation_type"`
	Typology      string        `json:"typology"`
	RentEstimate  *float64      `json:"rent_estimate,omitempty"`
}

// EnrichedListing adds investment metrics to a canonical listing.
type EnrichedListing struct {
	CanonicalListing
	MonthlyRent     float64 `json:"monthly_rent"`
	RenovationCost  float64 `json:"renovation_cost"`
	GrossYieldPct   float64 `json:"gross_yield_pct"`
	NetYieldPct     float64 `json:"net_yield_pct"`
	MonthlyMortgage float64 `json:"monthly_mortgage"`
	AnnualCashflow  float64 `json:"annual_cashflow"`
}

// RankedListing is one item of the AI ranking. A diagnostic item carries
// Error and RawResponse instead of listing data.
type RankedListing struct {
	Rank            int     `json:"rank,omitempty"`
	Title           string  `json:"title,omitempty"`
	URL             string  `json:"url,omitempty"`
	Price           float64 `json:"price,omitempty"`
	GrossYieldPct   float64 `json:"gross_yield_pct,omitempty"`
	NetYieldPct     float64 `json:"net_yield_pct,omitempty"`
	MonthlyMortgage float64 `json:"monthly_mortgage,omitempty"`
	AnnualCashflow  float64 `json:"annual_cashflow,omitempty"`
	Reason          string  `json:"motivo,omitempty"`
	Error           string  `json:"error,omitempty"`
	RawResponse     string  `json:"raw_response,omitempty"`
}
