// Package finance holds the investment formulas applied to sale listings.
package finance

import "math"

const (
	DefaultAnnualExpenses = 1200.0

	// Renovation cost is spread over different horizons for yield and for
	// cashflow.
	yieldAmortizationYears    = 10
	cashflowAmortizationYears = 5

	// RentToPriceMonthly estimates monthly rent as 4% of price per year.
	RentToPriceMonthly = 0.04 / 12
)

// Yields are annual returns expressed as percentages with two decimals.
type Yields struct {
	GrossPct float64 `json:"gross_yield_pct"`
	NetPct   float64 `json:"net_yield_pct"`
}

// MortgagePayment returns the monthly payment of an amortizing loan.
func MortgagePayment(principal, annualRate float64, years int) float64 {
	if principal <= 0 || years <= 0 {
		return 0
	}
	n := float64(years * 12)
	if annualRate == 0 {
		return principal / n
	}
	r := annualRate / 12
	factor := math.Pow(1+r, n)
	return principal * r * factor / (factor - 1)
}

// CalculateYields returns gross and net yield for a purchase price.
func CalculateYields(price, rentMonthly, renovationCost, annualExpenses float64) Yields {
	if price <= 0 {
		return Yields{}
	}
	annualRent := rentMonthly * 12
	net := annualRent - annualExpenses
	if renovationCost > 0 {
		net -= renovationCost / yieldAmortizationYears
	}
	return Yields{
		GrossPct: Round2(annualRent / price * 100),
		NetPct:   Round2(net / price * 100),
	}
}

// AnnualCashflow is yearly rent minus mortgage payments and amortized
// renovation.
func AnnualCashflow(rentMonthly, monthlyMortgage, renovationCost float64) float64 {
	cashflow := rentMonthly*12 - monthlyMortgage*12
	if renovationCost > 0 {
		cashflow -= renovationCost / cashflowAmortizationYears
	}
	return cashflow
}

// EstimatedRent is the monthly rent assumed for a sale listing.
func EstimatedRent(price float64) float64 {
	return price * RentToPriceMonthly
}

func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
