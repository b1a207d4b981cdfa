package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"buscapisos/ai"
	"buscapisos/config"
	"buscapisos/finance"
	"buscapisos/listings"
	"buscapisos/models"
	"buscapisos/prompts"
	"buscapisos/query"
	"buscapisos/scraper"
)

// DefaultTypedPriceMax is used by typed searches without a price.
const DefaultTypedPriceMax = 200000.0

// JobRunner runs one backend job for an intent.
type JobRunner interface {
	ActorID() string
	Run(ctx context.Context, intent models.SearchIntent) (*scraper.RunResult, error)
}

// SearchService runs the parse, scrape, select and assemble pipeline.
// It keeps no per-request state.
type SearchService struct {
	cfg      *config.Config
	runner   JobRunner
	selector *listings.Ranker
	ranker   *ai.Ranker
	prompts  *prompts.Store
}

func NewSearchService(cfg *config.Config, runner JobRunner, selector *listings.Ranker, ranker *ai.Ranker, store *prompts.Store) *SearchService {
	if selector == nil {
		selector = listings.NewRanker(cfg.Search.BandFallback)
	}
	if ranker == nil {
		ranker = ai.NewRanker(nil)
	}
	return &SearchService{cfg: cfg, runner: runner, selector: selector, ranker: ranker, prompts: store}
}

// Summary is the deterministic meta block of every response.
type Summary struct {
	Count     int            `json:"total"`
	MinPrice  float64        `json:"precio_min"`
	AvgPrice  float64        `json:"precio_medio"`
	MaxPrice  float64        `json:"precio_max"`
	Band      *listings.Band `json:"banda,omitempty"`
	Fallback  bool           `json:"sin_filtro_banda"`
	Backend   string         `json:"backend"`
	JobID     string         `json:"job_id,omitempty"`
	RequestID string         `json:"request_id"`
	Text      string         `json:"texto,omitempty"`
}

type SearchResponse struct {
	Intro      string                    `json:"mensaje"`
	Intent     models.SearchIntent       `json:"busqueda"`
	Properties []models.CanonicalListing `json:"propiedades"`
	Summary    Summary                   `json:"resumen"`
}

type InvestmentResponse struct {
	Intro      string                   `json:"mensaje"`
	Intent     models.SearchIntent      `json:"busqueda"`
	Properties []models.EnrichedListing `json:"propiedades"`
	Ranking    []models.RankedListing   `json:"ranking"`
	Summary    Summary                  `json:"resumen"`
}

// InvestmentRequest carries the free text and optional financing overrides.
type InvestmentRequest struct {
	Query       string
	Renovation  float64
	DownPayment *float64
	AnnualRate  *float64
	Years       *int
}

// Backend names the active scraping profile.
func (s *SearchService) Backend() string {
	if s.cfg.Backend != nil {
		return s.cfg.Backend.ID
	}
	return config.DefaultBackend
}

func (s *SearchService) ActorID() string {
	return s.runner.ActorID()
}

// Search interprets free text and returns the selected listings.
func (s *SearchService) Search(ctx context.Context, text string) (*SearchResponse, error) {
	return s.SearchIntent(ctx, query.Parse(text))
}

// SearchTyped runs the simple variant from explicit parameters. It is never
// ambiguous.
func (s *SearchService) SearchTyped(ctx context.Context, city string, priceMax *float64, forRent bool, count int) (*SearchResponse, error) {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		city = query.DefaultCity
	}
	price := DefaultTypedPriceMax
	if priceMax != nil && *priceMax > 0 {
		price = *priceMax
	}
	if count < 1 {
		count = query.DefaultResultCount
	}

	op := "comprar"
	if forRent {
		op = "alquilar"
	}
	intent := models.SearchIntent{
		RawQuery:      fmt.Sprintf("%d pisos en %s para %s por %s", count, city, op, formatEuros(price)),
		LocationQuery: city,
		City:          city,
		PriceMax:      &price,
		ForRent:       forRent,
		ResultCount:   count,
	}
	return s.SearchIntent(ctx, intent)
}

// SearchIntent runs the pipeline for an already built intent.
func (s *SearchService) SearchIntent(ctx context.Context, intent models.SearchIntent) (*SearchResponse, error) {
	reqID := RequestID(ctx)

	sel, job, err := s.fetch(ctx, reqID, intent)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Intro:      intro(intent, len(sel.Listings)),
		Intent:     intent,
		Properties: sel.Listings,
		Summary:    s.summarize(reqID, job, sel, canonicalPrices(sel.Listings)),
	}, nil
}

// Invest searches purchases only and adds financing metrics and a ranking.
func (s *SearchService) Invest(ctx context.Context, req InvestmentRequest) (*InvestmentResponse, error) {
	reqID := RequestID(ctx)

	intent := query.Parse(req.Query)
	intent.ForRent = false

	sel, job, err := s.fetch(ctx, reqID, intent)
	if err != nil {
		return nil, err
	}

	financing := s.financing(req)
	enriched := make([]models.EnrichedListing, 0, len(sel.Listings))
	for _, l := range sel.Listings {
		enriched = append(enriched, Enrich(l, req.Renovation, financing))
	}

	p := s.currentPrompts()
	ranking, err := s.ranker.Rank(ctx, p.AssistantPrompt, req.Query, enriched)
	if err != nil {
		log.Printf("Search[%s]: ranking failed: %v", reqID, err)
		return nil, err
	}

	summary := s.summarize(reqID, job, sel, canonicalPrices(sel.Listings))
	if s.ranker.Enabled() {
		text, err := s.ranker.Summarize(ctx, p.SummaryPrompt, req.Query, enriched)
		if err != nil {
			log.Printf("Search[%s]: summary failed, keeping meta only: %v", reqID, err)
		}
		summary.Text = text
	}

	return &InvestmentResponse{
		Intro:      intro(intent, len(enriched)),
		Intent:     intent,
		Properties: enriched,
		Ranking:    ranking,
		Summary:    summary,
	}, nil
}

// Financing is the loan used to compute mortgage and cashflow.
type Financing struct {
	DownPayment float64
	AnnualRate  float64
	Years       int
}

func (s *SearchService) financing(req InvestmentRequest) Financing {
	f := Financing{
		DownPayment: s.cfg.Mortgage.DownPayment,
		AnnualRate:  s.cfg.Mortgage.AnnualRate,
		Years:       s.cfg.Mortgage.Years,
	}
	if req.DownPayment != nil && *req.DownPayment >= 0 && *req.DownPayment <= 1 {
		f.DownPayment = *req.DownPayment
	}
	if req.AnnualRate != nil && *req.AnnualRate >= 0 {
		f.AnnualRate = *req.AnnualRate
	}
	if req.Years != nil && *req.Years > 0 {
		f.Years = *req.Years
	}
	return f
}

// Enrich computes yields, mortgage and cashflow for a purchase listing.
func Enrich(l models.CanonicalListing, renovation float64, f Financing) models.EnrichedListing {
	rent := finance.Round2(finance.EstimatedRent(l.Price))
	principal := l.Price * (1 - f.DownPayment)
	mortgage := finance.Round2(finance.MortgagePayment(principal, f.AnnualRate, f.Years))
	yields := finance.CalculateYields(l.Price, rent, renovation, finance.DefaultAnnualExpenses)

	return models.EnrichedListing{
		CanonicalListing: l,
		MonthlyRent:      rent,
		RenovationCost:   renovation,
		GrossYieldPct:    yields.GrossPct,
		NetYieldPct:      yields.NetPct,
		MonthlyMortgage:  mortgage,
		AnnualCashflow:   finance.Round2(finance.AnnualCashflow(rent, mortgage, renovation)),
	}
}

func (s *SearchService) fetch(ctx context.Context, reqID string, intent models.SearchIntent) (listings.Selection, models.ScrapeJob, error) {
	if !intent.OK() {
		log.Printf("Search[%s]: ambiguous query %q, missing %v", reqID, intent.RawQuery, intent.MissingFields)
		return listings.Selection{}, models.ScrapeJob{}, newAmbiguous(intent)
	}

	log.Printf("Search[%s]: city=%s location=%q rent=%v count=%d", reqID, intent.City, intent.LocationQuery, intent.ForRent, intent.Count())

	result, err := s.runner.Run(ctx, intent)
	if err != nil {
		log.Printf("Search[%s]: backend error: %v", reqID, err)
		return listings.Selection{}, models.ScrapeJob{}, err
	}

	sel := s.selector.Select(result.Items, intent)
	if len(sel.Listings) == 0 {
		log.Printf("Search[%s]: no results (%d items, %d priced)", reqID, len(result.Items), sel.Priced)
		return sel, result.Job, &NoResultsError{Intent: intent, Band: sel.Band, BandEmpty: sel.BandEmpty, Priced: sel.Priced}
	}
	return sel, result.Job, nil
}

func (s *SearchService) currentPrompts() models.Prompts {
	if s.prompts == nil {
		return prompts.Defaults()
	}
	return s.prompts.Get()
}

func (s *SearchService) summarize(reqID string, job models.ScrapeJob, sel listings.Selection, prices []float64) Summary {
	sum := Summary{
		Count:     len(prices),
		Band:      sel.Band,
		Fallback:  sel.FellBack,
		Backend:   s.Backend(),
		JobID:     job.ID,
		RequestID: reqID,
	}
	if len(prices) == 0 {
		return sum
	}

	sum.MinPrice, sum.MaxPrice = prices[0], prices[0]
	total := 0.0
	for _, p := range prices {
		total += p
		if p < sum.MinPrice {
			sum.MinPrice = p
		}
		if p > sum.MaxPrice {
			sum.MaxPrice = p
		}
	}
	sum.AvgPrice = finance.Round2(total / float64(len(prices)))
	return sum
}

func canonicalPrices(ls []models.CanonicalListing) []float64 {
	out := make([]float64, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Price)
	}
	return out
}

func intro(intent models.SearchIntent, n int) string {
	op := "en venta"
	if intent.ForRent {
		op = "en alquiler"
	}
	where := intent.City
	if intent.LocationQuery != "" && intent.LocationQuery != intent.City {
		where = intent.LocationQuery + " (" + intent.City + ")"
	}
	budget := ""
	if intent.PriceMax != nil {
		budget = " por unos " + formatEuros(*intent.PriceMax)
	}
	if n == 1 {
		return fmt.Sprintf("He encontrado 1 propiedad %s en %s%s.", op, where, budget)
	}
	return fmt.Sprintf("He encontrado %d propiedades %s en %s%s.", n, op, where, budget)
}
