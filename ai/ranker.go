package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"buscapisos/finance"
	"buscapisos/models"
)

// MaxRanked is the size of the final ranking.
const MaxRanked = 5

const responseShape = `Devuelve SOLO un array JSON con como máximo 5 elementos, ordenados del mejor al peor, con esta forma:
[{"title": "...", "url": "...", "price": 0, "gross_yield_pct": 0, "net_yield_pct": 0, "monthly_mortgage": 0, "annual_cashflow": 0, "motivo": "..."}]`

// Ranker orders enriched listings with the completion service. Without a
// completer it ranks by net yield.
type Ranker struct {
	completer Completer
}

func NewRanker(completer Completer) *Ranker {
	return &Ranker{completer: completer}
}

func (r *Ranker) Enabled() bool {
	return r.completer != nil
}

// Rank returns at most MaxRanked items numbered from 1. A reply that cannot
// be parsed becomes a single diagnostic item; only a failed call is an error.
func (r *Ranker) Rank(ctx context.Context, assistantPrompt, query string, listings []models.EnrichedListing) ([]models.RankedListing, error) {
	if r.completer == nil {
		return RankByYield(listings), nil
	}

	user, err := BuildRankingPrompt(query, listings)
	if err != nil {
		return nil, err
	}

	reply, err := r.completer.Complete(ctx, assistantPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("rank listings: %w", err)
	}

	ranked, ok := ParseRanking(reply)
	if !ok {
		log.Printf("AI: could not parse ranking (%d bytes)", len(reply))
		return []models.RankedListing{{
			Error:       "respuesta del modelo no es JSON válido",
			RawResponse: reply,
		}}, nil
	}
	return finalize(ranked), nil
}

// Summarize asks for a short free-text summary of the listings.
func (r *Ranker) Summarize(ctx context.Context, summaryPrompt, query string, listings []models.EnrichedListing) (string, error) {
	if r.completer == nil {
		return "", nil
	}
	data, err := json.Marshal(listings)
	if err != nil {
		return "", fmt.Errorf("encode listings: %w", err)
	}
	user := fmt.Sprintf("Búsqueda: %s\n\nPropiedades:\n%s", query, data)
	reply, err := r.completer.Complete(ctx, summaryPrompt, user)
	if err != nil {
		return "", fmt.Errorf("summarize listings: %w", err)
	}
	return reply, nil
}

// BuildRankingPrompt is the user message of a ranking call.
func BuildRankingPrompt(query string, listings []models.EnrichedListing) (string, error) {
	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode listings: %w", err)
	}
	var b strings.Builder
	b.WriteString("Búsqueda del usuario: ")
	b.WriteString(query)
	b.WriteString("\n\nPropiedades disponibles:\n")
	b.Write(data)
	b.WriteString("\n\n")
	b.WriteString(responseShape)
	return b.String(), nil
}

// ParseRanking reads a JSON array directly, or from the last fenced block.
// Anything other than an array, null included, is not a ranking.
func ParseRanking(reply string) ([]models.RankedListing, bool) {
	if ranked, ok := decodeRanking(reply); ok {
		return ranked, true
	}
	fenced, ok := ExtractFenced(reply)
	if !ok {
		return nil, false
	}
	return decodeRanking(fenced)
}

func decodeRanking(text string) ([]models.RankedListing, bool) {
	var ranked []models.RankedListing
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &ranked); err != nil || ranked == nil {
		return nil, false
	}
	return ranked, true
}

// ExtractFenced returns the content of the last ``` block with any
// language tag removed.
func ExtractFenced(reply string) (string, bool) {
	parts := strings.Split(reply, "```")
	if len(parts) < 3 {
		return "", false
	}
	block := parts[len(parts)-2]

	if nl := strings.IndexByte(block, '\n'); nl >= 0 {
		tag := strings.TrimSpace(block[:nl])
		if tag != "" && !strings.ContainsAny(tag, "[{") {
			block = block[nl+1:]
		}
	}
	return strings.TrimSpace(block), true
}

// RankByYield is the deterministic ranking: highest net yield first, ties in
// input order.
func RankByYield(listings []models.EnrichedListing) []models.RankedListing {
	sorted := make([]models.EnrichedListing, len(listings))
	copy(sorted, listings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].NetYieldPct > sorted[j].NetYieldPct
	})

	ranked := make([]models.RankedListing, 0, len(sorted))
	for _, l := range sorted {
		ranked = append(ranked, models.RankedListing{
			Title:           l.Title,
			URL:             l.URL,
			Price:           l.Price,
			GrossYieldPct:   l.GrossYieldPct,
			NetYieldPct:     l.NetYieldPct,
			MonthlyMortgage: l.MonthlyMortgage,
			AnnualCashflow:  l.AnnualCashflow,
			Reason:          fmt.Sprintf("Rentabilidad neta estimada del %.2f%%", finance.Round2(l.NetYieldPct)),
		})
	}
	return finalize(ranked)
}

func finalize(ranked []models.RankedListing) []models.RankedListing {
	if len(ranked) > MaxRanked {
		ranked = ranked[:MaxRanked]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
