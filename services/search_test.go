package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buscapisos/ai"
	"buscapisos/config"
	"buscapisos/listings"
	"buscapisos/models"
	"buscapisos/prompts"
	"buscapisos/scraper"
)

type fakeRunner struct {
	items  []models.RawListing
	err    error
	intent models.SearchIntent
	calls  int
	block  bool
}

func (f *fakeRunner) ActorID() string { return "me/pisos" }

func (f *fakeRunner) Run(ctx context.Context, intent models.SearchIntent) (*scraper.RunResult, error) {
	f.calls++
	f.intent = intent
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &scraper.RunResult{Job: models.ScrapeJob{ID: "run1", Status: models.RunStatusSucceeded}, Items: f.items}, nil
}

type fakeCompleter struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Backend:  &config.BackendConfig{ID: "simple"},
		Search:   config.SearchConfig{BandFallback: config.BandFallbackUnfiltered},
		Mortgage: config.MortgageConfig{AnnualRate: 0.03, Years: 25, DownPayment: 0.20},
	}
}

func raws(prices ...float64) []models.RawListing {
	out := make([]models.RawListing, 0, len(prices))
	for _, p := range prices {
		out = append(out, models.RawListing{"price": p, "title": "Piso", "url": "https://example.com"})
	}
	return out
}

func TestSearch_Pipeline(t *testing.T) {
	runner := &fakeRunner{items: raws(130000, 95000, 80000, 50000)}
	svc := NewSearchService(testConfig(), runner, nil, nil, nil)

	ctx := WithRequestID(context.Background(), "req-1")
	resp, err := svc.Search(ctx, "2 pisos en Madrid por 100 mil")

	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 2, runner.intent.ResultCount)
	require.Len(t, resp.Properties, 2)
	assert.Equal(t, 80000.0, resp.Properties[0].Price)
	assert.Equal(t, 95000.0, resp.Properties[1].Price)

	sum := resp.Summary
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 80000.0, sum.MinPrice)
	assert.Equal(t, 87500.0, sum.AvgPrice)
	assert.Equal(t, 95000.0, sum.MaxPrice)
	assert.Equal(t, "req-1", sum.RequestID)
	assert.Equal(t, "simple", sum.Backend)
	assert.Equal(t, "run1", sum.JobID)
	require.NotNil(t, sum.Band)
	assert.Equal(t, listings.Band{Min: 70000, Max: 120000}, *sum.Band)
	assert.False(t, sum.Fallback)
	assert.Contains(t, resp.Intro, "2 propiedades en venta")
	assert.Contains(t, resp.Intro, "100.000 €")
}

func TestSearch_AmbiguousSkipsBackend(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewSearchService(testConfig(), runner, nil, nil, nil)

	_, err := svc.Search(context.Background(), "busca un piso")

	var amb *QueryAmbiguousError
	require.True(t, errors.As(err, &amb))
	assert.ElementsMatch(t, []string{models.MissingBudget, models.MissingLocation}, amb.Missing)
	assert.NotEmpty(t, amb.Examples)
	assert.Equal(t, 0, runner.calls)
}

func TestSearch_BackendErrorsPropagate(t *testing.T) {
	runner := &fakeRunner{err: &scraper.JobFailedError{RunID: "run1", Status: models.RunStatusFailed}}
	svc := NewSearchService(testConfig(), runner, nil, nil, nil)

	_, err := svc.Search(context.Background(), "pisos en valencia por 100000")

	var jobErr *scraper.JobFailedError
	require.True(t, errors.As(err, &jobErr))
	assert.Equal(t, models.RunStatusFailed, jobErr.Status)
}

func TestSearch_NoResults(t *testing.T) {
	cfg := testConfig()
	cfg.Search.BandFallback = config.BandFallbackEmpty
	runner := &fakeRunner{items: raws(400000, 500000)}
	svc := NewSearchService(cfg, runner, nil, nil, nil)

	_, err := svc.Search(context.Background(), "pisos en sevilla por 100000")

	var noRes *NoResultsError
	require.True(t, errors.As(err, &noRes))
	assert.True(t, noRes.BandEmpty)
	assert.Equal(t, 2, noRes.Priced)
	assert.Contains(t, noRes.Message(), "70.000 €")
	assert.Contains(t, noRes.Suggestions()[0], "presupuesto")

	runner.items = nil
	_, err = svc.Search(context.Background(), "pisos en sevilla por 100000")
	require.True(t, errors.As(err, &noRes))
	assert.False(t, noRes.BandEmpty)
	assert.Contains(t, noRes.Message(), "sevilla")
}

func TestSearchTyped_Defaults(t *testing.T) {
	runner := &fakeRunner{items: raws(180000)}
	svc := NewSearchService(testConfig(), runner, nil, nil, nil)

	resp, err := svc.SearchTyped(context.Background(), "", nil, true, 0)

	require.NoError(t, err)
	assert.Equal(t, "madrid", runner.intent.City)
	require.NotNil(t, runner.intent.PriceMax)
	assert.Equal(t, DefaultTypedPriceMax, *runner.intent.PriceMax)
	assert.True(t, runner.intent.ForRent)
	assert.Equal(t, 5, runner.intent.ResultCount)
	assert.True(t, runner.intent.OK())
	assert.Len(t, resp.Properties, 1)
}

func TestInvest_EnrichesAndRanksByYieldWithoutCompleter(t *testing.T) {
	runner := &fakeRunner{items: raws(160000, 200000)}
	svc := NewSearchService(testConfig(), runner, nil, nil, nil)

	resp, err := svc.Invest(context.Background(), InvestmentRequest{Query: "pisos en madrid para alquilar por 180000", Renovation: 10000})

	require.NoError(t, err)
	assert.False(t, runner.intent.ForRent, "investment searches are purchases")
	require.Len(t, resp.Properties, 2)

	first := resp.Properties[0]
	assert.Equal(t, 160000.0, first.Price)
	assert.Equal(t, 533.33, first.MonthlyRent)
	assert.InDelta(t, 606.99, first.MonthlyMortgage, 0.01)
	assert.Equal(t, 4.0, first.GrossYieldPct)
	assert.Equal(t, 2.62, first.NetYieldPct)
	assert.InDelta(t, 533.33*12-first.MonthlyMortgage*12-2000, first.AnnualCashflow, 0.01)

	require.Len(t, resp.Ranking, 2)
	assert.Equal(t, 1, resp.Ranking[0].Rank)
	assert.Empty(t, resp.Summary.Text)
}

func TestInvest_FinancingOverrides(t *testing.T) {
	runner := &fakeRunner{items: raws(100000)}
	svc := NewSearchService(testConfig(), runner, nil, nil, nil)

	zero := 0.0
	full := 1.0
	years := 10
	resp, err := svc.Invest(context.Background(), InvestmentRequest{
		Query:       "pisos en madrid por 100000",
		DownPayment: &full,
		AnnualRate:  &zero,
		Years:       &years,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, resp.Properties[0].MonthlyMortgage)

	half := 0.5
	resp, err = svc.Invest(context.Background(), InvestmentRequest{
		Query:       "pisos en madrid por 100000",
		DownPayment: &half,
		AnnualRate:  &zero,
		Years:       &years,
	})
	require.NoError(t, err)
	assert.Equal(t, finance2(50000.0/120), resp.Properties[0].MonthlyMortgage)
}

func finance2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func TestInvest_UsesPromptsAndCompleter(t *testing.T) {
	store := prompts.NewStore(filepath.Join(t.TempDir(), "prompts.json"))
	completer := &fakeCompleter{replies: []string{
		"```json\n[{\"title\": \"Piso\", \"price\": 100000, \"motivo\": \"mejor cashflow\"}]\n```",
		"Resumen breve.",
	}}
	svc := NewSearchService(testConfig(), &fakeRunner{items: raws(100000)}, nil, ai.NewRanker(completer), store)

	resp, err := svc.Invest(context.Background(), InvestmentRequest{Query: "pisos en madrid por 100000"})

	require.NoError(t, err)
	require.Len(t, resp.Ranking, 1)
	assert.Equal(t, "mejor cashflow", resp.Ranking[0].Reason)
	assert.Equal(t, "Resumen breve.", resp.Summary.Text)
	assert.Equal(t, 2, completer.calls)
}

func TestInvest_CompletionFailureIsError(t *testing.T) {
	completer := &fakeCompleter{err: &ai.CompletionError{StatusCode: 503}}
	svc := NewSearchService(testConfig(), &fakeRunner{items: raws(100000)}, nil, ai.NewRanker(completer), nil)

	_, err := svc.Invest(context.Background(), InvestmentRequest{Query: "pisos en madrid por 100000"})

	var compErr *ai.CompletionError
	assert.True(t, errors.As(err, &compErr))
}

func TestStream_Chunks(t *testing.T) {
	svc := NewSearchService(testConfig(), &fakeRunner{items: raws(90000, 100000)}, nil, nil, nil)

	var chunks []string
	for chunk := range svc.Stream(context.Background(), "pisos en madrid por 100 mil") {
		chunks = append(chunks, chunk)
	}

	require.GreaterOrEqual(t, len(chunks), 6)
	assert.True(t, strings.HasPrefix(chunks[0], "Buscando:"))
	assert.Contains(t, chunks[1], "ciudad madrid")
	assert.Contains(t, chunks[2], "simple")
	assert.Contains(t, chunks[4], "1. Piso")
	assert.Contains(t, chunks[4], "90.000 €")
	assert.Contains(t, chunks[len(chunks)-1], "medio 95.000 €")
}

func TestStream_Ambiguous(t *testing.T) {
	runner := &fakeRunner{}
	svc := NewSearchService(testConfig(), runner, nil, nil, nil)

	var chunks []string
	for chunk := range svc.Stream(context.Background(), "busca un piso") {
		chunks = append(chunks, chunk)
	}

	require.Len(t, chunks, 3)
	assert.Contains(t, chunks[1], "presupuesto")
	assert.Contains(t, chunks[2], "Ejemplos")
	assert.Equal(t, 0, runner.calls)
}

func TestStream_StopsOnCancel(t *testing.T) {
	svc := NewSearchService(testConfig(), &fakeRunner{block: true}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	ch := svc.Stream(ctx, "pisos en madrid por 100 mil")
	<-ch
	cancel()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not close after cancel")
	}
}

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "150.000 €", formatEuros(150000))
	assert.Equal(t, "999 €", formatEuros(999))
	assert.Equal(t, "1.250.000 €", formatEuros(1250000))
	assert.Equal(t, "-1.000 €", formatEuros(-1000))
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
	assert.Len(t, RequestID(context.Background()), 36)
}
