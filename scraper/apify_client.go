package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"buscapisos/config"
	"buscapisos/models"
)

const maxResponseBytes = 32 << 20

// ApifyClient runs one actor job per search: start, poll, fetch.
type ApifyClient struct {
	cfg     config.ApifyConfig
	client  *http.Client
	builder RunInputBuilder
}

// RunResult is a finished job and its dataset items in backend order.
type RunResult struct {
	Job   models.ScrapeJob
	Items []models.RawListing
}

func NewApifyClient(cfg config.ApifyConfig, client *http.Client, builder RunInputBuilder) *ApifyClient {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if builder == nil {
		builder = &SimpleInput{}
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = config.DefaultPollAttempts
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultApifyBaseURL
	}
	return &ApifyClient{cfg: cfg, client: client, builder: builder}
}

func (c *ApifyClient) ActorID() string {
	return c.cfg.ActorID
}

// CheckConfig fails with ConfigurationError when credentials are missing.
func (c *ApifyClient) CheckConfig() error {
	if missing := c.cfg.Missing(); len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// Run executes the full protocol for intent.
func (c *ApifyClient) Run(ctx context.Context, intent models.SearchIntent) (*RunResult, error) {
	job, err := c.StartRun(ctx, intent)
	if err != nil {
		return nil, err
	}
	log.Printf("Apify run started: %s (actor: %s)", job.ID, c.cfg.ActorID)

	job, err = c.WaitForRun(ctx, job)
	if err != nil {
		return nil, err
	}
	log.Printf("Apify run complete after %d polls, dataset: %s", job.Attempts, job.DatasetID)

	items, err := c.FetchDataset(ctx, job.DatasetID)
	if err != nil {
		return nil, err
	}
	log.Printf("Fetched %d items from Apify", len(items))

	return &RunResult{Job: job, Items: items}, nil
}

// StartRun submits the actor input and returns the new job.
func (c *ApifyClient) StartRun(ctx context.Context, intent models.SearchIntent) (models.ScrapeJob, error) {
	if err := c.CheckConfig(); err != nil {
		return models.ScrapeJob{}, err
	}

	body, err := json.Marshal(c.builder.BuildInput(intent))
	if err != nil {
		return models.ScrapeJob{}, fmt.Errorf("encode run input: %w", err)
	}
	log.Printf("Apify input (%s): %s", c.builder.Style(), string(body))

	endpoint := fmt.Sprintf("%s/acts/%s/runs", c.cfg.BaseURL, url.PathEscape(actorPath(c.cfg.ActorID)))
	raw, err := c.do(ctx, StageSubmit, http.MethodPost, endpoint, body)
	if err != nil {
		return models.ScrapeJob{}, err
	}

	run, err := decodeRun(StageSubmit, raw)
	if err != nil {
		return models.ScrapeJob{}, err
	}
	if run.ID == "" {
		return models.ScrapeJob{}, &ProtocolError{Stage: StageSubmit, Field: "id", Raw: truncateRaw(raw)}
	}

	return models.ScrapeJob{ID: run.ID, Status: models.RunStatusUnknown}, nil
}

// WaitForRun polls the job at a fixed interval until it reaches a terminal
// status or the attempt cap runs out.
func (c *ApifyClient) WaitForRun(ctx context.Context, job models.ScrapeJob) (models.ScrapeJob, error) {
	if err := c.CheckConfig(); err != nil {
		return job, err
	}

	endpoint := fmt.Sprintf("%s/actor-runs/%s", c.cfg.BaseURL, url.PathEscape(job.ID))
	job.Status = models.RunStatusUnknown

	var (
		run     runData
		lastRaw []byte
	)
	for attempt := 1; attempt <= c.cfg.MaxPollAttempts; attempt++ {
		job.Attempts = attempt

		raw, err := c.do(ctx, StagePoll, http.MethodGet, endpoint, nil)
		if err != nil {
			return job, err
		}
		run, err = decodeRun(StagePoll, raw)
		if err != nil {
			return job, err
		}
		lastRaw = raw

		job.Status = models.ParseRunStatus(run.Status)
		if job.Status.Terminal() {
			break
		}

		log.Printf("Apify run %s status: %s (%d/%d)", job.ID, run.Status, attempt, c.cfg.MaxPollAttempts)
		if attempt < c.cfg.MaxPollAttempts {
			if err := sleepCtx(ctx, c.cfg.PollInterval); err != nil {
				return job, err
			}
		}
	}

	if !job.Status.Terminal() {
		job.Status = models.RunStatusUnknown
		return job, &JobFailedError{RunID: job.ID, Status: job.Status, Attempts: job.Attempts}
	}
	if job.Status != models.RunStatusSucceeded {
		return job, &JobFailedError{RunID: job.ID, Status: job.Status, RawStatus: run.Status, Attempts: job.Attempts}
	}

	job.DatasetID = run.datasetID()
	if job.DatasetID == "" {
		return job, &ProtocolError{Stage: StagePoll, Field: "defaultDatasetId", Raw: truncateRaw(lastRaw)}
	}
	return job, nil
}

// FetchDataset downloads the items of a finished run.
func (c *ApifyClient) FetchDataset(ctx context.Context, datasetID string) ([]models.RawListing, error) {
	if err := c.CheckConfig(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/datasets/%s/items?format=json&clean=true", c.cfg.BaseURL, url.PathEscape(datasetID))
	raw, err := c.do(ctx, StageFetch, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ProtocolError{Stage: StageFetch, Field: "items array", Raw: truncateRaw(raw)}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &ProtocolError{Stage: StageFetch, Field: "items array", Raw: truncateRaw(raw)}
	}

	listings := make([]models.RawListing, 0, len(items))
	for i, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var listing models.RawListing
		if err := dec.Decode(&listing); err != nil || listing == nil {
			log.Printf("Skipping dataset item %d: not an object", i)
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// Ping reads the actor record; used by the periodic health probe.
func (c *ApifyClient) Ping(ctx context.Context) error {
	if err := c.CheckConfig(); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/acts/%s", c.cfg.BaseURL, url.PathEscape(actorPath(c.cfg.ActorID)))
	_, err := c.do(ctx, StageProbe, http.MethodGet, endpoint, nil)
	return err
}

func (c *ApifyClient) do(ctx context.Context, stage, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &TransportError{Stage: stage, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Stage: stage, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Stage: stage, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Stage: stage, StatusCode: resp.StatusCode, Body: truncateRaw(raw)}
	}
	return raw, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
