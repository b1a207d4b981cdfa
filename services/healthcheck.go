package services

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"buscapisos/scraper"
)

// Backend health states.
const (
	HealthOK           = "ok"
	HealthError        = "error"
	HealthUnconfigured = "unconfigured"
)

const probeTimeout = 10 * time.Second

// Pinger checks that the scraping backend answers for the configured actor.
type Pinger interface {
	ActorID() string
	Ping(ctx context.Context) error
}

// BackendHealth is the outcome of the last probe.
type BackendHealth struct {
	Status    string    `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// HealthcheckService probes the backend and keeps the last result.
type HealthcheckService struct {
	pinger Pinger
	last   atomic.Pointer[BackendHealth]
}

func NewHealthcheckService(pinger Pinger) *HealthcheckService {
	return &HealthcheckService{pinger: pinger}
}

// Check runs one probe and stores its result.
func (s *HealthcheckService) Check(ctx context.Context) BackendHealth {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	h := BackendHealth{Status: HealthOK, CheckedAt: time.Now().UTC()}
	if err := s.pinger.Ping(ctx); err != nil {
		var cfgErr *scraper.ConfigurationError
		if errors.As(err, &cfgErr) {
			h.Status = HealthUnconfigured
		} else {
			h.Status = HealthError
			log.Printf("Healthcheck: probe for actor %s failed: %v", s.pinger.ActorID(), err)
		}
		h.Error = err.Error()
	}

	s.last.Store(&h)
	return h
}

// Last returns the most recent probe result, if any.
func (s *HealthcheckService) Last() (BackendHealth, bool) {
	h := s.last.Load()
	if h == nil {
		return BackendHealth{}, false
	}
	return *h, true
}
