package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"buscapisos/config"
	"buscapisos/services"
)

// Prober runs one backend health probe.
type Prober interface {
	Check(ctx context.Context) services.BackendHealth
}

type Scheduler struct {
	cfg       *config.Config
	prober    Prober
	cron      *cron.Cron
	triggerCh chan struct{}
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func New(cfg *config.Config, prober Prober) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		prober:    prober,
		cron:      cron.New(),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start probes once, then on the configured cron spec. An empty spec
// disables periodic probes; Trigger still works.
func (s *Scheduler) Start(ctx context.Context) error {
	go s.runTriggers(ctx)
	s.Trigger()

	spec := s.cfg.Scheduler.HealthcheckCron
	if spec == "" {
		log.Println("No healthcheck schedule configured, probing on demand only")
		return nil
	}

	log.Printf("Starting healthcheck scheduler with cron: %s", spec)
	if _, err := s.cron.AddFunc(spec, s.Trigger); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	s.cron.Start()
	return nil
}

// Trigger queues a probe; a probe already queued absorbs it.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		close(s.stopCh)
	})
}

func (s *Scheduler) runTriggers(ctx context.Context) {
	for {
		select {
		case <-s.triggerCh:
			h := s.prober.Check(ctx)
			log.Printf("Healthcheck: backend %s", h.Status)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
