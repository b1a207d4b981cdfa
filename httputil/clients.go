package httputil

import (
	"net/http"
	"time"

	"buscapisos/config"
)

const backendTimeout = 30 * time.Second

type Clients struct {
	Backend    *http.Client // Apify run, poll and dataset calls
	Completion *http.Client // chat-completions service
}

func NewClients(cfg *config.Config) *Clients {
	timeout := cfg.Completion.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Clients{
		Backend:    &http.Client{Timeout: backendTimeout, Transport: transport},
		Completion: &http.Client{Timeout: timeout, Transport: transport},
	}
}
