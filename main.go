package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buscapisos/ai"
	"buscapisos/config"
	"buscapisos/httputil"
	"buscapisos/listings"
	"buscapisos/logging"
	"buscapisos/prompts"
	"buscapisos/scheduler"
	"buscapisos/scraper"
	"buscapisos/server"
	"buscapisos/services"
)

var (
	queryOnce = flag.String("q", "", "Run one search for the given text, print JSON and exit")
	invest    = flag.Bool("inversion", false, "With -q, run the investment variant")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath, cfg.LogMaxBytes)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting buscapisos...")
	log.Printf("Backend profile: %s (actor: %s, input: %s)", cfg.Backend.ID, cfg.Apify.ActorID, cfg.Backend.InputStyle)
	log.Printf("Apify token: %s", maskToken(cfg.Apify.Token))
	if missing := cfg.Apify.Missing(); len(missing) > 0 {
		log.Printf("Warning: missing %v, searches will fail until set", missing)
	}

	clients := httputil.NewClients(cfg)
	apify := scraper.NewApifyClient(cfg.Apify, clients.Backend, scraper.GetInputBuilder(cfg.Backend))

	var completer ai.Completer
	if cfg.Completion.Enabled() {
		completer = ai.NewChatClient(cfg.Completion, clients.Completion)
		log.Printf("Completion service: %s (model: %s)", cfg.Completion.URL, cfg.Completion.Model)
	} else {
		log.Println("No completion service configured, ranking by yield")
	}

	store := prompts.NewStore(cfg.PromptsPath)
	log.Printf("Prompts file: %s", store.Path())
	search := services.NewSearchService(cfg, apify, listings.NewRanker(cfg.Search.BandFallback), ai.NewRanker(completer), store)

	log.Println("Services initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle one-shot commands
	if *queryOnce != "" {
		os.Exit(runOnce(ctx, search, *queryOnce, *invest))
	}

	// Daemon mode
	health := services.NewHealthcheckService(apify)
	sched := scheduler.New(cfg, health)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	srv, err := server.NewServer(cfg, search, health, store)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	cancel()
	sched.Stop()
	log.Println("Goodbye!")
}

// runOnce prints the JSON response of one search and returns the exit code.
func runOnce(ctx context.Context, search *services.SearchService, text string, investment bool) int {
	var (
		resp interface{}
		err  error
	)
	if investment {
		resp, err = search.Invest(ctx, services.InvestmentRequest{Query: text})
	} else {
		resp, err = search.Search(ctx, text)
	}

	var noResults *services.NoResultsError
	if errors.As(err, &noResults) {
		resp = map[string]interface{}{
			"mensaje":     noResults.Message(),
			"sugerencias": noResults.Suggestions(),
			"propiedades": []interface{}{},
		}
		err = nil
	}
	if err != nil {
		log.Printf("Search failed: %v", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.Printf("Encode failed: %v", err)
		return 1
	}
	return 0
}

// maskToken keeps the last four characters of a credential for logging.
func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
