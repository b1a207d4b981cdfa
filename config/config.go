package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultApifyBaseURL    = "https://api.apify.com/v2"
	DefaultCompletionURL   = "https://api.openai.com/v1/chat/completions"
	DefaultBackend         = "simple"
	DefaultBackendsDir     = "config/backends"
	DefaultPollInterval    = time.Second
	DefaultPollAttempts    = 60
	DefaultHealthcheckSpec = "@every 5m"
)

// Zero-survivor policies for the price band filter.
const (
	BandFallbackUnfiltered = "unfiltered"
	BandFallbackEmpty      = "empty"
)

type Config struct {
	Apify       ApifyConfig
	Backend     *BackendConfig
	Backends    map[string]*BackendConfig
	Completion  CompletionConfig
	Search      SearchConfig
	Mortgage    MortgageConfig
	Server      ServerConfig
	Scheduler   SchedulerConfig
	PromptsPath string
	LogPath     string
	LogMaxBytes int64
}

type ApifyConfig struct {
	Token           string
	ActorID         string
	BaseURL         string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Missing lists the credential variables that are not set.
func (a ApifyConfig) Missing() []string {
	var missing []string
	if a.Token == "" {
		missing = append(missing, "APIFY_TOKEN")
	}
	if a.ActorID == "" {
		missing = append(missing, "APIFY_ACTOR_ID")
	}
	return missing
}

// BackendConfig describes one scraping actor and how to build its input.
type BackendConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	ActorID      string `yaml:"actor_id"`
	InputStyle   string `yaml:"input_style"`
	Country      string `yaml:"country"`
	PropertyType string `yaml:"property_type"`
	MaxItems     int    `yaml:"max_items"`
	ProxyGroup   string `yaml:"proxy_group"`
	ProxyCountry string `yaml:"proxy_country"`
}

type CompletionConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Enabled reports whether a completion service is configured.
func (c CompletionConfig) Enabled() bool {
	return c.APIKey != "" && c.URL != ""
}

type SearchConfig struct {
	BandFallback string
}

type MortgageConfig struct {
	AnnualRate  float64
	Years       int
	DownPayment float64
}

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

type SchedulerConfig struct {
	HealthcheckCron string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("APIFY_TOKEN")
	if token == "" {
		token = os.Getenv("APIFY_API_KEY")
	}

	cfg := &Config{
		Apify: ApifyConfig{
			Token:           token,
			BaseURL:         strings.TrimRight(getEnv("APIFY_BASE_URL", DefaultApifyBaseURL), "/"),
			PollInterval:    getEnvDuration("POLL_INTERVAL", DefaultPollInterval),
			MaxPollAttempts: getEnvInt("POLL_MAX_ATTEMPTS", DefaultPollAttempts),
		},
		Backends: make(map[string]*BackendConfig),
		Completion: CompletionConfig{
			URL:     getEnv("COMPLETION_API_URL", DefaultCompletionURL),
			APIKey:  os.Getenv("COMPLETION_API_KEY"),
			Model:   getEnv("COMPLETION_MODEL", "gpt-4o-mini"),
			Timeout: getEnvDuration("COMPLETION_TIMEOUT", 60*time.Second),
		},
		Search: SearchConfig{
			BandFallback: getEnv("BAND_FALLBACK", BandFallbackUnfiltered),
		},
		Mortgage: MortgageConfig{
			AnnualRate:  getEnvFloat("MORTGAGE_RATE", 0.03),
			Years:       getEnvInt("MORTGAGE_YEARS", 25),
			DownPayment: getEnvFloat("MORTGAGE_DOWN_PAYMENT", 0.20),
		},
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8000"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		Scheduler: SchedulerConfig{
			HealthcheckCron: getEnv("HEALTHCHECK_CRON", DefaultHealthcheckSpec),
		},
		PromptsPath: getEnv("PROMPTS_PATH", "prompts.json"),
		LogPath:     getEnv("LOG_PATH", "buscapisos.log"),
		LogMaxBytes: int64(getEnvInt("LOG_MAX_BYTES", 2*1024*1024)),
	}

	if err := cfg.loadBackends(getEnv("BACKENDS_DIR", DefaultBackendsDir)); err != nil {
		return nil, err
	}
	cfg.selectBackend(getEnv("SCRAPE_BACKEND", DefaultBackend), os.Getenv("APIFY_ACTOR_ID"))

	return cfg, nil
}

func (c *Config) loadBackends(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}

		var backend BackendConfig
		if err := yaml.Unmarshal(data, &backend); err != nil {
			return err
		}
		if backend.ID == "" {
			backend.ID = strings.TrimSuffix(entry.Name(), ext)
		}
		c.Backends[backend.ID] = &backend
	}

	return nil
}

// selectBackend picks the active profile; an explicit actor id from the
// environment wins over the profile's.
func (c *Config) selectBackend(id, actorOverride string) {
	backend, ok := c.Backends[id]
	if !ok {
		backend = &BackendConfig{ID: id, Name: id, InputStyle: id}
		c.Backends[id] = backend
	}
	if backend.InputStyle == "" {
		backend.InputStyle = backend.ID
	}
	if actorOverride != "" {
		backend.ActorID = actorOverride
	}
	c.Backend = backend
	c.Apify.ActorID = backend.ActorID
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
