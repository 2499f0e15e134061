package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/foresight/internal/provider/openai"
)

// Config represents the service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	OpenAI    openai.Config
	RateLimit RateLimitConfig
	Ledger    LedgerConfig
	Cache     CacheConfig
	Research  ResearchConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"300"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// RateLimitConfig governs the shared request-rate ceiling.
type RateLimitConfig struct {
	Limit     int    `env:"RATE_LIMIT"            envDefault:"20"`
	WindowSec int    `env:"RATE_WINDOW_SEC"       envDefault:"60"`
	ExpirySec int    `env:"RATE_LOG_EXPIRY_SEC"   envDefault:"3600"`
	StatePath string `env:"RATE_STATE_PATH"       envDefault:"state/rate_window.json"`
}

// LedgerConfig governs quota accounting and the audit trail.
type LedgerConfig struct {
	QuotasPath   string `env:"LEDGER_QUOTAS_PATH"   envDefault:"quotas.yaml"`
	BalancesPath string `env:"LEDGER_BALANCES_PATH" envDefault:"state/balances.json"`
	AuditPath    string `env:"LEDGER_AUDIT_PATH"    envDefault:"state/usage_audit.csv"`
}

// CacheConfig contains completion-cache settings. An empty address disables
// the cache entirely.
type CacheConfig struct {
	RedisAddr     string `env:"CACHE_REDIS_ADDR"`
	RedisPassword string `env:"CACHE_REDIS_PASSWORD"`
	RedisDB       int    `env:"CACHE_REDIS_DB" envDefault:"0"`
	TTLSec        int    `env:"CACHE_TTL_SEC"  envDefault:"3600"`
}

// ResearchConfig tunes the research pipeline.
type ResearchConfig struct {
	StrongModel     string `env:"RESEARCH_STRONG_MODEL"     envDefault:"gpt-4-turbo"`
	CheapModel      string `env:"RESEARCH_CHEAP_MODEL"      envDefault:"gpt-3.5-turbo"`
	RepairModel     string `env:"RESEARCH_REPAIR_MODEL"     envDefault:"gpt-3.5-turbo"`
	MaxRetries      int    `env:"RESEARCH_MAX_RETRIES"      envDefault:"3"`
	RepairRetries   int    `env:"RESEARCH_REPAIR_RETRIES"   envDefault:"2"`
	MaxWorkers      int    `env:"RESEARCH_MAX_WORKERS"      envDefault:"4"`
	CoarseThreshold int    `env:"RESEARCH_COARSE_THRESHOLD" envDefault:"2"`
	FineThreshold   int    `env:"RESEARCH_FINE_THRESHOLD"   envDefault:"4"`
	CandidateCap    int    `env:"RESEARCH_CANDIDATE_CAP"    envDefault:"5"`
	SearchLimit     int    `env:"RESEARCH_SEARCH_LIMIT"     envDefault:"5"`
	FilterCycles    int    `env:"RESEARCH_FILTER_CYCLES"    envDefault:"1"`
	MaxSections     int    `env:"RESEARCH_MAX_SECTIONS"     envDefault:"0"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*openai.Config
	*RateLimitConfig
	*LedgerConfig
	*CacheConfig
	*ResearchConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.OpenAI,
		&cfg.RateLimit,
		&cfg.Ledger,
		&cfg.Cache,
		&cfg.Research,
	}
}
