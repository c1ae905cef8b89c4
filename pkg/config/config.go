package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Market data
	DexScreenerAPI string

	// Security / fundamentals (solana)
	RugCheckAPI   string
	SolanaRPCURL  string
	SolscanAPI    string
	SolscanAPIKey string

	// Fundamentals (bnb)
	BSCRPCURL string

	// Social retrieval
	NitterInstances []string
	PumpFunMirrors  []string
	// X private API (imperatrona/twitter-scraper); optional, mirrors are the fallback
	TwitterAuthToken string // auth_token cookie
	TwitterCSRFToken string // ct0 cookie

	// Connector timeouts
	MarketTimeout   time.Duration
	SecurityTimeout time.Duration
	ChainTimeout    time.Duration
	SocialTimeout   time.Duration
	WebsiteTimeout  time.Duration

	// AI / LLM
	// AI_PROVIDER: "anthropic" | "openai" | "ollama" (explicit selection)
	// If not set, auto-detects from available API keys
	AIProvider      string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaURL       string
	AIModel         string
	AIMaxTokens     int

	// DB
	DBPath string

	// Server
	Port int

	// Periodic cache refresh
	RefreshSpec  string // cron spec, e.g. "@every 1h"
	RefreshLimit int    // how many recent addresses to re-scan per run
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DexScreenerAPI: envOr("DEXSCREENER_API", "https://api.dexscreener.com"),
		RugCheckAPI:    envOr("RUGCHECK_API", "https://api.rugcheck.xyz/v1"),
		SolanaRPCURL:   envOr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		SolscanAPI:     envOr("SOLSCAN_API", "https://pro-api.solscan.io/v2.0"),
		SolscanAPIKey:  os.Getenv("SOLSCAN_API_KEY"),
		BSCRPCURL:      envOr("BSC_RPC_URL", "https://bsc-dataseed.binance.org"),

		TwitterAuthToken: os.Getenv("TWITTER_AUTH_TOKEN"),
		TwitterCSRFToken: os.Getenv("TWITTER_CSRF_TOKEN"),

		MarketTimeout:   time.Duration(envInt("MARKET_TIMEOUT_SECONDS", 6)) * time.Second,
		SecurityTimeout: time.Duration(envInt("SECURITY_TIMEOUT_SECONDS", 8)) * time.Second,
		ChainTimeout:    time.Duration(envInt("CHAIN_TIMEOUT_SECONDS", 8)) * time.Second,
		SocialTimeout:   time.Duration(envInt("SOCIAL_TIMEOUT_SECONDS", 6)) * time.Second,
		WebsiteTimeout:  time.Duration(envInt("WEBSITE_TIMEOUT_SECONDS", 6)) * time.Second,

		AIProvider:      os.Getenv("AI_PROVIDER"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OllamaURL:       os.Getenv("OLLAMA_URL"),
		AIModel:         os.Getenv("AI_MODEL"),
		AIMaxTokens:     envInt("AI_MAX_TOKENS", 1024),

		DBPath: envOr("DB_PATH", "trustscan.db"),
		Port:   envInt("PORT", 8080),

		RefreshSpec:  envOr("REFRESH_CRON", "@every 1h"),
		RefreshLimit: envInt("REFRESH_LIMIT", 10),
	}

	if v := os.Getenv("NITTER_INSTANCES"); v != "" {
		cfg.NitterInstances = splitTrim(v)
	} else {
		cfg.NitterInstances = []string{
			"https://nitter.net",
			"https://nitter.privacydev.net",
			"https://nitter.poast.org",
		}
	}

	if v := os.Getenv("PUMPFUN_MIRRORS"); v != "" {
		cfg.PumpFunMirrors = splitTrim(v)
	} else {
		cfg.PumpFunMirrors = []string{
			"https://frontend-api.pump.fun",
			"https://frontend-api-v2.pump.fun",
		}
	}

	return cfg, nil
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
