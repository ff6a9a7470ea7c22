package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tonbridge/internal/manifest"
	"tonbridge/internal/services/subscription"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultBridgeURL = "https://bridge.tonapi.io/bridge"
	DefaultChainURL  = "https://toncenter.com/api/v2"
	DefaultSignerURL = "http://127.0.0.1:8081"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home      string // data directory, e.g. $HOME/.tonbridge
	BridgeURL string // relay base URL
	ChainURL  string // toncenter v2 API root
	// ChainAPIKey is sent as X-API-Key when set.
	ChainAPIKey string
	SignerURL   string // remote transaction builder
	// RedisURL switches session and cursor storage to Redis when set.
	RedisURL    string
	RedisPrefix string

	ManifestTimeout  time.Duration
	RetryDelay       time.Duration
	NoConnectivity   subscription.Policy
	RequireEmulation bool
	UniversalLinks   []string

	LogLevel  string // debug, info, warn, error
	LogFormat string // console or json

	HTTP *http.Client // optional; defaults to http.DefaultClient
}

// LoadConfig reads an optional .env file from the working directory, then
// the environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	policy, err := subscription.ParsePolicy(os.Getenv("TONBRIDGE_NO_CONNECTIVITY_POLICY"))
	if err != nil {
		return Config{}, err
	}
	home := os.Getenv("TONBRIDGE_HOME")
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("home directory: %w", err)
		}
		home = filepath.Join(dir, ".tonbridge")
	}

	cfg := Config{
		Home:             home,
		BridgeURL:        envOrDefault("TONBRIDGE_BRIDGE_URL", DefaultBridgeURL),
		ChainURL:         envOrDefault("TONBRIDGE_CHAIN_URL", DefaultChainURL),
		ChainAPIKey:      os.Getenv("TONBRIDGE_CHAIN_API_KEY"),
		SignerURL:        envOrDefault("TONBRIDGE_SIGNER_URL", DefaultSignerURL),
		RedisURL:         os.Getenv("TONBRIDGE_REDIS_URL"),
		RedisPrefix:      envOrDefault("TONBRIDGE_REDIS_PREFIX", "tonbridge:"),
		ManifestTimeout:  envDurationOrDefault("TONBRIDGE_MANIFEST_TIMEOUT", manifest.DefaultTimeout),
		RetryDelay:       envDurationOrDefault("TONBRIDGE_RETRY_DELAY", subscription.DefaultRetryDelay),
		NoConnectivity:   policy,
		RequireEmulation: envBoolOrDefault("TONBRIDGE_REQUIRE_EMULATION", false),
		UniversalLinks:   envList("TONBRIDGE_UNIVERSAL_LINKS"),
		LogLevel:         envOrDefault("TONBRIDGE_LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("TONBRIDGE_LOG_FORMAT", "console"),
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func envBoolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
