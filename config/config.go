package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// HTTP / WebSocket
	ListenAddr  string
	MetricsAddr string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string

	// Charts
	Symbols        string // comma-separated, e.g. "BTCUSDT,ETHUSDT"
	ChartType      string
	PriceFormat    string
	PricePrecision int
	Indicators     string // comma-separated kinds, e.g. "sma9,ema21,rsi"
	BarSpacing     int
	RightOffset    int
	DecaySeconds   int
	HistoryLimit   int

	// Optional polling data source; empty PollURL disables the poller and
	// candles arrive over REST only.
	PollURL             string
	PollIntervalSeconds int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/charts.db"),

		Symbols:        getEnv("SYMBOLS", "BTCUSDT"),
		ChartType:      getEnv("CHART_TYPE", "candlestick"),
		PriceFormat:    getEnv("PRICE_FORMAT", "auto"),
		PricePrecision: getEnvInt("PRICE_PRECISION", 8),
		Indicators:     getEnv("INDICATORS", "sma9,ema21"),
		BarSpacing:     getEnvInt("BAR_SPACING", 6),
		RightOffset:    getEnvInt("RIGHT_OFFSET", 5),
		DecaySeconds:   getEnvInt("INTERACTION_DECAY_SECONDS", 30),
		HistoryLimit:   getEnvInt("HISTORY_LIMIT", 1000),

		PollURL:             getEnv("POLL_URL", ""),
		PollIntervalSeconds: getEnvInt("POLL_INTERVAL_SECONDS", 1),
	}
}

// ParseSymbols parses the Symbols string into a deduplicated slice.
func (c *Config) ParseSymbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range strings.Split(c.Symbols, ",") {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// ParseIndicators parses the Indicators string into kind names.
func (c *Config) ParseIndicators() []string {
	var out []string
	for _, p := range strings.Split(c.Indicators, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
