package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings backends accepted by ARRCENTER_SETTINGS_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

const redacted = "***REDACTED***"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request budget, must exceed two probe timeouts

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Resolver
	ProbeTimeout  time.Duration // per-candidate probe budget (default: 500ms)
	SkipTLSVerify bool          // accept self-signed dashboard certificates

	// Settings
	SettingsBackend string        // file | sqlite | redis
	SettingsFile    string        // .yaml, .yml or .toml document for the file backend
	SQLitePath      string        // database path for the sqlite backend
	ReloadInterval  time.Duration // interval to reload settings from the backend (0 = manual only)
	HomepageFile    string        // optional Homepage services.yaml used to fill empty settings at startup

	// Redis (only read when SettingsBackend is redis)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Access restrictions
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// Rate limit on routes that trigger probes
	RateBurst  int
	RatePerMin int
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ARRCENTER_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("ARRCENTER_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("ARRCENTER_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("ARRCENTER_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ARRCENTER_PRETTY_LOG", true),

		// Resolver
		ProbeTimeout:  mustDuration("ARRCENTER_PROBE_TIMEOUT", 500*time.Millisecond),
		SkipTLSVerify: mustBool("ARRCENTER_SKIP_TLS_VERIFY", false),

		// Settings
		SettingsBackend: strings.ToLower(getenv("ARRCENTER_SETTINGS_BACKEND", BackendFile)),
		SettingsFile:    getenv("ARRCENTER_SETTINGS_FILE", "/app/settings.yaml"),
		SQLitePath:      getenv("ARRCENTER_SQLITE_PATH", ""),
		ReloadInterval:  mustDuration("ARRCENTER_RELOAD_INTERVAL", time.Hour),
		HomepageFile:    getenv("ARRCENTER_HOMEPAGE_FILE", ""),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("ARRCENTER_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("ARRCENTER_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("ARRCENTER_TRUST_PROXY", false),

		RateBurst:  getenvInt("ARRCENTER_RATE_BURST", 20),
		RatePerMin: getenvInt("ARRCENTER_RATE_PER_MIN", 60),
	}

	switch cfg.SettingsBackend {
	case BackendFile, BackendSQLite:
	case BackendRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: ARRCENTER_SETTINGS_BACKEND must be one of %s, %s, %s (got %q)",
			BackendFile, BackendSQLite, BackendRedis, cfg.SettingsBackend))
	}

	if cfg.ProbeTimeout <= 0 {
		panic("❌ FATAL: ARRCENTER_PROBE_TIMEOUT must be positive")
	}
	// Two candidates, each bounded per phase (connect, TLS, headers).
	if cfg.RequestTimeout < 2*3*cfg.ProbeTimeout {
		panic(fmt.Sprintf("❌ FATAL: ARRCENTER_REQUEST_TIMEOUT (%v) must be at least six times ARRCENTER_PROBE_TIMEOUT (%v)",
			cfg.RequestTimeout, cfg.ProbeTimeout))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("ARRCENTER_REDIS_ADDR")
	cfg.RedisUser = getenv("ARRCENTER_REDIS_USERNAME", "")
	cfg.RedisPassword = getenv("ARRCENTER_REDIS_PASSWORD", "")
	cfg.RedisDB = getenvInt("ARRCENTER_REDIS_DB", 0)
	cfg.RedisDT = mustDuration("ARRCENTER_REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("ARRCENTER_REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("ARRCENTER_REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("ARRCENTER_REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("ARRCENTER_REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("ARRCENTER_REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("ARRCENTER_REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("ARRCENTER_REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("ARRCENTER_REDIS_WARN_THRESHOLD", 3)

	if mustBool("ARRCENTER_REDIS_PASSWORD_REQUIRED", false) && cfg.RedisPassword == "" {
		panic("❌ FATAL: ARRCENTER_REDIS_PASSWORD is required when ARRCENTER_REDIS_PASSWORD_REQUIRED=true")
	}
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = redacted
	}
	if c.RedisUser != "" {
		c.RedisUser = redacted
	}
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
