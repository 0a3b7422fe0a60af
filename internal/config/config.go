package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":5000"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline, must exceed MetadataTimeout

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	UsersFile string // path to the users.yaml token directory

	// Metadata extraction
	MetadataTimeout   time.Duration // single-attempt fetch budget (default: 10s)
	MetadataUserAgent string        // browser-like User-Agent sent to scraped sites
	MetadataMaxBytes  int64         // max HTML bytes parsed per page

	// Metadata refresher
	RefreshInterval time.Duration // how often untitled bookmarks are retried (default: 6h)
	RefreshBatch    int           // max bookmarks retried per run

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Access
	CORSOrigins  []string // allowed CORS origins ("*" = any)
	AllowedCIDRS []string // optional, restrict /readyz to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
	RateBurst    int      // write requests allowed in a burst, per client
	RatePerMin   int      // sustained write requests per minute, per client
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, is loaded first and never overrides
// variables that are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			log.Printf("[WARN] .env present but unreadable: %v", err)
		}
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("KEEPMARK_LISTEN_PORT", ":5000"),
		ShutdownTimeout: mustDuration("KEEPMARK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("KEEPMARK_REQUEST_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:  getenv("KEEPMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("KEEPMARK_PRETTY_LOG", true),

		UsersFile: requireEnv("KEEPMARK_USERS_FILE"),

		// Metadata
		MetadataTimeout:   mustDuration("KEEPMARK_METADATA_TIMEOUT", 10*time.Second),
		MetadataUserAgent: getenv("KEEPMARK_METADATA_USER_AGENT", ""),
		MetadataMaxBytes:  int64(getenvInt("KEEPMARK_METADATA_MAX_BYTES", 2<<20)),
		RefreshInterval:   mustDuration("KEEPMARK_REFRESH_INTERVAL", 6*time.Hour),
		RefreshBatch:      getenvInt("KEEPMARK_REFRESH_BATCH", 20),

		// Redis settings
		RedisAddr:             requireEnv("KEEPMARK_REDIS_ADDR"),
		RedisUser:             getenv("KEEPMARK_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("KEEPMARK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("KEEPMARK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("KEEPMARK_REDIS_DB", 0),
		RedisDT:               mustDuration("KEEPMARK_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("KEEPMARK_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("KEEPMARK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("KEEPMARK_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("KEEPMARK_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("KEEPMARK_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("KEEPMARK_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("KEEPMARK_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("KEEPMARK_REDIS_WARN_THRESHOLD", 3),

		// Access
		CORSOrigins:  splitAndTrim(getenv("KEEPMARK_CORS_ORIGINS", "*")),
		AllowedCIDRS: splitAndTrim(getenv("KEEPMARK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("KEEPMARK_TRUST_PROXY", false),
		RateBurst:    getenvInt("KEEPMARK_RATE_BURST", 20),
		RatePerMin:   getenvInt("KEEPMARK_RATE_PER_MIN", 60),
	}

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: KEEPMARK_REDIS_PASSWORD is required when KEEPMARK_REDIS_PASSWORD_REQUIRED=true")
	}
	if cfg.RequestTimeout <= cfg.MetadataTimeout {
		panic(fmt.Sprintf("❌ FATAL: KEEPMARK_REQUEST_TIMEOUT (%v) must be greater than KEEPMARK_METADATA_TIMEOUT (%v)",
			cfg.RequestTimeout, cfg.MetadataTimeout))
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
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
