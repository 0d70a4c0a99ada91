package core

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime settings for the web client process.
type Config struct {
	Port             string   // HTTP listen port (e.g., "8080")
	APIBaseURL       string   // upfi API base, without trailing slash
	APITimeoutMs     int      // per-request timeout for calls to the API
	SessionKey       string   // Cookie signing/encryption key
	CookieSecure     bool     // Whether to set Secure flag on session cookie
	CookieSameSite   string   // SameSite policy: Strict/Lax/None
	LogDir           string   // Directory to write application logs ("-" = stdout only)
	RedisURL         string   // Redis URL for the response log; empty keeps it in memory
	ResponseLogLimit int      // number of API responses kept in the response log
	AllowedOrigins   []string // extra origins accepted besides the serving host
	SiteConfigPath   string   // optional YAML file with site title/nav
	TokenCookie      string   // name of the API's auth cookie
	StatusToken      string   // bearer token for /status; empty disables it
}

// Load populates Config from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:             firstNonEmpty(os.Getenv("PORT"), "8080"),
		APIBaseURL:       strings.TrimRight(firstNonEmpty(os.Getenv("UPFI_API_URL"), os.Getenv("API_URL"), "http://localhost:8000"), "/"),
		APITimeoutMs:     intFromEnv("API_TIMEOUT_MS", 10000),
		SessionKey:       firstNonEmpty(os.Getenv("SESSION_KEY"), "change-this-session-key"),
		CookieSecure:     boolFromEnv("COOKIE_SECURE", false),
		CookieSameSite:   firstNonEmpty(os.Getenv("COOKIE_SAMESITE"), "Lax"),
		LogDir:           firstNonEmpty(os.Getenv("LOG_DIR"), "/var/log/upfi-web"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ResponseLogLimit: intFromEnv("RESPONSE_LOG_LIMIT", 200),
		AllowedOrigins:   parseCSV(os.Getenv("ALLOWED_ORIGINS")),
		SiteConfigPath:   os.Getenv("SITE_CONFIG"),
		TokenCookie:      firstNonEmpty(os.Getenv("API_TOKEN_COOKIE"), "token"),
		StatusToken:      os.Getenv("STATUS_TOKEN"),
	}
}

// APITimeout returns the configured API timeout, defaulting to 10s.
func (c Config) APITimeout() time.Duration {
	if c.APITimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.APITimeoutMs) * time.Millisecond
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// intFromEnv reads an int from env var name, falling back to defaultVal when empty or invalid.
func intFromEnv(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// parseCSV splits comma-separated list and trims spaces; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
