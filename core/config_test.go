package core

import (
	"net/http"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "UPFI_API_URL", "API_URL", "API_TIMEOUT_MS", "REDIS_URL", "ALLOWED_ORIGINS", "API_TOKEN_COOKIE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8080" || cfg.APIBaseURL != "http://localhost:8000" || cfg.TokenCookie != "token" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.RedisURL != "" || cfg.AllowedOrigins != nil {
		t.Fatalf("optional settings must be empty: %+v", cfg)
	}
	if cfg.APITimeout() != 10*time.Second {
		t.Fatalf("timeout = %s", cfg.APITimeout())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("UPFI_API_URL", "https://files.example.com/")
	t.Setenv("API_TIMEOUT_MS", "1500")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	cfg := Load()
	if cfg.APIBaseURL != "https://files.example.com" {
		t.Fatalf("base url = %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout() != 1500*time.Millisecond || !cfg.CookieSecure {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestSameSiteFromString(t *testing.T) {
	if sameSiteFromString("Strict") != http.SameSiteStrictMode || sameSiteFromString("none") != http.SameSiteNoneMode || sameSiteFromString("") != http.SameSiteLaxMode {
		t.Fatalf("unexpected samesite mapping")
	}
}
