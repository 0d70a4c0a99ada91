package core

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSiteConfigDefaults(t *testing.T) {
	cfg, err := LoadSiteConfig("")
	if err != nil {
		t.Fatalf("LoadSiteConfig: %v", err)
	}
	if cfg.Title != "upfi" || len(cfg.Nav) != 4 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadSiteConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	data := "title: my files\nnav:\n  - label: Start\n    path: /\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadSiteConfig(path)
	if err != nil {
		t.Fatalf("LoadSiteConfig: %v", err)
	}
	if cfg.Title != "my files" {
		t.Fatalf("title = %q", cfg.Title)
	}
	if cfg.Tagline != DefaultSiteConfig().Tagline {
		t.Fatalf("missing keys must keep defaults, tagline = %q", cfg.Tagline)
	}
	if len(cfg.Nav) != 1 || cfg.Nav[0].Label != "Start" {
		t.Fatalf("nav = %+v", cfg.Nav)
	}
}

func TestLoadSiteConfigErrors(t *testing.T) {
	if _, err := LoadSiteConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("explicitly configured missing file must fail")
	}
	if _, err := ParseSiteConfig([]byte("nav:\n  - label: Bad\n    path: relative\n")); err == nil {
		t.Fatalf("relative nav path must fail")
	}
	if _, err := ParseSiteConfig([]byte("title: [unclosed")); err == nil {
		t.Fatalf("invalid yaml must fail")
	}
}
