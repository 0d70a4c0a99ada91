package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NavLink is one entry of the header navigation.
type NavLink struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

// SiteConfig is the presentational settings file (site.yaml):
//
//	title: upfi
//	tagline: encrypted file hosting
//	nav:
//	  - label: Login
//	    path: /auth/login
type SiteConfig struct {
	Title   string    `yaml:"title"`
	Tagline string    `yaml:"tagline"`
	Nav     []NavLink `yaml:"nav"`
}

// DefaultSiteConfig is used when no site file is configured.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Title:   "upfi",
		Tagline: "Upload and encrypt your files.",
		Nav: []NavLink{
			{Label: "Home", Path: "/"},
			{Label: "Login", Path: "/auth/login"},
			{Label: "Register", Path: "/auth/register"},
			{Label: "Profile", Path: "/profile/"},
		},
	}
}

// LoadSiteConfig reads the YAML file at path. An empty path returns the
// defaults; keys missing from the file keep their default values.
func LoadSiteConfig(path string) (SiteConfig, error) {
	cfg := DefaultSiteConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("read site config %s: %w", path, err)
	}
	return ParseSiteConfig(data)
}

// ParseSiteConfig decodes YAML on top of the defaults.
func ParseSiteConfig(data []byte) (SiteConfig, error) {
	var raw SiteConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return SiteConfig{}, fmt.Errorf("parse site config: %w", err)
	}
	cfg := DefaultSiteConfig()
	if t := strings.TrimSpace(raw.Title); t != "" {
		cfg.Title = t
	}
	if t := strings.TrimSpace(raw.Tagline); t != "" {
		cfg.Tagline = t
	}
	if len(raw.Nav) > 0 {
		nav := make([]NavLink, 0, len(raw.Nav))
		for _, l := range raw.Nav {
			if strings.TrimSpace(l.Label) == "" || !strings.HasPrefix(l.Path, "/") {
				return SiteConfig{}, fmt.Errorf("invalid nav entry %q -> %q", l.Label, l.Path)
			}
			nav = append(nav, l)
		}
		cfg.Nav = nav
	}
	return cfg, nil
}
