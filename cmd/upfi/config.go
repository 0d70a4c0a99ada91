package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const defaultAPIURL = "http://localhost:8000"

// cliConfig is ~/.config/upfi/config.toml.
type cliConfig struct {
	APIURL string `toml:"api_url"`
}

func defaultCLIConfigPath() string {
	if p := os.Getenv("UPFI_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "upfi", "config.toml")
}

// loadCLIConfig returns an empty config when the file does not exist.
func loadCLIConfig(path string) (cliConfig, error) {
	var cfg cliConfig
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cliConfig{}, nil
		}
		return cliConfig{}, err
	}
	return cfg, nil
}

// resolveAPIURL applies flag > env > file > default.
func resolveAPIURL(flag, env, file string) string {
	for _, v := range []string{flag, env, file} {
		if v = strings.TrimSpace(v); v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	return defaultAPIURL
}
