package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultServer is used when neither a flag nor the file names a server.
const DefaultServer = "http://localhost:8000"

// CLIConfig is the persisted contacts-cli state.
type CLIConfig struct {
	Server string `yaml:"server,omitempty"`
	Output string `yaml:"output,omitempty"` // table, json, yaml

	// Session tokens from the last successful login or refresh.
	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *CLIConfig {
	return &CLIConfig{Server: DefaultServer, Output: "table"}
}

// SetTokens records a new session.
func (c *CLIConfig) SetTokens(access, refresh string) {
	c.AccessToken = access
	c.RefreshToken = refresh
}

// ClearTokens forgets the session.
func (c *CLIConfig) ClearTokens() {
	c.SetTokens("", "")
}

// DefaultPath returns ~/.contacts/cli.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".contacts", "cli.yaml")
	}
	return filepath.Join(home, ".contacts", "cli.yaml")
}

// Load reads the file at path, or DefaultPath when path is empty.
// A missing file yields Default.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	return cfg, nil
}

// Save writes cfg to path, or DefaultPath when path is empty.
// The file holds tokens and is created owner-readable only.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
