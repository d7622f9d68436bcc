package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CLIConfig is the persistent CLI configuration. The server keeps the
// token, consent records and audit log per session, so SessionID is what
// lets separate CLI invocations act as one operator.
type CLIConfig struct {
	Address   string `yaml:"address"`
	SessionID string `yaml:"session_id,omitempty"`
	TLSCACert string `yaml:"tls_ca_cert,omitempty"`
}

var cfg CLIConfig

// configPath returns the path to the CLI config file.
func configPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vitalguard", "config.yaml")
}

// loadConfig loads the CLI config from disk.
func loadConfig() {
	cfg = CLIConfig{
		Address: "http://127.0.0.1:8300",
	}
	data, err := os.ReadFile(configPath())
	if err != nil {
		return // Use defaults
	}
	yaml.Unmarshal(data, &cfg) //nolint:errcheck
}

// saveConfig persists the CLI config to disk.
func saveConfig() error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// persistSession records a session id the server assigned. Nothing is
// written when the id is unchanged.
func persistSession(id string) error {
	if id == "" || id == cfg.SessionID {
		return nil
	}
	cfg.SessionID = id
	return saveConfig()
}

// forgetSession drops the stored session id; the next request starts a
// fresh session with no token, consent or audit history.
func forgetSession() error {
	cfg.SessionID = ""
	return saveConfig()
}
