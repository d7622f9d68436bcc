package main

import (
	"os"
	"strings"
	"testing"
)

func TestSessionIDPersistsAcrossInvocations(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	loadConfig()
	if cfg.SessionID != "" {
		t.Fatalf("expected no session, got %q", cfg.SessionID)
	}
	if err := persistSession("3f2a9c1e-session"); err != nil {
		t.Fatalf("persist: %v", err)
	}

	loadConfig()
	if cfg.SessionID != "3f2a9c1e-session" {
		t.Errorf("expected session to survive reload, got %q", cfg.SessionID)
	}
	if cfg.Address != "http://127.0.0.1:8300" {
		t.Errorf("unexpected address %q", cfg.Address)
	}

	if err := forgetSession(); err != nil {
		t.Fatalf("forget: %v", err)
	}
	data, err := os.ReadFile(configPath())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "session_id") {
		t.Errorf("session id still on disk: %s", data)
	}
	loadConfig()
	if cfg.SessionID != "" {
		t.Errorf("expected session cleared, got %q", cfg.SessionID)
	}
}

func TestPersistSessionSkipsUnchangedID(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	loadConfig()
	if err := persistSession(""); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(configPath()); !os.IsNotExist(err) {
		t.Errorf("expected no config file for an empty id, got %v", err)
	}
}
