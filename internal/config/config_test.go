package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Server.URL != "ws://127.0.0.1:8080/ws" {
		t.Fatalf("url = %q", cfg.Server.URL)
	}
	if cfg.Reconnect.MaxAttempts != 10 || cfg.Reconnect.BaseDelay != time.Second || cfg.Reconnect.MaxDelay != 30*time.Second {
		t.Fatalf("reconnect = %+v", cfg.Reconnect)
	}
	if cfg.Settle.EndedNotice != time.Second || cfg.Settle.Redirect != 2*time.Second {
		t.Fatalf("settle = %+v", cfg.Settle)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.URL != Default().Server.URL {
		t.Fatalf("url = %q", cfg.Server.URL)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classroom.yaml")
	content := "server:\n  url: ws://classroom.test:9000/ws\nreconnect:\n  max_attempts: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != "ws://classroom.test:9000/ws" {
		t.Fatalf("url = %q", cfg.Server.URL)
	}
	if cfg.Reconnect.MaxAttempts != 3 {
		t.Fatalf("max_attempts = %d", cfg.Reconnect.MaxAttempts)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Reconnect.MaxDelay != 30*time.Second {
		t.Fatalf("max_delay = %v", cfg.Reconnect.MaxDelay)
	}
	if cfg.Settle.Redirect != 2*time.Second {
		t.Fatalf("redirect = %v", cfg.Settle.Redirect)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml should error")
	}
}
