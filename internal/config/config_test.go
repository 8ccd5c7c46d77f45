package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"statmatch/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "statmatch")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Store.Path != filepath.Join(wantData, "fingerprints.db") {
		t.Fatalf("unexpected store path: %q", cfg.Store.Path)
	}
	if cfg.Queue.Path != filepath.Join(wantData, "queue.db") {
		t.Fatalf("unexpected queue path: %q", cfg.Queue.Path)
	}
	if cfg.Queue.InboundQueue != "requests" || cfg.Queue.OutboundQueue != "results" {
		t.Fatalf("unexpected queue names: %q / %q", cfg.Queue.InboundQueue, cfg.Queue.OutboundQueue)
	}
	if got := cfg.RootFingerprintIDs(); len(got) != 0 {
		t.Fatalf("expected no root fingerprints by default, got %v", got)
	}
	if cfg.Workflow.ProcessTimeout != 120 {
		t.Fatalf("unexpected process timeout: %d", cfg.Workflow.ProcessTimeout)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "statmatch.toml")

	contents := `
[matching]
root_fingerprint_id_1 = " root-a "
root_fingerprint_id_2 = "root-b"

[queue]
inbound_queue = "in"
outbound_queue = "out"

[logging]
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q to be used, got %q exists=%v", configPath, resolved, exists)
	}
	roots := cfg.RootFingerprintIDs()
	if len(roots) != 2 || roots[0] != "root-a" || roots[1] != "root-b" {
		t.Fatalf("unexpected roots: %v", roots)
	}
	if cfg.Queue.InboundQueue != "in" || cfg.Queue.OutboundQueue != "out" {
		t.Fatalf("unexpected queue names: %q / %q", cfg.Queue.InboundQueue, cfg.Queue.OutboundQueue)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsSameQueueNames(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.InboundQueue = "same"
	cfg.Queue.OutboundQueue = "same"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure for identical queue names")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure for unsupported log format")
	}
}

func TestAPIPasswordFromEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("STATMATCH_API_PASSWORD", "secret")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.Password != "secret" {
		t.Fatalf("expected api password from env, got %q", cfg.API.Password)
	}
}
