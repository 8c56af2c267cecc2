package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestReloader_Current(t *testing.T) {
	cfg := Default()
	cfg.Gateway.Port = 9999

	r := NewReloader("", "", cfg)
	if got := r.Current(); got.Gateway.Port != 9999 {
		t.Errorf("Current().Gateway.Port = %d, want 9999", got.Gateway.Port)
	}
}

func TestReloader_Reload(t *testing.T) {
	dir := t.TempDir()
	dotenvPath := filepath.Join(dir, ".env")
	configPath := filepath.Join(dir, "config.jsonc")

	if err := os.WriteFile(dotenvPath, []byte("DUET_LOG_LEVEL=info\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(configPath, []byte(`{"log": {"level": "${{ .Env.DUET_LOG_LEVEL }}"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DUET_LOG_LEVEL", "info")

	initial, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	r := NewReloader(configPath, dotenvPath, initial)

	var calls atomic.Int32
	var level atomic.Value
	r.OnReload(func(cfg *Config) {
		calls.Add(1)
		level.Store(cfg.Log.Level)
	})

	if err := os.WriteFile(dotenvPath, []byte("DUET_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("listener called %d times, want 1", calls.Load())
	}
	if level.Load() != "debug" {
		t.Errorf("listener saw level %v, want debug", level.Load())
	}
	if got := r.Current(); got == initial || got.Log.Level != "debug" {
		t.Errorf("Current() not swapped after reload: %+v", got.Log)
	}
}

func TestReloader_ReloadKeepsConfigOnError(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(configPath, []byte(`{"gateway": `), 0o644); err != nil {
		t.Fatal(err)
	}

	initial := Default()
	r := NewReloader(configPath, filepath.Join(dir, ".env"), initial)

	if err := r.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if r.Current() != initial {
		t.Error("Current() changed after failed reload")
	}
}
