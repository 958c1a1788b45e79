package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate runs Load from an empty directory so no config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CONFIG_ENV", "test")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.Mode != "release" || cfg.SlowPeerPolicy != "drop" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.InviteTTL != 10*time.Minute || cfg.PingPeriod != 54*time.Second || cfg.PongWait != 60*time.Second {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
	if !cfg.Metrics {
		t.Fatal("metrics should default on")
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "port: 9000\ninvite_ttl: 5m\nsend_buffer: 8\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RELAY_SEND_BUFFER", "16")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load([]string{"--invite_ttl=2m", "--slow_peer_policy=close"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("port = %d, want file value 9000", cfg.Port)
	}
	if cfg.SendBuffer != 16 {
		t.Fatalf("send_buffer = %d, want env value 16", cfg.SendBuffer)
	}
	if cfg.InviteTTL != 2*time.Minute || cfg.SlowPeerPolicy != "close" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)
	if _, err := Load([]string{"--config=missing.yaml"}); err == nil {
		t.Fatal("missing explicit config file accepted")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--ping_period=90s", "--slow_peer_policy=retry"})
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	for _, want := range []string{"pong_wait", "slow_peer_policy"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}
