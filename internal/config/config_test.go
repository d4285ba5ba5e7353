package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INCIDENTSYNC_API_TOKEN", "test-token-123")
	t.Setenv("INCIDENTSYNC_API_BASE_URL", "https://incidents.example.com/api")
	t.Setenv("INCIDENTSYNC_CHANNEL_SOCKET_URL", "wss://incidents.example.com/ws/events")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected config to load from env, got error: %v", err)
	}

	if cfg.API.Token != "test-token-123" {
		t.Errorf("expected token 'test-token-123', got '%s'", cfg.API.Token)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Collector.MaxPages != 15 || cfg.Collector.PageSize != 50 {
		t.Errorf("expected 15 pages of 50, got %d of %d", cfg.Collector.MaxPages, cfg.Collector.PageSize)
	}
	if cfg.Collector.InterPageDelay != 300*time.Millisecond {
		t.Errorf("expected 300ms inter-page delay, got %s", cfg.Collector.InterPageDelay)
	}
	if !cfg.Collector.DateFilterEarlyExit {
		t.Error("expected date filter early exit on by default")
	}
	if cfg.Cache.ReferenceTTL != 30*time.Minute {
		t.Errorf("expected 30m reference ttl, got %s", cfg.Cache.ReferenceTTL)
	}
	if cfg.Budget.HighBytes != 50<<20 || cfg.Budget.CriticalBytes != 100<<20 {
		t.Errorf("unexpected budget thresholds: %d/%d", cfg.Budget.HighBytes, cfg.Budget.CriticalBytes)
	}
	if cfg.Channel.Transport != "socket" || cfg.Channel.MaxAttempts != 5 {
		t.Errorf("unexpected channel defaults: %+v", cfg.Channel)
	}
	if cfg.Channel.BaseDelay != time.Second || cfg.Channel.Ceiling != 30*time.Second {
		t.Errorf("unexpected backoff defaults: %s/%s", cfg.Channel.BaseDelay, cfg.Channel.Ceiling)
	}
	if cfg.Notifications.Capacity != 100 {
		t.Errorf("expected capacity 100, got %d", cfg.Notifications.Capacity)
	}
	if push := cfg.Notifications.Push; push.Enabled || push.Server != "https://ntfy.sh" || push.Priority != "default" {
		t.Errorf("unexpected push defaults: %+v", push)
	}
	if cfg.Status.ListenAddr() != ":8081" {
		t.Errorf("expected :8081, got %s", cfg.Status.ListenAddr())
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("INCIDENTSYNC_API_TOKEN", "test-token-123")

	cfg, err := Load("testdata/stream.yaml")
	if err != nil {
		t.Fatalf("expected config to load, got error: %v", err)
	}

	if cfg.Channel.Transport != string(TransportStream) {
		t.Errorf("expected stream transport, got %s", cfg.Channel.Transport)
	}
	if !cfg.Channel.FallbackToPoll || cfg.Channel.MaxAttempts != 3 {
		t.Errorf("unexpected channel config: %+v", cfg.Channel)
	}
	if cfg.Collector.MaxPages != 4 || cfg.Collector.InterPageDelay != time.Second {
		t.Errorf("unexpected collector config: %+v", cfg.Collector)
	}
	if cfg.Collector.DateFilterEarlyExit {
		t.Error("expected early exit disabled by file")
	}
	// Untouched keys keep their defaults.
	if cfg.Collector.PageSize != 50 {
		t.Errorf("expected default page size, got %d", cfg.Collector.PageSize)
	}
	if cfg.Notifications.Capacity != 25 {
		t.Errorf("expected capacity 25, got %d", cfg.Notifications.Capacity)
	}
	if cfg.Status.ListenAddr() != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Status.ListenAddr())
	}
}

func TestLoadWithoutToken(t *testing.T) {
	t.Setenv("INCIDENTSYNC_API_TOKEN", "")

	_, err := Load("testdata/stream.yaml")
	if err == nil {
		t.Fatal("expected error when token is missing")
	}

	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *ValidationErrors, got %T", err)
	}
	if !verrs.Has("api.token") {
		t.Errorf("expected api.token error, got: %v", verrs)
	}
}
