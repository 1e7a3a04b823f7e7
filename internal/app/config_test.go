package app

import (
	"testing"
	"time"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Fatalf("unexpected default api base: %q", cfg.APIBaseURL)
	}
	if cfg.WSBaseURL != "ws://localhost:8080/ws" {
		t.Fatalf("unexpected default ws base: %q", cfg.WSBaseURL)
	}
	if cfg.ReconnectDelay != 2*time.Second {
		t.Fatalf("unexpected default reconnect delay: %v", cfg.ReconnectDelay)
	}
	if len(cfg.LogSinks) != 1 || cfg.LogSinks[0] != "console" {
		t.Fatalf("unexpected default sinks: %v", cfg.LogSinks)
	}
}

func TestParseConfig_Overrides(t *testing.T) {
	t.Setenv("RAMSITA_API_BASE_URL", "http://game.example/api")
	t.Setenv("RAMSITA_RECONNECT_DELAY", "250ms")
	t.Setenv("RAMSITA_LOG_SINKS", "console,json")

	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://game.example/api" {
		t.Fatalf("expected override to apply, got %q", cfg.APIBaseURL)
	}
	if cfg.ReconnectDelay != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay, got %v", cfg.ReconnectDelay)
	}
	if len(cfg.LogSinks) != 2 || cfg.LogSinks[1] != "json" {
		t.Fatalf("expected two sinks, got %v", cfg.LogSinks)
	}
}

func TestParseConfig_RejectsBadDuration(t *testing.T) {
	t.Setenv("RAMSITA_RECONNECT_DELAY", "soon")

	if _, err := ParseConfig(); err == nil {
		t.Fatalf("expected error for unparsable duration")
	}
}
