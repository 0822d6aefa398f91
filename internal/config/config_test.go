package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("MIDDLEWARE_URL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Middleware.BaseURL != "http://localhost:8000" {
		t.Errorf("middleware url = %q", cfg.Middleware.BaseURL)
	}
	if cfg.Monitor.PollInterval() != 30*time.Second {
		t.Errorf("poll interval = %s", cfg.Monitor.PollInterval())
	}
	if cfg.Middleware.FormFieldsCacheTTL() != 5*time.Minute {
		t.Errorf("form cache ttl = %s", cfg.Middleware.FormFieldsCacheTTL())
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "postgres")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown session store")
	}
}

func TestRequestTimeoutCoversSubmitCalls(t *testing.T) {
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// duplicate check, carrier lookup, create, macro preview and macro update
	submit := 2*cfg.Middleware.Timeout() + cfg.Carrier.Timeout() + 2*cfg.Zendesk.Timeout()
	if cfg.App.RequestTimeout() <= submit {
		t.Fatalf("request timeout %s does not cover %s of upstream calls", cfg.App.RequestTimeout(), submit)
	}
}
