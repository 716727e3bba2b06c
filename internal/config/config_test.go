package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.BookingDayStart != "09:00" || cfg.BookingDayEnd != "18:00" {
		t.Errorf("unexpected operating window %s-%s", cfg.BookingDayStart, cfg.BookingDayEnd)
	}
	if cfg.SlotGranularityMinutes != 30 {
		t.Errorf("expected 30-minute granularity, got %d", cfg.SlotGranularityMinutes)
	}
	if cfg.DefaultDurationMinutes != 30 {
		t.Errorf("expected 30-minute default duration, got %d", cfg.DefaultDurationMinutes)
	}
	if cfg.ConflictScope != ConflictScopeAgent {
		t.Errorf("expected agent-level conflict scope, got %s", cfg.ConflictScope)
	}
	if cfg.BookingLockTTL != 5*time.Second {
		t.Errorf("unexpected lock TTL %s", cfg.BookingLockTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("BOOKING_CONFLICT_SCOPE", "property")
	t.Setenv("SLOT_GRANULARITY_MINUTES", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example , https://b.example")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port override, got %s", cfg.Port)
	}
	if cfg.ConflictScope != ConflictScopeProperty {
		t.Errorf("expected property conflict scope, got %s", cfg.ConflictScope)
	}
	if cfg.SlotGranularityMinutes != 15 {
		t.Errorf("expected granularity 15, got %d", cfg.SlotGranularityMinutes)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestConflictScope_Fallback(t *testing.T) {
	if conflictScope("nonsense") != ConflictScopeAgent {
		t.Error("unknown scope should fall back to agent")
	}
	if conflictScope("PROPERTY") != ConflictScopeProperty {
		t.Error("scope parsing should be case-insensitive")
	}
}
