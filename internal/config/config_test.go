package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.CaseIDPrefix != "LC" {
		t.Errorf("expected default case prefix LC, got %s", cfg.CaseIDPrefix)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected default worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.TypingDelay != 2*time.Second {
		t.Errorf("expected default typing delay 2s, got %s", cfg.TypingDelay)
	}
	if cfg.EffectMaxAttempts != 3 {
		t.Errorf("expected default effect attempts 3, got %d", cfg.EffectMaxAttempts)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("TYPING_DELAY", "250ms")
	t.Setenv("NOTIFY_RECIPIENTS", "a@firm.in, b@firm.in,")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port override 9999, got %s", cfg.Port)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue enabled")
	}
	if cfg.TypingDelay != 250*time.Millisecond {
		t.Errorf("expected typing delay 250ms, got %s", cfg.TypingDelay)
	}
	if len(cfg.NotifyRecipients) != 2 || cfg.NotifyRecipients[1] != "b@firm.in" {
		t.Errorf("unexpected recipients: %v", cfg.NotifyRecipients)
	}
}
