package config

import (
	"testing"
	"time"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"https://a.test", []string{"https://a.test"}},
		{" https://a.test , ,https://b.test ", []string{"https://a.test", "https://b.test"}},
	}
	for _, tt := range tests {
		got := parseOrigins(tt.raw)
		if len(got) != len(tt.want) {
			t.Fatalf("parseOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("parseOrigins(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
			}
		}
	}
}

func TestLoadQuizPolicy(t *testing.T) {
	t.Setenv("QUIZ_ENFORCE_TIME_LIMIT", "true")
	t.Setenv("QUIZ_SUBMIT_GRACE_SECONDS", "45")
	t.Setenv("AUTOSAVE_RATE_LIMIT", "not-a-number")

	cfg := Load()
	if !cfg.QuizEnforceTimeLimit {
		t.Error("QuizEnforceTimeLimit = false, want true")
	}
	if cfg.QuizSubmitGrace != 45*time.Second {
		t.Errorf("QuizSubmitGrace = %v, want 45s", cfg.QuizSubmitGrace)
	}
	if cfg.AutosaveRateLimit != 120 {
		t.Errorf("AutosaveRateLimit = %d, want fallback 120", cfg.AutosaveRateLimit)
	}
}
