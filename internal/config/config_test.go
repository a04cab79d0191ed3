package config

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "", want: nil},
		{raw: "https://a.example", want: []string{"https://a.example"}},
		{raw: " https://a.example , ,https://b.example ", want: []string{"https://a.example", "https://b.example"}},
	}
	for _, tc := range tests {
		if got := parseOrigins(tc.raw); !slices.Equal(got, tc.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DRAFT_TTL_HOURS", "3")
	t.Setenv("AUTH_RATE_LIMIT", "0.5")
	t.Setenv("AUTH_RATE_BURST", "oops")

	cfg := Load()
	if cfg.ServerPort != "9090" {
		t.Errorf("port = %s", cfg.ServerPort)
	}
	if cfg.DraftTTL != 3*time.Hour {
		t.Errorf("draft ttl = %v", cfg.DraftTTL)
	}
	if cfg.AuthRateLimit != 0.5 {
		t.Errorf("rate = %v", cfg.AuthRateLimit)
	}
	if cfg.AuthRateBurst != 5 {
		t.Errorf("invalid burst should fall back to 5, got %d", cfg.AuthRateBurst)
	}
}

func TestCacheKeys(t *testing.T) {
	id := uuid.MustParse("6f1c2b9e-0000-4000-8000-000000000001")
	if got := CacheKey.UserSessionKey(id); got != "login:6f1c2b9e-0000-4000-8000-000000000001" {
		t.Errorf("session key = %s", got)
	}
	if got := CacheKey.DraftAnswersKey(id); got != "session:6f1c2b9e-0000-4000-8000-000000000001:answers" {
		t.Errorf("answers key = %s", got)
	}
}
