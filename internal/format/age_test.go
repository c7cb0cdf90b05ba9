package format

import (
	"testing"
	"time"
)

func TestAge(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"negative", -time.Hour, "now"},
		{"zero", 0, "now"},
		{"59 seconds", 59 * time.Second, "now"},
		{"1 minute", time.Minute, "1m"},
		{"59 minutes", 59 * time.Minute, "59m"},
		{"1 hour", time.Hour, "1h"},
		{"23 hours", 23 * time.Hour, "23h"},
		{"1 day", 24 * time.Hour, "1d"},
		{"6 days", 6 * 24 * time.Hour, "6d"},
		{"1 week", 7 * 24 * time.Hour, "1w"},
		{"29 days", 29 * 24 * time.Hour, "4w"},
		{"30 days", 30 * 24 * time.Hour, "1mo"},
		{"364 days", 364 * 24 * time.Hour, "12mo"},
		{"365 days", 365 * 24 * time.Hour, "1y"},
		{"3 years", 3 * 365 * 24 * time.Hour, "3y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Age(tt.duration); got != tt.expected {
				t.Errorf("Age(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestSince(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := Since(now.Add(-90*time.Minute), now); got != "1h" {
		t.Errorf("Since() = %q, want 1h", got)
	}
}
