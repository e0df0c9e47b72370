package formatting

import (
	"testing"
	"time"
)

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.2 / 3, "0.0667"},
		{1.0, "1.0000"},
		{-0.44721, "-0.4472"},
		{0, "0.0000"},
	}
	for _, tt := range tests {
		if got := FormatScore(tt.in); got != tt.want {
			t.Errorf("FormatScore(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseScore(t *testing.T) {
	got, err := ParseScore(" -0.4472 ")
	if err != nil || got != -0.4472 {
		t.Errorf("ParseScore = %v, %v", got, err)
	}
	if _, err := ParseScore("n/a"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2025, 5, 6, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"45 minutes ago", now.Add(-45 * time.Minute)},
		{"3 hours ago", now.Add(-3 * time.Hour)},
		{"1 day ago", now.AddDate(0, 0, -1)},
		{"2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-01-01T12:00:00", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"Tue, 06 May 2025 10:00:00 +0000", time.Date(2025, 5, 6, 10, 0, 0, 0, time.FixedZone("", 0))},
		{"yesterday-ish", time.Time{}},
	}
	for _, tt := range tests {
		if got := ParseDate(tt.in, now); !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSeparator(t *testing.T) {
	if got := Separator(3); got != "===" {
		t.Errorf("Separator(3) = %q", got)
	}
}
