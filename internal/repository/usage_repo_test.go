package repository

import (
	"context"
	"testing"

	"github.com/risunCode/downaria/internal/platform"
)

func TestUsageRepository_Increments(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	date := "2026-08-28"

	for i := 0; i < 3; i++ {
		if err := repos.Usage.IncrementRequest(ctx, platform.TikTok, date); err != nil {
			t.Fatalf("failed to increment request: %v", err)
		}
	}
	if err := repos.Usage.IncrementOutcome(ctx, platform.TikTok, date, true); err != nil {
		t.Fatalf("failed to increment success: %v", err)
	}
	if err := repos.Usage.IncrementOutcome(ctx, platform.TikTok, date, true); err != nil {
		t.Fatalf("failed to increment success: %v", err)
	}
	if err := repos.Usage.IncrementOutcome(ctx, platform.TikTok, date, false); err != nil {
		t.Fatalf("failed to increment failure: %v", err)
	}

	// A second platform gets its own row.
	if err := repos.Usage.IncrementRequest(ctx, platform.Weibo, date); err != nil {
		t.Fatalf("failed to increment request: %v", err)
	}

	usage, err := repos.Usage.Summary(ctx)
	if err != nil {
		t.Fatalf("failed to get summary: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("len = %d, want 2", len(usage))
	}

	byPlatform := map[platform.Platform]int{}
	for _, u := range usage {
		byPlatform[u.Platform] = u.RequestCount
		if u.Platform == platform.TikTok {
			if u.SuccessCount != 2 {
				t.Errorf("SuccessCount = %d, want 2", u.SuccessCount)
			}
			if u.FailureCount != 1 {
				t.Errorf("FailureCount = %d, want 1", u.FailureCount)
			}
		}
	}
	if byPlatform[platform.TikTok] != 3 {
		t.Errorf("tiktok RequestCount = %d, want 3", byPlatform[platform.TikTok])
	}
	if byPlatform[platform.Weibo] != 1 {
		t.Errorf("weibo RequestCount = %d, want 1", byPlatform[platform.Weibo])
	}
}

func TestUsageRepository_SeparateDates(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	if err := repos.Usage.IncrementRequest(ctx, platform.Facebook, "2026-08-27"); err != nil {
		t.Fatalf("failed to increment: %v", err)
	}
	if err := repos.Usage.IncrementRequest(ctx, platform.Facebook, "2026-08-28"); err != nil {
		t.Fatalf("failed to increment: %v", err)
	}

	usage, err := repos.Usage.Summary(ctx)
	if err != nil {
		t.Fatalf("failed to get summary: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("len = %d, want one row per date", len(usage))
	}
	// Newest first, and in plain date form even though the driver hands
	// the TEXT column back as a timestamp.
	if usage[0].Date != "2026-08-28" {
		t.Errorf("first date = %q, want 2026-08-28", usage[0].Date)
	}
	if usage[1].Date != "2026-08-27" {
		t.Errorf("second date = %q, want 2026-08-27", usage[1].Date)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-02T00:00:00Z", "2026-03-02"},
		{"2026-03-02", "2026-03-02"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := normalizeDate(tt.in); got != tt.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
