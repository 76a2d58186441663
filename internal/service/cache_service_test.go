package service

import (
	"context"
	"testing"
	"time"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

func TestCacheService_RoundTrip(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	svc := env.services.Cache

	result := &models.ExtractionResult{
		Success:  true,
		Platform: platform.TikTok,
		Data:     videoData("https://v.example/clip.mp4"),
	}

	svc.Store(ctx, platform.TikTok, "https://www.tiktok.com/@u/video/1", result)

	got := svc.Lookup(ctx, platform.TikTok, "https://www.tiktok.com/@u/video/1")
	if got == nil {
		t.Fatal("expected hit immediately after store")
	}
	if !got.Success || len(got.Data.Formats) != 1 {
		t.Errorf("got %+v, want the stored payload", got)
	}
	if got.Data.Formats[0].URL != "https://v.example/clip.mp4" {
		t.Errorf("URL = %q", got.Data.Formats[0].URL)
	}
}

func TestCacheService_TTLExpiry(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	svc := env.services.Cache

	svc.Store(ctx, platform.Twitter, "https://x.com/u/status/1", &models.ExtractionResult{Success: true, Platform: platform.Twitter, Data: videoData("https://v.example/a.mp4")})

	// Simulated clock: jump past the TTL.
	svc.now = func() time.Time { return time.Now().Add(env.cfg.CacheTTL + time.Minute) }

	if got := svc.Lookup(ctx, platform.Twitter, "https://x.com/u/status/1"); got != nil {
		t.Error("expected miss after TTL expiry")
	}
}

func TestCacheService_PurgeExpired(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	svc := env.services.Cache

	svc.Store(ctx, platform.Weibo, "https://weibo.com/1/a", &models.ExtractionResult{Success: true, Platform: platform.Weibo, Data: videoData("https://v.example/a.mp4")})

	svc.now = func() time.Time { return time.Now().Add(env.cfg.CacheTTL + time.Minute) }
	purged, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
}

func TestCacheService_MissForUnknown(t *testing.T) {
	env := setupEnv(t)
	if got := env.services.Cache.Lookup(context.Background(), platform.TikTok, "https://www.tiktok.com/@u/video/404"); got != nil {
		t.Error("expected miss for never-stored URL")
	}
}
