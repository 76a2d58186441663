package config

import (
	"context"
	"encoding/base64"
	"os"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_GET_ENV", "test_value")
	defer os.Unsetenv("TEST_GET_ENV")

	t.Run("existing env var", func(t *testing.T) {
		if got := getEnv("TEST_GET_ENV", "default"); got != "test_value" {
			t.Errorf("getEnv() = %q, want %q", got, "test_value")
		}
	})

	t.Run("missing env var", func(t *testing.T) {
		if got := getEnv("TEST_MISSING_VAR", "default_value"); got != "default_value" {
			t.Errorf("getEnv() = %q, want default", got)
		}
	})
}

func TestGetEnvDuration(t *testing.T) {
	t.Run("valid duration", func(t *testing.T) {
		os.Setenv("TEST_DURATION", "90s")
		defer os.Unsetenv("TEST_DURATION")

		if got := getEnvDuration("TEST_DURATION", time.Minute); got != 90*time.Second {
			t.Errorf("getEnvDuration() = %v, want 90s", got)
		}
	})

	t.Run("invalid duration", func(t *testing.T) {
		os.Setenv("TEST_DURATION_BAD", "soon")
		defer os.Unsetenv("TEST_DURATION_BAD")

		if got := getEnvDuration("TEST_DURATION_BAD", time.Minute); got != time.Minute {
			t.Errorf("getEnvDuration() = %v, want default", got)
		}
	})
}

func TestGetEnvSlice(t *testing.T) {
	os.Setenv("TEST_SLICE", "tiktok, weibo ,facebook")
	defer os.Unsetenv("TEST_SLICE")

	got := getEnvSlice("TEST_SLICE", nil)
	want := []string{"tiktok", "weibo", "facebook"}
	if len(got) != len(want) {
		t.Fatalf("getEnvSlice() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("getEnvSlice()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	os.Unsetenv("ENCRYPTION_KEY")
	os.Unsetenv("API_SECRET")

	if _, err := Load(); err == nil {
		t.Error("Load must fail without ENCRYPTION_KEY or API_SECRET")
	}
}

func TestLoad_DerivesKeyFromSecret(t *testing.T) {
	os.Setenv("API_SECRET", "test-master-secret")
	defer os.Unsetenv("API_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.EncryptionKey) != 32 {
		t.Errorf("EncryptionKey length = %d, want 32", len(cfg.EncryptionKey))
	}

	// Derivation is deterministic
	again, err := Load()
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if string(cfg.EncryptionKey) != string(again.EncryptionKey) {
		t.Error("derived key must be stable across loads")
	}
}

func TestLoad_ExplicitEncryptionKey(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	os.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))
	defer os.Unsetenv("ENCRYPTION_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(cfg.EncryptionKey) != string(key) {
		t.Error("explicit key must be used verbatim")
	}

	t.Run("wrong length rejected", func(t *testing.T) {
		os.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key[:16]))
		if _, err := Load(); err == nil {
			t.Error("a 16-byte key must be rejected")
		}
		os.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))
	})
}

func TestLoad_CookiePolicyValidation(t *testing.T) {
	os.Setenv("API_SECRET", "test-master-secret")
	os.Setenv("COOKIE_COOLDOWN_AFTER", "5")
	os.Setenv("COOKIE_EXPIRE_AFTER", "3")
	defer func() {
		os.Unsetenv("API_SECRET")
		os.Unsetenv("COOKIE_COOLDOWN_AFTER")
		os.Unsetenv("COOKIE_EXPIRE_AFTER")
	}()

	if _, err := Load(); err == nil {
		t.Error("expire threshold below cooldown threshold must be rejected")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("API_SECRET", "test-master-secret")
	defer os.Unsetenv("API_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.CacheTTL != 72*time.Hour {
		t.Errorf("CacheTTL = %v, want 72h", cfg.CacheTTL)
	}
	if cfg.CookieCooldownAfter != 3 || cfg.CookieExpireAfter != 10 {
		t.Errorf("cookie thresholds = %d/%d, want 3/10", cfg.CookieCooldownAfter, cfg.CookieExpireAfter)
	}
	if cfg.SettingsStoreEnabled() {
		t.Error("settings store must be disabled without a bucket")
	}
}

func TestRuntimeSettings_PlatformEnabled(t *testing.T) {
	s := RuntimeSettings{DisabledPlatforms: []string{"facebook", "Weibo"}}

	if s.PlatformEnabled("facebook") {
		t.Error("facebook is disabled")
	}
	if s.PlatformEnabled("weibo") {
		t.Error("platform match must be case-insensitive")
	}
	if !s.PlatformEnabled("tiktok") {
		t.Error("tiktok is not disabled")
	}
}

func TestSettingsLoader_SnapshotIsolation(t *testing.T) {
	cfg := &Config{DisabledPlatforms: []string{"facebook"}}
	loader := NewSettingsLoader(cfg, nil, nil)

	snap := loader.Snapshot()
	snap.DisabledPlatforms[0] = "tiktok"

	if got := loader.Snapshot(); got.DisabledPlatforms[0] != "facebook" {
		t.Error("mutating a snapshot must not affect the loader state")
	}
}

func TestSettingsLoader_RefreshWithoutStore(t *testing.T) {
	loader := NewSettingsLoader(&Config{}, nil, nil)
	if err := loader.Refresh(context.Background()); err != nil {
		t.Errorf("refresh without a store must be a no-op, got %v", err)
	}
}
