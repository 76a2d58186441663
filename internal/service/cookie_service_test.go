package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
)

func TestCookieService_CreateMasksValue(t *testing.T) {
	env := setupEnv(t)

	view, err := env.services.Cookie.Create(context.Background(), CookieInput{
		Platform: platform.TikTok,
		Value:    "sessionid=verysecretvalue123",
		Label:    "main",
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if view.ValuePreview != "sessioni..." {
		t.Errorf("ValuePreview = %q, want the 8-char prefix", view.ValuePreview)
	}
	if strings.Contains(view.ValuePreview, "verysecret") {
		t.Error("preview leaks the value")
	}
	// The stored value is ciphertext, not the plaintext.
	if view.ValueEncrypted == "sessionid=verysecretvalue123" {
		t.Error("value stored unencrypted")
	}
}

func TestCookieService_ListServesStoredPreview(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	// Seed an entry whose ciphertext cannot be decrypted. The list path
	// reads the persisted preview, never the ciphertext, so it must still
	// come back intact.
	entry := &models.CookieEntry{
		Platform:       platform.TikTok,
		ValueEncrypted: "not-a-ciphertext",
		ValuePreview:   "sessioni...",
		Enabled:        true,
	}
	if err := env.repos.Cookie.Create(ctx, entry); err != nil {
		t.Fatalf("failed to seed cookie: %v", err)
	}

	views, err := env.services.Cookie.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len = %d, want 1", len(views))
	}
	if views[0].ValuePreview != "sessioni..." {
		t.Errorf("ValuePreview = %q, want the stored preview", views[0].ValuePreview)
	}

	got, err := env.services.Cookie.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ValuePreview != "sessioni..." {
		t.Errorf("Get ValuePreview = %q, want the stored preview", got.ValuePreview)
	}
}

func TestCookieService_UpdateValueRefreshesPreview(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	view := env.addCookie(t, platform.Weibo, "SUB=firstvalue12345")

	updated, err := env.services.Cookie.Update(ctx, view.ID, CookieInput{
		Platform: platform.Weibo,
		Value:    "SUB=replacedvalue678",
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ValuePreview != "SUB=repl..." {
		t.Errorf("ValuePreview = %q, want the new value's prefix", updated.ValuePreview)
	}
}

func TestCookieService_CreateValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	if _, err := env.services.Cookie.Create(ctx, CookieInput{Platform: "myspace", Value: "x"}); err == nil {
		t.Error("expected error for unknown platform")
	}
	if _, err := env.services.Cookie.Create(ctx, CookieInput{Platform: platform.TikTok}); err == nil {
		t.Error("expected error for empty value")
	}
}

func TestCookieService_Reveal(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	view := env.addCookie(t, platform.Instagram, "sessionid=abc123")

	value, err := env.services.Cookie.Reveal(ctx, view.ID)
	if err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if value != "sessionid=abc123" {
		t.Errorf("revealed %q, want the original plaintext", value)
	}

	if _, err := env.services.Cookie.Reveal(ctx, "missing"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestCookieService_UpdateKeepsValueWhenEmpty(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	view := env.addCookie(t, platform.Twitter, "auth_token=original")

	updated, err := env.services.Cookie.Update(ctx, view.ID, CookieInput{
		Platform: platform.Twitter,
		Label:    "renamed",
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Label != "renamed" {
		t.Errorf("Label = %q", updated.Label)
	}

	value, _ := env.services.Cookie.Reveal(ctx, view.ID)
	if value != "auth_token=original" {
		t.Errorf("value = %q, empty input must keep the stored value", value)
	}
}

func TestCookieService_TestHealth(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") == "" {
			t.Error("probe must attach the cookie")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	orig := probeURLs[platform.TikTok]
	probeURLs[platform.TikTok] = healthy.URL
	t.Cleanup(func() { probeURLs[platform.TikTok] = orig })

	view := env.addCookie(t, platform.TikTok, "sessionid=abc")
	// Put it in cooldown first; a passing probe restores healthy.
	if err := env.repos.Cookie.SetStatus(ctx, view.ID, models.CookieStatusCooldown, nil); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	ok, err := env.services.Cookie.TestHealth(ctx, view.ID)
	if err != nil {
		t.Fatalf("probe errored: %v", err)
	}
	if !ok {
		t.Fatal("expected probe to pass")
	}

	entry, _ := env.repos.Cookie.GetByID(ctx, view.ID)
	if entry.Status != models.CookieStatusHealthy {
		t.Errorf("Status = %q, want healthy after a passing probe", entry.Status)
	}
}

func TestCookieService_TestHealthFailure(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer rejecting.Close()

	orig := probeURLs[platform.Facebook]
	probeURLs[platform.Facebook] = rejecting.URL
	t.Cleanup(func() { probeURLs[platform.Facebook] = orig })

	view := env.addCookie(t, platform.Facebook, "c_user=1")
	if err := env.repos.Cookie.SetStatus(ctx, view.ID, models.CookieStatusCooldown, nil); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	ok, err := env.services.Cookie.TestHealth(ctx, view.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected probe to fail")
	}

	entry, _ := env.repos.Cookie.GetByID(ctx, view.ID)
	if entry.Status != models.CookieStatusCooldown {
		t.Errorf("Status = %q, a failing probe must not restore healthy", entry.Status)
	}
	if entry.LastError == "" {
		t.Error("expected the probe failure to be recorded")
	}
}
