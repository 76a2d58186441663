package service

import (
	"context"
	"testing"

	"github.com/risunCode/downaria/internal/models"
)

func validProfile() *models.FingerprintProfile {
	return &models.FingerprintProfile{
		Label:           "chrome-win",
		UserAgent:       "Mozilla/5.0 Chrome/120.0",
		SecChUA:         `"Chromium";v="120"`,
		SecChUAPlatform: `"Windows"`,
		Chromium:        true,
		DeviceClass:     models.DeviceDesktop,
		Priority:        50,
		Enabled:         true,
	}
}

func TestFingerprintService_Create(t *testing.T) {
	env := setupEnv(t)

	profile, err := env.services.Fingerprint.Create(context.Background(), validProfile())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if profile.ID == "" {
		t.Error("expected generated ID")
	}
	if profile.Platform != models.PlatformAll {
		t.Errorf("Platform = %q, want default all", profile.Platform)
	}
}

func TestFingerprintService_Validation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.FingerprintProfile)
	}{
		{"missing label", func(p *models.FingerprintProfile) { p.Label = "" }},
		{"missing user agent", func(p *models.FingerprintProfile) { p.UserAgent = "" }},
		{"sec-ch-ua on non-chromium", func(p *models.FingerprintProfile) { p.Chromium = false }},
		{"chromium without sec-ch-ua", func(p *models.FingerprintProfile) { p.SecChUA = "" }},
		{"priority out of range", func(p *models.FingerprintProfile) { p.Priority = 150 }},
		{"unknown device class", func(p *models.FingerprintProfile) { p.DeviceClass = "tablet" }},
		{"unknown platform", func(p *models.FingerprintProfile) { p.Platform = "myspace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			if _, err := env.services.Fingerprint.Create(ctx, p); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestFingerprintService_NonChromiumWithoutHints(t *testing.T) {
	env := setupEnv(t)

	p := validProfile()
	p.Chromium = false
	p.SecChUA = ""
	p.SecChUAPlatform = ""
	p.Browser = "firefox"

	created, err := env.services.Fingerprint.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// The stored profile must never emit client hints.
	headers := created.Headers()
	if headers.Get("Sec-Ch-Ua") != "" || headers.Get("Sec-Ch-Ua-Mobile") != "" {
		t.Error("non-chromium profile produced sec-ch-ua headers")
	}
}
