package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/repository"
)

// FingerprintService manages the fingerprint pool. Writes are validated
// for internal consistency: a profile whose headers contradict its own
// user agent is worse than no profile at all.
type FingerprintService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewFingerprintService creates a new fingerprint service.
func NewFingerprintService(repos *repository.Repositories, logger *slog.Logger) *FingerprintService {
	return &FingerprintService{repos: repos, logger: logger}
}

// Create validates and stores a new profile.
func (s *FingerprintService) Create(ctx context.Context, profile *models.FingerprintProfile) (*models.FingerprintProfile, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if err := s.repos.Fingerprint.Create(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Info("fingerprint added", "id", profile.ID, "label", profile.Label, "platform", profile.Platform)
	return profile, nil
}

// List returns all profiles.
func (s *FingerprintService) List(ctx context.Context) ([]*models.FingerprintProfile, error) {
	return s.repos.Fingerprint.List(ctx)
}

// Get returns one profile, nil when absent.
func (s *FingerprintService) Get(ctx context.Context, id string) (*models.FingerprintProfile, error) {
	return s.repos.Fingerprint.GetByID(ctx, id)
}

// Update validates and persists profile changes.
func (s *FingerprintService) Update(ctx context.Context, profile *models.FingerprintProfile) (*models.FingerprintProfile, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if err := s.repos.Fingerprint.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Delete removes a profile.
func (s *FingerprintService) Delete(ctx context.Context, id string) error {
	return s.repos.Fingerprint.Delete(ctx, id)
}

// validateProfile enforces the consistency rules between the declared
// browser identity and the client-hint headers.
func validateProfile(p *models.FingerprintProfile) error {
	if p.Label == "" {
		return fmt.Errorf("label is required")
	}
	if p.UserAgent == "" {
		return fmt.Errorf("user agent is required")
	}
	if p.AcceptLanguage == "" {
		p.AcceptLanguage = "en-US,en;q=0.9"
	}
	if p.DeviceClass == "" {
		p.DeviceClass = models.DeviceDesktop
	}
	if p.DeviceClass != models.DeviceDesktop && p.DeviceClass != models.DeviceMobile {
		return fmt.Errorf("unknown device class %q", p.DeviceClass)
	}
	if p.Platform == "" {
		p.Platform = models.PlatformAll
	}
	if p.Platform != models.PlatformAll && !p.Platform.Valid() {
		return fmt.Errorf("unknown platform %q", p.Platform)
	}
	if p.Priority < 0 || p.Priority > 100 {
		return fmt.Errorf("priority must be between 0 and 100")
	}
	// Non-Chromium browsers never send sec-ch-ua; storing one would leak
	// an inconsistent identity.
	if !p.Chromium && (p.SecChUA != "" || p.SecChUAPlatform != "") {
		return fmt.Errorf("sec-ch-ua headers require a chromium profile")
	}
	if p.Chromium && p.SecChUA == "" {
		return fmt.Errorf("chromium profiles must declare sec_ch_ua")
	}
	return nil
}
