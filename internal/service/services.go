// Package service contains the business logic layer: the resolution
// orchestrator plus the admin-facing pool, cache, usage and key services.
package service

import (
	"fmt"
	"log/slog"

	"github.com/risunCode/downaria/internal/config"
	"github.com/risunCode/downaria/internal/crypto"
	"github.com/risunCode/downaria/internal/extractor"
	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Resolver    *ResolverService
	Cache       *CacheService
	Cookie      *CookieService
	Fingerprint *FingerprintService
	Usage       *UsageService
	APIKey      *APIKeyService
	Registry    *extractor.Registry
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, settings *config.SettingsLoader, logger *slog.Logger) (*Services, error) {
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	client := fetch.New(cfg.ExtractTimeout)
	registry := extractor.NewRegistry(client)

	cacheSvc := NewCacheService(repos, cfg.CacheTTL, logger)
	cookieSvc := NewCookieService(repos, encryptor, client, logger)
	fingerprintSvc := NewFingerprintService(repos, logger)
	usageSvc := NewUsageService(repos, logger)
	apiKeySvc := NewAPIKeyService(repos, logger)
	resolverSvc := NewResolverService(cfg, repos, registry, cacheSvc, cookieSvc, usageSvc, settings, logger)

	return &Services{
		Resolver:    resolverSvc,
		Cache:       cacheSvc,
		Cookie:      cookieSvc,
		Fingerprint: fingerprintSvc,
		Usage:       usageSvc,
		APIKey:      apiKeySvc,
		Registry:    registry,
	}, nil
}
