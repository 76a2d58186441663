package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/risunCode/downaria/internal/config"
	"github.com/risunCode/downaria/internal/crypto"
	"github.com/risunCode/downaria/internal/database/migrations"
	"github.com/risunCode/downaria/internal/extractor"
	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
	"github.com/risunCode/downaria/internal/repository"
)

func testConfig() *config.Config {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return &config.Config{
		EncryptionKey:        key,
		CacheTTL:             72 * time.Hour,
		ExtractTimeout:       5 * time.Second,
		CookieCooldownAfter:  3,
		CookieCooldownPeriod: 30 * time.Minute,
		CookieExpireAfter:    10,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testEnv bundles everything a service test needs.
type testEnv struct {
	cfg      *config.Config
	repos    *repository.Repositories
	services *Services
	settings *config.SettingsLoader
}

// setupEnv wires the service layer over an in-memory database, with the
// given extractors substituted for the real registry.
func setupEnv(t *testing.T, extractors ...extractor.Extractor) *testEnv {
	t.Helper()
	return setupEnvWithConfig(t, testConfig(), extractors...)
}

func setupEnvWithMaintenance(t *testing.T, extractors ...extractor.Extractor) *testEnv {
	t.Helper()
	cfg := testConfig()
	cfg.MaintenanceMode = true
	return setupEnvWithConfig(t, cfg, extractors...)
}

func setupEnvWithDisabled(t *testing.T, fake extractor.Extractor, disabled ...string) *testEnv {
	t.Helper()
	cfg := testConfig()
	cfg.DisabledPlatforms = disabled
	return setupEnvWithConfig(t, cfg, fake)
}

func setupEnvWithConfig(t *testing.T, cfg *config.Config, extractors ...extractor.Extractor) *testEnv {
	t.Helper()
	logger := testLogger()
	repos := repository.NewRepositories(setupTestDB(t))
	settings := config.NewSettingsLoader(cfg, nil, logger)

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	client := fetch.New(cfg.ExtractTimeout)
	registry := extractor.NewRegistryWith(extractors...)

	cacheSvc := NewCacheService(repos, cfg.CacheTTL, logger)
	cookieSvc := NewCookieService(repos, encryptor, client, logger)
	fingerprintSvc := NewFingerprintService(repos, logger)
	usageSvc := NewUsageService(repos, logger)
	apiKeySvc := NewAPIKeyService(repos, logger)
	resolverSvc := NewResolverService(cfg, repos, registry, cacheSvc, cookieSvc, usageSvc, settings, logger)

	return &testEnv{
		cfg:   cfg,
		repos: repos,
		services: &Services{
			Resolver:    resolverSvc,
			Cache:       cacheSvc,
			Cookie:      cookieSvc,
			Fingerprint: fingerprintSvc,
			Usage:       usageSvc,
			APIKey:      apiKeySvc,
			Registry:    registry,
		},
		settings: settings,
	}
}

// addCookie seeds an encrypted cookie into the pool.
func (env *testEnv) addCookie(t *testing.T, p platform.Platform, value string) *CookieView {
	t.Helper()
	view, err := env.services.Cookie.Create(context.Background(), CookieInput{
		Platform: p,
		Value:    value,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("failed to seed cookie: %v", err)
	}
	return view
}

// fakeExtractor scripts extraction behavior per attempt.
type fakeExtractor struct {
	platform       platform.Platform
	requiresCookie bool
	extract        func(url string, opts extractor.Options) (*models.MediaData, *extractor.Error)

	anonCalls   int
	cookieCalls int
}

func (f *fakeExtractor) Platform() platform.Platform { return f.platform }

func (f *fakeExtractor) RequiresCookie() bool { return f.requiresCookie }

func (f *fakeExtractor) Extract(ctx context.Context, url string, opts extractor.Options) (*models.MediaData, *extractor.Error) {
	if opts.Cookie == "" {
		f.anonCalls++
	} else {
		f.cookieCalls++
	}
	return f.extract(url, opts)
}

func videoData(url string) *models.MediaData {
	return &models.MediaData{
		Title:   "clip",
		Formats: []models.MediaFormat{{URL: url, Quality: "hd", Kind: models.MediaVideo}},
	}
}
