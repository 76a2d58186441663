package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/risunCode/downaria/internal/config"
	"github.com/risunCode/downaria/internal/extractor"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
	"github.com/risunCode/downaria/internal/pool"
	"github.com/risunCode/downaria/internal/repository"
)

// ResolverService orchestrates one resolution request: detect the
// platform, consult the cache, pick a fingerprint, attempt extraction
// anonymously, fall back to a pooled cookie once, and record every
// outcome. Failures are values in the response envelope; the resolver
// itself returns errors to nobody.
type ResolverService struct {
	cfg      *config.Config
	repos    *repository.Repositories
	registry *extractor.Registry
	cache    *CacheService
	cookies  *CookieService
	usage    *UsageService
	settings *config.SettingsLoader
	policy   pool.CookiePolicy
	logger   *slog.Logger
	now      func() time.Time
	rng      *rand.Rand
}

// NewResolverService creates a new resolver service.
func NewResolverService(
	cfg *config.Config,
	repos *repository.Repositories,
	registry *extractor.Registry,
	cache *CacheService,
	cookies *CookieService,
	usage *UsageService,
	settings *config.SettingsLoader,
	logger *slog.Logger,
) *ResolverService {
	return &ResolverService{
		cfg:      cfg,
		repos:    repos,
		registry: registry,
		cache:    cache,
		cookies:  cookies,
		usage:    usage,
		settings: settings,
		policy: pool.CookiePolicy{
			CooldownAfter:  cfg.CookieCooldownAfter,
			CooldownPeriod: cfg.CookieCooldownPeriod,
			ExpireAfter:    cfg.CookieExpireAfter,
		},
		logger: logger,
		now:    time.Now,
	}
}

// ResolveInput is one resolution request. Cookie, when set, is a
// caller-supplied credential that bypasses the pool.
type ResolveInput struct {
	URL    string
	Cookie string
}

// Resolve runs the request state machine and always returns a result.
func (s *ResolverService) Resolve(ctx context.Context, input ResolveInput) (result *models.ExtractionResult) {
	start := s.now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during resolution", "panic", r, "url", input.URL)
			result = failure(platform.None, models.ErrInternal, "internal error")
		}
	}()

	p := platform.Detect(input.URL)
	if p == platform.None {
		return failure(p, models.ErrUnsupportedPlatform, "unsupported platform")
	}

	settings := s.settings.Snapshot()
	if settings.MaintenanceMode {
		return failure(p, models.ErrInternal, "service is under maintenance")
	}
	if !settings.PlatformEnabled(string(p)) {
		return failure(p, models.ErrUnsupportedPlatform, fmt.Sprintf("%s is temporarily disabled", p.Display()))
	}

	canonical, err := platform.Canonicalize(input.URL)
	if err != nil {
		// Detect already accepted the URL, so this only trips on
		// genuinely malformed input that slipped past the host match.
		s.logger.Warn("failed to canonicalize url", "url", input.URL, "error", err)
		canonical = input.URL
	}
	s.usage.RecordRequest(ctx, p)

	if !settings.CacheDisabled {
		if cached := s.cache.Lookup(ctx, p, canonical); cached != nil {
			s.usage.RecordOutcome(ctx, p, cached.Success)
			return cached
		}
	}

	ext := s.registry.ForPlatform(p)
	if ext == nil {
		return failure(p, models.ErrUnsupportedPlatform, "unsupported platform")
	}

	fp := s.selectFingerprint(ctx, p)
	opts := extractor.Options{}
	if fp != nil {
		opts.Headers = fp.Headers()
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	defer cancel()

	result = s.attempt(extractCtx, ext, p, canonical, input, opts)

	if result.Success && result.Data != nil {
		result.Data.ResponseTimeMs = s.now().Sub(start).Milliseconds()
	}

	if fp != nil {
		if err := s.repos.Fingerprint.RecordOutcome(ctx, fp.ID, result.Success); err != nil {
			s.logger.Warn("failed to record fingerprint outcome", "id", fp.ID, "error", err)
		}
	}
	s.usage.RecordOutcome(ctx, p, result.Success)

	// A result assembled after the caller went away is not written back:
	// a partial or timed-out extraction must not poison the cache.
	if result.Success && !settings.CacheDisabled && ctx.Err() == nil {
		s.cache.Store(ctx, p, canonical, result)
	}

	return result
}

// attempt runs the anonymous attempt and the single cookie-assisted retry.
func (s *ResolverService) attempt(ctx context.Context, ext extractor.Extractor, p platform.Platform, canonical string, input ResolveInput, opts extractor.Options) *models.ExtractionResult {
	var anonErr *extractor.Error

	if !ext.RequiresCookie() {
		data, extErr := ext.Extract(ctx, canonical, opts)
		if extErr == nil {
			return success(p, data, false)
		}
		anonErr = extErr
	}

	// Caller-supplied cookie wins over the pool and carries no pool
	// bookkeeping.
	if input.Cookie != "" {
		cookieOpts := opts
		cookieOpts.Cookie = input.Cookie
		data, extErr := ext.Extract(ctx, canonical, cookieOpts)
		if extErr == nil {
			return success(p, data, true)
		}
		return failureFrom(p, extErr)
	}

	entry := s.selectCookie(ctx, p)
	if entry == nil {
		if ext.RequiresCookie() {
			return failure(p, models.ErrCredentialRequired, fmt.Sprintf("%s requires cookie", p.Display()))
		}
		if anonErr != nil && anonErr.Kind == models.ErrCredentialRequired {
			return failure(p, models.ErrCredentialExhausted, "no usable cookie available")
		}
		return failureFrom(p, anonErr)
	}

	value, err := s.cookies.Decrypt(entry)
	if err != nil {
		s.logger.Error("failed to decrypt pooled cookie", "id", entry.ID, "error", err)
		if anonErr != nil {
			return failureFrom(p, anonErr)
		}
		return failure(p, models.ErrInternal, "internal error")
	}

	if err := s.repos.Cookie.RecordUse(ctx, entry.ID, s.now()); err != nil {
		s.logger.Warn("failed to record cookie use", "id", entry.ID, "error", err)
	}

	cookieOpts := opts
	cookieOpts.Cookie = value
	data, extErr := ext.Extract(ctx, canonical, cookieOpts)
	if extErr == nil {
		if err := s.repos.Cookie.RecordSuccess(ctx, entry.ID); err != nil {
			s.logger.Warn("failed to record cookie success", "id", entry.ID, "error", err)
		}
		return success(p, data, true)
	}

	s.handleCookieFailure(ctx, entry.ID, extErr)
	return failureFrom(p, extErr)
}

// handleCookieFailure applies the pool policy after a failed
// cookie-assisted attempt. Auth rejections expire the cookie outright;
// other failures walk the cooldown/expire thresholds.
func (s *ResolverService) handleCookieFailure(ctx context.Context, id string, extErr *extractor.Error) {
	consecutive, err := s.repos.Cookie.RecordFailure(ctx, id, extErr.Message)
	if err != nil {
		s.logger.Warn("failed to record cookie failure", "id", id, "error", err)
		return
	}

	status, until := s.policy.OnFailure(consecutive, extErr.AuthRejected, s.now())
	if status == "" {
		return
	}
	if err := s.repos.Cookie.SetStatus(ctx, id, status, until); err != nil {
		s.logger.Warn("failed to transition cookie status", "id", id, "status", status, "error", err)
		return
	}
	s.logger.Info("cookie status changed", "id", id, "status", status, "consecutive_errors", consecutive)
}

func (s *ResolverService) selectCookie(ctx context.Context, p platform.Platform) *models.CookieEntry {
	entries, err := s.repos.Cookie.ListByPlatform(ctx, p)
	if err != nil {
		s.logger.Warn("failed to snapshot cookie pool", "platform", p, "error", err)
		return nil
	}
	return pool.SelectCookie(entries, s.now())
}

func (s *ResolverService) selectFingerprint(ctx context.Context, p platform.Platform) *models.FingerprintProfile {
	profiles, err := s.repos.Fingerprint.ListForPlatform(ctx, p)
	if err != nil {
		s.logger.Warn("failed to snapshot fingerprint pool", "platform", p, "error", err)
		return nil
	}
	return pool.SelectFingerprint(profiles, s.rng)
}

func success(p platform.Platform, data *models.MediaData, usedCookie bool) *models.ExtractionResult {
	data.UsedCookie = usedCookie
	return &models.ExtractionResult{
		Success:  true,
		Platform: p,
		Data:     data,
	}
}

func failure(p platform.Platform, kind models.ErrorKind, message string) *models.ExtractionResult {
	return &models.ExtractionResult{
		Success:   false,
		Platform:  p,
		ErrorKind: kind,
		Error:     message,
	}
}

func failureFrom(p platform.Platform, extErr *extractor.Error) *models.ExtractionResult {
	if extErr == nil {
		return failure(p, models.ErrInternal, "internal error")
	}
	return failure(p, extErr.Kind, extErr.Message)
}
