package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
	"github.com/risunCode/downaria/internal/repository"
)

// CacheService memoizes extraction results keyed by (platform, canonical
// URL). Expiry is lazy: a stored row older than the TTL reads as a miss,
// and the maintenance worker purges stale rows in bulk.
type CacheService struct {
	repos  *repository.Repositories
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewCacheService creates a new cache service.
func NewCacheService(repos *repository.Repositories, ttl time.Duration, logger *slog.Logger) *CacheService {
	return &CacheService{
		repos:  repos,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Lookup returns the cached result for a canonical URL, or nil on miss or
// expiry. Cache trouble is logged and treated as a miss; the cache never
// fails a resolution.
func (s *CacheService) Lookup(ctx context.Context, p platform.Platform, canonicalURL string) *models.ExtractionResult {
	entry, err := s.repos.Cache.Get(ctx, p, canonicalURL)
	if err != nil {
		s.logger.Warn("cache lookup failed", "error", err, "platform", p)
		return nil
	}
	if entry == nil {
		return nil
	}
	if s.now().Sub(entry.CreatedAt) > s.ttl {
		return nil
	}

	var result models.ExtractionResult
	if err := json.Unmarshal([]byte(entry.ResultJSON), &result); err != nil {
		s.logger.Warn("cache entry corrupt, ignoring", "error", err, "platform", p)
		return nil
	}

	return &result
}

// Store writes a successful result for a canonical URL.
func (s *CacheService) Store(ctx context.Context, p platform.Platform, canonicalURL string, result *models.ExtractionResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to marshal result for cache", "error", err)
		return
	}

	usedCookie := result.Data != nil && result.Data.UsedCookie
	err = s.repos.Cache.Upsert(ctx, &models.CacheEntry{
		Platform:     p,
		CanonicalURL: canonicalURL,
		ResultJSON:   string(payload),
		UsedCookie:   usedCookie,
	})
	if err != nil {
		s.logger.Warn("cache store failed", "error", err, "platform", p)
	}
}

// PurgeExpired removes rows older than the TTL and returns how many went.
func (s *CacheService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repos.Cache.DeleteExpired(ctx, s.now().Add(-s.ttl))
}

// Clear drops the whole cache.
func (s *CacheService) Clear(ctx context.Context) (int64, error) {
	return s.repos.Cache.Clear(ctx)
}
