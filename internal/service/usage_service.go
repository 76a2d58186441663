package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
	"github.com/risunCode/downaria/internal/repository"
)

// UsageService keeps per-platform daily counters. Counter writes never
// fail a resolution; errors are logged and dropped.
type UsageService struct {
	repos  *repository.Repositories
	logger *slog.Logger
	now    func() time.Time
}

// NewUsageService creates a new usage service.
func NewUsageService(repos *repository.Repositories, logger *slog.Logger) *UsageService {
	return &UsageService{repos: repos, logger: logger, now: time.Now}
}

func (s *UsageService) today() string {
	return s.now().UTC().Format("2006-01-02")
}

// RecordRequest counts an inbound resolution request for a platform.
func (s *UsageService) RecordRequest(ctx context.Context, p platform.Platform) {
	if err := s.repos.Usage.IncrementRequest(ctx, p, s.today()); err != nil {
		s.logger.Warn("failed to record request usage", "platform", p, "error", err)
	}
}

// RecordOutcome counts the terminal state of a resolution.
func (s *UsageService) RecordOutcome(ctx context.Context, p platform.Platform, success bool) {
	if err := s.repos.Usage.IncrementOutcome(ctx, p, s.today(), success); err != nil {
		s.logger.Warn("failed to record outcome usage", "platform", p, "error", err)
	}
}

// Summary returns all usage rows, newest first.
func (s *UsageService) Summary(ctx context.Context) ([]*models.PlatformUsage, error) {
	return s.repos.Usage.Summary(ctx)
}
