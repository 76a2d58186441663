// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
	"database/sql"

	"github.com/danielgtaylor/huma/v2"

	"github.com/risunCode/downaria/internal/config"
	"github.com/risunCode/downaria/internal/service"
	"github.com/risunCode/downaria/internal/version"
)

// Handlers bundles all handler instances for route registration.
type Handlers struct {
	Resolve     *ResolveHandler
	Platforms   *PlatformsHandler
	Cookie      *CookieHandler
	Fingerprint *FingerprintHandler
	Admin       *AdminHandler

	db *sql.DB
}

// New creates all handler instances.
func New(db *sql.DB, services *service.Services, settings *config.SettingsLoader) *Handlers {
	return &Handlers{
		Resolve:     NewResolveHandler(services.Resolver),
		Platforms:   NewPlatformsHandler(services.Registry, settings),
		Cookie:      NewCookieHandler(services.Cookie),
		Fingerprint: NewFingerprintHandler(services.Fingerprint),
		Admin:       NewAdminHandler(services, settings),
		db:          db,
	}
}

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

// HealthCheck returns the health status of the API.
func (h *Handlers) HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Get().Version
	return out, nil
}

// LivezOutput represents the liveness probe response.
type LivezOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Livez is the K8s liveness probe. It answers as long as the process serves.
func (h *Handlers) Livez(ctx context.Context, input *struct{}) (*LivezOutput, error) {
	out := &LivezOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// ReadyzOutput represents the readiness probe response.
type ReadyzOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Readyz is the K8s readiness probe. Ready means the database answers.
func (h *Handlers) Readyz(ctx context.Context, input *struct{}) (*ReadyzOutput, error) {
	if err := h.db.PingContext(ctx); err != nil {
		return nil, huma.Error503ServiceUnavailable("database unavailable")
	}
	out := &ReadyzOutput{}
	out.Body.Status = "ok"
	return out, nil
}
