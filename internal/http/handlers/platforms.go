package handlers

import (
	"context"

	"github.com/risunCode/downaria/internal/config"
	"github.com/risunCode/downaria/internal/extractor"
	"github.com/risunCode/downaria/internal/platform"
)

// PlatformsHandler reports the supported platforms and their runtime state.
type PlatformsHandler struct {
	registry *extractor.Registry
	settings *config.SettingsLoader
}

// NewPlatformsHandler creates a new platforms handler.
func NewPlatformsHandler(registry *extractor.Registry, settings *config.SettingsLoader) *PlatformsHandler {
	return &PlatformsHandler{registry: registry, settings: settings}
}

// PlatformInfo describes one supported platform.
type PlatformInfo struct {
	Platform       string `json:"platform"`
	Name           string `json:"name"`
	Enabled        bool   `json:"enabled"`
	RequiresCookie bool   `json:"requires_cookie"`
}

// ListPlatformsOutput represents the platform list response.
type ListPlatformsOutput struct {
	Body struct {
		Platforms []PlatformInfo `json:"platforms"`
	}
}

// ListPlatforms returns every supported platform with its enabled state
// from the current settings snapshot.
func (h *PlatformsHandler) ListPlatforms(ctx context.Context, input *struct{}) (*ListPlatformsOutput, error) {
	snapshot := h.settings.Snapshot()

	infos := make([]PlatformInfo, 0, len(platform.All()))
	for _, p := range platform.All() {
		info := PlatformInfo{
			Platform: string(p),
			Name:     p.Display(),
			Enabled:  !snapshot.MaintenanceMode && snapshot.PlatformEnabled(string(p)),
		}
		if ext := h.registry.ForPlatform(p); ext != nil {
			info.RequiresCookie = ext.RequiresCookie()
		}
		infos = append(infos, info)
	}

	out := &ListPlatformsOutput{}
	out.Body.Platforms = infos
	return out, nil
}
