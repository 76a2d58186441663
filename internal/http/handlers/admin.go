package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/risunCode/downaria/internal/config"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/service"
)

// AdminHandler handles the remaining management endpoints: cache, usage,
// runtime settings and API keys.
type AdminHandler struct {
	services *service.Services
	settings *config.SettingsLoader
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(services *service.Services, settings *config.SettingsLoader) *AdminHandler {
	return &AdminHandler{services: services, settings: settings}
}

// ClearCacheOutput represents the cache clear response.
type ClearCacheOutput struct {
	Body struct {
		Deleted int64 `json:"deleted"`
	}
}

// ClearCache drops every cached extraction result.
func (h *AdminHandler) ClearCache(ctx context.Context, input *struct{}) (*ClearCacheOutput, error) {
	deleted, err := h.services.Cache.Clear(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to clear cache")
	}
	out := &ClearCacheOutput{}
	out.Body.Deleted = deleted
	return out, nil
}

// GetUsageOutput represents the usage summary response.
type GetUsageOutput struct {
	Body struct {
		Usage []*models.PlatformUsage `json:"usage"`
	}
}

// GetUsage returns the per-platform daily counters, newest first.
func (h *AdminHandler) GetUsage(ctx context.Context, input *struct{}) (*GetUsageOutput, error) {
	rows, err := h.services.Usage.Summary(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load usage")
	}
	out := &GetUsageOutput{}
	out.Body.Usage = rows
	return out, nil
}

// SettingsOutput represents the runtime settings response.
type SettingsOutput struct {
	Body struct {
		Settings  config.RuntimeSettings `json:"settings"`
		LastFetch string                 `json:"last_fetch,omitempty" doc:"When the settings object was last fetched from the store"`
	}
}

// GetSettings returns the current runtime settings snapshot.
func (h *AdminHandler) GetSettings(ctx context.Context, input *struct{}) (*SettingsOutput, error) {
	out := &SettingsOutput{}
	out.Body.Settings = h.settings.Snapshot()
	if t := h.settings.LastFetch(); !t.IsZero() {
		out.Body.LastFetch = t.UTC().Format(time.RFC3339)
	}
	return out, nil
}

// RefreshSettings re-reads the settings object from the store and returns
// the resulting snapshot.
func (h *AdminHandler) RefreshSettings(ctx context.Context, input *struct{}) (*SettingsOutput, error) {
	if err := h.settings.Refresh(ctx); err != nil {
		return nil, huma.Error502BadGateway("failed to refresh settings")
	}
	return h.GetSettings(ctx, input)
}

// ListKeysOutput represents the API key list response.
type ListKeysOutput struct {
	Body struct {
		Keys []*models.APIKey `json:"keys"`
	}
}

// ListKeys returns all admin keys, hashes omitted.
func (h *AdminHandler) ListKeys(ctx context.Context, input *struct{}) (*ListKeysOutput, error) {
	keys, err := h.services.APIKey.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list keys")
	}
	out := &ListKeysOutput{}
	out.Body.Keys = keys
	return out, nil
}

// CreateKeyInput represents an API key creation request.
type CreateKeyInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Descriptive name for the key"`
	}
}

// CreateKeyOutput represents an API key creation response.
type CreateKeyOutput struct {
	Body service.CreateKeyOutput
}

// CreateKey generates a new admin key. The plaintext appears in this
// response and nowhere else.
func (h *AdminHandler) CreateKey(ctx context.Context, input *CreateKeyInput) (*CreateKeyOutput, error) {
	created, err := h.services.APIKey.CreateKey(ctx, input.Body.Name)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &CreateKeyOutput{Body: *created}, nil
}

// RevokeKeyInput addresses one API key.
type RevokeKeyInput struct {
	ID string `path:"id" doc:"Key ID"`
}

// RevokeKeyOutput represents an API key revocation response.
type RevokeKeyOutput struct {
	Body struct {
		Revoked bool `json:"revoked"`
	}
}

// RevokeKey disables a key permanently.
func (h *AdminHandler) RevokeKey(ctx context.Context, input *RevokeKeyInput) (*RevokeKeyOutput, error) {
	if err := h.services.APIKey.Revoke(ctx, input.ID); err != nil {
		if isNotFound(err) {
			return nil, huma.Error404NotFound("key not found")
		}
		return nil, huma.Error500InternalServerError("failed to revoke key")
	}
	out := &RevokeKeyOutput{}
	out.Body.Revoked = true
	return out, nil
}
