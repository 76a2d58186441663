package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
	"github.com/risunCode/downaria/internal/service"
)

// FingerprintHandler handles the admin fingerprint pool endpoints.
type FingerprintHandler struct {
	fingerprints *service.FingerprintService
}

// NewFingerprintHandler creates a new fingerprint handler.
func NewFingerprintHandler(fingerprints *service.FingerprintService) *FingerprintHandler {
	return &FingerprintHandler{fingerprints: fingerprints}
}

// FingerprintBody is the create/update payload for a profile.
type FingerprintBody struct {
	Platform        string `json:"platform,omitempty" doc:"Platform scope, or 'all'"`
	Label           string `json:"label" doc:"Operator label"`
	UserAgent       string `json:"user_agent"`
	AcceptLanguage  string `json:"accept_language,omitempty"`
	SecChUA         string `json:"sec_ch_ua,omitempty" doc:"Chromium profiles only"`
	SecChUAPlatform string `json:"sec_ch_ua_platform,omitempty"`
	Chromium        bool   `json:"chromium"`
	Browser         string `json:"browser,omitempty"`
	DeviceClass     string `json:"device_class,omitempty" enum:"desktop,mobile"`
	OS              string `json:"os,omitempty"`
	Priority        int    `json:"priority,omitempty" minimum:"0" maximum:"100"`
	Enabled         bool   `json:"enabled"`
	Note            string `json:"note,omitempty"`
}

func (b FingerprintBody) toProfile(id string) *models.FingerprintProfile {
	return &models.FingerprintProfile{
		ID:              id,
		Platform:        platform.Platform(b.Platform),
		Label:           b.Label,
		UserAgent:       b.UserAgent,
		AcceptLanguage:  b.AcceptLanguage,
		SecChUA:         b.SecChUA,
		SecChUAPlatform: b.SecChUAPlatform,
		Chromium:        b.Chromium,
		Browser:         b.Browser,
		DeviceClass:     models.DeviceClass(b.DeviceClass),
		OS:              b.OS,
		Priority:        b.Priority,
		Enabled:         b.Enabled,
		Note:            b.Note,
	}
}

// ListFingerprintsOutput represents the profile list response.
type ListFingerprintsOutput struct {
	Body struct {
		Fingerprints []*models.FingerprintProfile `json:"fingerprints"`
	}
}

// ListFingerprints returns every profile in the pool.
func (h *FingerprintHandler) ListFingerprints(ctx context.Context, input *struct{}) (*ListFingerprintsOutput, error) {
	profiles, err := h.fingerprints.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list fingerprints")
	}
	out := &ListFingerprintsOutput{}
	out.Body.Fingerprints = profiles
	return out, nil
}

// CreateFingerprintInput represents a profile creation request.
type CreateFingerprintInput struct {
	Body FingerprintBody
}

// FingerprintOutput carries one profile.
type FingerprintOutput struct {
	Body models.FingerprintProfile
}

// CreateFingerprint validates and stores a new profile.
func (h *FingerprintHandler) CreateFingerprint(ctx context.Context, input *CreateFingerprintInput) (*FingerprintOutput, error) {
	profile, err := h.fingerprints.Create(ctx, input.Body.toProfile(""))
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &FingerprintOutput{Body: *profile}, nil
}

// FingerprintIDInput addresses one profile.
type FingerprintIDInput struct {
	ID string `path:"id" doc:"Fingerprint ID"`
}

// GetFingerprint returns one profile.
func (h *FingerprintHandler) GetFingerprint(ctx context.Context, input *FingerprintIDInput) (*FingerprintOutput, error) {
	profile, err := h.fingerprints.Get(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load fingerprint")
	}
	if profile == nil {
		return nil, huma.Error404NotFound("fingerprint not found")
	}
	return &FingerprintOutput{Body: *profile}, nil
}

// UpdateFingerprintInput represents a profile update request.
type UpdateFingerprintInput struct {
	ID   string `path:"id" doc:"Fingerprint ID"`
	Body FingerprintBody
}

// UpdateFingerprint validates and persists profile changes.
func (h *FingerprintHandler) UpdateFingerprint(ctx context.Context, input *UpdateFingerprintInput) (*FingerprintOutput, error) {
	profile, err := h.fingerprints.Update(ctx, input.Body.toProfile(input.ID))
	if err != nil {
		if isNotFound(err) {
			return nil, huma.Error404NotFound("fingerprint not found")
		}
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &FingerprintOutput{Body: *profile}, nil
}

// DeleteFingerprintOutput represents a profile deletion response.
type DeleteFingerprintOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// DeleteFingerprint removes a profile.
func (h *FingerprintHandler) DeleteFingerprint(ctx context.Context, input *FingerprintIDInput) (*DeleteFingerprintOutput, error) {
	if err := h.fingerprints.Delete(ctx, input.ID); err != nil {
		if isNotFound(err) {
			return nil, huma.Error404NotFound("fingerprint not found")
		}
		return nil, huma.Error500InternalServerError("failed to delete fingerprint")
	}
	out := &DeleteFingerprintOutput{}
	out.Body.Deleted = true
	return out, nil
}
