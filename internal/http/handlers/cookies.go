package handlers

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/risunCode/downaria/internal/platform"
	"github.com/risunCode/downaria/internal/service"
)

// CookieHandler handles the admin cookie pool endpoints.
type CookieHandler struct {
	cookies *service.CookieService
}

// NewCookieHandler creates a new cookie handler.
func NewCookieHandler(cookies *service.CookieService) *CookieHandler {
	return &CookieHandler{cookies: cookies}
}

// CookieBody is the create/update payload for a pool entry.
type CookieBody struct {
	Platform       string `json:"platform" doc:"Platform the cookie belongs to"`
	Value          string `json:"value,omitempty" doc:"Raw cookie value; on update an empty value keeps the stored one"`
	Label          string `json:"label,omitempty" doc:"Operator label"`
	Note           string `json:"note,omitempty"`
	Enabled        bool   `json:"enabled" doc:"Whether the entry may be selected"`
	MaxUsesPerHour int    `json:"max_uses_per_hour,omitempty" doc:"Rolling-hour use budget, 0 for unthrottled"`
}

func (b CookieBody) toInput() service.CookieInput {
	return service.CookieInput{
		Platform:       platform.Platform(b.Platform),
		Value:          b.Value,
		Label:          b.Label,
		Note:           b.Note,
		Enabled:        b.Enabled,
		MaxUsesPerHour: b.MaxUsesPerHour,
	}
}

// ListCookiesOutput represents the cookie list response.
type ListCookiesOutput struct {
	Body struct {
		Cookies []*service.CookieView `json:"cookies"`
	}
}

// ListCookies returns every pool entry with masked values.
func (h *CookieHandler) ListCookies(ctx context.Context, input *struct{}) (*ListCookiesOutput, error) {
	views, err := h.cookies.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list cookies")
	}
	out := &ListCookiesOutput{}
	out.Body.Cookies = views
	return out, nil
}

// CreateCookieInput represents a cookie creation request.
type CreateCookieInput struct {
	Body CookieBody
}

// CookieOutput carries one pool entry.
type CookieOutput struct {
	Body service.CookieView
}

// CreateCookie adds a new entry to the pool.
func (h *CookieHandler) CreateCookie(ctx context.Context, input *CreateCookieInput) (*CookieOutput, error) {
	view, err := h.cookies.Create(ctx, input.Body.toInput())
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &CookieOutput{Body: *view}, nil
}

// CookieIDInput addresses one pool entry.
type CookieIDInput struct {
	ID string `path:"id" doc:"Cookie ID"`
}

// GetCookie returns one pool entry with a masked value.
func (h *CookieHandler) GetCookie(ctx context.Context, input *CookieIDInput) (*CookieOutput, error) {
	view, err := h.cookies.Get(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load cookie")
	}
	if view == nil {
		return nil, huma.Error404NotFound("cookie not found")
	}
	return &CookieOutput{Body: *view}, nil
}

// UpdateCookieInput represents a cookie update request.
type UpdateCookieInput struct {
	ID   string `path:"id" doc:"Cookie ID"`
	Body CookieBody
}

// UpdateCookie replaces the mutable fields of a pool entry.
func (h *CookieHandler) UpdateCookie(ctx context.Context, input *UpdateCookieInput) (*CookieOutput, error) {
	view, err := h.cookies.Update(ctx, input.ID, input.Body.toInput())
	if err != nil {
		if isNotFound(err) {
			return nil, huma.Error404NotFound("cookie not found")
		}
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &CookieOutput{Body: *view}, nil
}

// DeleteCookieOutput represents a cookie deletion response.
type DeleteCookieOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// DeleteCookie removes a pool entry.
func (h *CookieHandler) DeleteCookie(ctx context.Context, input *CookieIDInput) (*DeleteCookieOutput, error) {
	if err := h.cookies.Delete(ctx, input.ID); err != nil {
		if isNotFound(err) {
			return nil, huma.Error404NotFound("cookie not found")
		}
		return nil, huma.Error500InternalServerError("failed to delete cookie")
	}
	out := &DeleteCookieOutput{}
	out.Body.Deleted = true
	return out, nil
}

// RevealCookieOutput carries a decrypted cookie value.
type RevealCookieOutput struct {
	Body struct {
		Value string `json:"value"`
	}
}

// RevealCookie decrypts one cookie value. The call is audit-logged.
func (h *CookieHandler) RevealCookie(ctx context.Context, input *CookieIDInput) (*RevealCookieOutput, error) {
	value, err := h.cookies.Reveal(ctx, input.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, huma.Error404NotFound("cookie not found")
		}
		return nil, huma.Error500InternalServerError("failed to reveal cookie")
	}
	out := &RevealCookieOutput{}
	out.Body.Value = value
	return out, nil
}

// TestCookieOutput represents a health probe response.
type TestCookieOutput struct {
	Body struct {
		Healthy bool `json:"healthy"`
	}
}

// TestCookie probes the platform with the cookie attached. A passing probe
// restores the entry to healthy.
func (h *CookieHandler) TestCookie(ctx context.Context, input *CookieIDInput) (*TestCookieOutput, error) {
	healthy, err := h.cookies.TestHealth(ctx, input.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, huma.Error404NotFound("cookie not found")
		}
		return nil, huma.Error500InternalServerError("health probe failed")
	}
	out := &TestCookieOutput{}
	out.Body.Healthy = healthy
	return out, nil
}

// ResetCookieOutput represents a status reset response.
type ResetCookieOutput struct {
	Body struct {
		Reset bool `json:"reset"`
	}
}

// ResetCookie is the explicit operator reset back to healthy.
func (h *CookieHandler) ResetCookie(ctx context.Context, input *CookieIDInput) (*ResetCookieOutput, error) {
	if err := h.cookies.Reset(ctx, input.ID); err != nil {
		if isNotFound(err) {
			return nil, huma.Error404NotFound("cookie not found")
		}
		return nil, huma.Error500InternalServerError("failed to reset cookie")
	}
	out := &ResetCookieOutput{}
	out.Body.Reset = true
	return out, nil
}

// isNotFound matches the repository and service not-found errors.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}
