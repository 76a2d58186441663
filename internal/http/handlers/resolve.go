package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/service"
)

// ResolveHandler handles the public media resolution endpoint.
type ResolveHandler struct {
	resolver *service.ResolverService
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(resolver *service.ResolverService) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

// ResolveInput represents a resolution request.
type ResolveInput struct {
	Body struct {
		URL    string `json:"url" doc:"Share link or post URL to resolve"`
		Cookie string `json:"cookie,omitempty" doc:"Caller-supplied cookie, used instead of the pool"`
	}
}

// ResolveOutput represents a resolution response. Extraction failures are
// part of the payload, not transport errors: the response is 200 with
// success=false and a structured error kind.
type ResolveOutput struct {
	Body models.ExtractionResult
}

// Resolve handles media link resolution.
func (h *ResolveHandler) Resolve(ctx context.Context, input *ResolveInput) (*ResolveOutput, error) {
	if input.Body.URL == "" {
		return nil, huma.Error400BadRequest("'url' is required")
	}

	result := h.resolver.Resolve(ctx, service.ResolveInput{
		URL:    input.Body.URL,
		Cookie: input.Body.Cookie,
	})
	return &ResolveOutput{Body: *result}, nil
}
