package mw

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// OperationOption is a function that modifies an operation.
type OperationOption func(*huma.Operation)

// WithTags adds tags to the operation.
func WithTags(tags ...string) OperationOption {
	return func(op *huma.Operation) {
		op.Tags = append(op.Tags, tags...)
	}
}

// WithSummary sets the operation summary.
func WithSummary(summary string) OperationOption {
	return func(op *huma.Operation) {
		op.Summary = summary
	}
}

// WithDescription sets the operation description.
func WithDescription(desc string) OperationOption {
	return func(op *huma.Operation) {
		op.Description = desc
	}
}

// WithOperationID sets a custom operation ID.
func WithOperationID(id string) OperationOption {
	return func(op *huma.Operation) {
		op.OperationID = id
	}
}

// WithHidden hides the operation from OpenAPI documentation.
func WithHidden() OperationOption {
	return func(op *huma.Operation) {
		op.Hidden = true
	}
}

// PublicGet registers a public GET endpoint (no auth required).
func PublicGet[I, O any](api huma.API, path string, handler func(ctx context.Context, input *I) (*O, error), opts ...OperationOption) {
	register(api, http.MethodGet, path, false, handler, opts)
}

// PublicPost registers a public POST endpoint (no auth required).
func PublicPost[I, O any](api huma.API, path string, handler func(ctx context.Context, input *I) (*O, error), opts ...OperationOption) {
	register(api, http.MethodPost, path, false, handler, opts)
}

// ProtectedGet registers a GET endpoint that requires bearer auth.
func ProtectedGet[I, O any](api huma.API, path string, handler func(ctx context.Context, input *I) (*O, error), opts ...OperationOption) {
	register(api, http.MethodGet, path, true, handler, opts)
}

// ProtectedPost registers a POST endpoint that requires bearer auth.
func ProtectedPost[I, O any](api huma.API, path string, handler func(ctx context.Context, input *I) (*O, error), opts ...OperationOption) {
	register(api, http.MethodPost, path, true, handler, opts)
}

// ProtectedPut registers a PUT endpoint that requires bearer auth.
func ProtectedPut[I, O any](api huma.API, path string, handler func(ctx context.Context, input *I) (*O, error), opts ...OperationOption) {
	register(api, http.MethodPut, path, true, handler, opts)
}

// ProtectedDelete registers a DELETE endpoint that requires bearer auth.
func ProtectedDelete[I, O any](api huma.API, path string, handler func(ctx context.Context, input *I) (*O, error), opts ...OperationOption) {
	register(api, http.MethodDelete, path, true, handler, opts)
}

// HiddenGet registers a GET endpoint that won't appear in OpenAPI docs.
// Used for internal endpoints like K8s probes.
func HiddenGet[I, O any](api huma.API, path string, handler func(ctx context.Context, input *I) (*O, error)) {
	huma.Register(api, huma.Operation{
		Method: http.MethodGet,
		Path:   path,
		Hidden: true,
	}, handler)
}

func register[I, O any](api huma.API, method, path string, protected bool, handler func(ctx context.Context, input *I) (*O, error), opts []OperationOption) {
	op := huma.Operation{
		Method: method,
		Path:   path,
	}
	if protected {
		op.Security = []map[string][]string{{SecurityScheme: {}}}
	}
	for _, opt := range opts {
		opt(&op)
	}
	huma.Register(api, op, handler)
}
