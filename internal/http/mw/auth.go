// Package mw contains HTTP middleware for the downaria API.
package mw

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/service"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// KeyClaimsKey is the context key for admin key claims.
	KeyClaimsKey ContextKey = "key_claims"
)

// SecurityScheme is the name of the security scheme used in OpenAPI.
const SecurityScheme = "bearerAuth"

// KeyClaims identifies the admin key a request authenticated with.
type KeyClaims struct {
	KeyID     string
	Name      string
	Bootstrap bool // true when the operator-provisioned env key was used
}

// KeyVerifier checks a presented API key against the key store.
// *service.APIKeyService satisfies it.
type KeyVerifier interface {
	VerifyKey(ctx context.Context, key string) (*models.APIKey, error)
}

// AuthConfig holds dependencies for the admin auth middleware.
type AuthConfig struct {
	Keys KeyVerifier
	// BootstrapHash is the sha256 hex of an operator-provisioned key set via
	// environment. It lets an operator reach the admin API before any key
	// exists in the database.
	BootstrapHash string
}

// HumaAuth returns a Huma middleware that authenticates operations carrying
// bearer security. Public operations pass through untouched.
func HumaAuth(api huma.API, cfg AuthConfig) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op == nil || !operationRequiresAuth(op) {
			next(ctx)
			return
		}

		authHeader := ctx.Header("Authorization")
		if authHeader == "" {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing authorization header")
			return
		}

		claims := cfg.authenticate(ctx.Context(), bearerToken(authHeader))
		if claims == nil {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid api key")
			return
		}

		newCtx := context.WithValue(ctx.Context(), KeyClaimsKey, claims)
		next(huma.WithContext(ctx, newCtx))
	}
}

// authenticate resolves a token to claims, or nil when it is not a valid key.
func (cfg AuthConfig) authenticate(ctx context.Context, token string) *KeyClaims {
	if token == "" {
		return nil
	}

	if cfg.BootstrapHash != "" {
		hash := service.HashKey(token)
		if subtle.ConstantTimeCompare([]byte(hash), []byte(cfg.BootstrapHash)) == 1 {
			return &KeyClaims{Name: "bootstrap", Bootstrap: true}
		}
	}

	if cfg.Keys == nil || !strings.HasPrefix(token, "da_") {
		return nil
	}
	record, err := cfg.Keys.VerifyKey(ctx, token)
	if err != nil || record == nil {
		return nil
	}
	return &KeyClaims{KeyID: record.ID, Name: record.Name}
}

// bearerToken strips an optional Bearer prefix from an Authorization header.
func bearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

// operationRequiresAuth checks if the operation has bearerAuth in its
// security requirements.
func operationRequiresAuth(op *huma.Operation) bool {
	for _, secReq := range op.Security {
		if _, ok := secReq[SecurityScheme]; ok {
			return true
		}
	}
	return false
}

// GetKeyClaims retrieves key claims from context.
func GetKeyClaims(ctx context.Context) *KeyClaims {
	claims, ok := ctx.Value(KeyClaimsKey).(*KeyClaims)
	if !ok {
		return nil
	}
	return claims
}
