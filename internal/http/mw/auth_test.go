package mw

import (
	"context"
	"testing"

	"github.com/danielgtaylor/huma/v2"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/service"
)

type fakeVerifier struct {
	keys map[string]*models.APIKey
}

func (f *fakeVerifier) VerifyKey(_ context.Context, key string) (*models.APIKey, error) {
	return f.keys[key], nil
}

func TestAuthConfig_Authenticate(t *testing.T) {
	verifier := &fakeVerifier{keys: map[string]*models.APIKey{
		"da_valid": {ID: "key1", Name: "ops"},
	}}
	cfg := AuthConfig{
		Keys:          verifier,
		BootstrapHash: service.HashKey("da_bootstrap"),
	}
	ctx := context.Background()

	claims := cfg.authenticate(ctx, "da_valid")
	if claims == nil || claims.KeyID != "key1" || claims.Bootstrap {
		t.Errorf("stored key claims = %+v", claims)
	}

	claims = cfg.authenticate(ctx, "da_bootstrap")
	if claims == nil || !claims.Bootstrap {
		t.Errorf("bootstrap key claims = %+v", claims)
	}

	if cfg.authenticate(ctx, "da_unknown") != nil {
		t.Error("unknown key must not authenticate")
	}
	if cfg.authenticate(ctx, "not_a_key") != nil {
		t.Error("token without key prefix must not authenticate")
	}
	if cfg.authenticate(ctx, "") != nil {
		t.Error("empty token must not authenticate")
	}
}

func TestAuthConfig_NoVerifier(t *testing.T) {
	cfg := AuthConfig{BootstrapHash: service.HashKey("da_boot")}
	if cfg.authenticate(context.Background(), "da_boot") == nil {
		t.Error("bootstrap key should work without a key store")
	}
	if cfg.authenticate(context.Background(), "da_other") != nil {
		t.Error("non-bootstrap key must fail without a key store")
	}
}

func TestBearerToken(t *testing.T) {
	if got := bearerToken("Bearer da_abc"); got != "da_abc" {
		t.Errorf("bearerToken = %q", got)
	}
	if got := bearerToken("da_abc"); got != "da_abc" {
		t.Errorf("bare token = %q", got)
	}
}

func TestOperationRequiresAuth(t *testing.T) {
	open := &huma.Operation{}
	if operationRequiresAuth(open) {
		t.Error("operation without security must not require auth")
	}

	secured := &huma.Operation{
		Security: []map[string][]string{{SecurityScheme: {}}},
	}
	if !operationRequiresAuth(secured) {
		t.Error("operation with bearer security must require auth")
	}
}

func TestGetKeyClaims(t *testing.T) {
	if GetKeyClaims(context.Background()) != nil {
		t.Error("no claims in fresh context")
	}

	want := &KeyClaims{KeyID: "k", Name: "n"}
	ctx := context.WithValue(context.Background(), KeyClaimsKey, want)
	if got := GetKeyClaims(ctx); got != want {
		t.Errorf("GetKeyClaims = %+v", got)
	}
}
