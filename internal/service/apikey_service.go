package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/repository"
)

// APIKeyService manages admin API keys. Keys are stored as SHA-256 hashes;
// the plaintext is returned exactly once, on creation.
type APIKeyService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewAPIKeyService creates a new API key service.
func NewAPIKeyService(repos *repository.Repositories, logger *slog.Logger) *APIKeyService {
	return &APIKeyService{repos: repos, logger: logger}
}

// CreateKeyOutput carries the one-time plaintext key.
type CreateKeyOutput struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	KeyPrefix string    `json:"key_prefix"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateKey generates and stores a new admin key.
func (s *APIKeyService) CreateKey(ctx context.Context, name string) (*CreateKeyOutput, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	key := "da_" + base64.RawURLEncoding.EncodeToString(keyBytes)
	keyPrefix := key[:11] + "..."

	record := &models.APIKey{
		Name:      name,
		KeyHash:   HashKey(key),
		KeyPrefix: keyPrefix,
	}
	if err := s.repos.APIKey.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("api key created", "id", record.ID, "name", name, "prefix", keyPrefix)
	return &CreateKeyOutput{
		ID:        record.ID,
		Name:      record.Name,
		Key:       key,
		KeyPrefix: record.KeyPrefix,
		CreatedAt: record.CreatedAt,
	}, nil
}

// VerifyKey checks a presented key and stamps its last use. Returns nil
// for unknown or revoked keys.
func (s *APIKeyService) VerifyKey(ctx context.Context, key string) (*models.APIKey, error) {
	record, err := s.repos.APIKey.GetByKeyHash(ctx, HashKey(key))
	if err != nil {
		return nil, err
	}
	if record == nil || record.RevokedAt != nil {
		return nil, nil
	}

	if err := s.repos.APIKey.UpdateLastUsed(ctx, record.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to stamp api key use", "id", record.ID, "error", err)
	}
	return record, nil
}

// List returns all keys, hashes omitted by the model's JSON tags.
func (s *APIKeyService) List(ctx context.Context) ([]*models.APIKey, error) {
	return s.repos.APIKey.List(ctx)
}

// Revoke disables a key permanently.
func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	if err := s.repos.APIKey.Revoke(ctx, id); err != nil {
		return err
	}
	s.logger.Info("api key revoked", "id", id)
	return nil
}

// HashKey is the storage hash for API keys.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
