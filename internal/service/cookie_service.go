package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/risunCode/downaria/internal/crypto"
	"github.com/risunCode/downaria/internal/fetch"
	"github.com/risunCode/downaria/internal/models"
	"github.com/risunCode/downaria/internal/platform"
	"github.com/risunCode/downaria/internal/repository"
)

// probeURLs are lightweight endpoints used to check whether a cookie still
// holds an authenticated session.
var probeURLs = map[platform.Platform]string{
	platform.TikTok:    "https://www.tiktok.com/",
	platform.Douyin:    "https://www.douyin.com/",
	platform.Instagram: "https://www.instagram.com/accounts/edit/",
	platform.Facebook:  "https://www.facebook.com/settings",
	platform.Twitter:   "https://x.com/home",
	platform.Weibo:     "https://m.weibo.cn/api/config",
}

// CookieService manages the pooled credentials. Values are encrypted at
// rest; list responses carry only a short preview, and plaintext leaves the
// service solely through Reveal and the fetch path.
type CookieService struct {
	repos     *repository.Repositories
	encryptor *crypto.Encryptor
	client    *fetch.Client
	logger    *slog.Logger
}

// NewCookieService creates a new cookie service.
func NewCookieService(repos *repository.Repositories, encryptor *crypto.Encryptor, client *fetch.Client, logger *slog.Logger) *CookieService {
	return &CookieService{
		repos:     repos,
		encryptor: encryptor,
		client:    client,
		logger:    logger,
	}
}

// CookieInput is the admin payload for creating or updating a cookie.
type CookieInput struct {
	Platform       platform.Platform `json:"platform"`
	Value          string            `json:"value"`
	Label          string            `json:"label,omitempty"`
	Note           string            `json:"note,omitempty"`
	Enabled        bool              `json:"enabled"`
	MaxUsesPerHour int               `json:"max_uses_per_hour,omitempty"`
}

// CookieView is a pool entry as exposed over the admin API: full state,
// masked value.
type CookieView struct {
	models.CookieEntry
	ValuePreview string `json:"value_preview"`
}

// Create encrypts and stores a new cookie.
func (s *CookieService) Create(ctx context.Context, input CookieInput) (*CookieView, error) {
	if !input.Platform.Valid() {
		return nil, fmt.Errorf("unknown platform %q", input.Platform)
	}
	if input.Value == "" {
		return nil, fmt.Errorf("cookie value is required")
	}

	encrypted, err := s.encryptor.Encrypt(input.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt cookie: %w", err)
	}

	entry := &models.CookieEntry{
		Platform:       input.Platform,
		ValueEncrypted: encrypted,
		ValuePreview:   maskValue(input.Value),
		Label:          input.Label,
		Note:           input.Note,
		Enabled:        input.Enabled,
		MaxUsesPerHour: input.MaxUsesPerHour,
	}
	if err := s.repos.Cookie.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("cookie added", "id", entry.ID, "platform", entry.Platform, "label", entry.Label)
	return view(entry), nil
}

// List returns all cookies with masked values. The preview is persisted at
// write time, so listing never touches the ciphertext.
func (s *CookieService) List(ctx context.Context) ([]*CookieView, error) {
	entries, err := s.repos.Cookie.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*CookieView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, view(entry))
	}
	return views, nil
}

// Get returns one cookie with a masked value.
func (s *CookieService) Get(ctx context.Context, id string) (*CookieView, error) {
	entry, err := s.repos.Cookie.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	return view(entry), nil
}

// Update replaces the mutable fields. An empty Value keeps the stored one.
func (s *CookieService) Update(ctx context.Context, id string, input CookieInput) (*CookieView, error) {
	entry, err := s.repos.Cookie.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("cookie not found")
	}

	if input.Value != "" {
		encrypted, err := s.encryptor.Encrypt(input.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt cookie: %w", err)
		}
		entry.ValueEncrypted = encrypted
		entry.ValuePreview = maskValue(input.Value)
	}
	entry.Label = input.Label
	entry.Note = input.Note
	entry.Enabled = input.Enabled
	entry.MaxUsesPerHour = input.MaxUsesPerHour

	if err := s.repos.Cookie.Update(ctx, entry); err != nil {
		return nil, err
	}

	return view(entry), nil
}

// Delete removes a cookie.
func (s *CookieService) Delete(ctx context.Context, id string) error {
	return s.repos.Cookie.Delete(ctx, id)
}

// Reveal decrypts one cookie value. Admin surface only; every call is
// audit-logged.
func (s *CookieService) Reveal(ctx context.Context, id string) (string, error) {
	entry, err := s.repos.Cookie.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", fmt.Errorf("cookie not found")
	}

	value, err := s.encryptor.Decrypt(entry.ValueEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt cookie: %w", err)
	}

	s.logger.Info("cookie value revealed", "id", id, "platform", entry.Platform)
	return value, nil
}

// Reset is the explicit operator reset back to healthy.
func (s *CookieService) Reset(ctx context.Context, id string) error {
	if err := s.repos.Cookie.ResetStatus(ctx, id); err != nil {
		return err
	}
	s.logger.Info("cookie status reset", "id", id)
	return nil
}

// Decrypt returns the plaintext for the fetch path.
func (s *CookieService) Decrypt(entry *models.CookieEntry) (string, error) {
	return s.encryptor.Decrypt(entry.ValueEncrypted)
}

// TestHealth probes the platform with the cookie attached. A passing probe
// is the only path that moves an unhealthy cookie back to healthy.
func (s *CookieService) TestHealth(ctx context.Context, id string) (bool, error) {
	entry, err := s.repos.Cookie.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, fmt.Errorf("cookie not found")
	}

	ok, probeErr := s.probe(ctx, entry)
	if ok {
		if err := s.repos.Cookie.ResetStatus(ctx, entry.ID); err != nil {
			return true, err
		}
		return true, nil
	}

	msg := "health probe failed"
	if probeErr != nil {
		msg = probeErr.Error()
	}
	if err := s.repos.Cookie.SetLastError(ctx, entry.ID, msg); err != nil {
		s.logger.Warn("failed to record probe error", "id", entry.ID, "error", err)
	}
	return false, nil
}

func (s *CookieService) probe(ctx context.Context, entry *models.CookieEntry) (bool, error) {
	probeURL, ok := probeURLs[entry.Platform]
	if !ok {
		return false, fmt.Errorf("no probe endpoint for platform %q", entry.Platform)
	}

	value, err := s.encryptor.Decrypt(entry.ValueEncrypted)
	if err != nil {
		return false, fmt.Errorf("failed to decrypt cookie: %w", err)
	}

	headers := http.Header{}
	headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.client.Probe(probeCtx, probeURL, headers, value); err != nil {
		return false, err
	}
	return true, nil
}

func view(entry *models.CookieEntry) *CookieView {
	return &CookieView{CookieEntry: *entry, ValuePreview: entry.ValuePreview}
}

// maskValue keeps a short prefix so operators can tell entries apart.
func maskValue(value string) string {
	const keep = 8
	if len(value) <= keep {
		return "********"
	}
	return value[:keep] + "..."
}
