package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// RuntimeSettings is the operator-tunable state consulted on every request.
// It is handed to the orchestrator as an immutable per-request snapshot;
// reloading is an explicit operation, never a side effect of reads.
type RuntimeSettings struct {
	MaintenanceMode   bool     `json:"maintenance_mode"`
	DisabledPlatforms []string `json:"disabled_platforms"`
	CacheDisabled     bool     `json:"cache_disabled"`
}

// PlatformEnabled reports whether a platform is enabled in this snapshot.
func (s RuntimeSettings) PlatformEnabled(platform string) bool {
	for _, p := range s.DisabledPlatforms {
		if strings.EqualFold(p, platform) {
			return false
		}
	}
	return true
}

// NewS3Client creates an S3 client for the runtime settings store.
// Returns nil when the store is not configured.
func NewS3Client(cfg *Config) (*s3.Client, error) {
	if !cfg.SettingsStoreEnabled() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SettingsRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.SettingsAccessKey,
			cfg.SettingsSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.SettingsEndpoint)
		o.UsePathStyle = true // Required for some S3-compatible services
	})
	return client, nil
}

// SettingsLoader serves RuntimeSettings snapshots, optionally backed by an
// object in an S3-compatible bucket. Without a bucket it serves the env-var
// defaults from Config.
type SettingsLoader struct {
	s3Client *s3.Client
	bucket   string
	key      string
	logger   *slog.Logger

	mu        sync.RWMutex
	current   RuntimeSettings
	etag      string
	lastFetch time.Time
}

// NewSettingsLoader creates a loader seeded with the env-var defaults.
// client may be nil, in which case Refresh is a no-op.
func NewSettingsLoader(cfg *Config, client *s3.Client, logger *slog.Logger) *SettingsLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsLoader{
		s3Client: client,
		bucket:   cfg.SettingsBucket,
		key:      cfg.SettingsKey,
		logger:   logger.With("component", "settings"),
		current: RuntimeSettings{
			MaintenanceMode:   cfg.MaintenanceMode,
			DisabledPlatforms: cfg.DisabledPlatforms,
		},
	}
}

// Snapshot returns the current settings by value. It never touches the store.
func (l *SettingsLoader) Snapshot() RuntimeSettings {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := l.current
	snap.DisabledPlatforms = append([]string(nil), l.current.DisabledPlatforms...)
	return snap
}

// LastFetch returns when the settings object was last fetched from the store.
func (l *SettingsLoader) LastFetch() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastFetch
}

// Refresh fetches the settings object from the store with ETag caching.
// A missing object leaves the current snapshot untouched.
func (l *SettingsLoader) Refresh(ctx context.Context) error {
	if l.s3Client == nil {
		return nil
	}

	l.mu.RLock()
	currentEtag := l.etag
	l.mu.RUnlock()

	input := &s3.GetObjectInput{
		Bucket: &l.bucket,
		Key:    &l.key,
	}
	if currentEtag != "" {
		// Add quotes for the HTTP If-None-Match header
		quotedEtag := "\"" + currentEtag + "\""
		input.IfNoneMatch = &quotedEtag
	}

	resp, err := l.s3Client.GetObject(ctx, input)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			l.logger.Debug("settings object not found, keeping current snapshot",
				"bucket", l.bucket, "key", l.key)
			return nil
		}

		var notModified interface{ ErrorCode() string }
		if errors.As(err, &notModified) && notModified.ErrorCode() == "NotModified" {
			return nil
		}

		return fmt.Errorf("failed to fetch runtime settings: %w", err)
	}
	defer resp.Body.Close()

	var settings RuntimeSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return fmt.Errorf("failed to parse runtime settings JSON: %w", err)
	}

	newEtag := ""
	if resp.ETag != nil {
		newEtag = strings.Trim(*resp.ETag, "\"")
	}

	l.mu.Lock()
	l.current = settings
	l.etag = newEtag
	l.lastFetch = time.Now()
	l.mu.Unlock()

	l.logger.Info("runtime settings reloaded",
		"maintenance", settings.MaintenanceMode,
		"disabled_platforms", settings.DisabledPlatforms,
		"etag", newEtag,
	)
	return nil
}
