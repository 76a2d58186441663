package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250601-000000",
		Description: "Initial schema",
		Up: []string{
			// Pooled cookies - credential entries rotated across extraction requests.
			// value_encrypted holds the AES-256-GCM ciphertext; plaintext never lands here.
			`CREATE TABLE IF NOT EXISTS cookies (
				id TEXT PRIMARY KEY,
				platform TEXT NOT NULL,
				value_encrypted TEXT NOT NULL,
				label TEXT,
				note TEXT,
				status TEXT NOT NULL DEFAULT 'healthy',
				is_enabled INTEGER NOT NULL DEFAULT 1,
				use_count INTEGER NOT NULL DEFAULT 0,
				success_count INTEGER NOT NULL DEFAULT 0,
				error_count INTEGER NOT NULL DEFAULT 0,
				consecutive_errors INTEGER NOT NULL DEFAULT 0,
				last_used_at TEXT,
				last_error TEXT,
				cooldown_until TEXT,
				max_uses_per_hour INTEGER NOT NULL DEFAULT 0,
				hour_window_start TEXT,
				hour_use_count INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_cookies_platform_status ON cookies(platform, status)`,

			// Fingerprint profiles - rotating browser identities.
			`CREATE TABLE IF NOT EXISTS fingerprints (
				id TEXT PRIMARY KEY,
				platform TEXT NOT NULL DEFAULT 'all',
				label TEXT NOT NULL,
				user_agent TEXT NOT NULL,
				accept_language TEXT NOT NULL DEFAULT 'en-US,en;q=0.9',
				sec_ch_ua TEXT,
				sec_ch_ua_platform TEXT,
				chromium INTEGER NOT NULL DEFAULT 0,
				browser TEXT,
				device_class TEXT NOT NULL DEFAULT 'desktop',
				os TEXT,
				priority INTEGER NOT NULL DEFAULT 50,
				is_enabled INTEGER NOT NULL DEFAULT 1,
				use_count INTEGER NOT NULL DEFAULT 0,
				success_count INTEGER NOT NULL DEFAULT 0,
				error_count INTEGER NOT NULL DEFAULT 0,
				note TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_fingerprints_platform ON fingerprints(platform)`,

			// Extraction result cache, keyed by (platform, canonical URL).
			// Expiry is lazy: rows older than the TTL read as misses.
			`CREATE TABLE IF NOT EXISTS cache_entries (
				id TEXT PRIMARY KEY,
				platform TEXT NOT NULL,
				canonical_url TEXT NOT NULL,
				result_json TEXT NOT NULL,
				used_cookie INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_cache_platform_url ON cache_entries(platform, canonical_url)`,
			`CREATE INDEX IF NOT EXISTS idx_cache_created_at ON cache_entries(created_at)`,

			// Per-platform daily counters.
			`CREATE TABLE IF NOT EXISTS platform_usage (
				id TEXT PRIMARY KEY,
				platform TEXT NOT NULL,
				date TEXT NOT NULL,
				request_count INTEGER NOT NULL DEFAULT 0,
				success_count INTEGER NOT NULL DEFAULT 0,
				failure_count INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_usage_platform_date ON platform_usage(platform, date)`,

			// Admin API keys.
			`CREATE TABLE IF NOT EXISTS api_keys (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				key_hash TEXT UNIQUE NOT NULL,
				key_prefix TEXT NOT NULL,
				last_used_at TEXT,
				created_at TEXT NOT NULL,
				revoked_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_api_keys_key_hash ON api_keys(key_hash)`,
		},
	})
}
