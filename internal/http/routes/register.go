// Package routes provides shared route registration for the downaria API.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/risunCode/downaria/internal/http/handlers"
	"github.com/risunCode/downaria/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
func Register(api huma.API, h *handlers.Handlers) {
	// Public surface
	mw.PublicGet(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithOperationID("healthCheck"))
	mw.PublicPost(api, "/api/v1/resolve", h.Resolve.Resolve,
		mw.WithTags("Resolve"),
		mw.WithSummary("Resolve a media link"),
		mw.WithDescription("Detects the platform from the URL and returns downloadable media formats. Extraction failures come back as 200 with success=false and a structured error kind."),
		mw.WithOperationID("resolve"))
	mw.PublicGet(api, "/api/v1/platforms", h.Platforms.ListPlatforms,
		mw.WithTags("Resolve"),
		mw.WithSummary("List supported platforms"),
		mw.WithOperationID("listPlatforms"))

	// Kubernetes probes (hidden from docs - internal use only)
	mw.HiddenGet(api, "/healthz", h.Livez)
	mw.HiddenGet(api, "/readyz", h.Readyz)

	// Cookie pool (admin key required)
	mw.ProtectedGet(api, "/api/v1/admin/cookies", h.Cookie.ListCookies,
		mw.WithTags("Cookies"),
		mw.WithSummary("List cookies"),
		mw.WithOperationID("listCookies"))
	mw.ProtectedPost(api, "/api/v1/admin/cookies", h.Cookie.CreateCookie,
		mw.WithTags("Cookies"),
		mw.WithSummary("Add cookie"),
		mw.WithOperationID("createCookie"))
	mw.ProtectedGet(api, "/api/v1/admin/cookies/{id}", h.Cookie.GetCookie,
		mw.WithTags("Cookies"),
		mw.WithSummary("Get cookie"),
		mw.WithOperationID("getCookie"))
	mw.ProtectedPut(api, "/api/v1/admin/cookies/{id}", h.Cookie.UpdateCookie,
		mw.WithTags("Cookies"),
		mw.WithSummary("Update cookie"),
		mw.WithOperationID("updateCookie"))
	mw.ProtectedDelete(api, "/api/v1/admin/cookies/{id}", h.Cookie.DeleteCookie,
		mw.WithTags("Cookies"),
		mw.WithSummary("Delete cookie"),
		mw.WithOperationID("deleteCookie"))
	mw.ProtectedPost(api, "/api/v1/admin/cookies/{id}/reveal", h.Cookie.RevealCookie,
		mw.WithTags("Cookies"),
		mw.WithSummary("Reveal cookie value"),
		mw.WithDescription("Decrypts and returns the stored value. Every call is audit-logged."),
		mw.WithOperationID("revealCookie"))
	mw.ProtectedPost(api, "/api/v1/admin/cookies/{id}/test", h.Cookie.TestCookie,
		mw.WithTags("Cookies"),
		mw.WithSummary("Probe cookie health"),
		mw.WithOperationID("testCookie"))
	mw.ProtectedPost(api, "/api/v1/admin/cookies/{id}/reset", h.Cookie.ResetCookie,
		mw.WithTags("Cookies"),
		mw.WithSummary("Reset cookie status"),
		mw.WithOperationID("resetCookie"))

	// Fingerprint pool
	mw.ProtectedGet(api, "/api/v1/admin/fingerprints", h.Fingerprint.ListFingerprints,
		mw.WithTags("Fingerprints"),
		mw.WithSummary("List fingerprints"),
		mw.WithOperationID("listFingerprints"))
	mw.ProtectedPost(api, "/api/v1/admin/fingerprints", h.Fingerprint.CreateFingerprint,
		mw.WithTags("Fingerprints"),
		mw.WithSummary("Add fingerprint"),
		mw.WithOperationID("createFingerprint"))
	mw.ProtectedGet(api, "/api/v1/admin/fingerprints/{id}", h.Fingerprint.GetFingerprint,
		mw.WithTags("Fingerprints"),
		mw.WithSummary("Get fingerprint"),
		mw.WithOperationID("getFingerprint"))
	mw.ProtectedPut(api, "/api/v1/admin/fingerprints/{id}", h.Fingerprint.UpdateFingerprint,
		mw.WithTags("Fingerprints"),
		mw.WithSummary("Update fingerprint"),
		mw.WithOperationID("updateFingerprint"))
	mw.ProtectedDelete(api, "/api/v1/admin/fingerprints/{id}", h.Fingerprint.DeleteFingerprint,
		mw.WithTags("Fingerprints"),
		mw.WithSummary("Delete fingerprint"),
		mw.WithOperationID("deleteFingerprint"))

	// Cache, usage, settings
	mw.ProtectedDelete(api, "/api/v1/admin/cache", h.Admin.ClearCache,
		mw.WithTags("Admin"),
		mw.WithSummary("Clear result cache"),
		mw.WithOperationID("clearCache"))
	mw.ProtectedGet(api, "/api/v1/admin/usage", h.Admin.GetUsage,
		mw.WithTags("Admin"),
		mw.WithSummary("Usage summary"),
		mw.WithOperationID("getUsage"))
	mw.ProtectedGet(api, "/api/v1/admin/settings", h.Admin.GetSettings,
		mw.WithTags("Admin"),
		mw.WithSummary("Runtime settings snapshot"),
		mw.WithOperationID("getSettings"))
	mw.ProtectedPost(api, "/api/v1/admin/settings/refresh", h.Admin.RefreshSettings,
		mw.WithTags("Admin"),
		mw.WithSummary("Reload runtime settings"),
		mw.WithOperationID("refreshSettings"))

	// API keys
	mw.ProtectedGet(api, "/api/v1/admin/keys", h.Admin.ListKeys,
		mw.WithTags("API Keys"),
		mw.WithSummary("List API keys"),
		mw.WithOperationID("listApiKeys"))
	mw.ProtectedPost(api, "/api/v1/admin/keys", h.Admin.CreateKey,
		mw.WithTags("API Keys"),
		mw.WithSummary("Create API key"),
		mw.WithOperationID("createApiKey"))
	mw.ProtectedDelete(api, "/api/v1/admin/keys/{id}", h.Admin.RevokeKey,
		mw.WithTags("API Keys"),
		mw.WithSummary("Revoke API key"),
		mw.WithOperationID("revokeApiKey"))
}
