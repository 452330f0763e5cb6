// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSecretLen is the shortest token secret accepted outside dev.
const minSecretLen = 32

// appConfigKeys defines the configuration keys for PeerReview.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: PEERREVIEW_MONGO_URI, PEERREVIEW_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "peer_review", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "peerreview-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime (e.g., 24h, 168h)"},

	// Identity tokens
	{Name: "token_secret", Default: "dev-only-token-secret-change-me-0123456789", Desc: "HS256 secret for session tokens (32+ bytes outside dev)"},
	{Name: "token_ttl", Default: "24h", Desc: "Session token lifetime"},

	// Reviews
	{Name: "review_timezone", Default: "Local", Desc: "IANA time zone that defines the reviewer's calendar day"},
	{Name: "review_unique_per_day", Default: false, Desc: "Enforce one review per pair per day with a unique index"},
	{Name: "averages_refresh_cron", Default: "@every 15m", Desc: "Cron spec for refreshing cached group averages (blank disables)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Store call timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document store calls"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-document reads and auth flows"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for cascades, lists and exports"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, PEERREVIEW_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PEERREVIEW", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", 24*time.Hour),

		ReviewTimezone:      strings.TrimSpace(appValues.String("review_timezone")),
		ReviewUniquePerDay:  appValues.Bool("review_unique_per_day"),
		AveragesRefreshCron: strings.TrimSpace(appValues.String("averages_refresh_cron")),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Checks run before any backend is contacted so that misconfiguration
// fails fast.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if _, err := appCfg.Location(); err != nil {
		return fmt.Errorf("invalid review_timezone %q: %w", appCfg.ReviewTimezone, err)
	}

	if err := workers.ValidateSchedule(appCfg.AveragesRefreshCron); err != nil {
		return fmt.Errorf("invalid averages_refresh_cron %q: %w", appCfg.AveragesRefreshCron, err)
	}

	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch v {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("%s must be one of all|db|log|off, got %q", key, v)
		}
	}

	if coreCfg != nil && coreCfg.Env != "dev" && len(appCfg.TokenSecret) < minSecretLen {
		return fmt.Errorf("token_secret must be at least %d bytes outside dev", minSecretLen)
	}

	return nil
}
