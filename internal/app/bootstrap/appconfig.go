// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration (ports, TLS, logging level).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: peerreview-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// Identity tokens
	TokenSecret string
	TokenTTL    time.Duration

	// Reviews
	ReviewTimezone      string // IANA name; "Local" or blank means the server zone
	ReviewUniquePerDay  bool   // install the unique (reviewer, reviewee, day) index
	AveragesRefreshCron string // blank disables the scheduled refresh

	// Audit logging: all | db | log | off
	AuditLogAuth  string
	AuditLogAdmin string

	// Store call timeouts (zero keeps the defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}

// Location resolves ReviewTimezone.
func (c AppConfig) Location() (*time.Location, error) {
	if c.ReviewTimezone == "" || c.ReviewTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.ReviewTimezone)
}
