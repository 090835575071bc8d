// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//
// AppConfig carries everything specific to BloodLink: the MongoDB
// connection, session cookie settings, schema options and the JSON API's
// CORS and rate limit.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: bloodlink-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // How long a dashboard sign-in lasts

	// Schema options
	EnforceUniquePhone bool // Unique index on donors.phone; duplicates fail at insert
	SchemaValidators   bool // Install $jsonSchema validators on collections

	// JSON API
	CORSAllowedOrigins []string // Empty allows any origin
	APIRateLimit       int      // Requests per minute per client IP; 0 disables
}
