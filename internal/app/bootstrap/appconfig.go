// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings (ports, TLS, logging level, body limits);
// everything below is specific to LeadHub.
type AppConfig struct {
	// Document store selection: "mongo" or "memory"
	StoreDriver string

	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: leadhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Backup archive storage
	StorageType       string // "local" or "s3"
	StorageLocalPath  string // Directory for local archives
	StorageS3Region   string
	StorageS3Bucket   string
	StorageS3Prefix   string // Key prefix (e.g., "backups/")
	StorageS3Endpoint string // Optional endpoint override for S3-compatible stores

	// Store limits
	BatchLimit       int // max ops per atomic batch
	RestoreChunkSize int // records per restore batch; must not exceed BatchLimit

	// Repository behavior
	BcryptCost      int
	ConvertedStatus string // lead status counted as converted in stats
	StatsTimezone   string // IANA zone used for weekday buckets
	DefaultPageSize int

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAdmin string
	AuditLogLeads string

	// SuperAdmin bootstrap
	SuperAdminEmail string
}
