// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// appConfigKeys defines the configuration keys for LeadHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: LEADHUB_MONGO_URI, LEADHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_driver", Default: "mongo", Desc: "Document store backend: 'mongo' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "leadhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "leadhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Backup archive storage
	{Name: "storage_type", Default: "local", Desc: "Archive storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./backups", Desc: "Local directory for backup archives"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "backups/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "S3 endpoint override (MinIO, LocalStack)"},

	// Store limits
	{Name: "batch_limit", Default: 500, Desc: "Max operations per atomic batch"},
	{Name: "restore_chunk_size", Default: 450, Desc: "Records written per restore batch"},

	// Repository behavior
	{Name: "bcrypt_cost", Default: bcrypt.DefaultCost, Desc: "bcrypt cost for user passwords"},
	{Name: "converted_status", Default: "Converted", Desc: "Lead status counted as converted"},
	{Name: "stats_timezone", Default: "UTC", Desc: "Time zone for weekday statistics"},
	{Name: "default_page_size", Default: 20, Desc: "Lead list page size when none is requested"},

	// Audit logging settings
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_leads", Default: "all", Desc: "Lead import/export logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig reads .env files, config files,
// environment variables (WAFFLE_* for core, LEADHUB_* for app) and
// flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LEADHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreDriver:      appValues.String("store_driver"),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		StorageType:       appValues.String("storage_type"),
		StorageLocalPath:  appValues.String("storage_local_path"),
		StorageS3Region:   appValues.String("storage_s3_region"),
		StorageS3Bucket:   appValues.String("storage_s3_bucket"),
		StorageS3Prefix:   appValues.String("storage_s3_prefix"),
		StorageS3Endpoint: appValues.String("storage_s3_endpoint"),

		BatchLimit:       appValues.Int("batch_limit"),
		RestoreChunkSize: appValues.Int("restore_chunk_size"),

		BcryptCost:      appValues.Int("bcrypt_cost"),
		ConvertedStatus: appValues.String("converted_status"),
		StatsTimezone:   appValues.String("stats_timezone"),
		DefaultPageSize: appValues.Int("default_page_size"),

		AuditLogAdmin: appValues.String("audit_log_admin"),
		AuditLogLeads: appValues.String("audit_log_leads"),

		SuperAdminEmail: appValues.String("superadmin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// LeadHub checks the MongoDB URI before attempting to connect, the
// restore chunk size against the batch limit, and the archive storage
// settings.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var errs []error

	switch appCfg.StoreDriver {
	case "mongo":
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			errs = append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
		}
		if appCfg.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo_database is required"))
		}
	case "memory":
		if coreCfg != nil && coreCfg.Env == "prod" {
			logger.Warn("memory store selected in prod; data is lost on restart")
		}
	default:
		errs = append(errs, fmt.Errorf("store_driver must be 'mongo' or 'memory', got %q", appCfg.StoreDriver))
	}

	if appCfg.BatchLimit <= 0 {
		errs = append(errs, fmt.Errorf("batch_limit must be positive, got %d", appCfg.BatchLimit))
	}
	if appCfg.RestoreChunkSize <= 0 || appCfg.RestoreChunkSize > appCfg.BatchLimit {
		errs = append(errs, fmt.Errorf("restore_chunk_size must be between 1 and batch_limit (%d), got %d",
			appCfg.BatchLimit, appCfg.RestoreChunkSize))
	}
	if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if _, err := time.LoadLocation(appCfg.StatsTimezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid stats_timezone %q: %w", appCfg.StatsTimezone, err))
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			errs = append(errs, errors.New("storage_local_path is required when storage_type is 'local'"))
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			errs = append(errs, errors.New("storage_s3_bucket and storage_s3_region are required when storage_type is 's3'"))
		}
	case "":
		// archives disabled
	default:
		errs = append(errs, fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType))
	}

	for _, v := range []struct{ key, val string }{
		{"audit_log_admin", appCfg.AuditLogAdmin},
		{"audit_log_leads", appCfg.AuditLogLeads},
	} {
		switch v.val {
		case "", "all", "db", "log", "off":
		default:
			errs = append(errs, fmt.Errorf("%s must be 'all', 'db', 'log' or 'off', got %q", v.key, v.val))
		}
	}

	return errors.Join(errs...)
}
