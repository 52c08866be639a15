// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	auditlogfeature "github.com/dalemusser/leadhub/internal/app/features/auditlog"
	backupfeature "github.com/dalemusser/leadhub/internal/app/features/backup"
	errorsfeature "github.com/dalemusser/leadhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/leadhub/internal/app/features/health"
	leadsfeature "github.com/dalemusser/leadhub/internal/app/features/leads"
	logoutfeature "github.com/dalemusser/leadhub/internal/app/features/logout"
	settingsfeature "github.com/dalemusser/leadhub/internal/app/features/settings"
	teamsfeature "github.com/dalemusser/leadhub/internal/app/features/teams"
	userinfofeature "github.com/dalemusser/leadhub/internal/app/features/userinfo"
	usersfeature "github.com/dalemusser/leadhub/internal/app/features/users"
	backupstore "github.com/dalemusser/leadhub/internal/app/store/backup"
	leadstore "github.com/dalemusser/leadhub/internal/app/store/leads"
	"github.com/dalemusser/leadhub/internal/app/store/queries/leadstats"
	settingsstore "github.com/dalemusser/leadhub/internal/app/store/settings"
	teamstore "github.com/dalemusser/leadhub/internal/app/store/teams"
	userstore "github.com/dalemusser/leadhub/internal/app/store/users"
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/auth"
	"github.com/dalemusser/leadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionMaxAge = 7 * 24 * time.Hour

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. LeadHub builds the repositories over
// the shared document store, applies session middleware, and mounts the
// JSON feature routers under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, sessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	loc, err := time.LoadLocation(appCfg.StatsTimezone)
	if err != nil {
		return nil, fmt.Errorf("stats timezone: %w", err)
	}

	ds := deps.Store
	users := userstore.New(ds, logger, userstore.WithBcryptCost(appCfg.BcryptCost))
	teams := teamstore.New(ds, logger)
	leads := leadstore.New(ds, logger, leadstore.WithDefaultPageSize(appCfg.DefaultPageSize))
	settings := settingsstore.New(ds, logger)
	stats := leadstats.New(ds, leads,
		leadstats.WithConvertedStatus(appCfg.ConvertedStatus),
		leadstats.WithLocation(loc))
	audit := auditlog.New(ds, logger, auditlog.Config{
		Admin: appCfg.AuditLogAdmin,
		Leads: appCfg.AuditLogLeads,
	})

	backupOpts := []backupstore.Option{backupstore.WithChunkSize(appCfg.RestoreChunkSize)}
	archiver, err := newArchiver(appCfg, logger)
	if err != nil {
		return nil, err
	}
	if archiver != nil {
		backupOpts = append(backupOpts, backupstore.WithArchiver(archiver))
	}
	backups, err := backupstore.New(ds, logger, backupOpts...)
	if err != nil {
		return nil, fmt.Errorf("backup service: %w", err)
	}

	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(errorsHandler.Recoverer)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check and metrics for load balancers and scrapers
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(ds, logger)))
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		// Loads the Actor into context if the session carries one.
		api.Use(sessionMgr.LoadActor)

		api.Mount("/userinfo", userinfofeature.Routes(userinfofeature.NewHandler()))
		api.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, logger)))

		api.Mount("/leads", leadsfeature.Routes(leadsfeature.NewHandler(leads, teams, stats, audit, logger)))
		api.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(users, teams, stats, audit, logger)))
		api.Mount("/teams", teamsfeature.Routes(teamsfeature.NewHandler(teams, stats, audit, logger)))
		api.Mount("/settings", settingsfeature.Routes(settingsfeature.NewHandler(settings, audit, logger)))
		api.Mount("/backup", backupfeature.Routes(backupfeature.NewHandler(backups, audit, logger)))
		api.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(audit, logger)))
	})

	return r, nil
}

// newArchiver returns the configured archive storage, or nil when
// storage_type is empty.
func newArchiver(appCfg AppConfig, logger *zap.Logger) (backupstore.Archiver, error) {
	switch appCfg.StorageType {
	case "local":
		store, err := storage.NewLocal(storage.LocalConfig{BasePath: appCfg.StorageLocalPath})
		if err != nil {
			return nil, fmt.Errorf("local archive storage: %w", err)
		}
		logger.Info("backup archives on local disk", zap.String("path", appCfg.StorageLocalPath))
		return backupstore.NewStorageArchiver(store), nil
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
		defer cancel()
		store, err := storage.NewS3(ctx, storage.S3Config{
			Region:       appCfg.StorageS3Region,
			Bucket:       appCfg.StorageS3Bucket,
			Prefix:       appCfg.StorageS3Prefix,
			Endpoint:     appCfg.StorageS3Endpoint,
			UsePathStyle: appCfg.StorageS3Endpoint != "",
		})
		if err != nil {
			return nil, fmt.Errorf("s3 archive storage: %w", err)
		}
		logger.Info("backup archives on S3",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix))
		return backupstore.NewStorageArchiver(store), nil
	default:
		return nil, nil
	}
}
