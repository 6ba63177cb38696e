// Package main is the entry point for the EdScope query server.
//
// EdScope answers plain-language questions about a student roster with
// scoped, filtered tabular views. The architecture follows Clean
// Architecture and DDD:
//   - Domain: intent parsing, scope resolution, filter compilation, execution
//   - Application: use-case orchestration (Commands/Queries/Event handlers)
//   - Infrastructure: roster sources, caches, audit trail, refinement provider
//   - Interface: HTTP endpoints and the CLI
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edscope/edscope/config"
	"github.com/edscope/edscope/internal/application/command"
	"github.com/edscope/edscope/internal/application/eventhandler"
	"github.com/edscope/edscope/internal/application/query"
	"github.com/edscope/edscope/internal/domain/admin"
	domainquery "github.com/edscope/edscope/internal/domain/query"
	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/infrastructure/external/llm"
	"github.com/edscope/edscope/internal/infrastructure/messaging"
	"github.com/edscope/edscope/internal/infrastructure/persistence/file"
	"github.com/edscope/edscope/internal/infrastructure/persistence/postgres"
	rediscache "github.com/edscope/edscope/internal/infrastructure/persistence/redis"
	"github.com/edscope/edscope/internal/infrastructure/scheduler"
	"github.com/edscope/edscope/internal/infrastructure/scheduler/jobs"
	"github.com/edscope/edscope/internal/infrastructure/service"
	httpserver "github.com/edscope/edscope/internal/interface/http"
	"github.com/edscope/edscope/internal/interface/http/handlers"
	"github.com/edscope/edscope/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting EdScope server",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"roster_source", cfg.Roster.Source,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var dbConn *postgres.Connection
	if cfg.Database.Enabled {
		log.Info("connecting to database...")
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database ready")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var cache *rediscache.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := rediscache.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err = rediscache.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. AUDIT TRAIL
	// ─────────────────────────────────────────────────────────────────────────
	var auditSink eventhandler.AuditSink
	if dbConn != nil && cfg.Features.IsEnabled(config.FeatureAuditTrail, nil) {
		auditSink = service.NewResilientAuditSink(postgres.NewAuditRepository(dbConn), log)
		log.Info("audit trail enabled")
	} else {
		log.Info("audit trail writes to logs only")
	}

	auditLogger := eventhandler.NewAuditLogger(auditSink, log)
	if err := auditLogger.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register audit logger: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ADMIN REGISTRY AND SCOPE RESOLUTION
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("loading admin registry...", "path", cfg.Roster.RegistryPath)
	registry, err := file.LoadAdminRegistry(cfg.Roster.RegistryPath, log)
	if err != nil {
		return fmt.Errorf("failed to load admin registry: %w", err)
	}
	resolver := admin.NewResolver(registry)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ROSTER SOURCE AND TABLE SERVICE
	// ─────────────────────────────────────────────────────────────────────────
	var source roster.Source
	switch cfg.Roster.Source {
	case "postgres":
		source = postgres.NewRosterRepository(dbConn)
	default:
		source = file.NewLoader(cfg.Roster.Path, file.Format(cfg.Roster.Format), log)
	}

	tables := service.NewTableService(source, eventBus, log)

	log.Info("loading roster...", "source", source.Name())
	if _, err := tables.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. REFINEMENT HOOK (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var refiner domainquery.Refiner
	refinementOn := cfg.Refinement.Enabled && cfg.Features.IsEnabled(config.FeatureQueryRefinement, nil)
	if refinementOn && cfg.Refinement.APIKey == "" {
		// No provider key means no hook; questions still get answered
		// from the rule-based parse.
		log.Warn("refinement enabled but no API key set, hook disabled")
		refinementOn = false
	}
	var llmClient *llm.Client
	if refinementOn {
		clientCfg := llm.DefaultClientConfig(cfg.Refinement.BaseURL, cfg.Refinement.APIKey)
		clientCfg.Model = cfg.Refinement.Model
		clientCfg.Timeout = cfg.Refinement.Timeout
		clientCfg.Logger = log
		clientCfg.Debug = cfg.App.Debug

		llmClient = llm.NewClient(clientCfg)
		refiner = llm.NewRefiner(llmClient, cfg.Refinement.Timeout, log)

		if cache != nil && cfg.Features.IsEnabled(config.FeatureQueryRefinementCache, nil) {
			intentCache := rediscache.NewIntentCache(cache, cfg.Refinement.CacheTTL)
			refiner = service.NewCachingRefiner(refiner, intentCache, log)
			log.Info("refinement enabled with cache", "model", cfg.Refinement.Model)
		} else {
			log.Info("refinement enabled", "model", cfg.Refinement.Model)
		}
	} else {
		log.Info("refinement disabled, questions are answered from the rule-based parse")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	askHandler := query.NewAskQuestionHandler(resolver, tables, refiner, eventBus, log)
	explainHandler := query.NewExplainQuestionHandler(resolver, refiner, log)
	scopeHandler := query.NewGetAdminScopeHandler(resolver, tables)
	reloadHandler := command.NewReloadRosterHandler(tables, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var jobScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled && cfg.Features.IsEnabled(config.FeatureRosterAutoReload, nil) {
		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = log
		schedCfg.Timezone = cfg.App.Location
		jobScheduler = scheduler.NewScheduler(schedCfg)

		reloadJob := jobs.NewReloadRosterJob(tables, log, jobs.ReloadRosterConfig{
			Timeout: cfg.Scheduler.JobTimeout,
		})
		schedule := scheduler.NewIntervalSchedule(cfg.Scheduler.RosterReloadInterval)
		if err := jobScheduler.Register(reloadJob, schedule); err != nil {
			return fmt.Errorf("failed to register reload job: %w", err)
		}

		if err := jobScheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = jobScheduler.Stop()
		}()
		log.Info("scheduler started", "roster_reload_interval", cfg.Scheduler.RosterReloadInterval.String())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("roster", handlers.NewFuncCheck(func() error {
		_, err := tables.Current()
		return err
	}))
	if dbConn != nil {
		healthChecker.AddCheck("database", handlers.NewPingCheck(dbConn))
	}
	if cache != nil {
		healthChecker.AddCheck("cache", handlers.NewPingCheck(cache))
	}
	if llmClient != nil {
		healthChecker.AddCheck("refiner", handlers.NewFuncCheck(func() error {
			if llmClient.Status().CircuitBreaker.State == llm.CircuitOpen {
				return errors.New("refinement circuit open, falling back to rule-based intents")
			}
			return nil
		}))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.APIKeys = cfg.HTTP.APIKeys
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.EnableExplain = cfg.Features.IsEnabled(config.FeatureQueryExplain, nil)

	httpDeps := httpserver.Dependencies{
		AskQuestionHandler:     askHandler,
		ExplainQuestionHandler: explainHandler,
		GetAdminScopeHandler:   scopeHandler,
		ReloadRosterHandler:    reloadHandler,
		Registry:               registry,
		Logger:                 log,
		HealthChecker:          healthChecker,
	}

	errCh := make(chan error, 1)

	var server *httpserver.Server
	if cfg.HTTP.Enabled {
		server = httpserver.NewServer(httpConfig, httpDeps)
		go func() {
			if err := server.Start(); err != nil {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	} else {
		// Worker mode: scheduled reloads only, no API surface.
		log.Info("HTTP server disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 14. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if server != nil {
		log.Info("EdScope is running", "http_address", server.Address())
	} else {
		log.Info("EdScope is running")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop HTTP server gracefully", "error", err)
			return err
		}
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger configures structured logging from the observability
// section. Production gets JSON for log aggregators, development gets
// readable text.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}
	if cfg.Observability.LogFormat == "text" || (cfg.IsDevelopment() && cfg.Observability.LogFormat == "") {
		opts.Format = logger.FormatText
	}

	log := logger.New(opts)
	slog.SetDefault(log)
	return log
}
