package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/siddharth-k03/urgas/pkg/config"
	"github.com/siddharth-k03/urgas/pkg/database"
	"github.com/siddharth-k03/urgas/pkg/handlers"
	"github.com/siddharth-k03/urgas/pkg/logging"
	"github.com/siddharth-k03/urgas/pkg/metrics"
	"github.com/siddharth-k03/urgas/pkg/middleware"
	"github.com/siddharth-k03/urgas/pkg/repositories"
	"github.com/siddharth-k03/urgas/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", logging.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "local" || cfg.Env == "dev" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.Int("audit_page_size", cfg.Audit.PageSize),
		zap.Bool("metrics", cfg.MetricsEnabled),
	)

	retryCfg := cfg.Retry.Policy()
	dbURL := cfg.Database.URL()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:             dbURL,
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		ConnectRetry:    retryCfg,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// Connect first so startup rides out a database that is still booting.
	if err := migrate(dbURL, logger); err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.Nop{}
	var prom *metrics.PrometheusRecorder
	if cfg.MetricsEnabled {
		prom = metrics.NewPrometheusRecorder("urgas")
		recorder = prom
	}

	professorRepo := repositories.NewProfessorRepository()
	agencyRepo := repositories.NewFundingAgencyRepository()
	projectRepo := repositories.NewProjectRepository()
	grantRepo := repositories.NewGrantRepository()
	publicationRepo := repositories.NewPublicationRepository()
	linkRepo := repositories.NewLinkRepository()
	auditRepo := repositories.NewAuditRepository()

	auditService := services.NewAuditService(db, auditRepo, retryCfg, cfg.Audit.PageSize, logger)
	ledger := services.NewGrantLedger(db, grantRepo, agencyRepo, linkRepo, recorder, retryCfg, logger)
	lifecycle := services.NewProjectLifecycle(db, projectRepo, publicationRepo, linkRepo, auditService, recorder, retryCfg, logger)
	associations := services.NewAssociationService(db, professorRepo, projectRepo, grantRepo, linkRepo, recorder, logger)
	directory := services.NewDirectoryService(db, professorRepo, agencyRepo, publicationRepo, linkRepo, retryCfg, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewProfessorsHandler(directory, logger).RegisterRoutes(mux)
	handlers.NewFundingAgenciesHandler(directory, logger).RegisterRoutes(mux)
	handlers.NewPublicationsHandler(directory, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(lifecycle, associations, logger).RegisterRoutes(mux)
	handlers.NewGrantsHandler(ledger, logger).RegisterRoutes(mux)
	handlers.NewAuditLogHandler(auditService, logger).RegisterRoutes(mux)
	if prom != nil {
		mux.Handle("GET /metrics", prom.Handler())
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: middleware.RequestLogger(logger)(mux),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting urgas",
			zap.String("addr", server.Addr),
			zap.Bool("tls", cfg.TLSEnabled()),
			zap.String("version", cfg.Version))
		var err error
		if cfg.TLSEnabled() {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// migrate applies embedded migrations over a short-lived database/sql handle;
// golang-migrate does not accept a pgx pool.
func migrate(dbURL string, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
