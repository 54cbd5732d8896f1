package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Simplici0/otimizavenda/internal/catalog"
	"github.com/Simplici0/otimizavenda/internal/config"
	"github.com/Simplici0/otimizavenda/internal/db"
	"github.com/Simplici0/otimizavenda/internal/history"
	"github.com/Simplici0/otimizavenda/internal/logging"
	"github.com/Simplici0/otimizavenda/internal/metrics"
	"github.com/Simplici0/otimizavenda/internal/migrations"
	"github.com/Simplici0/otimizavenda/internal/seed"
)

type server struct {
	db      *sql.DB
	history *history.Store
	catalog *catalog.Repository
	metrics *metrics.Metrics
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.IsDev())

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := prepareDatabase(database, cfg.AutoMigrate); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare database")
	}

	var backend history.Backend = history.NewSQLiteBackend(database)
	if cfg.StorageDriver == config.StorageMemory {
		backend = history.NewMemoryBackend()
	}

	srv := &server{
		db:      database,
		history: history.NewStore(backend),
		catalog: catalog.NewRepository(database),
		metrics: metrics.New(),
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.routes(cfg.CORSOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("storage", cfg.StorageDriver).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

// prepareDatabase migrates the schema and seeds the reference catalog. With
// autoMigrate off both steps are skipped and the schema is expected to exist.
func prepareDatabase(database *sql.DB, autoMigrate bool) error {
	if !autoMigrate {
		log.Info().Msg("auto migrate disabled; skipping migrations and catalog seed")
		return nil
	}
	if err := migrations.Up(database); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	stats, err := seed.Run(database)
	if err != nil {
		return fmt.Errorf("seed reference catalog: %w", err)
	}
	log.Info().Int("inserts", stats.Inserts).Msg("reference catalog seeded")
	return nil
}

func (s *server) routes(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recovery)
	r.Use(cors(corsOrigins))
	r.Use(s.metrics.Middleware)

	r.Handle("/metrics", s.metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/calculations", s.handleCalculate)
		r.Get("/calculations", s.handleCalculationHistory)
		r.Get("/niches", s.handleNiches)
		r.Get("/suppliers", s.handleSuppliers)
		r.Get("/trends", s.handleTrends)
	})

	return r
}
