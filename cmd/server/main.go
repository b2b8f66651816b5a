package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/fiberscope/internal/api"
	"github.com/RMahshie/fiberscope/internal/config"
	"github.com/RMahshie/fiberscope/internal/dashboard"
	"github.com/RMahshie/fiberscope/internal/fiber"
	"github.com/RMahshie/fiberscope/internal/metrics"
	"github.com/RMahshie/fiberscope/internal/render"
	"github.com/RMahshie/fiberscope/internal/repository"
	"github.com/RMahshie/fiberscope/internal/repository/memory"
	"github.com/RMahshie/fiberscope/internal/repository/postgres"
	"github.com/RMahshie/fiberscope/internal/storage"
	"github.com/RMahshie/fiberscope/pkg/models"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()

	store, err := newArrayStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open fiber data source")
	}

	loader := fiber.NewLoader(store, fiber.Options{
		Suffix:         cfg.Data.Suffix,
		TimeDownsample: cfg.Data.TimeDownsample,
		FreqDownsample: cfg.Data.FreqDownsample,
	})
	ids, err := loader.Resolve(ctx, cfg.Data.Discovery, cfg.Data.Groups, cfg.Data.FibersPerGroup)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to select fibers")
	}
	catalog := loader.LoadCatalog(ctx, ids)
	log.Info().Int("loaded", catalog.Len()).Int("excluded", len(catalog.Excluded())).Msg("Fiber catalog ready")

	var m *metrics.Manager
	if cfg.Metrics.Enabled {
		m = metrics.NewManager()
		m.SetFibers(catalog.Len(), len(catalog.Excluded()))
	}

	sessions, db := newSessionRepository(ctx, cfg)
	if db != nil {
		defer db.Close()
	}

	if _, err := render.LookupScale(cfg.Display.ColorScale); err != nil {
		log.Fatal().Err(err).Msg("Invalid COLOR_SCALE")
	}
	defaults := dashboard.DefaultSettings()
	defaults.ColorScale = cfg.Display.ColorScale
	defaults.PeakSigma = cfg.Display.PeakSigma
	defaults.ToleranceHz = cfg.Display.ToleranceHz

	svc := dashboard.NewService(catalog, sessions, m, defaults)

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(api.RequestLogger())
	router.Use(api.RequestMetrics(m))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create Huma API
	humaConfig := huma.DefaultConfig("Fiberscope API", version)
	humaConfig.DocsPath = "/api/docs"
	humaAPI := humachi.New(router, humaConfig)

	// Register health endpoint
	huma.Register(humaAPI, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = version
		resp.Body.Time = time.Now()
		resp.Body.FibersLoaded = catalog.Len()
		return resp, nil
	})

	api.RegisterRoutes(router, humaAPI, svc, m)

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting Fiberscope server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func newArrayStore(ctx context.Context, cfg *config.Config) (storage.ArrayStore, error) {
	if cfg.Data.Source == "s3" {
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Str("prefix", cfg.AWS.S3Prefix).Msg("Reading fiber data from S3")
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Prefix:    cfg.AWS.S3Prefix,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
	}
	log.Info().Str("dir", cfg.Data.Dir).Msg("Reading fiber data from local directory")
	return storage.NewLocalStore(cfg.Data.Dir)
}

// newSessionRepository uses postgres when DATABASE_URL is set and falls
// back to process memory otherwise
func newSessionRepository(ctx context.Context, cfg *config.Config) (repository.ViewSessionRepository, *sql.DB) {
	if cfg.Database.URL == "" {
		log.Info().Msg("DATABASE_URL not set, keeping sessions in memory")
		return memory.NewViewSessionRepository(), nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	repo := postgres.NewPostgresViewSessionRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}
	log.Info().Msg("Sessions stored in postgres")
	return repo, db
}
