package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_tariff/internal/cache"
	"github.com/GTDGit/gtd_tariff/internal/config"
	"github.com/GTDGit/gtd_tariff/internal/database"
	"github.com/GTDGit/gtd_tariff/internal/handler"
	"github.com/GTDGit/gtd_tariff/internal/middleware"
	"github.com/GTDGit/gtd_tariff/internal/repository"
	"github.com/GTDGit/gtd_tariff/internal/service"
	"github.com/GTDGit/gtd_tariff/internal/worker"
	"github.com/GTDGit/gtd_tariff/pkg/exchangerate"
)

// main is the application entrypoint for the tariff calculation API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting tariff api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	sessionOverrides := cache.NewSessionOverrideCache(redisClient, cfg.Session.OverrideTTL)

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	rateRepo := repository.NewTariffRateRepository(db)
	adminOverrideRepo := repository.NewAdminOverrideRepository(db)

	// 5. Initialize services
	rateSource := exchangerate.NewClient(cfg.Currency.APIURL, cfg.Currency.Timeout)
	currencySvc := service.NewCurrencyService(rateSource, cfg.Currency.CacheTTL, cfg.Currency.Timeout)
	fta := service.NewFTAClassifier(cfg.Tariff.FTACountries)
	tariffSvc := service.NewTariffService(productRepo, rateRepo, fta, currencySvc)
	comparisonSvc := service.NewComparisonService(productRepo, rateRepo, fta, currencySvc,
		service.NewSyntheticHistory(nil), cfg.Tariff.CompareConcurrency)
	adminOverrides := service.NewAdminOverrideRegistry(adminOverrideRepo)
	catalogSvc := service.NewCatalogService(rateRepo, productRepo)

	// 5a. Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.NewCurrencyWorker(currencySvc, cfg.Currency.CacheTTL/2).Start(ctx)

	// 6. Initialize handlers
	handlers := &Handlers{
		Health:         handler.NewHealthHandler(db, redisClient, currencySvc),
		Tariff:         handler.NewTariffHandler(tariffSvc, sessionOverrides),
		Comparison:     handler.NewComparisonHandler(comparisonSvc),
		Simulated:      handler.NewSessionOverrideHandler(sessionOverrides),
		AdminOverrides: handler.NewAdminOverrideHandler(adminOverrides),
		Catalog:        handler.NewCatalogHandler(catalogSvc),
		Currency:       handler.NewCurrencyHandler(currencySvc),
	}

	// 7. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedHosts))
	router.Use(middleware.SessionMiddleware())
	router.Use(middleware.LoggingMiddleware())

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	stopLimiter := make(chan struct{})
	go limiter.Run(stopLimiter)

	setupRoutes(router, handlers, limiter)

	// 8. Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 9. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 10. Stop workers
	cancel()
	close(stopLimiter)

	// 11. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health         *handler.HealthHandler
	Tariff         *handler.TariffHandler
	Comparison     *handler.ComparisonHandler
	Simulated      *handler.OverrideHandler
	AdminOverrides *handler.OverrideHandler
	Catalog        *handler.CatalogHandler
	Currency       *handler.CurrencyHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, limiter *middleware.IPRateLimiter) {
	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(limiter))

	tariffs := v1.Group("/tariffs")
	{
		tariffs.POST("/calculate", handlers.Tariff.Calculate)
		tariffs.POST("/compare", handlers.Comparison.Compare)
		tariffs.GET("/history", handlers.Comparison.History)
		tariffs.POST("/trends", handlers.Comparison.Trends)

		// Session-scoped simulated tariffs
		tariffs.GET("/simulated", handlers.Simulated.List)
		tariffs.POST("/simulated", handlers.Simulated.Create)
		tariffs.DELETE("/simulated", handlers.Simulated.Clear)
		tariffs.GET("/simulated/:id", handlers.Simulated.Get)
		tariffs.PUT("/simulated/:id", handlers.Simulated.Update)
		tariffs.DELETE("/simulated/:id", handlers.Simulated.Delete)
	}

	admin := v1.Group("/admin")
	{
		admin.GET("/tariffs", handlers.AdminOverrides.List)
		admin.POST("/tariffs", handlers.AdminOverrides.Create)
		admin.GET("/tariffs/:id", handlers.AdminOverrides.Get)
		admin.PUT("/tariffs/:id", handlers.AdminOverrides.Update)
		admin.DELETE("/tariffs/:id", handlers.AdminOverrides.Delete)

		// Reference data
		admin.GET("/rates", handlers.Catalog.ListRates)
		admin.PUT("/rates", handlers.Catalog.SaveRate)
		admin.DELETE("/rates/:importing/:exporting", handlers.Catalog.DeleteRate)
		admin.POST("/products", handlers.Catalog.CreateProduct)
		admin.GET("/products/:id", handlers.Catalog.GetProduct)
	}

	currencies := v1.Group("/currencies")
	{
		currencies.GET("", handlers.Currency.GetSupported)
		currencies.GET("/convert", handlers.Currency.Convert)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
