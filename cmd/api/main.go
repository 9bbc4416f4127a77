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

	"github.com/loanhub/loanhub-api/internal/cache"
	"github.com/loanhub/loanhub-api/internal/config"
	"github.com/loanhub/loanhub-api/internal/database"
	"github.com/loanhub/loanhub-api/internal/handler"
	"github.com/loanhub/loanhub-api/internal/middleware"
	"github.com/loanhub/loanhub-api/internal/repository"
	"github.com/loanhub/loanhub-api/internal/service"
	"github.com/loanhub/loanhub-api/internal/utils"
	"github.com/loanhub/loanhub-api/pkg/openai"
)

// main is the application entrypoint for the LoanHub API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting loanhub api")

	utils.SetJWTSecret(cfg.JWTSecret)

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

	sessionStore := cache.NewSessionStore(redisClient, cfg.SessionTTL)

	// 4. Initialize the chat-completion client
	llm := openai.NewClient(openai.Config{
		BaseURL: cfg.OpenAI.BaseURL,
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
	})
	if !llm.Configured() {
		log.Warn().Msg("OPENAI_API_KEY not set - recommendations fall back to APR ranking, grounded Q&A is disabled")
	}

	// 5. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	chatMessageRepo := repository.NewChatMessageRepository(db)

	// 6. Initialize services
	authSvc := service.NewAuthService(userRepo, sessionStore, cfg.SessionTTL)
	productSvc := service.NewProductService(productRepo)
	recommendSvc := service.NewRecommendationService(productRepo, llm)
	chatSvc := service.NewChatService(productRepo, chatMessageRepo, llm)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:  handler.NewHealthHandler(db, redisClient),
		Auth:    handler.NewAuthHandler(authSvc),
		Product: handler.NewProductHandler(productSvc, recommendSvc),
		Chat:    handler.NewChatHandler(chatSvc),
	}

	// 8. Initialize middleware
	sessionMw := middleware.NewSessionMiddleware(sessionStore)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	setupRoutes(router, handlers, sessionMw)

	// 10. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 11. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 12. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Chat    *handler.ChatHandler
}

// setupRoutes registers all routes. Catalog and chat endpoints are public;
// the optional session middleware attaches the user identity when a token
// is presented so conversations can be logged per user.
func setupRoutes(router *gin.Engine, handlers *Handlers, sessionMw *middleware.SessionMiddleware) {
	router.GET("/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/auth/signup", handlers.Auth.Signup)
		api.POST("/auth/login", handlers.Auth.Login)
		api.POST("/auth/logout", sessionMw.Required(), handlers.Auth.Logout)

		products := api.Group("/products")
		{
			products.GET("", handlers.Product.GetProducts)
			products.GET("/filters", handlers.Product.GetFilters)
			products.POST("/recommend", handlers.Product.Recommend)
			products.POST("/ai/ask", sessionMw.Optional(), handlers.Chat.Ask)
			products.GET("/:id", handlers.Product.GetProduct)
			products.GET("/:id/chat", sessionMw.Required(), handlers.Chat.History)
		}
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
