package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/crediview/policyhub/internal/ai/quota"
	"github.com/crediview/policyhub/internal/ai/rules"
	"github.com/crediview/policyhub/internal/application"
	appanalysis "github.com/crediview/policyhub/internal/application/analysis"
	appauth "github.com/crediview/policyhub/internal/application/auth"
	apppolicies "github.com/crediview/policyhub/internal/application/policies"
	"github.com/crediview/policyhub/internal/config"
	aiclient "github.com/crediview/policyhub/internal/infra/ai/openai"
	mysqlp "github.com/crediview/policyhub/internal/infra/db/mysql"
	"github.com/crediview/policyhub/internal/infra/httpserver"
	minioStore "github.com/crediview/policyhub/internal/infra/storage"
	"github.com/crediview/policyhub/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()
	clock := application.SystemClock{}

	// connect MySQL
	db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql connect error: %v", err)
	}
	defer db.Close()

	// init repos
	policyRepo := mysqlp.NewPolicyRepository(db)
	usageRepo := mysqlp.NewUsageLogRepository(db)
	userRepo := mysqlp.NewUserRepository(db)
	searchRepo := mysqlp.NewSearchHistoryRepository(db)

	// init minio export store
	exports, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init AI pipeline
	meter := quota.NewMeter(cfg.OpenAI.DailyLimit, clock)
	provider := aiclient.NewClient(cfg.OpenAI.APIKey, meter, cfg.OpenAI.Model, cfg.OpenAI.QuickModel)
	analysisSvc := &appanalysis.Service{
		Provider: provider,
		Fallback: rules.New(),
		Usage:    usageRepo,
		Clock:    clock,
	}

	// init services
	policySvc := &apppolicies.Service{
		Repo:     policyRepo,
		Searches: searchRepo,
		Usage:    usageRepo,
		AI:       analysisSvc,
		Exports:  exports,
		Clock:    clock,
	}
	authSvc := &appauth.Service{
		Repo:   userRepo,
		Secret: []byte(cfg.Auth.JWTSecret),
		Clock:  clock,
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.JWTAuth([]byte(cfg.Auth.JWTSecret)))
	mux.Use(middleware.RateLimitMiddleware(rateLimitCapacity(cfg), rateLimitRefill(cfg)))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(policySvc, analysisSvc, authSvc, meter, usageRepo))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func rateLimitCapacity(cfg *config.Config) int {
	if cfg.RateLimit.Capacity > 0 {
		return cfg.RateLimit.Capacity
	}
	return 60
}

func rateLimitRefill(cfg *config.Config) int {
	if cfg.RateLimit.RefillRate > 0 {
		return cfg.RateLimit.RefillRate
	}
	return 1
}
