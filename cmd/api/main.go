package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"jobapply/internal/app"
	"jobapply/internal/config"
	"jobapply/internal/database"
	apphttp "jobapply/internal/http"
	"jobapply/internal/http/handlers"
	"jobapply/internal/http/metrics"
	httpmw "jobapply/internal/http/middleware"
	"jobapply/internal/http/response"
	"jobapply/internal/logging"
	"jobapply/internal/repository/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db := database.NewPostgres(database.PostgresConfig{
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdle:     cfg.DBConnMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	defer db.Close()

	var limiter httpmw.Limiter = httpmw.NewRateLimiter()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("redis url parse failed", slog.String("error", err.Error()))
		} else {
			client := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Error("redis ping failed, falling back to in-memory rate limiting", slog.String("error", err.Error()))
				_ = client.Close()
			} else {
				defer client.Close()
				limiter = httpmw.NewRedisLimiter(client)
			}
			cancel()
		}
	}

	applicationRepo := postgres.NewApplicationRepository(db)
	applicationService := app.NewApplicationService(applicationRepo)
	applicationHandler := handlers.NewApplicationHandler(applicationService, limiter, cfg.CreateRateLimitPerMin)

	collector := metrics.NewCollector()
	response.SetErrorCollector(collector)

	router := apphttp.NewRouter(apphttp.RouterDependencies{
		ApplicationHandler: applicationHandler,
		MetricsHandler:     metrics.NewHandler(collector),
		Metrics:            collector,
		RequestTimeout:     cfg.RequestTimeout,
		MaxBodyBytes:       cfg.MaxBodyBytes,
	})
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API started on :" + cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
