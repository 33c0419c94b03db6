package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"

	"interrogame-backend/internal/config"
	"interrogame-backend/internal/database"
	"interrogame-backend/internal/handlers"
	"interrogame-backend/internal/metrics"
	"interrogame-backend/internal/middleware"
	"interrogame-backend/internal/router"
	"interrogame-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	setupLogging(cfg)
	log.Info("Starting InterroGame API...")
	log.Info("✓ Environment variables loaded")

	metrics.Register()

	// ──── Step 2: Inference Backend ────
	ollama := services.NewOllamaService(cfg.OllamaHost, cfg.OllamaConcurrentReqs, cfg.OllamaTimeout)
	relay := services.NewChatRelay(ollama, cfg.DefaultModel)
	log.WithFields(log.Fields{
		"host":          cfg.OllamaHost,
		"default_model": cfg.DefaultModel,
		"concurrency":   cfg.OllamaConcurrentReqs,
	}).Info("✓ Ollama client initialized")

	// ──── Step 3: Rate Limiting ────
	var chatLimiter func(http.Handler) http.Handler
	var memoryLimiter *middleware.RateLimiter
	switch {
	case cfg.RateLimitPerMinute <= 0:
		log.Info("✓ Rate limiting disabled")
	case cfg.RedisURL != "":
		redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("✗ Redis connection failed")
		}
		defer redisClient.Close()
		chatLimiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute).Middleware
		log.WithField("per_minute", cfg.RateLimitPerMinute).Info("✓ Redis rate limiter ready")
	default:
		memoryLimiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		chatLimiter = memoryLimiter.Middleware
		log.WithField("per_minute", cfg.RateLimitPerMinute).Info("✓ In-memory rate limiter ready")
	}

	// ──── Step 4: Start HTTP Server ────
	chatHandler := handlers.NewChatHandler(relay, ollama)
	r := router.New(chatHandler, chatLimiter, middleware.CORSOptions{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")
		if memoryLimiter != nil {
			memoryLimiter.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Infof("✓ InterroGame API ready on http://localhost:%s", cfg.Port)
	log.Infof("  API: http://localhost:%s/v1/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Fatal("Server error")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Env == "production" {
		log.SetHandler(json.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
