package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cineloop/cineloop/common/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	log := logger.New(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "text"))
	log.Info("Fanout Service starting...")

	// Get configuration from environment
	redisHost := getEnv("REDIS_HOST", "localhost")
	redisPort := getEnv("REDIS_PORT", "6379")
	port := getEnv("PORT", "8084")

	// Initialize Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisHost, redisPort),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "host", redisHost, "port", redisPort)

	// Create Hub (connection manager)
	hub := NewHub(log)
	go hub.Run()

	// Create Redis subscriber
	subscriber := NewRedisSubscriber(redisClient, hub, log)
	go func() {
		if err := subscriber.Start(ctx); err != nil {
			log.Error("Redis subscriber error", "error", err)
			os.Exit(1)
		}
	}()

	// Create HTTP server with WebSocket handler
	server := NewServer(hub, redisClient, log)

	// Setup HTTP routes
	http.HandleFunc("/ws", server.HandleWebSocket)
	http.HandleFunc("/stats", server.HandleStats)
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Start HTTP server
	addr := fmt.Sprintf(":%s", port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: http.DefaultServeMux,
		// No timeouts - WebSocket connections are long-lived
		// Timeouts would kill active connections
		ReadTimeout:  0,
		WriteTimeout: 0,
		// Optional: Set IdleTimeout for non-WebSocket connections
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Fanout service listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down fanout service...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}

	log.Info("Fanout service stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
