package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mathduel-backend/internal/config"
	"mathduel-backend/internal/database"
	"mathduel-backend/internal/handlers"
	"mathduel-backend/internal/middleware"
	"mathduel-backend/internal/questions"
	"mathduel-backend/internal/repository"
	"mathduel-backend/internal/router"
	"mathduel-backend/internal/services"
	"mathduel-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Math Duel Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories & Services ────
	challengeRepo := repository.NewChallengeRepo(pool)
	generator := questions.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))
	challengeService := services.NewChallengeService(challengeRepo, generator, redisClient, cfg.QuestionsPerDuel)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	// ──── Initialize Handlers ────
	challengeHandler := handlers.NewChallengeHandler(challengeService)

	// ──── Step 5: Start Finalize Re-check Workers ────
	workerPool := worker.NewPool(redisClient, challengeService, cfg.FinalizeWorkers)
	workerPool.Start()
	log.Printf("✓ Finalize worker pool started (%d goroutines)", cfg.FinalizeWorkers)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(jwtAuth, challengeHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Math Duel Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
