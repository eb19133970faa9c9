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

	"studyden-backend/internal/config"
	"studyden-backend/internal/database"
	"studyden-backend/internal/handlers"
	"studyden-backend/internal/middleware"
	"studyden-backend/internal/repository"
	"studyden-backend/internal/router"
	"studyden-backend/internal/services"
	"studyden-backend/internal/session"
	"studyden-backend/internal/websocket"
	"studyden-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting StudyDen Backend...")

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

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	examRepo := repository.NewExamRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	suggestionService, err := services.NewSuggestionService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer suggestionService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Session Engine ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	eventPublisher := services.NewEventPublisher(redisClients.Queue)
	finalizeQueue := services.NewFinalizeQueue(redisClients.Queue)

	manager := session.NewManager(sessionRepo, finalizeQueue, eventPublisher)
	manager.TickInterval = time.Duration(cfg.TickIntervalSeconds) * time.Second

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(manager, sessionRepo)
	analyticsHandler := handlers.NewAnalyticsHandler(sessionRepo)
	courseHandler := handlers.NewCourseHandler(courseRepo)
	taskHandler := handlers.NewTaskHandler(taskRepo)
	examHandler := handlers.NewExamHandler(examRepo)
	noteHandler := handlers.NewNoteHandler(noteRepo)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionService, sessionRepo, courseRepo, taskRepo, examRepo)

	// ──── Step 6: Start Finalize Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, sessionRepo, 5)
	workerPool.Start()
	log.Println("✓ Finalize worker pool started (5 goroutines)")

	reaper := services.NewReaper(sessionRepo, cfg.ReaperGraceHours)
	reaper.Start()
	log.Println("✓ Stale session reaper started")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		sessionHandler,
		analyticsHandler,
		courseHandler,
		taskHandler,
		examHandler,
		noteHandler,
		suggestionHandler,
		wsHub,
		cfg.FrontendURL,
	)

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
		manager.Shutdown()
		workerPool.Stop()
		reaper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ StudyDen Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
