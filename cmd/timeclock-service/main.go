package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/timeclock/timeclock-backend/internal/correction"
	"github.com/timeclock/timeclock-backend/internal/events"
	"github.com/timeclock/timeclock-backend/internal/handler"
	"github.com/timeclock/timeclock-backend/internal/repository"
	"github.com/timeclock/timeclock-backend/internal/service"
	"github.com/timeclock/timeclock-backend/internal/session"
	"github.com/timeclock/timeclock-backend/pkg/clock"
	"github.com/timeclock/timeclock-backend/pkg/config"
	"github.com/timeclock/timeclock-backend/pkg/database"
	"github.com/timeclock/timeclock-backend/pkg/httputil"
	"github.com/timeclock/timeclock-backend/pkg/logger"
	"github.com/timeclock/timeclock-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("timeclock-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("timeclock-service", cfg.Server.Environment)
	log.Info().Msg("starting Timeclock Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewTimeclockEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	entryRepo := repository.NewTimeEntryRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)

	// Shared wall clock, swapped for a fixed clock in tests
	clk := clock.NewSystem()

	// Manager session and token manager
	managerSession := session.NewManager(cfg.Manager, clk, log)
	tokenManager := session.NewTokenManager(&cfg.Session)

	// Initialize services
	engine := correction.NewEngine(correction.Limits{
		MinReasonLength: cfg.Manager.MinReasonLength,
		MaxShiftHours:   cfg.Manager.MaxShiftHours,
	})
	timeclockService := service.NewTimeclockService(entryRepo, employeeRepo, publisher, clk, log)
	correctionService := service.NewCorrectionService(
		managerSession, engine, entryRepo, employeeRepo, publisher, clk, log, timeclockService.Locks(),
	)

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(managerSession, tokenManager, publisher, clk, log)
	timeclockHandler := handler.NewTimeclockHandler(timeclockService, correctionService, tokenManager, clk, log)

	// Start audit consumer
	auditConsumer, err := events.NewAuditEventConsumer(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create audit consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := auditConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start audit consumer")
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))

	// CORS for the kiosk and dashboard frontends
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "timeclock-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/timeclock", func(r chi.Router) {
		// Manager session
		r.Route("/manager-session", func(r chi.Router) {
			r.Post("/", sessionHandler.Open)
			r.Get("/", sessionHandler.Status)
			r.Post("/extend", sessionHandler.Extend)
			r.Delete("/", sessionHandler.Close)
		})

		// Kiosk and dashboard
		r.Get("/statuses", timeclockHandler.AllStatuses)
		r.Get("/entries", timeclockHandler.EntriesByDate)
		r.Get("/entries/{id}", timeclockHandler.Entry)
		r.Delete("/entries/{id}", timeclockHandler.DeleteEntry)

		r.Route("/employees/{id}", func(r chi.Router) {
			r.Post("/clock-in", timeclockHandler.ClockIn)
			r.Post("/clock-out", timeclockHandler.ClockOut)
			r.Get("/status", timeclockHandler.Status)
			r.Get("/entries", timeclockHandler.EmployeeEntries)
			r.Get("/corrections", timeclockHandler.Corrections)
			r.Post("/corrections", timeclockHandler.CorrectTime)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
