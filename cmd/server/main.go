package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/necesitomasreviews/backend/internal/config"
	"github.com/necesitomasreviews/backend/internal/handler"
	appMiddleware "github.com/necesitomasreviews/backend/internal/middleware"
	"github.com/necesitomasreviews/backend/internal/repository"
	"github.com/necesitomasreviews/backend/internal/service"
	"github.com/necesitomasreviews/backend/internal/ws"
	"github.com/necesitomasreviews/backend/pkg/mailer"
	"github.com/necesitomasreviews/backend/pkg/payment"
	"github.com/necesitomasreviews/backend/pkg/push"
)

func main() {
	// Load .env file if present (for local development)
	loadDotEnv()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database error: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("❌ Migration error: %v", err)
	}
	log.Println("✅ Database connected & migrated")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	cardRepo := repository.NewCardRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	// Auth
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.AdminEmail, cfg.AdminPassword, userRepo)
	if err := authSvc.SeedAdmin(ctx); err != nil {
		log.Fatalf("❌ Admin seed error: %v", err)
	}

	// Subscriptions / premium gate
	subSvc := service.NewSubscriptionService(subRepo, userRepo, payment.NewMockGateway())

	// Delivery channels
	hub := ws.NewHub()
	defer hub.Shutdown()

	var pushGw push.Gateway = push.NoopGateway{}
	if cfg.FCMServerKey != "" {
		pushGw = push.NewFCMGateway(cfg.FCMServerKey)
		log.Println("✅ FCM push gateway configured")
	}

	var mailSender mailer.Sender = mailer.LogSender{}
	if cfg.SMTPHost != "" {
		mailSender = mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
		log.Println("✅ SMTP transport configured")
	}

	retry := service.RetryPolicy{
		MaxAttempts: cfg.EmailRetryMaxAttempts,
		BaseDelay:   cfg.EmailRetryBaseDelay,
		Multiplier:  2,
	}
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, hub, pushGw, mailSender, retry)

	// Core domain services
	eventSvc := service.NewEventService(eventRepo, cardRepo, businessRepo, userRepo, subSvc, notificationSvc)
	statsSvc := service.NewStatsService(eventRepo, cardRepo)
	cardSvc := service.NewCardService(cardRepo, businessRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc, statsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	subHandler := handler.NewSubscriptionHandler(subSvc)
	cardHandler := handler.NewCardHandler(cardSvc)
	adminHandler := handler.NewAdminHandler(db, authSvc, eventRepo, subRepo)
	healthHandler := handler.NewHealthHandler(db)
	socketHandler := ws.NewNotificationSocket(hub, authSvc, notificationSvc)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Public routes
	r.Get("/health", healthHandler.Check)
	r.Post("/api/events/cards/{cardId}/scan", eventHandler.Scan)
	r.Post("/api/events/cards/{cardId}/review-started", eventHandler.ReviewStarted)
	r.Post("/api/events/cards/{cardId}/review-completed", eventHandler.ReviewCompleted)
	r.Post("/api/subscription/webhook", subHandler.Webhook) // Public webhook

	// Auth routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter())
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(authSvc))

		r.Get("/api/auth/me", authHandler.Me)

		// Cards & businesses
		r.Get("/api/cards", cardHandler.List)
		r.Post("/api/cards", cardHandler.Create)
		r.Put("/api/cards/{id}/status", cardHandler.UpdateStatus)
		r.Get("/api/cards/{id}", cardHandler.GetByID)
		r.Put("/api/cards/{id}", cardHandler.Update)
		r.Delete("/api/cards/{id}", cardHandler.Delete)
		r.Get("/api/businesses", cardHandler.ListBusinesses)
		r.Post("/api/businesses", cardHandler.CreateBusiness)
		r.Put("/api/businesses/{id}", cardHandler.UpdateBusiness)

		// Subscription
		r.Post("/api/subscription/checkout", subHandler.CreateCheckout)
		r.Get("/api/subscription", subHandler.Get)
		r.Post("/api/subscription/cancel", subHandler.Cancel)

		// Premium-gated analytics & notifications
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Premium(userRepo, subSvc))

			r.Get("/api/events/cards/{cardId}/stats", eventHandler.CardStats)
			r.Get("/api/events/user/stats", eventHandler.UserStats)

			r.Get("/api/notifications", notificationHandler.List)
			r.Put("/api/notifications/read", notificationHandler.MarkRead)
			r.Put("/api/notifications/read-all", notificationHandler.MarkAllRead)
			r.Post("/api/notifications/fcm-token", notificationHandler.AddFCMToken)
			r.Delete("/api/notifications/fcm-token", notificationHandler.RemoveFCMToken)
			r.Put("/api/notifications/preferences", notificationHandler.UpdatePreferences)
			r.Delete("/api/notifications/{id}", notificationHandler.Delete)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminOnly)
			r.Get("/api/admin/stats", adminHandler.GetStats)
			r.Get("/api/admin/users", adminHandler.ListUsers)
			r.Delete("/api/admin/users/{id}", adminHandler.DeleteUser)
			r.Post("/api/subscription/simulate", subHandler.Simulate) // Admin-only: dev payment simulation
		})
	})

	// WebSocket notifications (auth via first socket message)
	r.HandleFunc("/ws/notifications", socketHandler.Handle)

	// Start server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// WriteTimeout must be 0 for WebSocket connections (they are long-lived)
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("🛑 Shutting down...")
		hub.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("🚀 NecesitoMasReviews Backend listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("❌ Server error: %v", err)
	}
}

// loadDotEnv reads a .env file if it exists (simple KEY=VALUE parser).
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
