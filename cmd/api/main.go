package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/unimart/unimart-server/internal/gateway"
	"github.com/unimart/unimart-server/internal/handlers"
	"github.com/unimart/unimart-server/internal/mailer"
	"github.com/unimart/unimart-server/internal/otp"
	"github.com/unimart/unimart-server/internal/repository"
	"github.com/unimart/unimart-server/internal/repository/memory"
	"github.com/unimart/unimart-server/internal/repository/postgres"
	redisrepo "github.com/unimart/unimart-server/internal/repository/redis"
	"github.com/unimart/unimart-server/internal/service"
	"github.com/unimart/unimart-server/pkg/config"
	"github.com/unimart/unimart-server/pkg/database"
	"github.com/unimart/unimart-server/pkg/events"
	"github.com/unimart/unimart-server/pkg/logger"
	mw "github.com/unimart/unimart-server/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Storage: postgres when configured, in-process stores otherwise.
	var (
		userRepo    repository.UserRepository
		listingRepo repository.ListingRepository
		paymentRepo repository.PaymentRepository
		otpRepo     repository.OtpRepository
	)
	if cfg.Database.URL != "" {
		pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MinConns, cfg.Database.MaxConns, cfg.Database.MaxLifetime)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		userRepo = postgres.NewUserRepository(pool)
		listingRepo = postgres.NewListingRepository(pool)
		paymentRepo = postgres.NewPaymentRepository(pool)
		otpRepo = postgres.NewOtpRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		userRepo = memory.NewUserRepository()
		listingRepo = memory.NewListingRepository()
		paymentRepo = memory.NewPaymentRepository()
		otpRepo = memory.NewOtpRepository()
	}

	// Event bus
	var eventBus events.Publisher = events.NoopBus{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		eventBus = bus
	}

	// Rate limiter
	var rateLimiter repository.RateLimiter
	if cfg.Redis.URL != "" {
		rl, err := redisrepo.NewRateLimiter(cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		rateLimiter = rl
	}

	// OTP delivery
	var mailService mailer.Service
	if cfg.Email.DevMode {
		mailService = mailer.NewDevMailer()
	} else {
		mailService = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Payment gateway
	var gatewayClient gateway.Client
	switch cfg.Gateway.Provider {
	case "stripe":
		gatewayClient = gateway.NewStripeClient(
			cfg.Gateway.StripeKey,
			cfg.Gateway.StripeCurrency,
			"http://localhost:"+cfg.Server.Port+"/payment/success",
			"http://localhost:"+cfg.Server.Port+"/payment/cancel",
		)
	default:
		gatewayClient = gateway.NewPaymobClient(
			cfg.Gateway.BaseURL,
			cfg.Gateway.APIKey,
			cfg.Gateway.IntegrationID,
			cfg.Gateway.IframeID,
			cfg.Gateway.StepTimeout,
		)
	}

	// Services
	otpIssuer := otp.NewIssuer(otpRepo, cfg.Auth.OTPTTL)
	authService := service.NewAuthService(userRepo, otpIssuer, mailService, eventBus, cfg)
	listingService := service.NewListingService(listingRepo)
	paymentService := service.NewPaymentService(paymentRepo, listingRepo, gatewayClient, eventBus, cfg)

	h := handlers.New(authService, listingService, paymentService, userRepo, rateLimiter, cfg)

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.Health)
	r.Mount("/", h.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting server", "port", cfg.Server.Port, "gateway", cfg.Gateway.Provider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
