package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Govind-619/RentSphere/config"
	"github.com/Govind-619/RentSphere/controllers"
	"github.com/Govind-619/RentSphere/models"
	"github.com/Govind-619/RentSphere/notify"
	"github.com/Govind-619/RentSphere/payments"
	"github.com/Govind-619/RentSphere/routes"
	"github.com/Govind-619/RentSphere/services"
	"github.com/Govind-619/RentSphere/store"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	// Initialize logger
	if err := utils.InitLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.LogError("Database initialization failed: %v", err)
		log.Fatal("Database initialization failed:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database handle:", err)
	}
	defer sqlDB.Close()

	if cfg.SeedDemoData && !cfg.IsProduction() {
		if err := config.SeedDemoData(db, cfg.JWTSecret); err != nil {
			utils.LogError("Failed to seed demo data: %v", err)
		}
	}

	st := store.NewGormStore(db)
	hub := notify.NewHub()
	dispatcher, closeSinks := buildDispatcher(cfg, st, hub)
	defer closeSinks()

	registry := buildProviders(cfg)

	availability := services.NewAvailabilityChecker(st)
	bookingService := services.NewBookingService(st, availability, dispatcher)
	paymentService := services.NewPaymentService(st, registry, dispatcher, services.PaymentConfig{
		DefaultProvider: models.PaymentProvider(cfg.Payments.DefaultProvider),
		Currency:        cfg.Payments.Currency,
	})

	sweeper := services.NewPendingSweeper(st, bookingService, cfg.SweeperSchedule)
	if err := sweeper.Start(); err != nil {
		utils.LogError("Failed to start pending booking sweeper: %v", err)
		log.Fatal("Failed to start pending booking sweeper:", err)
	}
	defer sweeper.Stop()

	// Set up router
	router := routes.SetupRouter(routes.Dependencies{
		Users:     st,
		JWTSecret: cfg.JWTSecret,
		Bookings:  controllers.NewBookingController(bookingService),
		Listings:  controllers.NewListingController(availability, hub),
		Payments:  controllers.NewPaymentController(paymentService, registry),
		DB:        sqlDB,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.LogInfo("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError("Error starting server: %v", err)
			log.Fatal("Error starting server:", err)
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server shutdown failed: %v", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		utils.LogWarn("Pending notifications abandoned: %v", err)
	}
}

// buildProviders registers a real client for every provider with credentials and a
// placeholder for the rest, each bounded by the provider timeout and a circuit breaker.
func buildProviders(cfg *config.Config) payments.Registry {
	pc := cfg.Payments

	var stripe payments.Provider
	if pc.StripeSecretKey != "" {
		stripe = payments.NewStripe(pc.StripeSecretKey, pc.StripeWebhookSecret)
	} else {
		utils.LogWarn("STRIPE_SECRET_KEY not set, Stripe payments use placeholder references")
		stripe = payments.NewPlaceholder(models.ProviderStripe, pc.PlaceholderWebhookSecret)
	}

	var razorpay payments.Provider
	if pc.RazorpayKey != "" && pc.RazorpaySecret != "" {
		razorpay = payments.NewRazorpay(pc.RazorpayKey, pc.RazorpaySecret, pc.RazorpayWebhookSecret)
	} else {
		utils.LogWarn("RAZORPAY_KEY not set, Razorpay payments use placeholder references")
		razorpay = payments.NewPlaceholder(models.ProviderRazorpay, pc.PlaceholderWebhookSecret)
	}

	return payments.NewRegistry(
		payments.NewGuarded(stripe, pc.ProviderTimeout),
		payments.NewGuarded(razorpay, pc.ProviderTimeout),
	)
}

// buildDispatcher assembles the notification sinks that are configured
func buildDispatcher(cfg *config.Config, st store.Store, hub *notify.Hub) (*notify.Multi, func()) {
	nc := cfg.Notifications
	sinks := []notify.Sink{hub}
	closers := []func() error{}

	if nc.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(nc.WebhookURL, nil))
	}
	if nc.SMTPHost != "" {
		sinks = append(sinks, notify.NewEmailSink(notify.SMTPConfig{
			Host:     nc.SMTPHost,
			Port:     nc.SMTPPort,
			Username: nc.SMTPUsername,
			Password: nc.SMTPPassword,
			From:     nc.SMTPFrom,
		}, func(ctx context.Context, userID string) (string, error) {
			user, err := st.FindUser(ctx, userID)
			if err != nil {
				return "", err
			}
			return user.Email, nil
		}))
	}
	if nc.AMQPURL != "" {
		sink, err := notify.NewAMQPSink(nc.AMQPURL, nc.AMQPExchange)
		if err != nil {
			utils.LogError("RabbitMQ notifications disabled: %v", err)
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
		}
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	utils.LogInfo("Notification sinks: %v", names)

	return notify.NewMulti(nc.Timeout, sinks...), func() {
		for _, c := range closers {
			_ = c()
		}
	}
}
