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
	"github.com/redis/go-redis/v9"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/calendar"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/handlers"
	httpmw "github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/middleware"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/invoice"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/jobs"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/notify"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/payments"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/repository"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/service"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/weather"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/config"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/database"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/events"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
	mw "github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/middleware"
)

const retention = 365 * 24 * time.Hour

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		logger.Error("Failed to ensure schema", "error", err)
		os.Exit(1)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// Payment providers
	bank := payments.NewBankTransferProvider(cfg.Bank.Beneficiary, cfg.Bank.IBAN, cfg.Bank.BIC)
	providers := map[domain.PaymentMethod]payments.Provider{
		domain.MethodBankTransfer: bank,
	}
	var stripeProvider *payments.StripeProvider
	if cfg.Stripe.SecretKey != "" {
		stripeProvider = payments.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Platform.Currency)
		providers[domain.MethodCard] = stripeProvider
	}
	var walletProvider *payments.WalletProvider
	if cfg.Wallet.APIBase != "" {
		walletProvider = payments.NewWalletProvider(cfg.Wallet.APIBase, cfg.Wallet.Secret, cfg.Wallet.WebhookSecret)
		providers[domain.MethodWallet] = walletProvider
	}

	// Artifact services
	calendarSvc, err := calendar.NewFileService(cfg.Calendar.Dir, cfg.Calendar.Host)
	if err != nil {
		logger.Error("Failed to init calendar service", "error", err)
		os.Exit(1)
	}
	invoiceSvc, err := invoice.NewPDFService(cfg.Invoice.Dir)
	if err != nil {
		logger.Error("Failed to init invoice service", "error", err)
		os.Exit(1)
	}

	// Services
	authSvc := service.NewAuthService(userRepo, bookingRepo, auditRepo, cfg)
	bookingSvc := service.NewBookingService(bookingRepo, roomRepo, userRepo, auditRepo,
		providers, bank, calendarSvc, invoiceSvc, eventBus, cfg)
	reviewSvc := service.NewReviewService(reviewRepo, roomRepo, redisClient)
	analyticsSvc := service.NewAnalyticsService(bookingRepo)
	weatherSvc := weather.NewOpenMeteo(cfg.Weather.BaseURL, cfg.Weather.Timeout)

	bookingSvc.PurgeOld(ctx, retention)

	// Notification dispatch
	dispatcher := notify.NewDispatcher(eventBus, buildMailer(cfg),
		notify.NewTwilioSender(cfg.SMS.TwilioSID, cfg.SMS.TwilioToken, cfg.SMS.From),
		cfg.Email.AdminAddress)
	if err := dispatcher.Subscribe(); err != nil {
		logger.Error("Failed to subscribe notification dispatcher", "error", err)
		os.Exit(1)
	}

	// Scheduled jobs
	sweeper := jobs.NewSweeper(bookingRepo, roomRepo, userRepo, auditRepo, calendarSvc,
		eventBus, redisClient, cfg.Platform.AutoCancelAge)
	if err := sweeper.Start(); err != nil {
		logger.Error("Failed to start scheduled jobs", "error", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	// Handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	roomHandler := handlers.NewRoomHandler(roomRepo)
	bookingHandler := handlers.NewBookingHandler(bookingSvc)
	webhookHandler := handlers.NewWebhookHandler(bookingSvc, stripeProvider, walletProvider)
	reviewHandler := handlers.NewReviewHandler(reviewSvc)
	adminHandler := handlers.NewAdminHandler(bookingSvc, analyticsSvc, auditRepo)
	miscHandler := handlers.NewMiscHandler(eventBus, weatherSvc)

	anonLimiter := httpmw.NewRateLimiter(pool, httpmw.RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
	})

	requireAuth := httpmw.RequireJWT(cfg.Auth.JWTSecret)
	requireStaff := httpmw.RequireRole(domain.RoleAdmin, domain.RoleManager)
	requireAdmin := httpmw.RequireRole(domain.RoleAdmin)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Platform.BaseURL, "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(anonLimiter.Middleware())
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/contact", miscHandler.Contact)
	})

	r.Get("/rooms", roomHandler.List)
	r.Get("/features/{roomId}", roomHandler.ListFeatures)
	r.Get("/public/bookings", bookingHandler.ListPublic)
	r.Get("/reviews/{roomId}", reviewHandler.ListByRoom)
	r.Get("/weather", miscHandler.Forecast)
	r.Post("/webhook", webhookHandler.Receive)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/bookings/request", bookingHandler.Request)
		r.Get("/bookings", bookingHandler.ListMine)
		r.Get("/invoices/{id}", bookingHandler.DownloadInvoice)
		r.Get("/mydata", authHandler.MyData)
		r.Delete("/mydata", authHandler.EraseMyData)
		r.Post("/reviews", reviewHandler.Create)
		r.Get("/recommendations", reviewHandler.Recommend)

		r.Group(func(r chi.Router) {
			r.Use(requireStaff)
			r.Put("/bookings/{id}/approve", bookingHandler.Approve)
			r.Put("/bookings/{id}/reject", bookingHandler.Reject)
			r.Post("/bookings/{id}/refund", bookingHandler.Refund)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/rooms", roomHandler.Create)
			r.Post("/features", roomHandler.CreateFeature)
			r.Get("/admin/dashboard", adminHandler.Dashboard)
			r.Get("/logs", adminHandler.Logs)
			r.Get("/users", authHandler.ListUsers)
			r.Put("/users/{id}/role", authHandler.UpdateRole)
			r.Get("/analytics", adminHandler.AnalyticsReport)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting booking platform", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// buildMailer picks the outbound channel: dev logging, MailerSend when
// an API key is present, plain SMTP otherwise.
func buildMailer(cfg *config.Config) notify.Mailer {
	if cfg.Email.DevMode {
		return notify.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return notify.NewMailerSendMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.From)
	}
	return notify.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.From, cfg.Email.SMTPUser, cfg.Email.SMTPPass)
}
