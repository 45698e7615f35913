package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nyayasetu/legal-intake-platform/cmd/mainconfig"
	"github.com/nyayasetu/legal-intake-platform/internal/api/router"
	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	appconfig "github.com/nyayasetu/legal-intake-platform/internal/config"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/http/handlers"
	"github.com/nyayasetu/legal-intake-platform/internal/i18n"
	"github.com/nyayasetu/legal-intake-platform/internal/intake"
	"github.com/nyayasetu/legal-intake-platform/internal/messaging/whatsapp"
	"github.com/nyayasetu/legal-intake-platform/internal/notify"
	"github.com/nyayasetu/legal-intake-platform/internal/observability/metrics"
	"github.com/nyayasetu/legal-intake-platform/internal/payments"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting legal-intake-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	db := stdlib.OpenDBFromPool(pool)

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	intakeMetrics := metrics.NewIntakeMetrics(reg)

	// Domain repositories and services.
	userRepo := users.NewRepository(pool, cfg.CaseIDPrefix)
	bookingRepo := bookings.NewRepository(pool)
	processedStore := events.NewProcessedStore(pool)
	convStore := intake.NewStore(db)

	var links bookings.LinkCreator
	if cfg.AllowFakePayments {
		links = payments.NewFakeCheckoutService(cfg.PublicBaseURL, logger)
		logger.Warn("fake payment links enabled; do not run this in production")
	} else {
		links = payments.NewCheckoutService(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret, logger)
	}
	bookingSvc := bookings.NewService(bookingRepo, links, logger)

	// Outbound messaging and localization.
	catalog := i18n.NewCatalog()
	waClient := whatsapp.NewClient(cfg.WhatsAppBaseURL, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAccessToken, logger)

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	defer func() { _ = redisClient.Close() }()
	dedupe := whatsapp.NewRedisDeduper(redisClient, 48*time.Hour)

	// LLM chain: Bedrock answers first, Gemini picks up when it fails.
	var llm intake.LLMClient = intake.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	if cfg.GeminiAPIKey != "" {
		gemini, err := intake.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to init Gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		llm = intake.NewFallbackLLMClient(llm, gemini, logger)
	}

	// Advocate team notification on paid bookings.
	var emailSender notify.EmailSender
	switch {
	case cfg.SESFromEmail != "":
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case cfg.SendGridAPIKey != "":
		emailSender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
		}, logger)
	default:
		emailSender = notify.NewStubEmailSender(logger)
	}
	notifier := notify.NewService(emailSender, bookingSvc, cfg.NotifyRecipients, logger)

	executor := intake.NewExecutor(waClient, catalog, bookingSvc, llm, convStore, notifier, intakeMetrics, logger, intake.ExecutorConfig{
		MaxAttempts:  cfg.EffectMaxAttempts,
		RetryBackoff: cfg.EffectRetryBackoff,
		CallTimeout:  cfg.EffectCallTimeout,
		TypingDelay:  cfg.TypingDelay,
		LLMModel:     cfg.BedrockModelID,
	})
	intakeSvc := intake.NewService(userRepo, convStore, bookingSvc, executor, intakeMetrics, logger, cfg.DefaultLocale)

	// Queue transport: SQS in real deployments, in-process channel for dev.
	var publisher *intake.Publisher
	var worker *intake.Worker
	if cfg.UseMemoryQueue {
		queue := intake.NewMemoryQueue(256)
		publisher = intake.NewPublisher(queue)
		worker = intake.NewWorker(intakeSvc, queue, logger, cfg.WorkerCount)
		logger.Info("using in-memory intake queue")
	} else {
		queue := intake.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.IntakeQueueURL)
		publisher = intake.NewPublisher(queue)
		worker = intake.NewWorker(intakeSvc, queue, logger, cfg.WorkerCount)
	}
	worker.Start(ctx)

	// Inbound webhook surface.
	waWebhook := whatsapp.NewHandler(
		cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret,
		dedupe, publisher, waClient, catalog, cfg.DefaultLocale,
		intakeMetrics, logger,
	)
	paymentWebhook := payments.NewWebhookHandler(cfg.PaymentWebhookSecret, bookingSvc, userRepo, processedStore, publisher, logger)
	var fakePayments *payments.FakeHandler
	if cfg.AllowFakePayments {
		fakePayments = payments.NewFakeHandler(bookingSvc, userRepo, publisher, logger)
	}
	adminBookings := handlers.NewAdminBookingsHandler(db, intakeSvc, bookingSvc, userRepo, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		WhatsAppWebhook: waWebhook,
		PaymentWebhook:  paymentWebhook,
		FakePayments:    fakePayments,
		AdminBookings:   adminBookings,
		AdminJWTSecret:  cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Workers drain once the signal context is cancelled.
	worker.Wait()
	logger.Info("server stopped")
}
