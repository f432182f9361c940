package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"billing-service/config"
	"billing-service/controllers"
	"billing-service/database"
	"billing-service/gateway"
	"billing-service/kafka"
	"billing-service/middleware"
	"billing-service/repository"
	"billing-service/routes"
	"billing-service/services"
	"billing-service/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// --- Database ---
	if err := database.Connect(cfg, logger); err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}

	// --- Payment gateway ---
	var gw gateway.Gateway
	switch cfg.GatewayProvider {
	case "stripe":
		gw = gateway.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookKey,
			cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL, cfg.GatewayTimeout)
	case "pagolink":
		gw = gateway.NewPagolinkGateway(cfg.PagolinkBaseURL, cfg.PagolinkAPIKey,
			cfg.PagolinkWebhookKey, cfg.GatewayTimeout)
	}
	logger.Info("payment gateway configured", zap.String("provider", cfg.GatewayProvider))

	// --- Event fan-out ---
	var events kafka.EventPublisher = kafka.NoopPublisher{}
	if cfg.KafkaBrokers != "" {
		producer := kafka.NewOrderEventProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.OrderEventTopic, logger)
		defer producer.Close()
		events = producer
	}

	// --- Dependency injection ---
	orderRepo := repository.NewGormOrderRepository(database.DB)
	paymentRepo := repository.NewGormPaymentRepository(database.DB)
	couponRepo := repository.NewGormCouponRepository(database.DB)
	auditRepo := repository.NewGormAuditRepository(database.DB)

	catalogClient := services.NewHTTPCatalogClient(cfg.CatalogBaseURL)
	couponService := services.NewCouponService(couponRepo, events, logger)
	orderService := services.NewOrderService(orderRepo, paymentRepo, auditRepo, catalogClient, couponService, gw, events, logger)
	webhookService := services.NewWebhookService(paymentRepo, orderService, couponService, gw, events, logger)

	orderController := controllers.NewOrderController(orderService)
	webhookController := controllers.NewWebhookController(webhookService)
	couponController := controllers.NewCouponController(couponService)

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	routes.RegisterRoutes(r, orderController, webhookController, couponController)

	// --- Expiry sweeper ---
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.SweepInterval > 0 {
		sweeper := workers.NewExpirySweeper(orderService, cfg.SweepInterval, logger)
		go sweeper.Run(sweepCtx)
	}

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Billing Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := database.Close(); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	logger.Info("Billing Service stopped gracefully")
}
