package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-sync/config"
	"github.com/fekuna/omnipos-stock-sync/internal/auth"
	"github.com/fekuna/omnipos-stock-sync/internal/jobs"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/internal/webhook"
	"github.com/fekuna/omnipos-stock-sync/pkg/broker"
	"github.com/fekuna/omnipos-stock-sync/pkg/cache"
	"github.com/fekuna/omnipos-stock-sync/pkg/database/postgres"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/fekuna/omnipos-stock-sync/pkg/search"

	alertH "github.com/fekuna/omnipos-stock-sync/internal/alert/handler"
	alertPub "github.com/fekuna/omnipos-stock-sync/internal/alert/publisher"
	alertRepoPkg "github.com/fekuna/omnipos-stock-sync/internal/alert/repository"
	alertUCPkg "github.com/fekuna/omnipos-stock-sync/internal/alert/usecase"

	invH "github.com/fekuna/omnipos-stock-sync/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-stock-sync/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-stock-sync/internal/inventory/usecase"

	prodH "github.com/fekuna/omnipos-stock-sync/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-stock-sync/internal/product/repository"
	prodSearch "github.com/fekuna/omnipos-stock-sync/internal/product/search"
	prodUCPkg "github.com/fekuna/omnipos-stock-sync/internal/product/usecase"

	shopCache "github.com/fekuna/omnipos-stock-sync/internal/shop/cache"
	shopH "github.com/fekuna/omnipos-stock-sync/internal/shop/handler"
	shopRepoPkg "github.com/fekuna/omnipos-stock-sync/internal/shop/repository"
	shopUCPkg "github.com/fekuna/omnipos-stock-sync/internal/shop/usecase"

	whH "github.com/fekuna/omnipos-stock-sync/internal/webhook/handler"
	whListenerPkg "github.com/fekuna/omnipos-stock-sync/internal/webhook/listener"
	whRepoPkg "github.com/fekuna/omnipos-stock-sync/internal/webhook/repository"
	whUCPkg "github.com/fekuna/omnipos-stock-sync/internal/webhook/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
		FilePath:          cfg.Logger.FilePath,
		MaxSizeMB:         cfg.Logger.MaxSizeMB,
		MaxBackups:        cfg.Logger.MaxBackups,
		MaxAgeDays:        cfg.Logger.MaxAgeDays,
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	shopRepo := shopRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	alertRepo := alertRepoPkg.NewPGRepository(db)
	whRepo := whRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis. Without it settings are cached in process and
	// recalculations run unlocked.
	var settingsCache shop.SettingsCache
	var locker product.Locker
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis, using in-memory settings cache", zap.Error(err))
		settingsCache = shopCache.NewMemory(cfg.Redis.SettingsTTL, nil)
	} else {
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		settingsCache = shopCache.NewRedis(redisClient, cfg.Redis.SettingsTTL, appLogger)
		locker = redisClient
	}

	// 6. Initialize Elasticsearch
	var productIndex product.Index
	var webhookIndexer webhook.ProductIndexer
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch, search falls back to the database", zap.Error(err))
	} else {
		indexer := prodSearch.NewIndexer(esClient, cfg.Elastic.Index)
		if err := indexer.EnsureIndex(ctx); err != nil {
			appLogger.Warn("Could not create search index", zap.String("index", cfg.Elastic.Index), zap.Error(err))
		}
		productIndex = indexer
		webhookIndexer = indexer
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Initialize Kafka
	var alertPublisher webhook.AlertPublisher
	var kafkaConsumer *broker.KafkaConsumer
	var deadLetter *broker.KafkaProducer
	if cfg.Kafka.Enabled {
		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.WebhookTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()

		kafkaProducer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.AlertTopic,
		})
		defer kafkaProducer.Close()
		alertPublisher = alertPub.NewKafkaPublisher(kafkaProducer)

		if cfg.Kafka.DeadLetterTopic != "" {
			deadLetter = broker.NewProducer(&broker.Config{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.DeadLetterTopic,
			})
			defer deadLetter.Close()
		}

		appLogger.Info("Kafka enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("webhook_topic", cfg.Kafka.WebhookTopic),
			zap.String("alert_topic", cfg.Kafka.AlertTopic),
			zap.String("dead_letter_topic", cfg.Kafka.DeadLetterTopic),
		)
	}

	// 8. Initialize UseCases
	defaults := model.StockSettings{
		LowStockThresholdUnits:      cfg.Defaults.LowStockThresholdUnits,
		CriticalStockThresholdUnits: cfg.Defaults.CriticalStockThresholdUnits,
		CriticalStockoutDays:        cfg.Defaults.CriticalStockoutDays,
		SalesVelocityThreshold:      cfg.Defaults.SalesVelocityThreshold,
	}
	shopUC := shopUCPkg.NewShopUseCase(shopRepo, settingsCache, defaults, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, shopUC, locker, productIndex, cfg.Redis.LockTTL, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, shopUC, appLogger)
	alertUC := alertUCPkg.NewAlertUseCase(alertRepo, shopUC)
	whUC := whUCPkg.NewWebhookUseCase(whRepo, shopUC, alertPublisher, webhookIndexer, appLogger)

	// 9. Start Listener
	if kafkaConsumer != nil {
		whListener := whListenerPkg.NewWebhookListener(kafkaConsumer, whUC, appLogger)
		if deadLetter != nil {
			whListener.WithDeadLetter(deadLetter)
		}
		go whListener.Start(ctx)
	}

	// 10. Start Reconcile Job
	scheduler, err := jobs.NewScheduler(prodUC, cfg.Jobs.ReconcileSchedule, cfg.Jobs.Location, cfg.Jobs.ReconcileTimeout, appLogger)
	if err != nil {
		appLogger.Fatal("Could not schedule reconcile job", zap.Error(err))
	}
	scheduler.Start()

	// 11. Start HTTP Server
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	whH.NewWebhookHandler(whUC, whH.Options{
		Secret:           cfg.Shopify.APISecret,
		MaxBodyBytes:     cfg.Shopify.MaxWebhookBytes,
		SkipVerification: cfg.Shopify.SkipVerification,
	}, appLogger).Register(router)

	api := router.Group("/api/v1")
	shopRoutes := api.Group("/shops/:shop")
	shopH.NewShopHandler(shopUC, prodUC, appLogger).Register(api, shopRoutes)
	prodH.NewProductHandler(prodUC, appLogger).Register(shopRoutes)
	invH.NewInventoryHandler(invUC, appLogger).Register(shopRoutes)
	alertH.NewAlertHandler(alertUC, appLogger).Register(shopRoutes)

	httpServer := &http.Server{
		Addr:              withColon(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 12. Start gRPC Server
	port := withColon(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", port), zap.Error(err))
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.UnaryServerInterceptor()),
	)
	prodH.RegisterMetricsServiceServer(grpcServer, prodH.NewMetricsHandler(prodUC, appLogger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(prodH.MetricsServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", port))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	healthServer.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	scheduler.Stop(shutdownCtx)
	appLogger.Info("Server stopped")
}

func withColon(port string) string {
	if !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}
