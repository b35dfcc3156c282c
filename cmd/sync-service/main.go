package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/solucions-socials/platform/pkg/common/config"
	"github.com/solucions-socials/platform/pkg/common/database"
	"github.com/solucions-socials/platform/pkg/common/kafka"
	"github.com/solucions-socials/platform/pkg/common/logger"
	"github.com/solucions-socials/platform/pkg/gateway/httpclient"
	"github.com/solucions-socials/platform/pkg/gateway/middleware"
	"github.com/solucions-socials/platform/pkg/holded"
	"github.com/solucions-socials/platform/pkg/invoices"
	"github.com/solucions-socials/platform/pkg/normalizer"
	"github.com/solucions-socials/platform/pkg/observability/metrics"
	"github.com/solucions-socials/platform/pkg/purchasesync"
)

func main() {
	_ = godotenv.Load()
	logger.Init()
	cfg := config.Load()

	tenants, err := config.LoadTenants(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load Holded tenants")
	}

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer database.ClosePostgres()

	repo := invoices.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate invoice tables")
	}

	classifier, err := normalizer.LoadClassifier(cfg.ClassifierRulesFile)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load classifier rules")
	}

	opts := holded.OptionsFromConfig(cfg)
	if cfg.ContactCacheTTL > 0 {
		opts.Cache = holded.NewRedisContactCache(database.GetRedis(), cfg.ContactCacheTTL)
	}
	registry := holded.NewRegistry(tenants, httpclient.New(cfg.HoldedTimeout), opts)

	var locker purchasesync.Locker = purchasesync.NewLocalLocker()
	if cfg.SyncLockBackend == "redis" {
		locker = purchasesync.NewRedisLocker(database.GetRedisLocker(), cfg.SyncLockTTL)
	}
	if cfg.SyncLockBackend == "redis" || cfg.ContactCacheTTL > 0 {
		defer database.CloseRedis()
	}

	var publisher purchasesync.Publisher
	if cfg.SyncEventsTopic != "" {
		producer := kafka.NewProducer(cfg.SyncEventsTopic)
		defer producer.Close()
		publisher = producer
	}

	orchestrator := purchasesync.NewOrchestrator(
		purchasesync.RegistrySources(registry),
		repo,
		normalizer.NewTransformer(classifier),
		locker,
		publisher,
	)
	handler := purchasesync.NewHTTPHandler(orchestrator, registry)

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.CORS)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingPostgres(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(
		middleware.RateLimit(cfg.GatewayRateLimitRPS, cfg.GatewayRateLimitBurst),
		middleware.BodyLimit(cfg.MaxRequestBody),
	)
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":      cfg.ServerHost,
			"port":      cfg.ServerPort,
			"companies": registry.Companies(),
		}).Info("Holded Sync Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	if cfg.SyncRequestsTopic != "" {
		consumer := kafka.NewConsumer(cfg.SyncRequestsTopic, cfg.KafkaGroupID)
		defer consumer.Close()
		go func() {
			if err := consumer.Consume(ctx, orchestrator.HandleEvent); err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).Error("sync request consumer stopped")
			}
		}()
	}

	if cfg.SyncInterval > 0 {
		go orchestrator.RunScheduler(ctx, cfg.SyncInterval, registry.Companies())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Holded Sync Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Holded Sync Service stopped")
}
