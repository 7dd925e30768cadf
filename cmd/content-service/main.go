package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edumint-ai/platform/pkg/common/config"
	"github.com/edumint-ai/platform/pkg/common/database"
	"github.com/edumint-ai/platform/pkg/common/kafka"
	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/generation"
	"github.com/edumint-ai/platform/pkg/ledger"
	"github.com/edumint-ai/platform/pkg/llm"
	"github.com/edumint-ai/platform/pkg/pricing"
	"github.com/edumint-ai/platform/pkg/safety"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init("content-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	artifacts := generation.NewRepository(db)
	if err := artifacts.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate artifact tables")
	}
	attempts := ledger.NewRepository(db)
	if err := attempts.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate ledger tables")
	}

	client := llm.NewClient(llm.Options{
		APIKey:    cfg.LLMAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		ModelName: cfg.LLMModelName,
		Timeout:   cfg.LLMTimeout,
	})

	patternCfg, err := safety.LoadPatternConfig(cfg.SafetyRulesPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load safety pattern rules")
	}
	prescreen, err := safety.NewPatternScreen(patternCfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to compile safety pattern rules")
	}
	checker := safety.NewOrchestrator(safety.DefaultClassifiers(client), prescreen).
		WithTimeout(cfg.ClassifierTimeout)

	prices := pricing.NewService(pricing.Options{
		Currency:     cfg.PricingCurrency,
		FetchURL:     cfg.ExchangeRateURL,
		CacheTTL:     cfg.ExchangeRateCacheTTL,
		FallbackRate: cfg.ExchangeRateFallback,
		Cache:        pricing.NewRedisRateCache(database.GetRedis()),
	})

	producer := kafka.NewProducer(kafka.TopicGeneration)
	defer producer.Close()

	service := generation.NewService(generation.ServiceOptions{
		Checker:   checker,
		Client:    client,
		Artifacts: artifacts,
		Attempts:  attempts,
		Pricing:   prices,
		Events:    producer,
	})
	handler := generation.NewHandler(service)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ContentServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Content service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start content service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down content service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Content service forced to shutdown")
	}
	logger.Log.Info("Content service stopped")
}
