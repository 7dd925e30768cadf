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
	"github.com/edumint-ai/platform/pkg/identity"
	"github.com/edumint-ai/platform/pkg/moderation"
	"github.com/edumint-ai/platform/pkg/safety"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init("moderation-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	store := moderation.NewRepository(db)
	directory := identity.NewService(identity.NewRepository(db))

	producer := kafka.NewProducer(kafka.TopicModeration)
	defer producer.Close()

	patternCfg, err := safety.LoadPatternConfig(cfg.SafetyRulesPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load safety pattern rules")
	}
	redactor, err := safety.NewPatternScreen(patternCfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to compile safety pattern rules")
	}

	service := moderation.NewService(store, directory, producer, cfg.AppBaseURL, redactor)
	handler := moderation.NewHandler(service)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ModerationServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Moderation service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start moderation service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down moderation service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Moderation service forced to shutdown")
	}
	logger.Log.Info("Moderation service stopped")
}
