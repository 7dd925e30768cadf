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
	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/gateway/auth"
	"github.com/edumint-ai/platform/pkg/gateway/httpclient"
	"github.com/edumint-ai/platform/pkg/gateway/middleware"
	"github.com/edumint-ai/platform/pkg/gateway/routes"
	"github.com/edumint-ai/platform/pkg/identity"
	"github.com/gorilla/mux"
)

func main() {
	logger.Init("api-gateway")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	identityRepo := identity.NewRepository(db)
	if err := identityRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate identity tables")
	}
	identityService := identity.NewService(identityRepo)

	tokenSigner, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("jwt signing not configured")
	}

	sso, err := auth.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.AppBaseURL+"/api/v1/auth/sso/callback")
	if err != nil {
		logger.Log.WithError(err).Warn("SSO not configured, password login only")
		sso = nil
	}

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS)
	router.Use(middleware.RateLimit(cfg.GatewayRateLimitRPS, cfg.GatewayRateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	routes.RegisterPrometheus(router)

	authRouter := router.PathPrefix("/api/v1/auth").Subrouter()
	routes.NewAuthHandler(identityService, tokenSigner, sso).Register(authRouter)

	client := httpclient.New(cfg.GatewayRequestTimeout)
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.Authenticate(tokenSigner))
	routes.RegisterContentRoutes(apiRouter, &routes.ContentProxy{Proxy: routes.Proxy{Client: client, Cfg: cfg}})
	routes.RegisterModerationRoutes(apiRouter, &routes.ModerationProxy{Proxy: routes.Proxy{Client: client, Cfg: cfg}})
	routes.NewMetricsHandler(db).Register(apiRouter)
	routes.NewAlertsHandler(db).Register(apiRouter)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("API Gateway started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down API Gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("API Gateway stopped")
}
