// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evocrm/internal/api"
	"evocrm/internal/auth"
	"evocrm/internal/common/config"
	"evocrm/internal/common/crypto"
	"evocrm/internal/common/database"
	"evocrm/internal/common/logger"
	"evocrm/internal/dispatch"
	"evocrm/internal/gateway/evolution"
	"evocrm/internal/instance"
	"evocrm/internal/store"
	"evocrm/internal/templates"
)

const contactCacheTTL = time.Minute

func main() {
	log := logger.NewStructured("info", "json")

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	postgres, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.Error("failed to connect to postgres", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer postgres.Close()

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.Error("failed to connect to redis", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer redisClient.Close()

	encryptor, err := crypto.NewEncryptor(cfg.Security.EncryptionSecret)
	if err != nil {
		log.Error("failed to initialize field encryption", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	db := postgres.GetDB()
	users := store.NewUserStore(db, log)
	credentials := store.NewCredentialStore(db, encryptor, log)
	templateStore := store.NewTemplateStore(db, log)
	sessions := store.NewSessionStore(redisClient.GetClient(),
		time.Duration(cfg.Security.SessionTTL)*time.Second, log)
	contactCache := store.NewContactCache(redisClient.GetClient(), contactCacheTTL, log)

	gatewayClient := evolution.NewClient(
		cfg.Gateway.BaseURL,
		config.GetDuration(cfg.Gateway.SendTimeout),
		config.GetDuration(cfg.Gateway.QueryTimeout),
		log,
	)

	authService := auth.NewService(users, sessions, cfg.Security.BcryptCost, log)
	templateService, err := templates.NewService(templateStore, log)
	if err != nil {
		log.Error("failed to initialize template service", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	orchestrator := dispatch.NewOrchestrator(credentials, gatewayClient,
		cfg.Gateway.MessageDelay, cfg.Gateway.LinkPreview, log)
	instanceService := instance.NewService(credentials, gatewayClient, contactCache, log)

	server := api.NewServer(authService, credentials, templateService, orchestrator, instanceService, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		log.Info("server listening", map[string]interface{}{"port": cfg.Server.Port})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped unexpectedly", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("shutdown complete", nil)
}
