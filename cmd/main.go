package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/ortakpos/ortakpos/handler"
	"github.com/ortakpos/ortakpos/infra/config"
	"github.com/ortakpos/ortakpos/infra/logger"
	"github.com/ortakpos/ortakpos/provider"
	"github.com/ortakpos/ortakpos/router"
	"go.uber.org/zap"
)

const defaultTenant = "default"

func main() {
	// .env is optional; the environment may already be populated
	_ = godotenv.Load(".env")

	cfg := config.App()

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	storage, err := config.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		log.Warn("credential persistence unavailable, using memory only", zap.Error(err))
		storage = nil
	}
	providerConfig, err := config.NewProviderConfig(storage)
	if err != nil {
		log.Fatal("failed to build provider config store", zap.Error(err))
	}

	service := provider.NewService(provider.DefaultRegistry)
	loadEnvCredentials(providerConfig, cfg.Environment)
	enableConfiguredProviders(service, providerConfig, log)

	payments := handler.NewPaymentHandler(service, cfg.Validator, log)
	health := handler.NewHealthHandler(provider.DefaultRegistry)

	r := chi.NewRouter()
	router.Routes(r, payments, health, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	if storage != nil {
		_ = storage.Close()
	}
}

// loadEnvCredentials seeds the default tenant from environment variables of
// the form PROVIDER_FIELDNAME (IYZICO_API_KEY, PARAMPOS_CLIENT_CODE, ...).
func loadEnvCredentials(providerConfig *config.ProviderConfig, environment string) {
	for _, name := range provider.DefaultRegistry.ProviderNames() {
		p, err := provider.CreateProvider(name)
		if err != nil {
			continue
		}

		creds := map[string]string{"environment": environment}
		complete := true
		for _, field := range p.GetRequiredConfig(environment) {
			if field.Key == "environment" {
				continue
			}
			value := config.GetEnv(envKey(name, field.Key), "")
			if value == "" {
				if field.Required {
					complete = false
				}
				continue
			}
			creds[field.Key] = value
		}
		if complete {
			_ = providerConfig.SetConfig(defaultTenant, name, creds)
		}
	}
}

func enableConfiguredProviders(service *provider.Service, providerConfig *config.ProviderConfig, log *zap.Logger) {
	for _, name := range providerConfig.Providers(defaultTenant) {
		creds, err := providerConfig.GetConfig(defaultTenant, name)
		if err != nil {
			continue
		}
		if err := service.EnableProvider(defaultTenant, name, creds); err != nil {
			log.Warn("failed to enable provider", zap.String("provider", name), zap.Error(err))
			continue
		}
		log.Info("provider enabled", zap.String("provider", name))
	}
}

// envKey converts a camelCase config field into the PROVIDER_FIELD_NAME
// environment variable convention.
func envKey(providerName, fieldKey string) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(providerName))
	b.WriteByte('_')
	for i, r := range fieldKey {
		if r >= 'A' && r <= 'Z' && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
