// Package main is the entry point for the stockbook API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockbook/internal/core/security"
	"stockbook/internal/domain/auth"
	"stockbook/internal/domain/catalogs"
	"stockbook/internal/domain/purchases"
	"stockbook/internal/domain/refunds"
	"stockbook/internal/domain/reports"
	"stockbook/internal/domain/sales"
	"stockbook/internal/domain/store"
	v1 "stockbook/internal/infrastructure/http/v1"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/pkg/logger"
)

const version = "1.0.0"

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stockbook server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	// --- Storage ---
	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	allocator := postgres.NewSequenceAllocator(txm)
	documentStore := postgres.NewDocumentStore(txm, allocator).WithAudit(auditService)
	adjuster := postgres.NewInventoryAdjuster(txm)
	userRepo := postgres.NewUserRepo(txm)
	reportRepo := postgres.NewReportRepo(txm)

	// --- Auth ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(userRepo, jwtService, auth.DefaultServiceConfig())

	// --- Access policy ---
	policy, err := security.NewPolicy(security.DefaultRules())
	if err != nil {
		log.Fatalw("failed to compile access policy", "error", err)
	}

	// --- Domain services ---
	salesService := sales.NewService(documentStore, allocator, adjuster, txm)
	purchasesService := purchases.NewService(documentStore, allocator, adjuster, txm)
	refundsService := refunds.NewService(documentStore, adjuster, txm)
	reportsService := reports.NewService(reportRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool.Pool,
		Logger:       log,
		Version:      version,
		JWTValidator: jwtService,
		Policy:       policy,
		AuthService:  authService,
		Customers:    catalogs.NewService(documentStore, store.KindCustomers),
		Suppliers:    catalogs.NewService(documentStore, store.KindSuppliers),
		Invoices:     catalogs.NewService(documentStore, store.KindInvoices),
		Products:     catalogs.NewProductService(documentStore, adjuster, txm),
		Sales:        salesService,
		Purchases:    purchasesService,
		Refunds:      refundsService,
		Reports:      reportsService,
		Audit:        auditService,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
