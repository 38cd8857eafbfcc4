// Package main seeds a demo tenant with sample catalog and document data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/tenant"
	"stockbook/internal/domain/auth"
	"stockbook/internal/domain/catalogs"
	"stockbook/internal/domain/purchases"
	"stockbook/internal/domain/sales"
	"stockbook/internal/domain/store"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	allocator := postgres.NewSequenceAllocator(txm)
	documentStore := postgres.NewDocumentStore(txm, allocator)
	adjuster := postgres.NewInventoryAdjuster(txm)
	userRepo := postgres.NewUserRepo(txm)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("seed-only"))
	authService := auth.NewService(userRepo, jwtService, auth.DefaultServiceConfig())

	email := envOr("SEED_EMAIL", "demo@stockbook.local")
	password := envOr("SEED_PASSWORD", "demo-password")

	owner, err := authService.Register(ctx, auth.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Demo Owner",
	})
	if err != nil {
		log.Fatalw("failed to register demo tenant", "error", err)
	}
	log.Infow("demo tenant registered", "email", email, "tenant_id", owner.TenantID)

	ctx = tenant.WithID(ctx, owner.TenantID)
	ctx = appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   owner.ID.String(),
		TenantID: owner.TenantID,
		Email:    owner.Email,
		Roles:    owner.Roles,
		IsAdmin:  true,
	})

	products := catalogs.NewProductService(documentStore, adjuster, txm)
	customers := catalogs.NewService(documentStore, store.KindCustomers)
	suppliers := catalogs.NewService(documentStore, store.KindSuppliers)
	salesService := sales.NewService(documentStore, allocator, adjuster, txm)
	purchasesService := purchases.NewService(documentStore, allocator, adjuster, txm)

	widget, err := products.Create(ctx, map[string]any{
		"name": "Widget", "sku": "WDG-1", "price": "9.90", "quantity": int64(0),
	})
	if err != nil {
		log.Fatalw("failed to create product", "error", err)
	}
	gadget, err := products.Create(ctx, map[string]any{
		"name": "Gadget", "sku": "GDG-1", "price": "24.50", "quantity": int64(0),
	})
	if err != nil {
		log.Fatalw("failed to create product", "error", err)
	}

	if _, err := customers.Create(ctx, map[string]any{"name": "ACME Ltd", "city": "Riga"}); err != nil {
		log.Fatalw("failed to create customer", "error", err)
	}
	if _, err := suppliers.Create(ctx, map[string]any{"name": "Supplies Inc"}); err != nil {
		log.Fatalw("failed to create supplier", "error", err)
	}

	// receive initial stock
	po, err := purchasesService.Create(ctx, purchases.Input{
		SupplierName: "Supplies Inc",
		Lines: []purchases.Line{
			{ProductID: widget.ID, Quantity: 100, UnitCost: decimal.RequireFromString("4.00")},
			{ProductID: gadget.ID, Quantity: 50, UnitCost: decimal.RequireFromString("12.00")},
		},
		TotalAmount: decimal.RequireFromString("1000.00"),
		Status:      purchases.StatusReceived,
	})
	if err != nil {
		log.Fatalw("failed to create purchase", "error", err)
	}
	log.Infow("initial stock received", "purchase", po.SequentialNumber)

	sale, err := salesService.Create(ctx, sales.Input{
		CustomerName: "ACME Ltd",
		Lines: []sales.Line{
			{ProductID: widget.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("9.90")},
		},
		TotalAmount:   decimal.RequireFromString("29.70"),
		PaymentMethod: "cash",
		Status:        sales.StatusCompleted,
	})
	if err != nil {
		log.Fatalw("failed to create sale", "error", err)
	}
	log.Infow("demo sale completed", "sale", sale.SequentialNumber)

	log.Info("seed finished")
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
