// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockbook/internal/core/security"
	"stockbook/internal/domain/auth"
	"stockbook/internal/domain/catalogs"
	"stockbook/internal/domain/purchases"
	"stockbook/internal/domain/refunds"
	"stockbook/internal/domain/reports"
	"stockbook/internal/domain/sales"
	"stockbook/internal/domain/store"
	"stockbook/internal/infrastructure/http/v1/handlers"
	"stockbook/internal/infrastructure/http/v1/middleware"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool    *pgxpool.Pool
	Logger  *logger.Logger
	Version string

	JWTValidator middleware.JWTValidator
	Policy       *security.Policy

	AuthService *auth.Service
	Customers   *catalogs.Service
	Suppliers   *catalogs.Service
	Invoices    *catalogs.Service
	Products    *catalogs.ProductService
	Sales       *sales.Service
	Purchases   *purchases.Service
	Refunds     *refunds.Service
	Reports     *reports.Service
	Audit       *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// order matters
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	apiV1 := router.Group("/api/v1")
	{
		publicAuth := apiV1.Group("/auth")

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		protectedAuth := protected.Group("/auth")
		protectedAuth.Use(middleware.RequireRole(auth.RoleAdmin))
		authHandler.RegisterRoutes(publicAuth, protectedAuth)

		registerCatalogRoutes(protected, cfg, base)
		registerDocumentRoutes(protected, cfg, base)
		registerReportRoutes(protected, cfg, base)
		registerAuditRoutes(protected, cfg, base)
	}

	return router
}

// catalogRoutes wires the uniform CRUD surface for one catalog kind.
func catalogRoutes(rg *gin.RouterGroup, cfg RouterConfig, h *handlers.CatalogHandler, kind store.Kind) {
	rg.POST("", middleware.RequireAction(cfg.Policy, security.ActionCreate, string(kind)), h.Create)
	rg.GET("", middleware.RequireAction(cfg.Policy, security.ActionRead, string(kind)), h.List)
	rg.GET("/:id", middleware.RequireAction(cfg.Policy, security.ActionRead, string(kind)), h.Get)
	rg.PATCH("/:id", middleware.RequireAction(cfg.Policy, security.ActionUpdate, string(kind)), h.Update)
	rg.DELETE("/:id", middleware.RequireAction(cfg.Policy, security.ActionDelete, string(kind)), h.Delete)
}

func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig, base *handlers.BaseHandler) {
	catalogsGroup := rg.Group("/catalog")

	catalogRoutes(catalogsGroup.Group("/customers"), cfg,
		handlers.NewCatalogHandler(base, cfg.Customers), store.KindCustomers)
	catalogRoutes(catalogsGroup.Group("/suppliers"), cfg,
		handlers.NewCatalogHandler(base, cfg.Suppliers), store.KindSuppliers)
	catalogRoutes(catalogsGroup.Group("/invoices"), cfg,
		handlers.NewCatalogHandler(base, cfg.Invoices), store.KindInvoices)

	// products override Create and add stock adjustment
	productHandler := handlers.NewProductHandler(base, cfg.Products)
	productsGroup := catalogsGroup.Group("/products")
	kind := string(store.KindProducts)
	productsGroup.POST("", middleware.RequireAction(cfg.Policy, security.ActionCreate, kind), productHandler.Create)
	productsGroup.GET("", middleware.RequireAction(cfg.Policy, security.ActionRead, kind), productHandler.List)
	productsGroup.GET("/:id", middleware.RequireAction(cfg.Policy, security.ActionRead, kind), productHandler.Get)
	productsGroup.PATCH("/:id", middleware.RequireAction(cfg.Policy, security.ActionUpdate, kind), productHandler.Update)
	productsGroup.DELETE("/:id", middleware.RequireAction(cfg.Policy, security.ActionDelete, kind), productHandler.Delete)
	productsGroup.POST("/:id/adjust-stock", middleware.RequireAction(cfg.Policy, security.ActionUpdate, kind), productHandler.AdjustStock)
}

func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig, base *handlers.BaseHandler) {
	docs := rg.Group("/document")

	salesHandler := handlers.NewSalesHandler(base, cfg.Sales)
	salesGroup := docs.Group("/sales")
	salesKind := string(store.KindSales)
	salesGroup.POST("", middleware.RequireAction(cfg.Policy, security.ActionCreate, salesKind), salesHandler.Create)
	salesGroup.GET("", middleware.RequireAction(cfg.Policy, security.ActionRead, salesKind), salesHandler.List)
	salesGroup.GET("/:id", middleware.RequireAction(cfg.Policy, security.ActionRead, salesKind), salesHandler.Get)
	salesGroup.PATCH("/:id/status", middleware.RequireAction(cfg.Policy, security.ActionUpdate, salesKind), salesHandler.UpdateStatus)
	salesGroup.DELETE("/:id", middleware.RequireAction(cfg.Policy, security.ActionDelete, salesKind), salesHandler.Delete)

	purchasesHandler := handlers.NewPurchasesHandler(base, cfg.Purchases)
	purchasesGroup := docs.Group("/purchases")
	purchasesKind := string(store.KindPurchases)
	purchasesGroup.POST("", middleware.RequireAction(cfg.Policy, security.ActionCreate, purchasesKind), purchasesHandler.Create)
	purchasesGroup.GET("", middleware.RequireAction(cfg.Policy, security.ActionRead, purchasesKind), purchasesHandler.List)
	purchasesGroup.GET("/:id", middleware.RequireAction(cfg.Policy, security.ActionRead, purchasesKind), purchasesHandler.Get)
	purchasesGroup.POST("/:id/receive", middleware.RequireAction(cfg.Policy, security.ActionUpdate, purchasesKind), purchasesHandler.Receive)

	refundsHandler := handlers.NewRefundsHandler(base, cfg.Refunds)
	refundsGroup := docs.Group("/refunds")
	refundsKind := string(store.KindRefunds)
	refundsGroup.POST("", middleware.RequireAction(cfg.Policy, security.ActionCreate, refundsKind), refundsHandler.Create)
	refundsGroup.GET("", middleware.RequireAction(cfg.Policy, security.ActionRead, refundsKind), refundsHandler.List)
}

func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig, base *handlers.BaseHandler) {
	reportsHandler := handlers.NewReportsHandler(base, cfg.Reports)
	reportsGroup := rg.Group("/reports")
	reportsGroup.GET("/sales-summary", reportsHandler.SalesSummary)
	reportsGroup.GET("/stock-levels", reportsHandler.StockLevels)
	reportsGroup.GET("/top-products", reportsHandler.TopProducts)
}

func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig, base *handlers.BaseHandler) {
	auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
	auditGroup := rg.Group("/audit")
	auditGroup.GET("/:type/:id",
		middleware.RequireAction(cfg.Policy, security.ActionAuditRead, ""),
		auditHandler.EntityHistory)
}
