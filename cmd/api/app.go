package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rotuprinters/internal/config"
	"rotuprinters/internal/handler"
	"rotuprinters/internal/middleware"
	"rotuprinters/internal/model"
	"rotuprinters/internal/repository"
	"rotuprinters/internal/service"
	"rotuprinters/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds everything main needs after wiring.
type app struct {
	router *gin.Engine
	hub    *websocket.Hub
}

// newApp wires repositories, services and handlers (Repository -> Service -> Handler),
// seeds roles and the initial admin, and builds the router. rdb may be nil.
func newApp(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, log *zap.Logger) (*app, error) {
	wsHub := websocket.NewHub(log.Named("ws"))

	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	itemRepo := repository.NewInventoryItemRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	reportRepo := repository.NewReportRepository(db)

	tokens := service.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, txManager, tokens, log.Named("users"))
	roleService := service.NewRoleService(roleRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	clientService := service.NewClientService(clientRepo, auditRepo, txManager)
	inventoryService := service.NewInventoryService(productRepo, movementRepo, itemRepo, auditRepo, txManager, wsHub)
	simpleInventoryService := service.NewSimpleInventoryService(itemRepo, auditRepo, txManager, wsHub)
	quotationService := service.NewQuotationService(quotationRepo, clientRepo, productRepo, auditRepo, txManager)
	saleService := service.NewSaleService(saleRepo, quotationRepo, clientRepo, productRepo, movementRepo, auditRepo, txManager, wsHub)
	expenseService := service.NewExpenseService(expenseRepo, auditRepo, txManager)
	reportService := service.NewReportService(reportRepo, clientRepo, productRepo)

	if err := roleService.SeedDefaultRolesAndPermissions(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}
	if err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}

	middleware.InitAuth(tokens.Secret, roleRepo, middleware.CookieOptions{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Secure:     cfg.IsRelease(),
	})

	metrics := middleware.NewMetrics()
	metrics.Registerer().MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "rotuprinters_websocket_clients",
		Help: "Connected websocket subscribers.",
	}, func() float64 { return float64(wsHub.ClientCount()) }))

	idempotency := middleware.Idempotency(rdb, cfg.IdempotencyTTL, log.Named("idempotency"))
	loginLimiter := middleware.RateLimit(cfg.LoginRateLimit, time.Minute)

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestLogger(log.Named("http")),
		middleware.SecureHeaders(cfg.IsRelease()),
		metrics.Middleware(),
	)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.IdempotencyHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret(), model.RoleAdmin, model.RoleSeller, model.RoleDesigner)
	})

	api := router.Group("/api")
	handler.NewUserHandler(userService, loginLimiter).RegisterRoutes(api)
	handler.NewRoleHandler(roleService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)
	handler.NewClientHandler(clientService).RegisterRoutes(api)
	handler.NewInventoryHandler(inventoryService, idempotency).RegisterRoutes(api)
	handler.NewSimpleInventoryHandler(simpleInventoryService, idempotency).RegisterRoutes(api)
	handler.NewQuotationHandler(quotationService, idempotency).RegisterRoutes(api)
	handler.NewSaleHandler(saleService, idempotency).RegisterRoutes(api)
	handler.NewExpenseHandler(expenseService).RegisterRoutes(api)
	handler.NewReportHandler(reportService).RegisterRoutes(api)

	return &app{router: router, hub: wsHub}, nil
}
