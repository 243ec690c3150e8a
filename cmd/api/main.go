package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "salesadmin/api/swagger" // swagger docs
	"salesadmin/internal/auth"
	"salesadmin/internal/cafe24"
	"salesadmin/internal/config"
	"salesadmin/internal/database"
	"salesadmin/internal/github"
	"salesadmin/internal/handler"
	"salesadmin/internal/logger"
	"salesadmin/internal/middleware"
	"salesadmin/internal/repository"
	"salesadmin/internal/service"
	"salesadmin/internal/slack"
	"salesadmin/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// @title           Sales Admin API
// @version         1.0
// @description     Cafe24 sales dashboard, scraping workflow control and user administration.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is configured from cfg, so this one goes to stderr directly
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	middleware.InitAuth(tokens, cfg.Server.Mode == gin.ReleaseMode)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(cfg.Server.AllowedOrigins)
	go wsHub.Run(ctx)

	// Cafe24
	tokenStore := newTokenStore(ctx, cfg, db)
	oauth := cafe24.NewOAuth(cafe24.OAuthConfig{
		MallID:       cfg.Cafe24.MallID,
		ClientID:     cfg.Cafe24.ClientID,
		ClientSecret: cfg.Cafe24.ClientSecret,
		RedirectURI:  cfg.Cafe24.RedirectURI,
	})
	tokenProvider := cafe24.NewTokenProvider(tokenStore, oauth)
	mall := cafe24.NewClient(cfg.Cafe24.MallID,
		cafe24.WithAPIVersion(cfg.Cafe24.APIVersion),
		cafe24.WithRateLimit(cfg.Cafe24.RateLimitRPS, cfg.Cafe24.RateBurst),
	)

	workflow := github.NewClient(github.Config{
		Token:      cfg.GitHub.Token,
		Owner:      cfg.GitHub.Owner,
		Repo:       cfg.GitHub.Repo,
		WorkflowID: cfg.GitHub.WorkflowID,
		Ref:        cfg.GitHub.Ref,
	}, nil)
	slackClient := slack.NewClient(cfg.Slack.HourlyWebhook(), nil)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	execLogRepo := repository.NewExecutionLogRepository(db)
	failureRepo := repository.NewScheduleFailureRepository(db)

	auditService := service.NewAuditService(auditRepo)
	userService := service.NewUserService(userRepo, refreshRepo, auditService, txManager, tokens, service.UserServiceConfig{
		Brands:          cfg.Brands,
		DefaultPassword: cfg.Auth.DefaultInitialPassword,
		RefreshTTL:      cfg.Auth.RefreshTokenTTL,
	})
	salesService := service.NewSalesService(mall, tokenProvider, auditService, wsHub, service.SalesServiceConfig{
		MallID:    cfg.Cafe24.MallID,
		BrandName: cfg.Cafe24.BrandName,
	})
	reportService := service.NewReportService(salesService, slackClient, auditService, wsHub, cfg.Cafe24.BrandName)
	workflowService := service.NewWorkflowService(workflow, execLogRepo, auditService, txManager, wsHub,
		cfg.GitHub.ScheduleHour, cfg.GitHub.ScheduleMinute)
	logService := service.NewLogService(execLogRepo, failureRepo, txManager)
	roleService := service.NewRoleService()

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	auditHandler := handler.NewAuditHandler(auditService)
	roleHandler := handler.NewRoleHandler(roleService)
	salesHandler := handler.NewSalesHandler(salesService, cfg.Cafe24.AdminURL)
	reportHandler := handler.NewReportHandler(reportService)
	workflowHandler := handler.NewWorkflowHandler(workflowService)
	logHandler := handler.NewLogHandler(logService)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, tokens)
	})

	// API Routing
	api := router.Group("")
	userHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	salesHandler.RegisterRoutes(api)
	reportHandler.RegisterRoutes(api)
	workflowHandler.RegisterRoutes(api)
	logHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}

// newTokenStore keeps the Cafe24 grant in Redis when REDIS_ADDR is set and
// reachable, otherwise in PostgreSQL.
func newTokenStore(ctx context.Context, cfg *config.Config, db *gorm.DB) cafe24.TokenStore {
	if cfg.Redis.Addr == "" {
		return repository.NewCafe24TokenRepository(db, cfg.Cafe24.MallID)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		zap.L().Warn("redis unreachable, storing cafe24 token in PostgreSQL", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = rdb.Close()
		return repository.NewCafe24TokenRepository(db, cfg.Cafe24.MallID)
	}
	zap.L().Info("storing cafe24 token in redis", zap.String("addr", cfg.Redis.Addr))
	return cafe24.NewRedisTokenStore(rdb)
}
