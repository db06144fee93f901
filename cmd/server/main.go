// Package main runs the ticket escrow ledger HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ticketvault/backend/config"
	"github.com/ticketvault/backend/internal/auth"
	"github.com/ticketvault/backend/internal/capability"
	"github.com/ticketvault/backend/internal/clock"
	"github.com/ticketvault/backend/internal/ledger"
	"github.com/ticketvault/backend/internal/middleware"
	"github.com/ticketvault/backend/pkg/database"
	"github.com/ticketvault/backend/pkg/queue"
	"github.com/ticketvault/backend/pkg/redis"
	"github.com/ticketvault/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	capAuthority := capability.NewAuthority(cfg.Capability.Secret)
	receiptQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Escrow ledger
	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, capAuthority, clock.NewSystem(), receiptQueue, logger)
	ledgerHandler := ledger.NewHandler(ledgerService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "currency": cfg.Ledger.Currency})
	})

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/events", ledgerHandler.CreateEvent)
		api.GET("/events", ledgerHandler.ListEvents)
		api.GET("/events/:id", ledgerHandler.GetEvent)
		api.PATCH("/events/:id", ledgerHandler.UpdateEvent)
		api.POST("/events/:id/lots", ledgerHandler.CreateLot)
		api.GET("/events/:id/lots", ledgerHandler.ListLots)
		api.POST("/events/:id/purchase", ledgerHandler.Purchase)
		api.POST("/events/:id/withdraw", ledgerHandler.Withdraw)
		api.GET("/events/:id/journal", ledgerHandler.ListJournal)
		api.POST("/invoices/:id/refund", ledgerHandler.Refund)
		api.GET("/invoices", ledgerHandler.ListInvoices)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
