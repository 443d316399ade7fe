package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"blue-carbon/registry-portal/registry-portal-backend/internal/certificates"
	"blue-carbon/registry-portal/registry-portal-backend/internal/companies"
	"blue-carbon/registry-portal/registry-portal-backend/internal/config"
	"blue-carbon/registry-portal/registry-portal-backend/internal/ledger"
	"blue-carbon/registry-portal/registry-portal-backend/internal/minting"
	"blue-carbon/registry-portal/registry-portal-backend/internal/notifications/websocket"
	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
	"blue-carbon/registry-portal/registry-portal-backend/internal/trading"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/chain"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/storage"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	if os.Getenv("GIN_MODE") != "release" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&companies.Company{},
		&projects.Project{},
		&minting.MintRequest{},
		&trading.BuyRequest{},
		&trading.CompanyTransaction{},
	); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// One pending buy request per company/project pair, enforced by the
	// database as well as the locking create path.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_buy_requests_pending_pair
		ON buy_requests (company_id, project_id) WHERE status = 'Pending'`).Error; err != nil {
		logger.Fatal("failed to create pending buy request index", zap.Error(err))
	}

	// Event hub for dashboard clients
	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Close()

	chainClient := chain.NewLedgerClient(cfg.Chain.ExplorerURL, cfg.Chain.Timeout)
	evidenceClient := storage.NewPinServiceClient(cfg.Pinning.BaseURL, cfg.Pinning.APIKey, cfg.Pinning.Timeout)
	certGenerator := certificates.NewGenerator(cfg.Certificates.OutputDir)

	companiesRepo := companies.NewRepository(db)
	companiesService := companies.NewService(companiesRepo, hub, logger)
	companiesHandler := companies.NewHandler(companiesService, logger)

	projectsRepo := projects.NewRepository(db)
	projectsService := projects.NewService(projectsRepo, evidenceClient, logger)
	projectsHandler := projects.NewHandler(projectsService, logger)

	mintingRepo := minting.NewRepository(db)
	mintingService := minting.NewService(mintingRepo, chainClient, hub, logger)
	mintingHandler := minting.NewHandler(mintingService, logger)

	tradingRepo := trading.NewRepository(db)
	tradingService := trading.NewService(tradingRepo, chainClient, certGenerator, hub, logger)
	tradingHandler := trading.NewHandler(tradingService, logger)

	ledgerRepo := ledger.NewRepository(db)
	ledgerService := ledger.NewService(ledgerRepo, logger)
	ledgerHandler := ledger.NewHandler(ledgerService, logger)

	// Periodic projection rebuild repairs counters that drift from the
	// authoritative records.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Scheduler.LedgerRebuildSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		report, err := ledgerService.RebuildAll(ctx)
		if err != nil {
			logger.Error("scheduled ledger rebuild failed", zap.Error(err))
			return
		}
		if report.ProjectsRepaired > 0 {
			logger.Warn("scheduled ledger rebuild repaired projects",
				zap.Int("repaired", report.ProjectsRepaired))
		}
	}); err != nil {
		logger.Fatal("failed to schedule ledger rebuild", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	{
		companiesHandler.RegisterRoutes(api)
		projectsHandler.RegisterRoutes(api)
		mintingHandler.RegisterRoutes(api)
		tradingHandler.RegisterRoutes(api)
		ledgerHandler.RegisterRoutes(api)
	}

	router.GET("/ws", func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	srv := &http.Server{
		Addr:    cfg.Server.GetServerAddr(),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	logger.Info("registry portal started",
		zap.String("addr", cfg.Server.GetServerAddr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
