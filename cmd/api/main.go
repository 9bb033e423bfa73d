package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice-api/internal/config"
	"backoffice-api/internal/handler"
	"backoffice-api/internal/middleware"
	"backoffice-api/internal/repository"
	"backoffice-api/internal/repository/memory"
	mongostore "backoffice-api/internal/repository/mongo"
	"backoffice-api/internal/service"
	"backoffice-api/internal/ws"
	"backoffice-api/pkg/database"
	"backoffice-api/pkg/jwt"
	"backoffice-api/pkg/storage"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelDebug
	if cfg.IsProduction {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "db_type", cfg.DBType, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("Store ready", "db_type", cfg.DBType)

	app := fiber.New(fiber.Config{
		AppName:   "Backoffice API v1.0",
		BodyLimit: 10 * 1024 * 1024,
	})

	var assets service.AssetStore
	r2cfg := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		Bucket:          cfg.R2Bucket,
		PublicURL:       cfg.R2PublicURL,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
	}
	if r2cfg.Enabled() {
		r2, err := storage.NewR2(ctx, r2cfg)
		if err != nil {
			logger.Error("Failed to init R2 storage", "error", err)
			os.Exit(1)
		}
		assets = r2
		logger.Info("Assets stored in R2", "bucket", cfg.R2Bucket)
	} else {
		disk, err := storage.NewDisk(cfg.AssetDir, cfg.AssetBaseURL)
		if err != nil {
			logger.Error("Failed to init disk storage", "dir", cfg.AssetDir, "error", err)
			os.Exit(1)
		}
		app.Static("/assets", disk.Dir())
		assets = disk
		logger.Warn("R2 not configured, serving assets from disk", "dir", disk.Dir())
	}

	hub := ws.NewHub(logger)
	go hub.Run()

	signer := jwt.NewSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	limiter, err := middleware.NewLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit", "rate", cfg.RateLimit, "error", err)
		os.Exit(1)
	}

	categoryService := service.NewCategoryService(store, hub)
	productService := service.NewProductService(store, assets, hub)
	quotationService := service.NewQuotationService(store, hub)
	ledgerService := service.NewLedgerService(store, hub)
	clientFinanceService := service.NewClientFinanceService(store, hub)

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))
	app.Use(middleware.RequestLogger(logger))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "clients": hub.Count()})
	})

	api := app.Group("/api/v1", middleware.RateLimit(limiter), middleware.Identify(signer))
	handler.RegisterRoutes(api, handler.Handlers{
		Categories:    handler.NewCategoryHandler(categoryService),
		Products:      handler.NewProductHandler(productService),
		Quotations:    handler.NewQuotationHandler(quotationService, ledgerService),
		ClientFinance: handler.NewClientFinanceHandler(clientFinanceService),
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !hub.Join(c) {
			return
		}
		defer hub.Leave(c)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("Server stopped", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("Server started", "port", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	hub.Stop()
	logger.Info("Server exited")
}

// openStore picks the persistence backend named by DB_TYPE. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.DBType {
	case config.DBMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURL)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return mongostore.NewStore(db), func() { _ = client.Disconnect(context.Background()) }, nil

	case config.DBMemory:
		return memory.NewStore(), func() {}, nil

	default:
		db, err := database.ConnectDB(database.PostgresConfig{
			DSN:      cfg.DatabaseURL,
			Host:     cfg.DBHost,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Name:     cfg.DBName,
			Port:     cfg.DBPort,
			Verbose:  !cfg.IsProduction,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, nil, err
		}
		return repository.NewStore(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	}
}
