package main

import (
	"os"
	"os/signal"
	"syscall"

	"go-pos-orders/internal/handler"
	"go-pos-orders/internal/metrics"
	"go-pos-orders/internal/notify"
	"go-pos-orders/internal/repository"
	"go-pos-orders/internal/service"
	"go-pos-orders/internal/ws"
	"go-pos-orders/pkg/config"
	"go-pos-orders/pkg/database"
	"go-pos-orders/pkg/jwt"
	"go-pos-orders/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// 2. Logger
	if err := logger.Init(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.Server.AppName,
	}); err != nil {
		panic(err)
	}
	log := logger.Get()
	defer log.Sync()

	// 3. Database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}

	// 4. WebSocket hub, metrics, notifications
	wsHub := ws.NewHub()
	go wsHub.Run()

	m := metrics.New(cfg.Metrics.Prefix, prometheus.DefaultRegisterer)

	var gateway notify.Gateway = notify.NewLogGateway(log.Named("notify"))
	if cfg.Notify.WebhookURL != "" {
		gateway = notify.NewWebhookGateway(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
	}
	dispatcher := notify.NewDispatcher(gateway, cfg.Notify.Timeout, log, m)

	// 5. Dependency Injection (Wiring Layers)
	invRepo := repository.NewInventoryRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	itemRepo := repository.NewOrderItemRepo(db)
	statusRepo := repository.NewStatusRepo(db)

	invService := service.NewInventoryService(invRepo, db, wsHub, m)
	saleService := service.NewSaleService(invService, orderRepo, itemRepo, statusRepo, db, cfg.Sale, wsHub, dispatcher, m, log)
	statusService := service.NewStatusService(orderRepo, statusRepo, db, wsHub, dispatcher, m, log)
	fulfillmentService := service.NewFulfillmentService(orderRepo, itemRepo, db, wsHub, m)
	layawayService := service.NewLayawayService(orderRepo, statusRepo, db, wsHub, dispatcher, m, log)
	queryService := service.NewOrderQueryService(orderRepo)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.Server.AppName,
	})

	app.Use(requestid.New())
	app.Use(logger.Middleware())
	app.Use(m.Middleware())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return c.Status(503).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// 7. Routes
	handler.RegisterRoutes(app, handler.Handlers{
		Orders:    handler.NewOrderHandler(saleService, queryService, statusService, fulfillmentService, layawayService),
		Inventory: handler.NewInventoryHandler(invService),
		Reports:   handler.NewReportHandler(queryService),
	}, tokens)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Panic("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	dispatcher.Wait()

	log.Info("server exited")
}
