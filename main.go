package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/cache"
	"github.com/Kjfer/peri-craft-campus-sub000/config"
	"github.com/Kjfer/peri-craft-campus-sub000/controller"
	"github.com/Kjfer/peri-craft-campus-sub000/exchange"
	"github.com/Kjfer/peri-craft-campus-sub000/gateway"
	kafkax "github.com/Kjfer/peri-craft-campus-sub000/kafka"
	"github.com/Kjfer/peri-craft-campus-sub000/metrics"
	"github.com/Kjfer/peri-craft-campus-sub000/middleware"
	"github.com/Kjfer/peri-craft-campus-sub000/model"
	"github.com/Kjfer/peri-craft-campus-sub000/repository"
	"github.com/Kjfer/peri-craft-campus-sub000/routes"
	"github.com/Kjfer/peri-craft-campus-sub000/service"
)

var DB *gorm.DB

// ======================
// INIT DATABASE
// ======================
func initDB(cfg config.DB) {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("failed to connect checkout db:", err)
	}

	// Owned tables only; courses and profiles belong to other services.
	if err := DB.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Enrollment{},
	); err != nil {
		log.Fatal(err)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	initDB(cfg.DB)
	metrics.Register()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	rdb := cache.Connect(cfg.Redis.Addr, cfg.Redis.Pass)
	producer := kafkax.NewProducer(cfg.Kafka.Broker)

	rates := exchange.NewService(
		cfg.Exchange.FallbackRate,
		cfg.Exchange.CacheTTL,
		cfg.Exchange.SourceTimeout,
		slogger,
	)

	orders := repository.NewOrderRepository(DB)
	payments := repository.NewPaymentRepository(DB, rdb)
	enrollments := repository.NewEnrollmentRepository(DB)
	courses := repository.NewCourseRepository(DB)
	users := repository.NewUserRepository(DB, rdb)

	activator := service.NewEnrollmentService(enrollments, slogger)
	reconciler := service.NewReconcileService(orders, payments, activator, producer, cfg.Checkout, slogger)
	checkout := service.NewCheckoutService(
		orders, payments, enrollments, courses, users,
		rates,
		cache.NewLocker(rdb, cfg.Checkout.LockTTL),
		gateway.NewRegistry(cfg.Gateway),
		reconciler,
		cfg.Checkout.AllowedCountries,
		cfg.Exchange.FallbackRate,
		slogger,
	)

	app := fiber.New()
	app.Use(logger.New())

	routes.RegisterCheckoutRoutes(
		app,
		middleware.AuthRequired(cfg.JWT.Secret),
		controller.NewCheckoutController(checkout, reconciler),
		controller.NewPaymentController(checkout, payments),
		controller.NewWebhookController(reconciler, cfg.Gateway.WebhookSecret),
		controller.NewExchangeController(rates),
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "service": "checkout-service"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	log.Println("HTTP server running on port " + cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("fiber error:", err)
	}
}
