package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/utils"
)

func main() {
	cfg := config.Load()
	config.SetupLogger(cfg)

	db := database.Connect(cfg)

	if err := utils.EnsureDir(cfg.UploadDir); err != nil {
		logrus.Fatalf("failed to create upload dir %s: %v", cfg.UploadDir, err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Storefront Backend",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg)

	logrus.WithFields(logrus.Fields{
		"port":   cfg.AppPort,
		"env":    cfg.AppEnv,
		"driver": cfg.DatabaseDriver,
	}).Info("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("fiber.Listen error: %v", err)
	}
}
