package main

import (
	"github.com/sirupsen/logrus"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
)

// Applies the schema to the configured database and exits.
func main() {
	cfg := config.LoadDatabase()
	config.SetupLogger(cfg)

	database.Connect(cfg)
	logrus.WithField("driver", cfg.DatabaseDriver).Info("migrations applied")
}
