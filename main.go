// @title Nihongo Edu API
// @version 1.0
// @description Backend for the Nihongo Edu adaptive Japanese learning platform.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"nihongo_edu_backend/internal/app"
	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/pkg/configwatcher"
	"nihongo_edu_backend/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migration and exit")
	migrate := flag.Bool("migrate", false, "force database migration on startup")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig("configs", func(fresh *config.Config) {
		application.ApplyConfig(fresh)
	})

	application.Run()
}
