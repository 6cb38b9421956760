package app

import (
	"fmt"
	"log"
	"os"

	"github.com/avaliaedu/portal/api"
	"github.com/avaliaedu/portal/config"
	"github.com/avaliaedu/portal/database"
	"github.com/avaliaedu/portal/router"
	"github.com/avaliaedu/portal/services"
	cronpkg "github.com/avaliaedu/portal/services/cron"
	"gorm.io/gorm"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cronpkg.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			print("Warning: Failed to get database connection for cron jobs\n")
		} else {
			emailService := services.NewEmailService(getEnv)
			unlockService := services.NewUnlockService(db, emailService)
			cronManager = cronpkg.NewCronManager(db, unlockService)
			if err := cronManager.Start(); err != nil {
				print("Warning: Failed to start cron jobs\n")
				print("Error: ", err.Error(), "\n")
			}
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, store, getEnv)

	// Get the PORT & Start the Server
	return server.Run()
}
