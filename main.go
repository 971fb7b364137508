package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"coop-results-system/handlers"
	"coop-results-system/models"
	"coop-results-system/services"
	"coop-results-system/utils"
	"coop-results-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // batches of up to 200 results
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, User-Agent",
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Schedule{},
		&models.Result{},
		&models.Player{},
		&models.Wave{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	resourceService := services.NewResourceService()
	scheduleService := services.NewScheduleService(db)
	resultService := services.NewResultService(db, scheduleService, resourceService)
	versionService := services.NewVersionService(resourceService)

	if err := resourceService.RefreshWeaponTable(); err != nil {
		// Ingest still works with an empty table; unresolved weapons store
		// as the dummy id until the next refresh succeeds.
		log.Printf("⚠️ Initial weapon table fetch failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduleWorker := workers.NewScheduleSyncWorker(scheduleService)
	scheduleWorker.Start(ctx)
	resourceService.StartRefreshScheduler(ctx)

	handlers.SetupResultRoutes(app, resultService)
	handlers.SetupScheduleRoutes(app, scheduleService)
	handlers.SetupResourceRoutes(app, resourceService, versionService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3030"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Schedule Sync Worker running (hourly phase feed poll)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
