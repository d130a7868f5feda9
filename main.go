package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"learning-rewards-engine/handlers"
	"learning-rewards-engine/middleware"
	"learning-rewards-engine/models"
	"learning-rewards-engine/services"
	"learning-rewards-engine/utils"
	"learning-rewards-engine/workers"

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

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
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
		&models.GameResult{},
		&models.GameProgress{},
		&models.StudentReward{},
		&models.StudentAchievement{},
		&models.UserPoints{},
		&models.PointsTransaction{},
		&models.Student{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	achievementService := services.NewAchievementService(db)
	progressService := services.NewProgressService(db, services.DefaultRewardConfig, achievementService)
	rewardService := services.NewRewardService(db)
	pointsService := services.NewPointsService(db, services.DefaultPointsConfig)
	auditService := services.NewAuditService(db)

	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("REWARDS_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("REWARDS_SERVICE_TOKEN environment variable not set")
	}

	syncWorker := workers.NewStudentSyncWorker(db, authServiceURL, "/api/v1/public/students", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker.Start(ctx)

	services.StartMaintenanceScheduler(rewardService, auditService)

	// ✅ Setup routes — enforced Gateway auth + consistent /s/ prefix
	handlers.SetupProgressRoutes(app, progressService, rewardService, achievementService)
	handlers.SetupPointsRoutes(app, pointsService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Rewards engine running on http://localhost:5300")
	log.Println("✅ Student Sync Worker running")
	log.Println("✅ Maintenance scheduler running (reward expiry + ledger audit)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
