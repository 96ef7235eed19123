package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"match-board-system/handlers"
	"match-board-system/middleware"
	"match-board-system/services"
	"match-board-system/store"
	"match-board-system/store/memstore"
	"match-board-system/store/pgstore"
	"match-board-system/utils"
	"match-board-system/workers"

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
		BodyLimit: 10 * 1024 * 1024, // 10MB — avatars are the largest upload
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Store selection: Postgres when DATABASE_URL is set, in-memory otherwise.
	// Both satisfy the same contracts, so everything downstream is identical.
	var st store.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		if err := pgstore.Migrate(db); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
		st = pgstore.New(db)
		log.Println("✅ Using Postgres store")
	} else {
		st = memstore.New()
		log.Println("⚠️  DATABASE_URL not set — using in-memory store (data is lost on restart)")
	}

	if os.Getenv("CLOUDFLARE_ACCOUNT_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  CLOUDFLARE_ACCOUNT_ID not set — avatar uploads disabled")
	}

	notificationService := services.NewNotificationService(st)
	playerService := services.NewPlayerService(st)
	matchService := services.NewMatchService(st, notificationService)
	transmissionService := services.NewTransmissionService(st, notificationService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Membership service mirror for VIP flags and profiles ---
	if membershipURL := os.Getenv("MEMBERSHIP_SERVICE_URL"); membershipURL != "" {
		serviceToken := os.Getenv("BOARD_SERVICE_TOKEN")
		syncWorker := workers.NewMemberSyncWorker(st, membershipURL, "/api/v1/public/members", serviceToken)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  MEMBERSHIP_SERVICE_URL not set — member sync disabled")
	}

	matchService.StartLockScheduler()

	// ✅ Setup routes — enforced Gateway auth, user context on secured groups
	handlers.SetupMatchRoutes(app, matchService)
	handlers.SetupPlayerRoutes(app, playerService, notificationService)
	handlers.SetupFeedRoutes(app, transmissionService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:" + port)
	log.Println("✅ Lock-notice scheduler running (every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
