package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/queuev/queuev-api/access"
	"github.com/queuev/queuev-api/config"
	"github.com/queuev/queuev-api/draft"
	"github.com/queuev/queuev-api/handlers"
	"github.com/queuev/queuev-api/middleware"
	"github.com/queuev/queuev-api/notifications"
	"github.com/queuev/queuev-api/routes"
	"github.com/queuev/queuev-api/services"
	"github.com/queuev/queuev-api/utils"
)

const appVersion = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := config.RunMigrations(db); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	// Draft mirror. Redis when configured, in-process fallback otherwise.
	var cache draft.Cache
	redisClient, err := config.InitRedis()
	switch {
	case err != nil:
		utils.SafeWarn("Redis unavailable, drafts held in memory only: %v", err)
		cache = draft.NewMemoryCache()
	case redisClient == nil:
		log.Println("REDIS_ADDR not set, drafts held in memory only")
		cache = draft.NewMemoryCache()
	default:
		defer redisClient.Close()
		cache = draft.NewRedisCache(redisClient)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := notifications.NewAggregator()
	queueService := services.NewQueueService(db)
	invitationService := services.NewInvitationService(db, aggregator)
	registrationService := services.NewRegistrationService(db, aggregator)
	draftStore := draft.NewStore(cache, queueService, invitationService)
	accessFilter := access.NewFilter(&access.SQLSource{DB: db})

	if err := aggregator.Start(ctx, registrationService); err != nil {
		utils.SafeWarn("Failed to preload notifications: %v", err)
	}
	defer aggregator.Stop()

	// Invitations ignored for a week stop cluttering inboxes.
	go sweepInvitations(ctx, invitationService)

	wsHandler := handlers.NewWSHandler(aggregator)
	go wsHandler.Run(ctx)

	router := setupRouter(db, draftStore, queueService, invitationService,
		registrationService, accessFilter, aggregator, wsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	utils.LogStartup("QUEUEV API", appVersion, port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}

func setupRouter(
	db *sql.DB,
	draftStore *draft.Store,
	queueService *services.QueueService,
	invitationService *services.InvitationService,
	registrationService *services.RegistrationService,
	accessFilter *access.Filter,
	aggregator *notifications.Aggregator,
	wsHandler *handlers.WSHandler,
) *gin.Engine {
	if utils.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	allowed := allowedOrigins()
	log.Printf("🌍 CORS: Allowing origins:")
	for _, origin := range allowed {
		log.Printf("   - %s", origin)
	}

	corsConfig := cors.Config{
		AllowOrigins:     allowed,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": appVersion})
	})

	api := router.Group("/api/v1")

	routes.SetupAuthRoutes(api, handlers.NewAuthHandler(db),
		middleware.RateLimitMiddleware(20, time.Minute))
	routes.SetupUserRoutes(api, handlers.NewUserHandler(db))
	routes.SetupQueueRoutes(api, handlers.NewQueueHandler(draftStore, queueService))
	routes.SetupInvitationRoutes(api, handlers.NewInvitationHandler(invitationService))
	routes.SetupRegistrationRoutes(api, handlers.NewRegistrationHandler(registrationService, accessFilter))
	routes.SetupNotificationRoutes(api, handlers.NewNotificationHandler(aggregator))
	routes.SetupWebSocketRoutes(api, wsHandler)

	return router
}

func allowedOrigins() []string {
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	return []string{
		frontendURL,
		"https://queuev.app",
		"https://www.queuev.app",
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		utils.LogAPIRequest(c.Request.Method, c.Request.URL.Path,
			c.GetString("userID"), c.Writer.Status(), time.Since(start).String())
	}
}

func sweepInvitations(ctx context.Context, invitations *services.InvitationService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := invitations.SweepStalePending(ctx, 7*24*time.Hour)
			if err != nil {
				utils.SafeWarn("Invitation sweep failed: %v", err)
				continue
			}
			if swept > 0 {
				utils.SafeInfo("Swept %d stale invitations", swept)
			}
		}
	}
}
