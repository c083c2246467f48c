package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/cache"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/config"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/database"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/handlers"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/middleware"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/monitoring"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/repositories"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Application holds all application dependencies and state
type Application struct {
	Config *config.Config
	DB     *gorm.DB
	Cache  cache.Cache
	Redis  *redis.Client
	Router *gin.Engine
	Server *http.Server

	// Services
	TaskService      services.TaskService
	LifecycleService services.LifecycleService
	CommentService   services.CommentService
	AuthService      services.AuthService
	UserService      services.UserService
	RegisterService  services.RegisterService
}

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	log.Println("🚀 Initializing Tasks Management Backend...")
	log.Printf("📋 Environment: %s", cfg.Server.Environment)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.DB = db

	log.Println("✅ Database connected and configured")

	migrationConfig := &repositories.MigrationConfig{
		MigrationsPath: "file://migrations",
		DBName:         cfg.Database.Name,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}

	if err := repositories.RunMigrations(db, migrationConfig); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis unavailable: %v (continuing with in-memory cache)", err)
		redisClient = nil
	} else {
		app.Redis = redisClient
		log.Println("✅ Redis connected")
	}

	if redisClient != nil {
		app.Cache = cache.NewRedisCacheWithClient(redisClient)
		log.Println("✅ Redis cache initialized")
	} else {
		app.Cache = cache.NewMemoryCache()
		log.Println("✅ Memory cache initialized (fallback mode)")
	}

	// Initialize Services
	app.LifecycleService = services.NewLifecycleServiceWithLockWait(cfg.Database.LockTimeout)
	app.CommentService = services.NewCommentService()
	app.AuthService = services.NewAuthService(cfg.JWT.Secret)
	app.UserService = services.NewUserService()
	app.RegisterService = services.NewRegisterService()

	// Task reads go through the cache; lifecycle handlers invalidate on write.
	taskServiceImpl := services.NewTaskService()
	app.TaskService = services.NewCachedTaskService(taskServiceImpl, app.Cache)
	log.Println("✅ Cached task service initialized")

	log.Println("✅ All services initialized")

	return app, nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	// Global middleware stack (order matters!)
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.SecureHeader())

	// Rate limiting
	rateLimit := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
	r.Use(middleware.RateLimiter(rateLimit, app.Config.RateLimit.BurstSize))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://host.docker.internal"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and monitoring endpoints (no auth required)
	r.GET("/health", app.healthHandler())
	r.GET("/ready", app.readinessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	v1 := r.Group("/api/v1")

	// Public authentication routes (no auth required)
	authRoutes := v1.Group("/auth")
	{
		authHandler := handlers.NewAuthHandler(app.DB, app.AuthService)
		refreshHandler := handlers.NewRefreshHandler(app.DB, app.AuthService)
		registrationHandler := handlers.NewRegisterHandler(app.DB, app.RegisterService)

		authRoutes.POST("/register", registrationHandler.Registration)
		authRoutes.POST("/refresh", refreshHandler.Refresh)

		login := authRoutes.Group("")
		if app.Redis != nil {
			// Login shares one budget across instances to bound credential
			// guessing.
			distributed := middleware.NewDistributedRateLimiter(app.Redis)
			login.Use(distributed.CreateMiddleware("login", &middleware.RateLimit{
				Rate:    app.Config.RateLimit.LoginPerMin,
				Window:  time.Minute,
				KeyFunc: middleware.IPKeyFunc,
			}))
		}
		login.POST("/login", authHandler.Token)
		login.POST("/logout", authHandler.Logout)
	}

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(middleware.AuthzMiddleware(middleware.AuthzConfig{Secret: app.Config.JWT.Secret}))
	{
		// Task routes
		taskHandler := handlers.NewTaskHandler(app.DB, app.TaskService, app.LifecycleService, app.CommentService)
		taskRoutes := protected.Group("/tasks")
		{
			taskRoutes.POST("", taskHandler.CreateTask)
			taskRoutes.PUT("/:id", taskHandler.UpdateTask)
			taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
			taskRoutes.GET("/:id", taskHandler.GetTaskByID)
			taskRoutes.GET("", taskHandler.GetTasks)

			taskRoutes.PATCH("/:id/assign", taskHandler.AssignTask)
			taskRoutes.PATCH("/:id/unassign", taskHandler.UnassignTask)
			taskRoutes.PATCH("/:id/close", taskHandler.CloseTask)

			taskRoutes.POST("/:id/comment", taskHandler.AddComment)
			taskRoutes.GET("/:id/comments", taskHandler.GetComments)
			taskRoutes.GET("/:id/history", taskHandler.GetHistory)
		}

		// User routes
		userHandler := handlers.NewUserHandler(app.DB, app.UserService)
		userRoutes := protected.Group("/users")
		{
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:user_id", userHandler.GetUserByID)
			userRoutes.GET("/:user_id/tasks", taskHandler.GetTasksByUser)
		}
	}

	app.Router = r
}

func (app *Application) startServer() {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(ctx); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}

		app.cleanup()
		log.Println("✅ Server stopped gracefully")
	}()

	log.Printf("🚀 Server starting on %s", addr)
	log.Printf("📊 Metrics available at http://%s/metrics", addr)
	log.Printf("💚 Health check at http://%s/health", addr)

	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			log.Printf("⚠️  Error closing cache: %v", err)
		}
	}

	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			log.Printf("⚠️  Error closing Redis: %v", err)
		}
	}

	if err := database.Close(app.DB); err != nil {
		log.Printf("⚠️  Error closing database: %v", err)
	}

	log.Println("✅ Cleanup complete")
}

func (app *Application) healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "tasks-managment-backend",
		}

		if err := database.Health(app.DB); err != nil {
			health["status"] = "unhealthy"
			health["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
		health["database"] = "up"

		if app.Redis != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := app.Redis.Ping(ctx).Err(); err != nil {
				health["redis"] = "down"
			} else {
				health["redis"] = "up"
			}
		}

		c.JSON(http.StatusOK, health)
	}
}

func (app *Application) readinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.Health(app.DB); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"reason": "database not ready",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ready": true,
		})
	}
}
