// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "recetario/docs" // swagger docs
	"recetario/internal/backup"
	"recetario/internal/cache"
	"recetario/internal/config"
	"recetario/internal/database"
	"recetario/internal/featureflags"
	"recetario/internal/mail"
	"recetario/internal/middleware"
	"recetario/internal/models"
	"recetario/internal/notifications"
	"recetario/internal/repository"
	"recetario/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "recetario-api"
	tokenAudience = "recetario-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config           *config.Config
	db               *gorm.DB
	redis            *redis.Client
	app              *fiber.App
	promMiddleware   *fiberprometheus.FiberPrometheus
	shutdownCtx      context.Context
	shutdownFn       context.CancelFunc
	userRepo         repository.UserRepository
	recipeRepo       repository.RecipeRepository
	communityRepo    repository.CommunityRecipeRepository
	commentRepo      repository.CommentRepository
	notifier         *notifications.Notifier
	hub              *notifications.Hub
	featureFlags     *featureflags.Manager
	authService      *service.AuthService
	userService      *service.UserService
	recipeService    *service.RecipeService
	communityService *service.CommunityService
	commentService   *service.CommentService
	imageService     *service.ImageService
	backupService    *backup.Service
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client means the app runs without cache, revocation or cross-instance events.
	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with sqlite and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("recetario-api"),
		userRepo:       repository.NewUserRepository(db),
		recipeRepo:     repository.NewRecipeRepository(db),
		communityRepo:  repository.NewCommunityRecipeRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}

	s.userService = service.NewUserService(s.userRepo, s.recipeRepo)
	s.recipeService = service.NewRecipeService(s.recipeRepo, s.userRepo)
	s.communityService = service.NewCommunityService(s.communityRepo, s.userRepo, s.isAdminByUserID)
	s.commentService = service.NewCommentService(s.commentRepo, s.communityRepo, s.userRepo, s.isAdminByUserID)
	s.imageService = service.NewImageService(cfg)
	s.authService = service.NewAuthService(s.userRepo, redisClient, mail.NewMailer(cfg), service.AuthConfig{
		ResetTTL:      time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	store, err := backup.NewStoreFromConfig(context.Background(), cfg)
	if err != nil {
		// Backups are an admin feature; the API still serves without them.
		middleware.Logger.Warn("Backup store unavailable, backup endpoints disabled",
			slog.String("store", cfg.BackupStore), slog.String("error", err.Error()))
	} else {
		s.backupService = backup.NewService(store, backup.Sources{
			Users:     s.userRepo,
			Recipes:   s.recipeRepo,
			Community: s.communityRepo,
			Comments:  s.commentRepo,
		}, backup.Options{Folder: cfg.BackupFolder})
	}

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Uploaded photos are embedded by the mobile and web clients.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Recetario Backend Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/media/:kind/:hash/:file", s.ServeMedia)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Post("/password-reset", middleware.RateLimit(s.redis, 3, 15*time.Minute, "password_reset"), s.RequestPasswordReset)
	auth.Post("/password-reset/confirm", middleware.RateLimit(s.redis, 10, 15*time.Minute, "password_reset_confirm"), s.ConfirmPasswordReset)

	// Public recipe routes
	recipes := api.Group("/recipes")
	recipes.Get("/", s.GetRecipes)
	recipes.Get("/popular", s.GetPopularRecipes)
	recipes.Get("/categories", s.GetRecipeCategories)
	recipes.Get("/:id", s.GetRecipe)

	// Public community routes
	community := api.Group("/community", s.FeatureRequired(featureflags.CommunityFeed))
	community.Get("/", s.GetCommunityFeed)
	community.Get("/mine", s.AuthRequired(), s.GetMyCommunityRecipes)
	community.Get("/comments/:commentId/replies", s.GetCommentReplies)
	community.Delete("/comments/:commentId", s.AuthRequired(), s.DeleteComment)
	community.Get("/:id/comments", s.GetComments)
	community.Get("/:id", s.GetCommunityRecipe)

	// Registered before the protected group so AuthRequired runs once and consumes the ticket once.
	api.Post("/ws/ticket", s.AuthRequired(), s.FeatureRequired(featureflags.LiveFeed), s.IssueWSTicket)
	api.Get("/ws", s.WebsocketUpgradeRequired, s.AuthRequired(), s.FeatureRequired(featureflags.LiveFeed), s.WebsocketHandler())

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Put("/me/name", s.UpdateMyName)
	users.Get("/me/favorites", s.GetMyFavorites)
	users.Get("/me/favorites/recipes", s.GetMyFavoriteRecipes)
	users.Post("/me/favorites/:recipeId/toggle", s.ToggleFavorite)
	users.Post("/me/favorites/:recipeId", s.AddFavorite)
	users.Delete("/me/favorites/:recipeId", s.RemoveFavorite)
	users.Get("/:id", s.GetUserProfile)

	communityWrite := protected.Group("/community", s.FeatureRequired(featureflags.CommunityFeed))
	communityWrite.Post("/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "create_community_recipe"), s.CreateCommunityRecipe)
	communityWrite.Post("/:id/like", s.ToggleCommunityLike)
	communityWrite.Post("/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	communityWrite.Put("/:id", s.UpdateCommunityRecipe)
	communityWrite.Delete("/:id", s.DeleteCommunityRecipe)

	protected.Post("/images", middleware.RateLimit(s.redis, 20, 10*time.Minute, "image_upload"), s.UploadImage)

	// Admin routes
	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Put("/feature-flags/:name", s.UpdateFeatureFlag)

	admin.Get("/users", s.GetAllUsers)
	admin.Get("/users/admins", s.GetAdmins)
	admin.Put("/users/:id/role", s.SetUserRole)

	adminRecipes := admin.Group("/recipes")
	adminRecipes.Get("/", s.GetRecipesByStatus)
	adminRecipes.Post("/", s.CreateRecipe)
	adminRecipes.Get("/:id", s.GetRecipeAdmin)
	adminRecipes.Put("/:id/status", s.ModerateRecipe)
	adminRecipes.Post("/:id/restore", s.RestoreRecipe)
	adminRecipes.Put("/:id", s.UpdateRecipe)
	adminRecipes.Delete("/:id", s.DeleteRecipe)

	adminCommunity := admin.Group("/community")
	adminCommunity.Get("/pending", s.GetPendingCommunityRecipes)
	adminCommunity.Post("/:id/publish", s.PublishCommunityRecipe)
	adminCommunity.Post("/:id/reject", s.RejectCommunityRecipe)

	backups := admin.Group("/backups", s.FeatureRequired(featureflags.BackupAPI))
	backups.Get("/", s.ListBackups)
	backups.Post("/", s.RunBackup)
	backups.Get("/:name", s.DownloadBackup)
	backups.Delete("/:name", s.DeleteBackup)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the API serves but loses cache and revocation.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "recetario",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		admin, err := s.isAdminByUserID(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// FeatureRequired hides a route group while its feature flag is off.
// Percentage rollouts use the authenticated user, or the optional bearer token on public routes.
func (s *Server) FeatureRequired(flag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			userID, _ = s.optionalUserID(c)
		}
		if s.featureFlags != nil && !s.featureFlags.Enabled(flag, userID) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Feature", flag))
		}
		return c.Next()
	}
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"

		// WebSocket clients authenticate with a short-lived, single-use ticket.
		if isWSPath {
			ticket := c.Query("ticket")
			if ticket == "" || s.redis == nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("WebSocket ticket required"))
			}
			userIDStr, err := s.redis.GetDel(c.UserContext(), wsTicketKey(ticket)).Result()
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			userID, err := strconv.ParseUint(userIDStr, 10, 32)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			s.setUser(c, uint(userID))
			return c.Next()
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		if claims.ID != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), revokedTokenKey(claims.ID)).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("tokenClaims", claims)
		s.setUser(c, uint(userID))
		return c.Next()
	}
}

func (s *Server) setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
	c.SetUserContext(ctx)
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// parseToken validates signature, issuer, audience and expiry.
func (s *Server) parseToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	return claims, nil
}

// optionalUserID reads the user from a bearer token without enforcing it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, false
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return 0, false
	}
	if claims.ID != "" && s.redis != nil {
		if n, err := s.redis.Exists(c.UserContext(), revokedTokenKey(claims.ID)).Result(); err == nil && n > 0 {
			return 0, false
		}
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// NewApp builds the Fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Recetario API",
		BodyLimit: int(s.imageService.MaxUploadSizeBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires the live feed to Redis and listens until Shutdown is called.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
