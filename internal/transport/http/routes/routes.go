package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/infra/config"
	"github.com/arklim/smart-grocery-api/internal/transport/http/handlers"
	"github.com/arklim/smart-grocery-api/internal/transport/http/middleware"
	"github.com/arklim/smart-grocery-api/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Users         *usecase.UserService
	Lists         *usecase.ListService
	Shares        *usecase.ShareService
	PasswordReset *usecase.PasswordResetService
	Reminders     *usecase.ReminderService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}
	if len(deps.Config.App.Origins) > 0 {
		r.Use(middleware.CORS(deps.Config.App.Origins))
	}

	authMiddleware := middleware.RequireUser(deps.Services.Auth, deps.Config.Auth)

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.PasswordReset, deps.Config, deps.Logger)
	meHandler := handlers.NewMeHandler(deps.Services.Users)
	listHandler := handlers.NewListHandler(deps.Services.Lists)
	shareHandler := handlers.NewShareHandler(deps.Services.Shares)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)

		loginHandlers := append(buildLoginMiddlewares(deps), authHandler.Token)
		authGroup.POST("/token", loginHandlers...)

		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	r.GET("/me", authMiddleware, meHandler.Get)
	r.PATCH("/me", authMiddleware, meHandler.Update)

	if deps.Services.Reminders != nil {
		tasksHandler := handlers.NewTasksHandler(deps.Services.Reminders, deps.Config.App.CronSecret, deps.Logger)
		r.POST("/tasks/run-reminders", tasksHandler.RunReminders)
	}

	listGroup := r.Group("/lists")
	listGroup.Use(authMiddleware)
	{
		listGroup.GET("", listHandler.Index)
		listGroup.POST("", listHandler.Create)
		listGroup.GET("/:id", listHandler.Get)
		listGroup.PATCH("/:id", listHandler.Rename)
		listGroup.DELETE("/:id", listHandler.Delete)

		listGroup.GET("/:id/items", listHandler.Items)
		listGroup.POST("/:id/items", listHandler.AddItem)
		listGroup.PATCH("/items/:item_id", listHandler.UpdateItem)
		listGroup.DELETE("/items/:item_id", listHandler.DeleteItem)

		listGroup.GET("/:id/share", shareHandler.Index)
		listGroup.POST("/:id/share", shareHandler.Create)
		listGroup.PATCH("/:id/share/:share_id", shareHandler.Update)
		listGroup.DELETE("/:id/share/:share_id", shareHandler.Delete)

		listGroup.POST("/:id/hide", listHandler.Hide)
		listGroup.DELETE("/:id/hide", listHandler.Unhide)
	}

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
