package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/infra/config"
	"github.com/arklim/registration-gate/internal/transport/http/handlers"
	"github.com/arklim/registration-gate/internal/transport/http/middleware"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config         *config.AppConfig
	Logger         *zap.Logger
	Workflow       handlers.RegistrationWorkflow
	DecisionEditor handlers.DecisionEditor
	Metrics        handlers.WorkflowMetrics
	RateLimitStore middleware.RateLimitStore
	Database       DatabaseChecker
	Cache          CacheChecker
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
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if httpMetrics, err := middleware.NewHTTPMetrics(prometheus.DefaultRegisterer); err == nil {
		r.Use(httpMetrics.Handler())
	} else if deps.Logger != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	}

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

	registrationHandler := handlers.NewRegistrationHandler(deps.Workflow, deps.DecisionEditor, deps.Metrics, deps.Logger)
	registrationHandler.RegisterRoutes(r, buildSubmitMiddlewares(deps)...)

	return r
}

func buildSubmitMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimitStore == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.SubmitMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:   "open_user_ip",
		Limit:  limit,
		Window: window,
	}

	return []gin.HandlerFunc{middleware.RateLimit(deps.RateLimitStore, rule, deps.Logger)}
}
