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

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jordanlanch/dealboard/config"
	"github.com/jordanlanch/dealboard/pkg/analytics"
	"github.com/jordanlanch/dealboard/pkg/api/handlers"
	custommw "github.com/jordanlanch/dealboard/pkg/api/middleware"
	"github.com/jordanlanch/dealboard/pkg/backend"
	"github.com/jordanlanch/dealboard/pkg/cache"
	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/dragdrop"
	"github.com/jordanlanch/dealboard/pkg/jobs"
	"github.com/jordanlanch/dealboard/pkg/logger"
	"github.com/jordanlanch/dealboard/pkg/metrics"
	"github.com/jordanlanch/dealboard/pkg/pipeline"
	"github.com/jordanlanch/dealboard/pkg/store"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLog := logger.New(cfg.LogLevel)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize Redis cache for analytics snapshots (optional)
	var cacheRepo domain.CacheRepository
	if cfg.CacheEnabled {
		redisClient, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, analytics caching disabled: %v", err)
		} else {
			cacheRepo = redisClient
			defer redisClient.Close()
		}
	} else {
		log.Printf("ℹ️  Analytics caching disabled (CACHE_ENABLED=false)")
	}

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Initialize the deal store and engine services
	dealStore := store.New()
	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)
	noticeBoard := dragdrop.NewNoticeBoard(cfg.NoticeTTL)
	pipelineService := pipeline.NewService(dealStore, backendClient, noticeBoard, prometheusMetrics, appLog.With("component", "pipeline"), cfg.ResetProbabilityOnRegress)
	coordinator := dragdrop.NewCoordinator(dealStore, pipelineService, noticeBoard, appLog.With("component", "dragdrop"))
	analyticsService := analytics.NewService(dealStore, backendClient, cacheRepo, prometheusMetrics, appLog.With("component", "analytics"), cfg.AnalyticsTTL)

	// Hydrate the board from the backend. A failure here is not fatal: the
	// refresh endpoint and the cron job retry until the backend is reachable.
	func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout)
		defer cancel()
		deals, err := backendClient.ListDeals(ctx)
		if err != nil {
			log.Printf("⚠️  Initial deal load failed, starting with an empty board: %v", err)
			return
		}
		dealStore.Load(deals)
		prometheusMetrics.SetStoreSize(dealStore.Len())
		log.Printf("✅ Loaded %d deals from backend", len(deals))
	}()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Initialize rate limiter
	globalRateLimiter := custommw.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	// Prometheus metrics middleware
	e.Use(prometheusMetrics.Middleware())

	// CORS with restricted origins
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
	}))

	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())

	// Global rate limiting
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Dealboard API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		cacheStatus := "disabled"
		if cacheRepo != nil {
			cacheStatus = "up"
			if _, err := cacheRepo.Exists(c.Request().Context(), "health_check"); err != nil {
				cacheStatus = "down"
			}
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "healthy",
			"deals":   dealStore.Len(),
			"version": dealStore.Version(),
			"cache":   cacheStatus,
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes group with versioning middleware
	v1 := e.Group("/api/v1")
	v1.Use(custommw.APIVersionMiddleware(custommw.CurrentAPIVersion))

	// Version info endpoint (public)
	v1.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, custommw.VersionInfo(custommw.CurrentAPIVersion))
	})

	// Initialize handlers
	boardHandler := handlers.NewBoardHandler(dealStore, backendClient)
	dealsHandler := handlers.NewDealsHandler(pipelineService)
	dragHandler := handlers.NewDragHandler(coordinator, noticeBoard, prometheusMetrics)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	exportHandler := handlers.NewExportHandler(dealStore, analyticsService)

	// Board routes
	boardGroup := v1.Group("/board")
	{
		boardGroup.GET("", boardHandler.GetBoard)
		boardGroup.GET("/events", boardHandler.Events)
		boardGroup.POST("/refresh", boardHandler.Refresh)
	}

	// Deal routes
	dealsGroup := v1.Group("/deals")
	{
		dealsGroup.GET("", boardHandler.ListDeals)
		dealsGroup.GET("/:id", boardHandler.GetDeal)
		dealsGroup.PATCH("/:id/move", dealsHandler.MoveDeal)
		dealsGroup.PATCH("/:id/close", dealsHandler.CloseDeal)
		dealsGroup.PATCH("/:id/lose", dealsHandler.LoseDeal)
	}

	// Drag/drop session routes
	dragGroup := v1.Group("/drag")
	{
		dragGroup.POST("/begin", dragHandler.Begin)
		dragGroup.POST("/hover", dragHandler.Hover)
		dragGroup.POST("/drop", dragHandler.Drop)
		dragGroup.POST("/cancel", dragHandler.Cancel)
		dragGroup.GET("/session", dragHandler.Session)
		dragGroup.GET("/notices", dragHandler.Notices)
	}

	// Analytics routes
	analyticsGroup := v1.Group("/analytics")
	{
		analyticsGroup.GET("/overview", analyticsHandler.GetOverview)
		analyticsGroup.GET("/stages", analyticsHandler.GetStageBreakdown)
		analyticsGroup.GET("/agents", analyticsHandler.GetAgentPerformance)
		analyticsGroup.GET("/sources", analyticsHandler.GetSourceAnalysis)
	}

	// Export routes
	v1.GET("/exports/pipeline", exportHandler.PipelineReport)

	// Initialize cron manager for deal refresh and cache warming
	var cronManager *jobs.CronManager
	if cfg.CronEnabled {
		cronManager = jobs.NewCronManager(backendClient, dealStore, analyticsService, log.Default())
		if err := cronManager.SetupJobs(cfg.DealRefreshSpec, cfg.CacheWarmSpec); err != nil {
			log.Fatalf("❌ Failed to setup cron jobs: %v", err)
		}
		cronManager.Start()
		log.Printf("✅ Cron jobs started (refresh: %s, warm: %s)", cfg.DealRefreshSpec, cfg.CacheWarmSpec)
	} else {
		log.Printf("ℹ️  Cron jobs disabled (CRON_ENABLED=false)")
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 Dealboard API starting on %s", address)
	log.Printf("🔗 Deals backend: %s (timeout: %s)", cfg.BackendBaseURL, cfg.BackendTimeout)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if cronManager != nil {
		cronManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
