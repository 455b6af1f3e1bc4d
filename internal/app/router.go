package app

import (
	"context"
	"database/sql"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"carrent/internal/handler"
	"carrent/internal/maps"
	"carrent/internal/middleware"
	"carrent/web"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CarHandler     *handler.CarHandler
	BookingHandler *handler.BookingHandler
	DepositHandler *handler.DepositHandler
	WizardHandler  *handler.WizardHandler
	TileHandler    *handler.TileHandler
	GeocodeHandler *handler.GeocodeHandler
	Templates      *template.Template
	DB             *sql.DB
	RedisClient    *redis.Client
	MapLoader      *maps.Loader
	Metrics        middleware.HTTPObserver
	Gatherer       prometheus.Gatherer
	NewRelicApp    *newrelic.Application
	Logger         *zap.Logger
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware(deps.Logger))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))
	}

	if deps.Templates != nil {
		router.SetHTMLTemplate(deps.Templates)
	}
	router.StaticFS("/static", http.FS(web.Static()))

	// Health check.
	router.GET("/health", healthHandler(deps))

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/booking")
	})

	// Booking wizard pages.
	wizard := router.Group("/booking")
	{
		wizard.GET("", deps.WizardHandler.Page)
		wizard.POST("", deps.BookingHandler.SubmitForm)
		wizard.GET("/state", deps.WizardHandler.State)
		wizard.POST("/dates", deps.WizardHandler.Dates)
		wizard.POST("/car", deps.WizardHandler.Car)
		wizard.POST("/next", deps.WizardHandler.Next)
		wizard.POST("/back", deps.WizardHandler.Back)
		wizard.POST("/location", deps.WizardHandler.Location)
		wizard.POST("/pickup", deps.WizardHandler.Pickup)
		wizard.POST("/pin", deps.WizardHandler.Pin)
		wizard.POST("/pin/clear", deps.WizardHandler.ClearPin)
		wizard.POST("/contact", deps.WizardHandler.Contact)
		wizard.POST("/submit", deps.WizardHandler.Submit)
	}

	router.GET("/order/:id", deps.BookingHandler.OrderPage)
	router.GET("/tiles/:z/:x/:y", deps.TileHandler.Tile)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Car routes.
		cars := v1.Group("/cars")
		{
			cars.GET("", deps.CarHandler.ListCars)
			cars.GET("/availability", deps.CarHandler.Availability)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.GET("/:id/receipt.pdf", deps.BookingHandler.Receipt)
			bookings.GET("/:id/notifications", deps.BookingHandler.Notifications)
			bookings.POST("/:id/deposit", deps.DepositHandler.PayDeposit)
		}

		v1.GET("/deposits/:id", deps.DepositHandler.GetDeposit)
		v1.GET("/geocode/reverse", deps.GeocodeHandler.Reverse)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Idempotent-Replayed"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// healthHandler reports the dependencies the booking flow relies on. The
// map loader state is informational; a failed map only disables delivery.
func healthHandler(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}

		if deps.DB != nil {
			if err := deps.DB.PingContext(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks["database"] = err.Error()
			} else {
				checks["database"] = "ok"
			}
		}
		if deps.RedisClient != nil {
			if err := deps.RedisClient.Ping(ctx).Err(); err != nil {
				status = http.StatusServiceUnavailable
				checks["redis"] = err.Error()
			} else {
				checks["redis"] = "ok"
			}
		}
		if deps.MapLoader != nil {
			checks["map"] = deps.MapLoader.State().String()
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "checks": checks})
	}
}
