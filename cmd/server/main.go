package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TatianaIng96/driverflow-service/internal/handler"
	"github.com/TatianaIng96/driverflow-service/internal/membership"
	mid "github.com/TatianaIng96/driverflow-service/internal/middleware"
	"github.com/TatianaIng96/driverflow-service/internal/seed"
	"github.com/TatianaIng96/driverflow-service/internal/service"
	"github.com/TatianaIng96/driverflow-service/internal/store"
	"github.com/TatianaIng96/driverflow-service/pkg/config"
	"github.com/TatianaIng96/driverflow-service/pkg/events"
	"github.com/TatianaIng96/driverflow-service/pkg/jwtutil"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
	"github.com/TatianaIng96/driverflow-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting "+appConfig.ServiceName, appConfig.LogFields()...)

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize storage
	st, err := store.Open(appConfig, log)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}

	// Change events: websocket hub, plus a Redis stream when configured
	hub := events.NewHub(log)
	sinks := []events.Sink{{Name: "hub", Publisher: hub}}
	if appConfig.Redis.Addr != "" {
		rp, err := events.NewRedisPublisher(&appConfig.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rp.Close()
		sinks = append(sinks, events.Sink{Name: "redis", Publisher: rp})
		log.Info("Publishing events to Redis stream", zap.String("stream", appConfig.Redis.Stream))
	}

	svc := service.New(membership.NewEngine(), st, events.NewFanout(sinks...), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Load(ctx); err != nil {
		log.Fatal("Failed to load state", zap.Error(err))
	}

	if appConfig.SeedDemo {
		n, err := seed.Run(ctx, svc, log)
		if err != nil {
			log.Fatal("Failed to seed demo operators", zap.Error(err))
		}
		log.Info("Demo operators seeded", zap.Int("created", n))
	}

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(mid.MetricsMiddleware)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: appConfig.Server.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(appConfig.RateLimit.RequestsPerSecond),
			Burst:     appConfig.RateLimit.Burst,
			ExpiresIn: appConfig.RateLimit.ExpiresIn,
		},
	)))

	// Routes
	handler.RegisterRoutes(e, handler.New(svc, hub), jwt)

	// Start server
	port := appConfig.Server.Port
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
