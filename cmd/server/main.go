// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/router"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	utils.ConfigureLogger(cfg.Log.Level, cfg.IsProduction())

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	gateway, err := services.NewStripeGateway(cfg.Payment.StripeSecretKey)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize payment gateway")
	}

	// Checkout cannot run without all three tiers, so a partial set stops startup.
	rates, err := services.ResolveShippingRates(startupCtx, cfg.Payment, gateway)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to resolve shipping rates")
	}

	var geocoder services.Geocoder
	if cfg.Geocoding.APIKey != "" {
		var cache services.GeocodeCache
		if cfg.Redis.Enabled() {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr(),
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer redisClient.Close()

			if err := redisClient.Ping(startupCtx).Err(); err != nil {
				logrus.WithError(err).Warn("Redis unavailable, geocoding results will not be cached")
			}
			cache = services.NewRedisGeocodeCache(redisClient, time.Duration(cfg.Geocoding.CacheTTLMinutes)*time.Minute)
		}
		geocoder = services.NewPositionstackGeocoder(cfg.Geocoding, cache)
	} else {
		logrus.Warn("Geocoding API key not set, orders will be placed without coordinates")
	}

	var publisher services.OrderEventPublisher = services.LogOrderPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := services.NewKafkaOrderPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logrus.WithError(err).Error("Failed to close order event publisher")
			}
		}()
		publisher = kafkaPublisher
	}

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize storage")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg, router.Dependencies{
		Gateway:       gateway,
		Geocoder:      geocoder,
		Publisher:     publisher,
		ShippingRates: rates,
		Storage:       storage,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Environment,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}
