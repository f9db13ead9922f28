// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/food-ordering-backend/internal/config"
	"github.com/your-org/food-ordering-backend/internal/domain/order"
	"github.com/your-org/food-ordering-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/food-ordering-backend/internal/infrastructure/database/redis"
	"github.com/your-org/food-ordering-backend/internal/infrastructure/messaging/kafka"
	"github.com/your-org/food-ordering-backend/internal/interfaces/http"
	"github.com/your-org/food-ordering-backend/internal/interfaces/http/routes"
	"github.com/your-org/food-ordering-backend/internal/pkg/logger"
	"github.com/your-org/food-ordering-backend/internal/pkg/pdf"
	"github.com/your-org/food-ordering-backend/internal/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.Setup(cfg.Logging)
	log.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Infof("Starting %s", cfg.App.Name)

	if cfg.Telemetry.TracingEnabled {
		tp, err := tracing.Init(cfg.Telemetry.ServiceName, cfg.Telemetry.JaegerEndpoint)
		if err != nil {
			log.WithError(err).Warn("Tracing disabled")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(ctx); err != nil {
					log.WithError(err).Warn("Failed to flush traces")
				}
			}()
		}
	}

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB())
	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}
	if cfg.Database.SeedData {
		if err := migration.SeedInitialData(cfg.Database.SeedAdminEmail, cfg.Database.SeedAdminPassword, cfg.Security.BcryptCost); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
	}

	var publisher order.EventPublisher = order.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Shutdown()
		publisher = producer
		log.WithField("topic", cfg.Kafka.OrderTopic).Info("Publishing order events to Kafka")
	}

	server, err := http.NewServer(cfg, routes.Dependencies{
		DB:        db.GetDB(),
		Config:    cfg,
		Publisher: publisher,
		Receipts:  pdf.NewService(cfg),
	}, redisClient)
	if err != nil {
		log.Fatalf("Failed to build HTTP server: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}
}
