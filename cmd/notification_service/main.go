package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"team_match_service/internal/notification/app"
	"team_match_service/internal/notification/repository"
	"team_match_service/internal/notification/router"
	"team_match_service/pkg/config"
	"team_match_service/pkg/database"
	"team_match_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.NotificationService, config.EnvConfig.NotificationServiceLogPath)
	cfg := config.LoadConfig[config.Notification](config.EnvConfig.NotificationService, config.EnvConfig.NotificationServiceYAMLPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL holds the feed rows
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.PostgreSQL.Host, cfg.PostgreSQL.Port)),
			zap.Error(err),
		)
	}

	notifyRepo := repository.NewNotificationRepository(db)
	if err := notifyRepo.AutoMigrate(); err != nil {
		log.Fatalf("notifications migration failed: %v", err)
	}

	// Redis carries the live pushes
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	pubSub := repository.NewRedisPubSub(redisClient)
	feedUC := app.NewFeedUseCase(notifyRepo, pubSub, cfg.ListLimit)

	// Kafka delivers the domain events the feed is built from
	reader := database.NewKafkaReader(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		GroupID:       cfg.Kafka.GroupID,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})

	worker := app.NewIngestWorker(reader, feedUC)
	go func() {
		if err := worker.Run(ctx); err != nil {
			logger.Log.Fatal(fmt.Sprintf("ingest worker err : %v", err))
		}
	}()

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.NotificationServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r,
		app.NewNotificationWebsocketHandler(feedUC),
		app.NewNotificationHTTPHandler(feedUC),
	)

	port := ":" + cfg.Port
	log.Printf("Notification Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
