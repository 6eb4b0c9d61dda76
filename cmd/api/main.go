package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/course-notify/internal/api"
	"github.com/illegalcall/course-notify/internal/config"
	"github.com/illegalcall/course-notify/internal/logger"
	"github.com/illegalcall/course-notify/internal/notification"
	"github.com/illegalcall/course-notify/internal/store"
	"github.com/illegalcall/course-notify/pkg/database"
	"github.com/illegalcall/course-notify/pkg/kafka"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.New("", "").Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.Server.Environment, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database clients
	db, err := database.NewClients(ctx, cfg.Database.URL, database.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database clients")
	}
	defer db.Close()
	if err := db.CreateTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create tables")
	}
	log.Info().Msg("Connected to databases")

	// Initialize Kafka producer
	producer, err := kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Kafka producer")
	}
	defer producer.Close()
	log.Info().Msg("Connected to Kafka")

	loc, _ := cfg.Notification.Location()
	dates, err := notification.NewStrftimeFormatter(cfg.Notification.DateTimeFormat, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid DATETIME_FORMAT")
	}

	server := api.NewServer(cfg, api.Deps{
		Roles:     store.NewRoles(db.DB),
		Settings:  store.NewSettings(db.DB),
		Processes: store.NewProcesses(db.DB, db.Redis, cfg.Redis.StatusTTL, log),
		Renderer: &notification.Renderer{
			Courses: store.NewCourses(db.DB),
			Users:   store.NewUsers(db.DB),
			Dates:   dates,
			Logger:  log,
		},
		Producer: producer,
	}, log)

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	if err := server.Start(); err != nil {
		log.Error().Err(err).Msg("Server error")
		os.Exit(1)
	}
}
