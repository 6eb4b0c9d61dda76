package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illegalcall/course-notify/internal/config"
	"github.com/illegalcall/course-notify/internal/logger"
	"github.com/illegalcall/course-notify/internal/mailer"
	"github.com/illegalcall/course-notify/internal/metrics"
	"github.com/illegalcall/course-notify/internal/models"
	"github.com/illegalcall/course-notify/internal/notification"
	"github.com/illegalcall/course-notify/internal/store"
	"github.com/illegalcall/course-notify/internal/worker"
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
	log.Info().Msg("Connected to databases")

	// Initialize Kafka consumer and response producer
	consumer, err := kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Group, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Kafka consumer")
	}
	defer consumer.Close()

	var producer sarama.SyncProducer
	if cfg.Kafka.ResponseTopic != "" {
		producer, err = kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Kafka producer")
		}
		defer producer.Close()
	}
	log.Info().Msg("Connected to Kafka")

	var sender notification.Mailer
	switch {
	case cfg.SMTP.Host != "":
		sender = mailer.NewSMTP(mailer.Config{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			TLSPolicy: cfg.SMTP.TLSPolicy,
			Timeout:   cfg.SMTP.Timeout,
		}, log)
	case cfg.IsProduction():
		log.Fatal().Msg("SMTP_HOST is required in production")
	default:
		log.Warn().Msg("SMTP_HOST not set, notifications are only recorded in memory")
		sender = mailer.NewMemory()
	}

	loc, _ := cfg.Notification.Location()
	dates, err := notification.NewStrftimeFormatter(cfg.Notification.DateTimeFormat, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid DATETIME_FORMAT")
	}

	stepMetrics := metrics.NewStepMetrics("coursenotify", prometheus.DefaultRegisterer)
	courses := store.NewCourses(db.DB)
	step := &notification.Step{
		Settings: store.NewSettings(db.DB),
		Resolver: &notification.Resolver{
			Courses: courses,
			Members: store.NewRoles(db.DB),
			Logger:  log,
		},
		Renderer: &notification.Renderer{
			Courses: courses,
			Users:   store.NewUsers(db.DB),
			Dates:   dates,
			Logger:  log,
		},
		Mailer:  sender,
		From:    models.Address{Name: cfg.Notification.NoReplyName, Email: cfg.Notification.NoReplyAddress},
		Metrics: stepMetrics,
		Logger:  log,
	}

	// Expose metrics
	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server error")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// Create and start worker
	processes := store.NewProcesses(db.DB, db.Redis, cfg.Redis.StatusTTL, log)
	w := worker.NewWorker(cfg, step, processes, consumer, producer, stepMetrics, log)
	if err := w.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Worker error")
	}
}
