package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/illegalcall/course-notify/internal/config"
	"github.com/illegalcall/course-notify/internal/metrics"
	"github.com/illegalcall/course-notify/internal/models"
	"github.com/illegalcall/course-notify/internal/notification"
	"github.com/illegalcall/course-notify/pkg/kafka"
)

// StepRunner runs the notification step for one course.
type StepRunner interface {
	ProcessCourse(ctx context.Context, ev models.StepEvent) (models.StepResponse, error)
}

// StatusStore records the state of a lifecycle process.
type StatusStore interface {
	SetStatus(ctx context.Context, p models.Process) error
}

// Worker consumes step events from Kafka and runs the notification step for each.
type Worker struct {
	cfg       *config.Config
	step      StepRunner
	processes StatusStore
	consumer  sarama.ConsumerGroup
	// producer publishes step responses; nil disables publishing.
	producer sarama.SyncProducer
	metrics  *metrics.StepMetrics
	logger   zerolog.Logger
	ready    chan bool
}

func NewWorker(cfg *config.Config, step StepRunner, processes StatusStore, consumer sarama.ConsumerGroup,
	producer sarama.SyncProducer, m *metrics.StepMetrics, logger zerolog.Logger) *Worker {
	logger.Info().Msg("Initializing new Worker")
	return &Worker{
		cfg:       cfg,
		step:      step,
		processes: processes,
		consumer:  consumer,
		producer:  producer,
		metrics:   m,
		logger:    logger,
		ready:     make(chan bool),
	}
}

// Start consumes until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	w.logger.Info().Strs("topics", topics).Msg("Starting worker")

	// Start error logging for consumer errors
	go func() {
		for err := range w.consumer.Errors() {
			w.logger.Error().Err(err).Msg("Kafka consumer error received")
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				w.logger.Error().Err(err).Msg("Error from consumer.Consume")
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	select {
	case <-w.ready:
		w.logger.Info().Msg("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	<-ctx.Done()
	w.logger.Info().Msg("Context cancelled; shutting down worker")
	<-done
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	w.logger.Debug().Msg("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim handles the messages of one partition. Every message is marked,
// including failed ones: a course whose notifications were partly sent must not
// be replayed.
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := w.handleMessage(session.Context(), message); err != nil {
				w.logger.Error().Err(err).Int64("offset", message.Offset).Int32("partition", message.Partition).
					Msg("Failed to process step event")
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev models.StepEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("failed to parse step event: %w", err)
	}
	if ev.ProcessID <= 0 || ev.InstanceID <= 0 || ev.CourseID <= 0 {
		return fmt.Errorf("step event %q is missing process, instance or course id", ev.EventID)
	}

	log := w.logger.With().Str("event_id", ev.EventID).Int64("process_id", ev.ProcessID).Logger()
	w.setStatus(ctx, log, ev, models.StatusProcessing)

	resp, err := w.run(ctx, log, ev)
	if err != nil {
		w.setStatus(ctx, log, ev, models.StatusFailed)
		w.metrics.ObserveCourse(models.StatusFailed)
		return err
	}

	w.setStatus(ctx, log, ev, models.StatusProceeded)
	w.metrics.ObserveCourse(models.StatusProceeded)

	if w.producer != nil && w.cfg.Kafka.ResponseTopic != "" {
		key := strconv.FormatInt(ev.ProcessID, 10)
		if _, _, err := kafka.PublishJSON(w.producer, w.cfg.Kafka.ResponseTopic, key, resp); err != nil {
			return err
		}
	}
	log.Info().Str("action", string(resp.Action)).Msg("Step event processed")
	return nil
}

// run retries the step while it fails before dispatching. Invalid settings are
// not retried.
func (w *Worker) run(ctx context.Context, log zerolog.Logger, ev models.StepEvent) (models.StepResponse, error) {
	attempts := max(w.cfg.Kafka.RetryMax, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var resp models.StepResponse
		resp, err = w.step.ProcessCourse(ctx, ev)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, notification.ErrInvalidSettings) {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Notification step failed")
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(w.cfg.Kafka.RetryBackoff):
		case <-ctx.Done():
			return models.StepResponse{}, ctx.Err()
		}
	}
	return models.StepResponse{}, err
}

func (w *Worker) setStatus(ctx context.Context, log zerolog.Logger, ev models.StepEvent, status string) {
	p := models.Process{ID: ev.ProcessID, InstanceID: ev.InstanceID, CourseID: ev.CourseID, Status: status}
	if err := w.processes.SetStatus(ctx, p); err != nil {
		log.Error().Err(err).Str("status", status).Msg("Failed to record process status")
	}
}
