package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/illegalcall/course-notify/internal/metrics"
	"github.com/illegalcall/course-notify/internal/models"
)

// Step is the notification step of a course lifecycle. It is run once per course
// that reaches a step instance.
type Step struct {
	Settings SettingsLoader
	Resolver *Resolver
	Renderer *Renderer
	Mailer   Mailer
	// From is the no-reply sender of every notification.
	From    models.Address
	Metrics *metrics.StepMetrics
	Logger  zerolog.Logger
}

// ProcessCourse notifies every recipient of the course in resolver order.
//
// An error is only returned when the step fails before the first dispatch, which
// makes the call safe to retry. Failed dispatches are logged and the remaining
// recipients are still notified.
func (s *Step) ProcessCourse(ctx context.Context, ev models.StepEvent) (models.StepResponse, error) {
	raw, err := s.Settings.Load(ctx, ev.InstanceID)
	if err != nil {
		return models.StepResponse{}, fmt.Errorf("failed to load settings of step %d: %w", ev.InstanceID, err)
	}
	cfg, err := ParseSettings(raw)
	if err != nil {
		return models.StepResponse{}, fmt.Errorf("step %d: %w", ev.InstanceID, err)
	}

	recipients, err := s.Resolver.Resolve(ctx, ev.CourseID, cfg.RoleIDs, cfg.ExternalEmails)
	if err != nil {
		return models.StepResponse{}, err
	}

	log := s.Logger.With().
		Int64("process_id", ev.ProcessID).
		Int64("instance_id", ev.InstanceID).
		Int64("course_id", ev.CourseID).
		Logger()
	log.Info().Int("recipients", len(recipients)).Msg("Sending course notifications")

	for _, recipient := range recipients {
		s.dispatch(ctx, log, cfg, ev.CourseID, recipient)
	}

	return models.Proceed(ev), nil
}

func (s *Step) dispatch(ctx context.Context, log zerolog.Logger, cfg StepConfiguration, courseID int64, recipient Recipient) {
	kind := metrics.KindExternal
	if _, ok := recipient.(RoleRecipient); ok {
		kind = metrics.KindRole
	}

	if recipient.Address() == "" {
		log.Warn().Str("kind", kind).Msg("Skipping recipient without an email address")
		s.Metrics.ObserveSkipped()
		return
	}

	msg := models.Email{From: s.From, HTML: true}
	var userID *int64
	switch r := recipient.(type) {
	case RoleRecipient:
		id := r.User.ID
		userID = &id
		msg.To = models.Address{Name: r.User.FullName(), Email: r.User.Email}
		msg.HTML = r.User.MailFormat == models.MailFormatHTML
	case ExternalRecipient:
		msg.To = models.Address{Email: r.Email}
	}

	b := s.Renderer.Bind(ctx, courseID, userID)
	msg.Subject = b.Apply(cfg.SubjectTemplate)
	msg.PlainBody = b.Apply(cfg.PlainBodyTemplate)
	msg.HTMLBody = b.Apply(cfg.HTMLBodyTemplate)

	if err := s.Mailer.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("to", msg.To.Email).Str("kind", kind).Msg("Failed to send notification")
		s.Metrics.ObserveFailed(kind)
		return
	}
	log.Debug().Str("to", msg.To.Email).Str("kind", kind).Msg("Notification sent")
	s.Metrics.ObserveSent(kind)
}
