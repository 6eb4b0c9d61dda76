package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/illegalcall/course-notify/internal/models"
	"github.com/illegalcall/course-notify/internal/notification"
	"github.com/illegalcall/course-notify/internal/store"
	"github.com/illegalcall/course-notify/pkg/kafka"
)

func instanceID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid step ID",
		})
	}
	return int64(id), nil
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	id, err := instanceID(c)
	if id == 0 {
		return err
	}

	settings, err := s.deps.Settings.Load(c.UserContext(), id)
	if err != nil {
		s.logger.Error().Err(err).Int64("instance_id", id).Msg("Error loading step settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	if len(settings) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Step not configured"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// contentHTML reads the HTML template, which rich text editors post either as a
// string or as {"text": ..., "format": ...}.
func contentHTML(body []byte) string {
	v := gjson.GetBytes(body, notification.SettingContentHTML)
	if v.IsObject() {
		return v.Get("text").String()
	}
	return v.String()
}

func (s *Server) handleSaveSettings(c *fiber.Ctx) error {
	id, err := instanceID(c)
	if id == 0 {
		return err
	}

	var req models.StepSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.ContentHTML = contentHTML(c.Body())
	if ok, err := s.check(c, &req); !ok {
		return err
	}

	roles := make([]models.RoleID, len(req.Roles))
	for i, r := range req.Roles {
		roles[i] = models.RoleID(strconv.FormatInt(r, 10))
	}
	cfg := notification.StepConfiguration{
		RoleIDs:           roles,
		ExternalEmails:    notification.SplitExternalEmails(req.Emails),
		SubjectTemplate:   req.Subject,
		PlainBodyTemplate: req.Content,
		HTMLBodyTemplate:  req.ContentHTML,
	}

	settings := cfg.Settings()
	if err := s.deps.Settings.Save(c.UserContext(), id, settings); err != nil {
		s.logger.Error().Err(err).Int64("instance_id", id).Msg("Error saving step settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}

	s.logger.Info().Int64("instance_id", id).Int("roles", len(roles)).Msg("Step settings saved")
	return c.JSON(fiber.Map{"settings": settings})
}

func (s *Server) loadConfiguration(c *fiber.Ctx, id int64) (notification.StepConfiguration, bool, error) {
	raw, err := s.deps.Settings.Load(c.UserContext(), id)
	if err != nil {
		s.logger.Error().Err(err).Int64("instance_id", id).Msg("Error loading step settings")
		return notification.StepConfiguration{}, false,
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	cfg, err := notification.ParseSettings(raw)
	if err != nil {
		return notification.StepConfiguration{}, false,
			c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return cfg, true, nil
}

func (s *Server) handlePreview(c *fiber.Ctx) error {
	id, err := instanceID(c)
	if id == 0 {
		return err
	}

	var req models.PreviewRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}
	cfg, ok, err := s.loadConfiguration(c, id)
	if !ok {
		return err
	}

	b := s.deps.Renderer.Bind(c.UserContext(), req.CourseID, req.UserID)
	return c.JSON(models.PreviewResponse{
		Subject:     b.Apply(cfg.SubjectTemplate),
		Content:     b.Apply(cfg.PlainBodyTemplate),
		ContentHTML: b.Apply(cfg.HTMLBodyTemplate),
	})
}

func (s *Server) handleTrigger(c *fiber.Ctx) error {
	id, err := instanceID(c)
	if id == 0 {
		return err
	}

	var req models.TriggerRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}
	if _, ok, err := s.loadConfiguration(c, id); !ok {
		return err
	}

	ev := models.StepEvent{
		EventID:    uuid.NewString(),
		ProcessID:  req.ProcessID,
		InstanceID: id,
		CourseID:   req.CourseID,
	}
	key := strconv.FormatInt(ev.ProcessID, 10)
	if _, _, err := kafka.PublishJSON(s.deps.Producer, s.cfg.Kafka.Topic, key, ev); err != nil {
		s.logger.Error().Err(err).Str("event_id", ev.EventID).Msg("Failed to queue step event")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to queue step event"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"event": ev})
}

func (s *Server) handleGetProcess(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid process ID"})
	}

	p, err := s.deps.Processes.Get(c.UserContext(), int64(id))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Process not found"})
	}
	if err != nil {
		s.logger.Error().Err(err).Int("process_id", id).Msg("Error fetching process")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch process"})
	}
	return c.JSON(fiber.Map{"process": p})
}
