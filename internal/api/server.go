package api

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/illegalcall/course-notify/internal/config"
	"github.com/illegalcall/course-notify/internal/models"
	"github.com/illegalcall/course-notify/internal/notification"
)

// RoleLister lists the roles offered in the settings form.
type RoleLister interface {
	All(ctx context.Context) ([]models.Role, error)
}

// SettingsStore reads and writes step instance settings.
type SettingsStore interface {
	notification.SettingsLoader
	Save(ctx context.Context, instanceID int64, settings map[string]string) error
}

// ProcessReader returns the recorded state of a lifecycle process.
type ProcessReader interface {
	Get(ctx context.Context, id int64) (models.Process, error)
}

// Deps are the collaborators of the API server.
type Deps struct {
	Roles     RoleLister
	Settings  SettingsStore
	Processes ProcessReader
	Renderer  *notification.Renderer
	Producer  sarama.SyncProducer
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	deps     Deps
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewServer(cfg *config.Config, deps Deps, logger zerolog.Logger) *Server {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestLogger(logger))
	if cfg.Server.MaxRequests > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.Server.MaxRequests,
			Expiration: time.Minute,
		}))
	}

	server := &Server{
		app:      app,
		cfg:      cfg,
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}

	// Routes
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	api := s.app.Group("/api")

	// Public routes
	api.Post("/login", s.handleLogin)

	// Protected routes
	protected := api.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
	}))
	protected.Get("/roles", s.handleListRoles)
	protected.Get("/placeholders", s.handleListPlaceholders)
	protected.Get("/steps/:id/settings", s.handleGetSettings)
	protected.Post("/steps/:id/settings", s.handleSaveSettings)
	protected.Post("/steps/:id/preview", s.handlePreview)
	protected.Post("/steps/:id/trigger", s.handleTrigger)
	protected.Get("/processes/:id", s.handleGetProcess)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown stops accepting requests and waits for in-flight ones up to timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// requestLogger writes one structured line per request.
func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		evt := logger.Info()
		if status >= fiber.StatusInternalServerError {
			evt = logger.Error().Err(err)
		}
		evt.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("ip", c.IP()).
			Msg("http_request")
		return err
	}
}

func (s *Server) handleListRoles(c *fiber.Ctx) error {
	roles, err := s.deps.Roles.All(c.UserContext())
	if err != nil {
		s.logger.Error().Err(err).Msg("Error fetching roles")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch roles"})
	}

	type roleView struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	views := make([]roleView, len(roles))
	for i, r := range roles {
		views[i] = roleView{ID: r.ID, Name: r.DisplayName()}
	}
	return c.JSON(fiber.Map{"roles": views})
}

func (s *Server) handleListPlaceholders(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"placeholders": notification.Placeholders})
}
