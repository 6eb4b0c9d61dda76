package api

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/illegalcall/course-notify/internal/models"
)

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}

	if !s.validCredentials(req.Username, req.Password) {
		s.logger.Warn().Str("username", req.Username).Msg("Rejected login attempt")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": req.Username,
		"exp":      now.Add(s.cfg.JWT.Expiration).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	s.logger.Info().Str("username", req.Username).Msg("User successfully authenticated")

	return c.JSON(models.LoginResponse{
		Token:     tokenString,
		TokenType: "Bearer",
	})
}

// validCredentials checks against the configured operator account. An empty
// configured password disables login.
func (s *Server) validCredentials(username, password string) bool {
	admin := s.cfg.Admin
	if admin.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(admin.Password)) == 1
	return userOK && passOK
}
