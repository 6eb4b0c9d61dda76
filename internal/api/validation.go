package api

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// validationBody is the payload of a 400 caused by struct validation.
type validationBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

func validationResponse(err error) validationBody {
	fields := map[string][]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			fields[field] = append(fields[field], fe.Tag())
		}
	}
	if len(fields) == 0 {
		return validationBody{Error: err.Error(), Fields: fields}
	}
	return validationBody{Error: "validation_failed", Fields: fields}
}

// bind parses the JSON body into req and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) bind(c *fiber.Ctx, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	return s.check(c, req)
}

func (s *Server) check(c *fiber.Ctx, req any) (bool, error) {
	if err := s.validate.Struct(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(validationResponse(err))
	}
	return true, nil
}
