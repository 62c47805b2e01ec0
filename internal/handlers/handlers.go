// Package handlers exposes the marketplace services over HTTP. Handlers
// return errors; ErrorHandler turns them into responses.
package handlers

import (
	"errors"
	"fmt"

	"flashdeal/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

// ValidationError carries per-field failures of a request body.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// bind parses the request body into dst and validates its struct tags.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return check(dst)
}

func check(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Invalid request body")
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &ValidationError{Fields: fields}
}

// paramID reads a positive integer path parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id < 1 {
		return 0, apperr.Validation(fmt.Sprintf("invalid %s", name))
	}
	return uint(id), nil
}

// ErrorHandler renders errors returned by handlers. Internal failures are
// logged with the request id and reported without detail.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  verr.Fields,
			})
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return c.Status(ferr.Code).JSON(fiber.Map{"message": ferr.Message})
		}

		kind := apperr.KindOf(err)
		if kind == apperr.KindInternal {
			log.Error("request failed",
				zap.String("request_id", requestID(c)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(apperr.HTTPStatus(kind)).JSON(fiber.Map{"message": apperr.PublicMessage(err)})
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}
