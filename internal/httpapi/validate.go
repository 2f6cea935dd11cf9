package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/park285/cheese-llm-move/pkg/movedto"
)

const (
	localMoveRequest  = "moveRequest"
	localApplyRequest = "applyRequest"
)

var validate = validator.New()

// validateMoveRequest parses and validates the JSON body of the move routes
// and stores it in Locals for the handler.
var validateMoveRequest = validateBody(localMoveRequest, func(r *movedto.MoveRequest) {
	r.FEN = strings.TrimSpace(r.FEN)
})

var validateApplyRequest = validateBody(localApplyRequest, func(r *movedto.ApplyRequest) {
	r.FEN = strings.TrimSpace(r.FEN)
	r.Move = strings.TrimSpace(r.Move)
})

func validateBody[T any](local string, normalize func(*T)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ct := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
		if !strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(movedto.MoveResponse{
				Error:  "unsupported media type",
				Code:   movedto.CodeInvalidRequest,
				Detail: "Content-Type must be application/json",
			})
		}

		req := new(T)
		if err := c.BodyParser(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(movedto.MoveResponse{
				Error:  "invalid request body",
				Code:   movedto.CodeInvalidRequest,
				Detail: err.Error(),
			})
		}
		normalize(req)

		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(movedto.MoveResponse{
				Error:  "validation failed",
				Code:   movedto.CodeInvalidRequest,
				Detail: describeValidation(err),
			})
		}

		c.Locals(local, req)
		return c.Next()
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	var details strings.Builder
	for _, fe := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", field))
		case "max":
			if fe.Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", field, fe.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return details.String()
}
