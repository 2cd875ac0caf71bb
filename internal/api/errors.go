package api

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
)

const retryAfterSeconds = "2"

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// errorHandler renders every error returned by a handler or middleware.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(errorResponse{Error: errorBody{
			Code:      fiberCode(fe.Code),
			Message:   fe.Message,
			Retryable: fe.Code >= fiber.StatusInternalServerError,
		}})
	}

	appErr := apperror.As(err)
	message := appErr.Message
	if appErr.Kind == apperror.KindInternal {
		zerolog.Ctx(c.UserContext()).Error().Err(err).Msg("request failed")
		if !s.cfg.IsProduction() && appErr.Err != nil {
			message = fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
	}
	if appErr.Kind == apperror.KindRateLimited || appErr.Kind == apperror.KindUpstream {
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
	}

	return c.Status(appErr.Kind.HTTPStatus()).JSON(errorResponse{Error: errorBody{
		Code:      appErr.Kind.String(),
		Message:   message,
		Field:     appErr.Field,
		Retryable: appErr.Kind.Retryable(),
	}})
}

// sessionLoading answers when the session store cannot tell whether the
// caller is signed in.
func sessionLoading(c *fiber.Ctx) error {
	c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
	return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{Error: errorBody{
		Code:      "SESSION_LOADING",
		Message:   "session state is not available yet, retry shortly",
		Retryable: true,
	}})
}

func fiberCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperror.KindNotFound.String()
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return apperror.KindValidation.String()
	}
	if status >= fiber.StatusInternalServerError {
		return apperror.KindInternal.String()
	}
	return "ERROR"
}

func jwtError(_ *fiber.Ctx, err error) error {
	return apperror.Unauthorized("missing or invalid token")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.SupportedLanguages, fl.Field().String())
	})
	return v
}

// bind parses the JSON body into dst and validates it.
func (s *Server) bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.Validation("body", "invalid request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.Validation(verrs[0].Field(), validationMessage(verrs[0]))
		}
		return apperror.Validation("body", "invalid request body")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return field + " does not match"
	case "eq":
		return field + " must be accepted"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "uuid":
		return field + " must be a valid id"
	case "url":
		return field + " must be a valid URL"
	case "language":
		return field + " is not a supported language"
	}
	return field + " is invalid"
}
