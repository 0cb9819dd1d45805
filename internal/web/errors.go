package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/web/response"
)

// ErrorHandler renders every error of the chain in the response envelope. fiber errors keep
// their status, anything that is not an apperror becomes an internal error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := apperror.Kind(strings.ToUpper(strings.ReplaceAll(http.StatusText(fe.Code), " ", "_")))
		return response.Fail(c, apperror.New(kind, fe.Message).WithStatus(fe.Code))
	}

	appErr := apperror.From(err)
	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("request failed")

		// internal causes are not shown to clients
		appErr = apperror.New(appErr.Kind, "internal server error").WithStatus(appErr.HTTPStatus())
	}

	return response.Fail(c, appErr)
}
