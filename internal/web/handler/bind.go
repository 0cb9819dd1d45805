package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/validation"
)

// Bind decodes the JSON body into out and validates it.
func Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "malformed request body")
	}

	return validation.Struct(out)
}

// ID parses the id path parameter.
func ID(c *fiber.Ctx) (models.ID, error) {
	id, err := models.ParseID(c.Params(ParamID))
	if err != nil {
		return models.NilID, apperror.Validation(map[string]string{ParamID: "must be a valid id"})
	}

	return id, nil
}

// ListFilter reads page, size, search and includeDeleted query parameters.
func ListFilter(c *fiber.Ctx) auth.ListFilter {
	includeDeleted, _ := strconv.ParseBool(c.Query("includeDeleted"))

	return auth.ListFilter{
		Page:           c.QueryInt("page", 1),
		Size:           c.QueryInt("size", 0),
		Search:         c.Query("search"),
		IncludeDeleted: includeDeleted,
	}
}
