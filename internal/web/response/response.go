// Package response renders the JSON envelope shared by every endpoint.
package response

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/municipal-dp/digital-profile/internal/apperror"
)

// Envelope is the body of every response. Absent parts are null.
type Envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data"`
	Message   *string    `json:"message"`
	Meta      any        `json:"meta"`
	Error     *ErrorBody `json:"error"`
	Timestamp time.Time  `json:"timestamp"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Status  int            `json:"status"`
}

// PageMeta is the meta part of paged lists.
type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// NewPageMeta computes the page count.
func NewPageMeta(page, size int, total int64) PageMeta {
	var pages int64
	if size > 0 {
		pages = (total + int64(size) - 1) / int64(size)
	}

	return PageMeta{Page: page, Size: size, Total: total, TotalPages: pages}
}

func now() time.Time {
	return time.Now().UTC()
}

// OK sends data with status 200.
func OK(c *fiber.Ctx, data any) error {
	return send(c, fiber.StatusOK, data, "", nil)
}

// Message sends data and a message with status 200.
func Message(c *fiber.Ctx, data any, message string) error {
	return send(c, fiber.StatusOK, data, message, nil)
}

// Created sends data and a message with status 201.
func Created(c *fiber.Ctx, data any, message string) error {
	return send(c, fiber.StatusCreated, data, message, nil)
}

// Paged sends a list with page metadata.
func Paged(c *fiber.Ctx, items any, meta PageMeta) error {
	return send(c, fiber.StatusOK, items, "", meta)
}

func send(c *fiber.Ctx, status int, data any, message string, meta any) error {
	env := Envelope{Success: true, Data: data, Meta: meta, Timestamp: now()}
	if message != "" {
		env.Message = &message
	}

	return c.Status(status).JSON(env)
}

// Fail sends err with its declared status.
func Fail(c *fiber.Ctx, err *apperror.Error) error {
	status := err.HTTPStatus()
	message := err.Message

	return c.Status(status).JSON(Envelope{
		Success: false,
		Message: &message,
		Error: &ErrorBody{
			Code:    err.Code(),
			Message: message,
			Details: err.Details,
			Status:  status,
		},
		Timestamp: now(),
	})
}
