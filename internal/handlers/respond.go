package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/mercavio/marketplace-admin/internal/dto"
	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/query"
)

// respondErr maps the error taxonomy to HTTP. Business errors become
// 4xx with their message; anything else is a system failure: 500,
// logged, and captured in Sentry.
func respondErr(c *fiber.Ctx, err error) error {
	var ah models.AlreadyHeldError
	var nc models.NotClaimableError
	var is models.InvalidStateError

	switch {
	case errors.Is(err, models.ErrNotFound):
		return errResp(c, fiber.StatusNotFound, err)
	case errors.As(err, &ah), errors.Is(err, models.ErrDuplicateAppeal), errors.Is(err, models.ErrEmailTaken):
		return errResp(c, fiber.StatusConflict, err)
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrNotOwner):
		return errResp(c, fiber.StatusForbidden, err)
	case errors.As(err, &nc), errors.As(err, &is), errors.Is(err, models.ErrNotEligible):
		return errResp(c, fiber.StatusUnprocessableEntity, err)
	case errors.Is(err, models.ErrInvalidArgument):
		return errResp(c, fiber.StatusBadRequest, err)
	}

	slog.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err.Error())
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func errResp(c *fiber.Ctx, code int, err error) error {
	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

// pageParams reads zero-based page and size query parameters.
func pageParams(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "0"))
	size, _ = strconv.Atoi(c.Query("size", strconv.Itoa(query.DefaultPageSize)))
	return page, size
}

// csvParam splits a comma-separated query parameter.
func csvParam(c *fiber.Ctx, key string) []string {
	raw := c.Query(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dateRangeParams reads RFC3339 "from"/"to" query parameters.
func dateRangeParams(c *fiber.Ctx) (query.DateRange, error) {
	var r query.DateRange
	if from := c.Query("from", ""); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return r, err
		}
		r.From = t
	}
	if to := c.Query("to", ""); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return r, err
		}
		r.To = t
	}
	return r, nil
}
