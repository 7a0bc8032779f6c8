package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mercavio/marketplace-admin/internal/middleware"
	"github.com/mercavio/marketplace-admin/internal/services"
)

type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) List(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)

	dates, err := dateRangeParams(c)
	if err != nil {
		return badRequest(c, "Invalid date range")
	}
	filter := services.AuditFilter{
		Actions: csvParam(c, "action"),
		Search:  c.Query("search", ""),
		Dates:   dates,
	}

	page, size := pageParams(c)
	result, err := h.audit.List(c.Context(), actor, filter, page, size)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(result)
}
