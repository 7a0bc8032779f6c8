package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mercavio/marketplace-admin/internal/dto"
	"github.com/mercavio/marketplace-admin/internal/middleware"
	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/services"
)

type AppealHandler struct {
	appeals *services.AppealService
}

func NewAppealHandler(appeals *services.AppealService) *AppealHandler {
	return &AppealHandler{appeals: appeals}
}

// Create opens an appeal against a rejected incidence decision. Routed
// under /incidences/:id/appeal; the caller must be the seller.
func (h *AppealHandler) Create(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	incidenceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid incidence ID")
	}

	var req dto.CreateAppealRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	appeal, err := h.appeals.Create(c.Context(), actor, incidenceID, req.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(appeal)
}

// GetByIncidence looks up the appeal attached to an incidence. Routed
// under /incidences/:id/appeal.
func (h *AppealHandler) GetByIncidence(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	incidenceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid incidence ID")
	}
	appeal, err := h.appeals.GetByIncidence(c.Context(), actor, incidenceID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(appeal)
}

func (h *AppealHandler) List(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)

	dates, err := dateRangeParams(c)
	if err != nil {
		return badRequest(c, "Invalid date range")
	}
	filter := services.AppealFilter{
		Search: c.Query("search", ""),
		Dates:  dates,
	}
	for _, s := range csvParam(c, "status") {
		st := models.AppealStatus(s)
		if !st.Valid() {
			return badRequest(c, "Invalid status filter: "+s)
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	page, size := pageParams(c)
	result, err := h.appeals.List(c.Context(), actor, filter, page, size)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(result)
}

func (h *AppealHandler) Assign(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid appeal ID")
	}

	var req dto.AssignReviewerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	appeal, err := h.appeals.Assign(c.Context(), actor, id, req.ModeratorID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(appeal)
}

func (h *AppealHandler) AutoAssign(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid appeal ID")
	}

	appeal, err := h.appeals.AutoAssign(c.Context(), actor, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(appeal)
}

func (h *AppealHandler) Decide(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid appeal ID")
	}

	var req dto.DecideAppealRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	appeal, err := h.appeals.Decide(c.Context(), actor, id, models.AppealDecision(req.Decision), req.Comment)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(appeal)
}
