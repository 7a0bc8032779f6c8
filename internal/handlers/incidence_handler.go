package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mercavio/marketplace-admin/internal/dto"
	"github.com/mercavio/marketplace-admin/internal/middleware"
	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/services"
)

type IncidenceHandler struct {
	incidences *services.IncidenceService
}

func NewIncidenceHandler(incidences *services.IncidenceService) *IncidenceHandler {
	return &IncidenceHandler{incidences: incidences}
}

func (h *IncidenceHandler) CreateReport(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return badRequest(c, "Missing actor")
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	inc, err := h.incidences.Report(c.Context(), actor, services.ReportRequest{
		PublicationID: req.PublicationID,
		SellerID:      req.SellerID,
		Reason:        req.Reason,
		Comment:       req.Comment,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inc)
}

func (h *IncidenceHandler) List(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)

	dates, err := dateRangeParams(c)
	if err != nil {
		return badRequest(c, "Invalid date range")
	}
	filter := services.IncidenceFilter{
		Search:    c.Query("search", ""),
		DateField: services.IncidenceDateField(c.Query("date_field", string(services.IncidenceDateCreated))),
		Dates:     dates,
	}
	for _, s := range csvParam(c, "status") {
		st := models.IncidenceStatus(s)
		if !st.Valid() {
			return badRequest(c, "Invalid status filter: "+s)
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	page, size := pageParams(c)
	result, err := h.incidences.List(c.Context(), actor, filter, page, size)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(result)
}

func (h *IncidenceHandler) Get(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid incidence ID")
	}
	inc, err := h.incidences.Get(c.Context(), actor, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(inc)
}

func (h *IncidenceHandler) Claim(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid incidence ID")
	}
	inc, err := h.incidences.Claim(c.Context(), actor, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(inc)
}

func (h *IncidenceHandler) Decide(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid incidence ID")
	}

	var req dto.DecideIncidenceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	inc, err := h.incidences.Decide(c.Context(), actor, id, models.Decision(req.Decision), req.Comment)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(inc)
}

// Sweep moves stale OPEN incidences into the review queue on demand.
func (h *IncidenceHandler) Sweep(c *fiber.Ctx) error {
	n, err := h.incidences.EnqueueOpen(c.Context(), 0)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SweepResponse{Enqueued: n})
}
