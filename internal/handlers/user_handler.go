package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mercavio/marketplace-admin/internal/dto"
	"github.com/mercavio/marketplace-admin/internal/middleware"
	"github.com/mercavio/marketplace-admin/internal/models"
	"github.com/mercavio/marketplace-admin/internal/permissions"
	"github.com/mercavio/marketplace-admin/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)

	dates, err := dateRangeParams(c)
	if err != nil {
		return badRequest(c, "Invalid date range")
	}
	filter := services.UserFilter{
		Search: c.Query("search", ""),
		Dates:  dates,
	}
	for _, r := range csvParam(c, "role") {
		role := models.Role(r)
		if !role.Valid() {
			return badRequest(c, "Invalid role filter: "+r)
		}
		filter.Roles = append(filter.Roles, role)
	}
	for _, s := range csvParam(c, "status") {
		st := models.AccountStatus(s)
		if !st.Valid() {
			return badRequest(c, "Invalid status filter: "+s)
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	page, size := pageParams(c)
	result, err := h.users.List(c.Context(), actor, filter, page, size)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(result)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	user, err := h.users.Get(c.Context(), actor, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Edit(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	var req dto.EditUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.users.Edit(c.Context(), actor, id, req.Name, req.Email)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, _ := middleware.GetActor(c)
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	action := permissions.Action(req.Action)
	if !action.Valid() || action == permissions.ActionEdit {
		return badRequest(c, "Action must be block, unblock, activate or deactivate")
	}

	user, err := h.users.ChangeStatus(c.Context(), actor, id, action)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(user)
}
