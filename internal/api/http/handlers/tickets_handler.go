package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mfl-intake/internal/api/dto"
	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/service"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// TicketsHandler serves the paginated ticket list.
type TicketsHandler struct {
	service *service.TicketListService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(listService *service.TicketListService) *TicketsHandler {
	return &TicketsHandler{service: listService}
}

// List GET /intake/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	page, err := h.service.Page(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": page})
}

// UpdateView PATCH /intake/tickets/view.
func (h *TicketsHandler) UpdateView(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateViewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == nil && req.PageSize == nil {
		return apperrors.NewValidationError("status or page_size required", nil)
	}
	view, err := h.service.UpdateView(c.UserContext(), id, service.ViewUpdate{Status: req.Status, PageSize: req.PageSize})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// Navigate POST /intake/tickets/view/navigate.
func (h *TicketsHandler) Navigate(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.NavigateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	action := domain.NavAction(strings.ToLower(strings.TrimSpace(req.Action)))
	view, err := h.service.Navigate(c.UserContext(), id, action, req.Page)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}
