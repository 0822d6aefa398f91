package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mfl-intake/internal/api/dto"
	"github.com/spec-kit/mfl-intake/internal/service"
)

// MonitorHandler exposes the status monitor of the session's ticket.
type MonitorHandler struct {
	service *service.MonitorService
}

// NewMonitorHandler constructs handler.
func NewMonitorHandler(monitorService *service.MonitorService) *MonitorHandler {
	return &MonitorHandler{service: monitorService}
}

// Current GET /intake/monitor.
func (h *MonitorHandler) Current(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	view, err := h.service.Current(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// Refresh POST /intake/monitor/refresh.
func (h *MonitorHandler) Refresh(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	view, err := h.service.Poll(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// Stop DELETE /intake/monitor.
func (h *MonitorHandler) Stop(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	session, err := h.service.Stop(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionView(session)})
}
