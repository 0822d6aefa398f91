package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mfl-intake/internal/api/dto"
	"github.com/spec-kit/mfl-intake/internal/auth"
	"github.com/spec-kit/mfl-intake/internal/service"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// SessionsHandler opens and describes intake sessions.
type SessionsHandler struct {
	service *service.SessionService
}

// NewSessionsHandler constructs handler.
func NewSessionsHandler(sessionService *service.SessionService) *SessionsHandler {
	return &SessionsHandler{service: sessionService}
}

// Open POST /intake/sessions.
func (h *SessionsHandler) Open(c *fiber.Ctx) error {
	opened, err := h.service.Open(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SessionOpenedResponse{
		Token:     opened.Token,
		ExpiresAt: opened.ExpiresAt,
		Session:   dto.NewSessionView(opened.Session),
	}})
}

// Current GET /intake/session.
func (h *SessionsHandler) Current(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	session, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionView(session)})
}

// Close DELETE /intake/session.
func (h *SessionsHandler) Close(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	if err := h.service.Close(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func sessionID(c *fiber.Ctx) (string, error) {
	id, ok := auth.SessionIDFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("session required")
	}
	return id, nil
}
