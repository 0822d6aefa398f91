package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mfl-intake/internal/api/dto"
	"github.com/spec-kit/mfl-intake/internal/domain"
	"github.com/spec-kit/mfl-intake/internal/service"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

// IntakeHandler serves the intake form and its duplicate workflow.
type IntakeHandler struct {
	intake *service.IntakeService
	form   *service.FormService
}

// NewIntakeHandler constructs handler.
func NewIntakeHandler(intake *service.IntakeService, form *service.FormService) *IntakeHandler {
	return &IntakeHandler{intake: intake, form: form}
}

// Form GET /intake/form. ?refresh=true bypasses the metadata cache.
func (h *IntakeHandler) Form(c *fiber.Ctx) error {
	var (
		fields []domain.FieldDescriptor
		err    error
	)
	if c.QueryBool("refresh") {
		fields, err = h.form.Refresh(c.UserContext())
	} else {
		fields, err = h.form.Fields(c.UserContext())
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fields})
}

// Submit POST /intake/tickets. 201 when created, 202 when a duplicate
// decision is pending.
func (h *IntakeHandler) Submit(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	out, err := h.intake.Submit(c.UserContext(), id, req.Payload())
	if err != nil {
		return err
	}
	return respondOutcome(c, out)
}

// Confirm POST /intake/duplicates/confirm.
func (h *IntakeHandler) Confirm(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	out, err := h.intake.Confirm(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respondOutcome(c, out)
}

// Cancel POST /intake/duplicates/cancel.
func (h *IntakeHandler) Cancel(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	session, err := h.intake.Cancel(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionView(session)})
}

func respondOutcome(c *fiber.Ctx, out *service.SubmitOutcome) error {
	status := http.StatusAccepted
	if out.Created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.NewSubmitResponse(out)})
}
