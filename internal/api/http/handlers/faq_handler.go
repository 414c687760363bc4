package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk-portal/internal/api/dto"
	"github.com/deskflow/helpdesk-portal/internal/service"
)

// FAQHandler turns unresolved FAQ answers into tickets.
type FAQHandler struct {
	tickets *service.TicketService
}

// NewFAQHandler constructs handler.
func NewFAQHandler(tickets *service.TicketService) *FAQHandler {
	return &FAQHandler{tickets: tickets}
}

// Escalate POST /faq/escalations.
func (h *FAQHandler) Escalate(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.FAQEscalationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.EscalateFromFAQ(c.UserContext(), actor, service.FAQEscalationInput{
		DepartmentID: req.DepartmentID,
		Question:     req.Question,
		Answer:       req.Answer,
		Confidence:   req.Confidence,
		Sources:      req.Sources,
		Priority:     req.Priority,
		RequesterID:  req.RequesterID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}
