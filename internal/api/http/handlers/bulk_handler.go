package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk-portal/internal/api/dto"
	"github.com/deskflow/helpdesk-portal/internal/service"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// BulkHandler applies one operation to many tickets.
type BulkHandler struct {
	bulk *service.BulkService
}

// NewBulkHandler constructs handler.
func NewBulkHandler(bulk *service.BulkService) *BulkHandler {
	return &BulkHandler{bulk: bulk}
}

// Apply POST /tickets/bulk. Per-ticket failures are reported in the body with
// a 200; only request-level problems produce an error status.
func (h *BulkHandler) Apply(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.BulkRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var op service.BulkOperation
	switch req.Operation {
	case "assign":
		op = service.AssignOperation{AssigneeID: req.AssigneeID}
	case "status":
		if req.Status == "" {
			return apperrors.NewFieldError("status", "status is required")
		}
		op = service.StatusOperation{Status: req.Status}
	default:
		return apperrors.NewFieldError("operation", "operation must be assign or status")
	}

	result, err := h.bulk.Apply(c.UserContext(), actor, req.TicketIDs, op)
	if err != nil {
		return err
	}
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return c.JSON(fiber.Map{"data": dto.BulkResponse{
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
		Errors:       errs,
	}})
}
