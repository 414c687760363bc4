package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk-portal/internal/api/dto"
	"github.com/deskflow/helpdesk-portal/internal/auth"
	"github.com/deskflow/helpdesk-portal/internal/domain"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

func currentActor(c *fiber.Ctx) (*domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	var parts []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// pagination reads page/page_size, capping page_size at 100.
func pagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}
	return pageSize, (page - 1) * pageSize
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		ExternalKey:  ticket.ExternalKey,
		DepartmentID: ticket.DepartmentID,
		Title:        ticket.Title,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		RequesterID:  ticket.RequesterID,
		AssigneeID:   ticket.AssigneeID,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func commentResponses(nodes []*domain.CommentNode) []dto.CommentResponse {
	resp := make([]dto.CommentResponse, 0, len(nodes))
	for _, node := range nodes {
		resp = append(resp, dto.CommentResponse{
			ID:              node.ID,
			ParentCommentID: node.ParentCommentID,
			AuthorID:        node.AuthorID,
			Type:            node.Type,
			IsInternal:      node.IsInternal,
			Content:         node.Content,
			Metadata:        node.Metadata,
			CreatedAt:       node.CreatedAt,
			Replies:         commentResponses(node.Replies),
		})
	}
	return resp
}

func attachmentResponse(att *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         att.ID,
		CommentID:  att.CommentID,
		FileName:   att.FileName,
		MimeType:   att.MimeType,
		SizeBytes:  att.SizeBytes,
		UploadedBy: att.UploadedBy,
		CreatedAt:  att.CreatedAt,
		URL:        att.URL,
	}
}

func actorResponse(actor *domain.Actor) dto.ActorResponse {
	return dto.ActorResponse{
		ID:           actor.ID,
		Name:         actor.Name,
		Email:        actor.Email,
		Role:         actor.Role,
		DepartmentID: actor.DepartmentID,
	}
}
