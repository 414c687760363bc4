package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk-portal/internal/api/dto"
	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/service"
)

// CommentsHandler serves ticket threads.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(comments *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: comments}
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	thread, err := h.comments.GetThread(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": commentResponses(thread)})
}

// AddComment POST /tickets/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.comments.AddComment(c.UserContext(), actor, c.Params("id"), service.AddCommentInput{
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
		IsInternal:      req.IsInternal,
	})
	if err != nil {
		return err
	}
	node := []*domain.CommentNode{{Comment: *comment}}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponses(node)[0]})
}
