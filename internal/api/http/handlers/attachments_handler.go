package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk-portal/internal/api/dto"
	"github.com/deskflow/helpdesk-portal/internal/service"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// AttachmentsHandler uploads and lists ticket files.
type AttachmentsHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachments *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{attachments: attachments}
}

// Upload POST /tickets/:id/attachments (multipart field "file").
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewFieldError("file", "multipart field file is required")
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	att, err := h.attachments.Upload(c.UserContext(), actor, c.Params("id"), service.UploadInput{
		FileName:  header.Filename,
		MimeType:  header.Header.Get(fiber.HeaderContentType),
		SizeBytes: header.Size,
		CommentID: optionalFormValue(c, "comment_id"),
		Content:   file,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(att)})
}

// List GET /tickets/:id/attachments.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	items, err := h.attachments.List(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.AttachmentResponse, 0, len(items))
	for i := range items {
		resp = append(resp, attachmentResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

func optionalFormValue(c *fiber.Ctx, key string) *string {
	if val := c.FormValue(key); val != "" {
		return &val
	}
	return nil
}
