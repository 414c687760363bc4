package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/policy"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// BlobStore keeps attachment content.
type BlobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key, fileName string, expiry time.Duration) (string, error)
}

// AttachmentService stores ticket files in the blob store and their metadata
// in Postgres.
type AttachmentService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	blobs       BlobStore
	logger      *zap.Logger
	maxBytes    int64
	urlExpiry   time.Duration
}

// AttachmentDependencies bundles collaborators for AttachmentService.
type AttachmentDependencies struct {
	TicketRepo     repository.TicketRepository
	AttachmentRepo repository.AttachmentRepository
	Blobs          BlobStore
	Logger         *zap.Logger
	MaxBytes       int64
	URLExpiry      time.Duration
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	CommentID *string
	Content   io.Reader
}

// NewAttachmentService creates the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.URLExpiry <= 0 {
		deps.URLExpiry = 15 * time.Minute
	}
	return &AttachmentService{
		tickets:     deps.TicketRepo,
		attachments: deps.AttachmentRepo,
		blobs:       deps.Blobs,
		logger:      deps.Logger,
		maxBytes:    deps.MaxBytes,
		urlExpiry:   deps.URLExpiry,
	}
}

// Upload stores a file against a ticket the actor can view.
func (s *AttachmentService) Upload(ctx context.Context, actor *domain.Actor, ticketID string, input UploadInput) (*domain.Attachment, error) {
	fileName := path.Base(strings.TrimSpace(input.FileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, apperrors.NewFieldError("file", "file name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, apperrors.NewFieldError("file", "file is empty")
	}
	if s.maxBytes > 0 && input.SizeBytes > s.maxBytes {
		return nil, apperrors.NewValidationError("file is too large",
			map[string]any{"field": "file", "max_bytes": s.maxBytes})
	}

	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.Resolve(actor, ticket).CanView {
		return nil, apperrors.NewPermissionDenied("not allowed to attach files to ticket", map[string]any{"ticket_id": ticket.ID})
	}

	mimeType := input.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	key := fmt.Sprintf("tickets/%s/%s", ticket.ID, uuid.NewString())
	if err := s.blobs.Put(ctx, key, input.Content, input.SizeBytes, mimeType); err != nil {
		return nil, apperrors.NewUpstreamUnavailable("blob store", err)
	}

	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		CommentID:  input.CommentID,
		StorageKey: key,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  input.SizeBytes,
		UploadedBy: actor.ID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		if rmErr := s.blobs.Remove(ctx, key); rmErr != nil {
			s.logger.Warn("orphaned attachment blob", zap.String("storage_key", key), zap.Error(rmErr))
		}
		return nil, apperrors.MapError(err)
	}
	s.sign(ctx, attachment)
	return attachment, nil
}

// List returns the ticket's attachments with short-lived download URLs.
func (s *AttachmentService) List(ctx context.Context, actor *domain.Actor, ticketID string) ([]domain.Attachment, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.Resolve(actor, ticket).CanView {
		return nil, apperrors.NewPermissionDenied("not allowed to view ticket", map[string]any{"ticket_id": ticket.ID})
	}
	items, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.Attachment{}
	}
	for i := range items {
		s.sign(ctx, &items[i])
	}
	return items, nil
}

func (s *AttachmentService) sign(ctx context.Context, attachment *domain.Attachment) {
	url, err := s.blobs.PresignGet(ctx, attachment.StorageKey, attachment.FileName, s.urlExpiry)
	if err != nil {
		s.logger.Warn("presign attachment failed", zap.String("attachment_id", attachment.ID), zap.Error(err))
		return
	}
	attachment.URL = url
}
