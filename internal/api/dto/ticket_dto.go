package dto

import (
	"time"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/policy"
)

// CreateTicketRequest payload. RequesterID is for staff filing on behalf of
// someone else.
type CreateTicketRequest struct {
	DepartmentID string                `json:"department_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	RequesterID  *string               `json:"requester_id"`
}

// UpdateTicketRequest payload; omitted fields are left unchanged.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	ExternalKey  string                `json:"external_key"`
	DepartmentID string                `json:"department_id"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	RequesterID  string                `json:"requester_id"`
	AssigneeID   *string               `json:"assignee_id"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info and what the caller may do.
type TicketDetailResponse struct {
	TicketSummary
	Description  string              `json:"description"`
	CreatedByID  string              `json:"created_by_id"`
	ClosedAt     *time.Time          `json:"closed_at"`
	Capabilities policy.Capabilities `json:"capabilities"`
}

// BulkRequest applies one operation to many tickets.
type BulkRequest struct {
	TicketIDs  []string            `json:"ticket_ids"`
	Operation  string              `json:"operation"`
	AssigneeID string              `json:"assignee_id"`
	Status     domain.TicketStatus `json:"status"`
}

// BulkResponse reports per-ticket outcomes.
type BulkResponse struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	Errors       []string `json:"errors"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	CommentID  *string   `json:"comment_id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
	URL        string    `json:"url,omitempty"`
}

// FAQEscalationRequest hands an unresolved FAQ answer over to support.
type FAQEscalationRequest struct {
	DepartmentID string                `json:"department_id"`
	Question     string                `json:"question"`
	Answer       string                `json:"answer"`
	Confidence   float64               `json:"confidence"`
	Sources      []string              `json:"sources"`
	Priority     domain.TicketPriority `json:"priority"`
	RequesterID  *string               `json:"requester_id"`
}
