package dto

import (
	"time"

	"github.com/deskflow/helpdesk-portal/internal/domain"
)

// CreateCommentRequest payload. Setting parent_comment_id makes it a reply.
type CreateCommentRequest struct {
	Content         string  `json:"content"`
	ParentCommentID *string `json:"parent_comment_id"`
	IsInternal      bool    `json:"is_internal"`
}

// CommentResponse is one thread node with its replies.
type CommentResponse struct {
	ID              string             `json:"id"`
	ParentCommentID *string            `json:"parent_comment_id"`
	AuthorID        *string            `json:"author_id"`
	Type            domain.CommentType `json:"type"`
	IsInternal      bool               `json:"is_internal"`
	Content         string             `json:"content"`
	Metadata        map[string]any     `json:"metadata,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Replies         []CommentResponse  `json:"replies"`
}
