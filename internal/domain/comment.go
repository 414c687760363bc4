package domain

import "time"

// CommentType differentiates user-authored entries from system entries.
type CommentType string

const (
	CommentTypeComment      CommentType = "COMMENT"
	CommentTypeReply        CommentType = "REPLY"
	CommentTypeStatusChange CommentType = "STATUS_CHANGE"
	CommentTypeAssignment   CommentType = "ASSIGNMENT"
	CommentTypeEscalation   CommentType = "ESCALATION"
)

// IsSystem reports whether the type is only ever produced by the workflow.
func (t CommentType) IsSystem() bool {
	switch t {
	case CommentTypeStatusChange, CommentTypeAssignment, CommentTypeEscalation:
		return true
	}
	return false
}

// MaxCommentDepth is the deepest nesting below a root comment.
const MaxCommentDepth = 2

// MaxCommentLength bounds trimmed comment content, in characters.
const MaxCommentLength = 5000

// Comment is an entry in a ticket thread. AuthorID is nil for system entries.
type Comment struct {
	ID              string
	TicketID        string
	ParentCommentID *string
	AuthorID        *string
	Type            CommentType
	IsInternal      bool
	Content         string
	Metadata        map[string]any
	CreatedAt       time.Time
}

// CommentNode is a comment with its replies attached.
type CommentNode struct {
	Comment
	Replies []*CommentNode
}
