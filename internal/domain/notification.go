package domain

import "time"

// NotificationType classifies what happened to the recipient's ticket.
type NotificationType string

const (
	NotificationTicketCreated  NotificationType = "TICKET_CREATED"
	NotificationStatusChanged  NotificationType = "TICKET_STATUS_CHANGED"
	NotificationTicketAssigned NotificationType = "TICKET_ASSIGNED"
	NotificationCommentAdded   NotificationType = "TICKET_COMMENT_ADDED"
	NotificationEscalated      NotificationType = "TICKET_ESCALATED"
)

// Notification is owned by its recipient and only mutated by read acknowledgement.
type Notification struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	ActionURL      string           `json:"action_url"`
	IsRead         bool             `json:"is_read"`
	IsHighPriority bool             `json:"is_high_priority"`
	CreatedAt      time.Time        `json:"created_at"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
}
