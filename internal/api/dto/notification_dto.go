package dto

import "github.com/deskflow/helpdesk-portal/internal/domain"

// UnreadCountResponse carries the unread counter.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// Frame types pushed over the notification websocket.
const (
	FrameSnapshot    = "snapshot"
	FrameNew         = "notification"
	FrameUnreadCount = "unread_count"
	FrameError       = "error"
)

// Client commands accepted over the notification websocket.
const (
	CommandMarkRead    = "mark_read"
	CommandMarkAllRead = "mark_all_read"
)

// NotificationFrame is one server-to-client websocket message.
type NotificationFrame struct {
	Type          string                `json:"type"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
	Notification  *domain.Notification  `json:"notification,omitempty"`
	Count         *int                  `json:"count,omitempty"`
	Message       string                `json:"message,omitempty"`
}

// NotificationCommand is one client-to-server websocket message.
type NotificationCommand struct {
	Type           string `json:"type"`
	NotificationID string `json:"notification_id"`
}
