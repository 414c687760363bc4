package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/api/dto"
	"github.com/deskflow/helpdesk-portal/internal/auth"
	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/realtime"
	"github.com/deskflow/helpdesk-portal/internal/service"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// NotificationStreamHandler pushes a live notification view over websocket.
// Each connection owns one realtime.Session.
type NotificationStreamHandler struct {
	feed          realtime.Feed
	notifications *service.NotificationService
	limit         int
	logger        *zap.Logger
}

// NewNotificationStreamHandler constructs handler.
func NewNotificationStreamHandler(feed realtime.Feed, notifications *service.NotificationService, limit int, logger *zap.Logger) *NotificationStreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationStreamHandler{feed: feed, notifications: notifications, limit: limit, logger: logger}
}

// Upgrade rejects plain HTTP requests on websocket routes.
func (h *NotificationStreamHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the GET /ws/notifications endpoint.
func (h *NotificationStreamHandler) Handler() fiber.Handler {
	return websocket.New(h.stream)
}

type frameWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *frameWriter) send(frame dto.NotificationFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(frame)
}

func (h *NotificationStreamHandler) stream(conn *websocket.Conn) {
	actor, ok := conn.Locals(auth.ActorLocalsKey).(*domain.Actor)
	if !ok || actor == nil {
		_ = conn.WriteJSON(dto.NotificationFrame{Type: dto.FrameError, Message: "authentication required"})
		_ = conn.Close()
		return
	}
	logger := h.logger.With(zap.String("user_id", actor.ID))
	out := &frameWriter{conn: conn}

	session := realtime.NewSession(actor.ID, h.feed, realtime.SessionOptions{
		Limit:  h.limit,
		Logger: logger,
		Hooks: realtime.Hooks{
			OnSnapshot: func(items []domain.Notification) {
				h.write(logger, out, dto.NotificationFrame{Type: dto.FrameSnapshot, Notifications: items})
			},
			OnNew: func(n domain.Notification) {
				h.write(logger, out, dto.NotificationFrame{Type: dto.FrameNew, Notification: &n})
			},
			OnUnreadCount: func(count int) {
				h.write(logger, out, dto.NotificationFrame{Type: dto.FrameUnreadCount, Count: &count})
			},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := session.Run(ctx); err != nil {
			logger.Warn("notification session ended", zap.Error(err))
			h.write(logger, out, dto.NotificationFrame{Type: dto.FrameError, Message: apperrors.ToDomainError(err).Message})
		}
		// unblocks the read loop below when the feed ends first
		_ = conn.Close()
	}()

	logger.Info("notification stream opened")
	h.readCommands(ctx, conn, actor.ID, session, out, logger)
	cancel()
	<-done
	logger.Info("notification stream closed")
}

// readCommands handles client acknowledgements until the connection drops.
func (h *NotificationStreamHandler) readCommands(ctx context.Context, conn *websocket.Conn, userID string, session *realtime.Session, out *frameWriter, logger *zap.Logger) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd dto.NotificationCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			h.write(logger, out, dto.NotificationFrame{Type: dto.FrameError, Message: "invalid command"})
			continue
		}
		switch cmd.Type {
		case dto.CommandMarkRead:
			err = h.notifications.MarkAsRead(ctx, userID, cmd.NotificationID)
			if err == nil {
				session.MarkRead(cmd.NotificationID)
			}
		case dto.CommandMarkAllRead:
			err = h.notifications.MarkAllAsRead(ctx, userID)
			if err == nil {
				session.MarkAllRead()
			}
		default:
			err = apperrors.NewValidationError("unknown command", map[string]any{"type": cmd.Type})
		}
		if err != nil {
			h.write(logger, out, dto.NotificationFrame{Type: dto.FrameError, Message: apperrors.ToDomainError(err).Message})
		}
	}
}

func (h *NotificationStreamHandler) write(logger *zap.Logger, out *frameWriter, frame dto.NotificationFrame) {
	if err := out.send(frame); err != nil {
		logger.Debug("write frame failed", zap.String("frame", frame.Type), zap.Error(err))
	}
}
