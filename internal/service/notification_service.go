package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/config"
	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/events"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// NotificationPublisher pushes stored notifications to connected clients.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n *domain.Notification) error
	PublishUnreadCount(ctx context.Context, userID string, count int) error
}

// NotificationService turns domain events into per-recipient notifications
// and serves read acknowledgements.
type NotificationService struct {
	notifications repository.NotificationRepository
	tickets       repository.TicketRepository
	actors        repository.ActorRepository
	publisher     NotificationPublisher
	logger        *zap.Logger
	cfg           config.NotificationConfig
}

// NotificationDependencies bundles collaborators for NotificationService.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	TicketRepo       repository.TicketRepository
	ActorRepo        repository.ActorRepository
	Publisher        NotificationPublisher
	Logger           *zap.Logger
	Config           config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		tickets:       deps.TicketRepo,
		actors:        deps.ActorRepo,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
		cfg:           deps.Config,
	}
}

// EventTypes lists the events that produce notifications.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketCommentAdded,
		events.EventTicketEscalated,
	}
}

// HandleEvent fans event out to its recipients.
func (n *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventTicketCreated:
		return n.handleTicketCreated(ctx, event)
	case events.EventTicketStatusChanged:
		return n.handleTicketStatusChanged(ctx, event)
	case events.EventTicketAssigned:
		return n.handleTicketAssigned(ctx, event)
	case events.EventTicketCommentAdded:
		return n.handleTicketCommentAdded(ctx, event)
	case events.EventTicketEscalated:
		return n.handleTicketEscalated(ctx, event)
	}
	return nil
}

// RegisterHandlers subscribes HandleEvent synchronously to every notifying
// event. The worker package offers the asynchronous variant.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, eventType := range n.EventTypes() {
		dispatcher.Subscribe(eventType, n.HandleEvent)
	}
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	if ticket.RequesterID == ticket.CreatedByID {
		return nil
	}
	return n.fanOut(ctx, event, ticket, []string{ticket.RequesterID}, domain.NotificationTicketCreated,
		"Ticket opened for you",
		fmt.Sprintf("Ticket %s \"%s\" was opened on your behalf", ticket.ExternalKey, ticket.Title))
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	return n.fanOut(ctx, event, ticket, []string{ticket.RequesterID, derefString(ticket.AssigneeID)},
		domain.NotificationStatusChanged,
		"Ticket status changed",
		fmt.Sprintf("Ticket %s moved from %s to %s", ticket.ExternalKey, payload.OldStatus, payload.NewStatus))
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	return n.fanOut(ctx, event, ticket, []string{payload.AssigneeID}, domain.NotificationTicketAssigned,
		"Ticket assigned to you",
		fmt.Sprintf("Ticket %s \"%s\" is now assigned to you", ticket.ExternalKey, ticket.Title))
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	recipients := []string{derefString(ticket.AssigneeID)}
	if !payload.IsInternal {
		recipients = append(recipients, ticket.RequesterID)
	} else if requester, err := n.actors.GetByID(ctx, ticket.RequesterID); err == nil && requester.Role.IsStaff() {
		recipients = append(recipients, ticket.RequesterID)
	}
	return n.fanOut(ctx, event, ticket, recipients, domain.NotificationCommentAdded,
		"New comment",
		fmt.Sprintf("New comment on %s: %s", ticket.ExternalKey, payload.BodyPreview))
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	return n.fanOut(ctx, event, ticket, []string{ticket.RequesterID}, domain.NotificationEscalated,
		"Question escalated",
		fmt.Sprintf("Your question was escalated to support as %s", ticket.ExternalKey))
}

// fanOut delivers one notification per distinct recipient, skipping blanks
// and the actor who caused the event.
func (n *NotificationService) fanOut(ctx context.Context, event events.Event, ticket *domain.Ticket, recipients []string, kind domain.NotificationType, title, message string) error {
	seen := map[string]struct{}{}
	var errs []error
	for _, userID := range recipients {
		if userID == "" || userID == event.ActorID {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		notification := &domain.Notification{
			UserID:         userID,
			Type:           kind,
			Title:          title,
			Message:        message,
			ActionURL:      n.actionURL(ticket.ID),
			IsHighPriority: ticket.Priority == domain.TicketPriorityHigh || ticket.Priority == domain.TicketPriorityUrgent,
		}
		if err := n.deliver(ctx, notification); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", userID, err))
		}
	}
	return errors.Join(errs...)
}

// deliver stores n and pushes it with the recipient's new unread count. Push
// failures are logged only; clients recover the stored state on reconnect.
func (n *NotificationService) deliver(ctx context.Context, notification *domain.Notification) error {
	if err := n.notifications.Create(ctx, notification); err != nil {
		return err
	}
	if n.publisher == nil {
		return nil
	}
	if err := n.publisher.PublishNotification(ctx, notification); err != nil {
		n.logger.Warn("push notification failed",
			zap.String("user_id", notification.UserID),
			zap.String("notification_id", notification.ID),
			zap.Error(err))
	}
	n.pushUnreadCount(ctx, notification.UserID)
	return nil
}

func (n *NotificationService) pushUnreadCount(ctx context.Context, userID string) {
	if n.publisher == nil {
		return
	}
	count, err := n.notifications.CountUnread(ctx, userID)
	if err != nil {
		n.logger.Warn("count unread failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := n.publisher.PublishUnreadCount(ctx, userID, count); err != nil {
		n.logger.Warn("push unread count failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (n *NotificationService) actionURL(ticketID string) string {
	return strings.TrimRight(n.cfg.ActionURLBase, "/") + "/" + ticketID
}

// List returns the user's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	items, err := n.notifications.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return items, nil
}

// UnreadCount returns how many of the user's notifications are unread.
func (n *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := n.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// MarkAsRead acknowledges one notification. Marking an already-read
// notification succeeds without effect.
func (n *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	changed, err := n.notifications.MarkAsRead(ctx, userID, notificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return apperrors.MapError(err)
	}
	if changed {
		n.pushUnreadCount(ctx, userID)
	}
	return nil
}

// MarkAllAsRead acknowledges every unread notification of the user.
func (n *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	changed, err := n.notifications.MarkAllAsRead(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if changed > 0 {
		n.pushUnreadCount(ctx, userID)
	}
	return nil
}
