package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/domain"
)

// NotificationStore is the durable source replayed to new subscribers.
type NotificationStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// RedisFeed delivers notifications over Redis pub/sub. Each recipient has a
// channel for notifications and a sub-channel for the unread counter.
type RedisFeed struct {
	client        *redis.Client
	store         NotificationStore
	prefix        string
	snapshotLimit int
	logger        *zap.Logger
}

// NewRedisFeed builds a feed on client.
func NewRedisFeed(client *redis.Client, store NotificationStore, prefix string, snapshotLimit int, logger *zap.Logger) *RedisFeed {
	if prefix == "" {
		prefix = "notify"
	}
	if snapshotLimit <= 0 {
		snapshotLimit = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFeed{client: client, store: store, prefix: prefix, snapshotLimit: snapshotLimit, logger: logger}
}

// NotificationChannel names the channel carrying userID's notifications.
func (f *RedisFeed) NotificationChannel(userID string) string {
	return fmt.Sprintf("%s:%s", f.prefix, userID)
}

// UnreadChannel names the channel carrying userID's unread counter.
func (f *RedisFeed) UnreadChannel(userID string) string {
	return fmt.Sprintf("%s:%s:unread", f.prefix, userID)
}

// PublishNotification pushes n to its recipient's channel.
func (f *RedisFeed) PublishNotification(ctx context.Context, n *domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.NotificationChannel(n.UserID), payload).Err()
}

// PublishUnreadCount pushes the recipient's current unread counter.
func (f *RedisFeed) PublishUnreadCount(ctx context.Context, userID string, count int) error {
	return f.client.Publish(ctx, f.UnreadChannel(userID), strconv.Itoa(count)).Err()
}

// Subscribe listens on both channels before reading the stored state, so a
// notification created during the replay is delivered live instead of lost.
// It may then arrive twice, which the at-least-once contract allows.
func (f *RedisFeed) Subscribe(ctx context.Context, userID string) (Subscription, error) {
	notifChannel := f.NotificationChannel(userID)
	unreadChannel := f.UnreadChannel(userID)

	pubsub := f.client.Subscribe(ctx, notifChannel, unreadChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", notifChannel, err)
	}

	snapshot, err := f.store.ListByUser(ctx, userID, f.snapshotLimit, 0)
	if err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("load notification snapshot: %w", err)
	}
	unread, err := f.store.CountUnread(ctx, userID)
	if err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("count unread: %w", err)
	}
	if snapshot == nil {
		snapshot = []domain.Notification{}
	}

	sub := &redisSubscription{
		pubsub:  pubsub,
		batches: make(chan []domain.Notification, 16),
		counts:  make(chan int, 16),
		done:    make(chan struct{}),
	}
	go sub.pump(ctx, snapshot, unread, notifChannel, unreadChannel, f.logger)
	return sub, nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	batches   chan []domain.Notification
	counts    chan int
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) Batches() <-chan []domain.Notification { return s.batches }

func (s *redisSubscription) UnreadCounts() <-chan int { return s.counts }

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

func (s *redisSubscription) pump(ctx context.Context, snapshot []domain.Notification, unread int, notifChannel, unreadChannel string, logger *zap.Logger) {
	defer close(s.batches)
	defer close(s.counts)

	if !s.sendBatch(ctx, snapshot) || !s.sendCount(ctx, unread) {
		return
	}

	messages := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			switch msg.Channel {
			case notifChannel:
				var n domain.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					logger.Warn("drop malformed notification", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				if !s.sendBatch(ctx, []domain.Notification{n}) {
					return
				}
			case unreadChannel:
				count, err := strconv.Atoi(msg.Payload)
				if err != nil {
					logger.Warn("drop malformed unread count", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				if !s.sendCount(ctx, count) {
					return
				}
			}
		}
	}
}

func (s *redisSubscription) sendBatch(ctx context.Context, batch []domain.Notification) bool {
	select {
	case s.batches <- batch:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *redisSubscription) sendCount(ctx context.Context, count int) bool {
	select {
	case s.counts <- count:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}
