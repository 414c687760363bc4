package realtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateConnecting State = iota
	StateInitialSnapshotPending
	StateLive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateInitialSnapshotPending:
		return "initial_snapshot_pending"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Hooks are invoked from the goroutine running Session.Run.
type Hooks struct {
	// OnSnapshot receives the list once the replayed state is absorbed.
	OnSnapshot func(items []domain.Notification)
	// OnNew fires exactly once per notification created after the session opened.
	OnNew func(n domain.Notification)
	// OnUnreadCount receives every counter update from the feed.
	OnUnreadCount func(count int)
}

// SessionOptions tune a Session.
type SessionOptions struct {
	Hooks  Hooks
	Limit  int
	Clock  func() time.Time
	Logger *zap.Logger
}

// Session is the per-connection view of one recipient's notifications.
type Session struct {
	userID string
	feed   Feed
	hooks  Hooks
	limit  int
	now    func() time.Time
	logger *zap.Logger

	mu     sync.Mutex
	state  State
	cutoff time.Time
	seen   map[string]struct{}
	items  []domain.Notification
	unread int
}

// NewSession creates a session for userID. It does nothing until Run.
func NewSession(userID string, feed Feed, opts SessionOptions) *Session {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Session{
		userID: userID,
		feed:   feed,
		hooks:  opts.Hooks,
		limit:  opts.Limit,
		now:    opts.Clock,
		logger: opts.Logger,
		state:  StateClosed,
	}
}

// Run subscribes and processes deliveries until ctx is cancelled or the feed
// ends. Each call starts from scratch: the replayed snapshot is absorbed
// silently again and nothing from a previous run is kept.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateConnecting
	s.seen = make(map[string]struct{})
	s.items = nil
	s.unread = 0
	s.mu.Unlock()
	defer s.close()

	// Taken before subscribing: anything created while the feed replays its
	// stored state arrives as a delta and must still count as new.
	cutoff := s.now()
	sub, err := s.feed.Subscribe(ctx, s.userID)
	if err != nil {
		return apperrors.NewUpstreamUnavailable("notification feed", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			s.logger.Debug("close subscription", zap.String("user_id", s.userID), zap.Error(err))
		}
	}()

	s.mu.Lock()
	s.cutoff = cutoff
	s.state = StateInitialSnapshotPending
	s.mu.Unlock()

	batches := sub.Batches()
	counts := sub.UnreadCounts()
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			s.handleBatch(batch)
		case count, ok := <-counts:
			if !ok {
				counts = nil
				continue
			}
			s.setUnread(count)
		}
	}
}

func (s *Session) handleBatch(batch []domain.Notification) {
	s.mu.Lock()
	if s.state == StateInitialSnapshotPending {
		for _, n := range batch {
			s.seen[n.ID] = struct{}{}
			s.upsert(n)
		}
		s.state = StateLive
		snapshot := s.copyItems()
		s.mu.Unlock()
		if s.hooks.OnSnapshot != nil {
			s.hooks.OnSnapshot(snapshot)
		}
		return
	}
	if s.state != StateLive {
		s.mu.Unlock()
		return
	}

	var fresh []domain.Notification
	for _, n := range batch {
		if _, dup := s.seen[n.ID]; dup {
			s.refresh(n)
			continue
		}
		s.seen[n.ID] = struct{}{}
		s.upsert(n)
		if !n.CreatedAt.Before(s.cutoff) {
			fresh = append(fresh, n)
		}
	}
	s.mu.Unlock()

	if s.hooks.OnNew != nil {
		for _, n := range fresh {
			s.hooks.OnNew(n)
		}
	}
}

// upsert places n in the newest-first list, replacing an entry with the same
// id, and trims the list to the limit.
func (s *Session) upsert(n domain.Notification) {
	if s.refresh(n) {
		return
	}
	s.items = append(s.items, n)
	sort.SliceStable(s.items, func(i, j int) bool {
		if s.items[i].CreatedAt.Equal(s.items[j].CreatedAt) {
			return s.items[i].ID > s.items[j].ID
		}
		return s.items[i].CreatedAt.After(s.items[j].CreatedAt)
	})
	if len(s.items) > s.limit {
		s.items = s.items[:s.limit]
	}
}

func (s *Session) refresh(n domain.Notification) bool {
	for i := range s.items {
		if s.items[i].ID == n.ID {
			s.items[i] = n
			return true
		}
	}
	return false
}

func (s *Session) setUnread(count int) {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateConnecting {
		s.mu.Unlock()
		return
	}
	s.unread = count
	s.mu.Unlock()
	if s.hooks.OnUnreadCount != nil {
		s.hooks.OnUnreadCount(count)
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.seen = nil
	s.items = nil
	s.unread = 0
}

func (s *Session) copyItems() []domain.Notification {
	out := make([]domain.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// MarkRead flags id as read in the local list. It reports whether anything changed.
func (s *Session) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			if s.items[i].IsRead {
				return false
			}
			readAt := s.now()
			s.items[i].IsRead = true
			s.items[i].ReadAt = &readAt
			return true
		}
	}
	return false
}

// MarkAllRead flags every local item as read and returns how many changed.
func (s *Session) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	readAt := s.now()
	for i := range s.items {
		if !s.items[i].IsRead {
			s.items[i].IsRead = true
			s.items[i].ReadAt = &readAt
			changed++
		}
	}
	return changed
}

// Items returns the current list, newest first.
func (s *Session) Items() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

// UnreadCount returns the last counter received from the feed.
func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
