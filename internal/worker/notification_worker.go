// Package worker runs notification fan-out off the request path.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/events"
)

// EventHandler is implemented by service.NotificationService.
type EventHandler interface {
	EventTypes() []events.EventType
	HandleEvent(ctx context.Context, event events.Event) error
}

// Options tune a NotificationWorker.
type Options struct {
	Workers        int
	QueueSize      int
	HandlerTimeout time.Duration
	Logger         *zap.Logger
}

// NotificationWorker queues notifying events and handles them on a fixed
// pool of goroutines. When the queue is full, or after Stop, events are
// handled inline on the publisher's goroutine instead of being dropped.
type NotificationWorker struct {
	handler EventHandler
	queue   chan events.Event
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// StartNotificationWorker subscribes handler's events on dispatcher and starts
// the pool.
func StartNotificationWorker(handler EventHandler, dispatcher events.Dispatcher, opts Options) *NotificationWorker {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	w := &NotificationWorker{
		handler: handler,
		queue:   make(chan events.Event, opts.QueueSize),
		workers: opts.Workers,
		timeout: opts.HandlerTimeout,
		logger:  opts.Logger,
	}
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	if dispatcher != nil {
		for _, eventType := range handler.EventTypes() {
			dispatcher.Subscribe(eventType, w.enqueue)
		}
	}
	return w
}

func (w *NotificationWorker) enqueue(ctx context.Context, event events.Event) error {
	w.mu.RLock()
	if !w.stopped {
		select {
		case w.queue <- event:
			w.mu.RUnlock()
			return nil
		default:
			w.logger.Warn("notification queue full; handling inline", zap.String("event_type", string(event.Type)))
		}
	}
	w.mu.RUnlock()
	return w.handler.HandleEvent(context.WithoutCancel(ctx), event)
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for event := range w.queue {
		w.handle(event)
	}
}

func (w *NotificationWorker) handle(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.handler.HandleEvent(ctx, event); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

// Stop drains queued events and waits for the pool, or gives up when ctx ends.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
