package service

import (
	"context"
	"sync"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/events"
)

const deptA = "dept-a"

func actorWith(id string, role domain.Role, dept string) *domain.Actor {
	a := &domain.Actor{ID: id, Name: id, Role: role, IsActive: true}
	if dept != "" {
		a.DepartmentID = strPtr(dept)
	}
	return a
}

func openTicket(id string) *domain.Ticket {
	return &domain.Ticket{
		ID:           id,
		ExternalKey:  "HD-" + id,
		Title:        "Printer on fire",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		DepartmentID: deptA,
		RequesterID:  "requester",
		CreatedByID:  "requester",
	}
}

// eventLog captures every event published on a real in-memory dispatcher.
type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func newEventLog(types ...events.EventType) (events.Dispatcher, *eventLog) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	log := &eventLog{}
	for _, t := range types {
		dispatcher.Subscribe(t, func(_ context.Context, e events.Event) error {
			log.mu.Lock()
			defer log.mu.Unlock()
			log.events = append(log.events, e)
			return nil
		})
	}
	return dispatcher, log
}

func (l *eventLog) all() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Event{}, l.events...)
}
