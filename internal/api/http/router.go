package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk-portal/internal/api/http/handlers"
	"github.com/deskflow/helpdesk-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Attachments    *handlers.AttachmentsHandler
	Bulk           *handlers.BulkHandler
	Notifications  *handlers.NotificationsHandler
	Stream         *handlers.NotificationStreamHandler
	FAQ            *handlers.FAQHandler
	Departments    *handlers.DepartmentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	ws := app.Group("/ws", cfg.Stream.Upgrade, cfg.AuthMiddleware.Handle)
	ws.Get("/notifications", cfg.Stream.Handler())

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRoles())
	protected.Get("/auth/me", cfg.Auth.Me)

	tickets := protected.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Post("/bulk", auth.RequireStaff(), cfg.Bulk.Apply)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/status", auth.RequireStaff(), cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/assign", auth.RequireCanAssign(), cfg.Tickets.AssignTicket)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)
	tickets.Post("/:id/comments", cfg.Comments.AddComment)
	tickets.Get("/:id/attachments", cfg.Attachments.List)
	tickets.Post("/:id/attachments", cfg.Attachments.Upload)

	notifications := protected.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	protected.Post("/faq/escalations", cfg.FAQ.Escalate)

	departments := protected.Group("/departments")
	departments.Get("/", cfg.Departments.List)
	departments.Post("/", cfg.Departments.Create)
	departments.Put("/:id/parent", cfg.Departments.SetParent)
}
