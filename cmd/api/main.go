package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/deskflow/helpdesk-portal/internal/api/http"
	"github.com/deskflow/helpdesk-portal/internal/api/http/handlers"
	"github.com/deskflow/helpdesk-portal/internal/auth"
	"github.com/deskflow/helpdesk-portal/internal/config"
	"github.com/deskflow/helpdesk-portal/internal/events"
	"github.com/deskflow/helpdesk-portal/internal/observability"
	"github.com/deskflow/helpdesk-portal/internal/persistence"
	"github.com/deskflow/helpdesk-portal/internal/realtime"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	"github.com/deskflow/helpdesk-portal/internal/service"
	"github.com/deskflow/helpdesk-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.With(zap.String("service", cfg.App.Name), zap.String("version", cfg.App.Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), "", logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	objects, err := persistence.NewObjectStore(ctx, cfg.MinIO, logger)
	if err != nil {
		logger.Fatal("failed to connect minio", zap.Error(err))
	}

	pool := pg.PoolHandle()
	actorRepo := repository.NewActorRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger.Named("events"))
	feed := realtime.NewRedisFeed(redis.Client, notificationRepo, cfg.Realtime.ChannelPrefix, cfg.Realtime.SnapshotLimit, logger.Named("realtime"))

	tokenMgr := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(actorRepo, tokenMgr, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), actorRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		DepartmentRepo: departmentRepo,
		ActorRepo:      actorRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: ticketRepo,
		ActorRepo:  actorRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	bulkService := service.NewBulkService(service.BulkDependencies{
		TicketRepo:     ticketRepo,
		Workflow:       workflowService,
		Assignments:    assignmentService,
		Recorder:       metrics,
		Logger:         logger,
		MaxConcurrency: cfg.Bulk.MaxConcurrency,
		MaxItems:       cfg.Bulk.MaxItems,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	departmentService := service.NewDepartmentService(departmentRepo, logger)
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		TicketRepo:     ticketRepo,
		AttachmentRepo: attachmentRepo,
		Blobs:          objects,
		Logger:         logger,
		MaxBytes:       cfg.MinIO.MaxUploadBytes,
		URLExpiry:      cfg.MinIO.URLExpiry(),
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		TicketRepo:       ticketRepo,
		ActorRepo:        actorRepo,
		Publisher:        feed,
		Logger:           logger.Named("notifications"),
		Config:           cfg.Notification,
	})
	notifyWorker := worker.StartNotificationWorker(notificationService, dispatcher, worker.Options{
		Workers:        cfg.Notification.Workers,
		QueueSize:      cfg.Notification.QueueSize,
		HandlerTimeout: cfg.Notification.HandlerTimeout(),
		Logger:         logger.Named("worker"),
	})

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.MinIO.MaxUploadBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics,
			handlers.Dependency{Name: "postgres", Pinger: pg},
			handlers.Dependency{Name: "redis", Pinger: redis},
			handlers.Dependency{Name: "minio", Pinger: objects, Optional: true},
		),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, workflowService, assignmentService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
		Bulk:           handlers.NewBulkHandler(bulkService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Stream:         handlers.NewNotificationStreamHandler(feed, notificationService, cfg.Realtime.SnapshotLimit, logger.Named("ws")),
		FAQ:            handlers.NewFAQHandler(ticketService),
		Departments:    handlers.NewDepartmentsHandler(departmentService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := notifyWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
