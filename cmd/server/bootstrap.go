package main

import (
	"github.com/gradia/backend/internal/config"
	"github.com/gradia/backend/internal/handlers"
	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/internal/services"
	"github.com/gradia/backend/internal/utils"
	"github.com/gradia/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	authzService        *services.AuthzService
	deliverableService  *services.DeliverableService
	notificationService *services.NotificationService
	reminderService     *services.ReminderService
	taskQueue           services.TaskQueue
	worker              *services.Worker
	authHandler         *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed default data
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Initialize system logger
	services.InitSystemLogger(models.GetDB())

	// Start system log cleanup scheduler
	services.StartLogCleanupScheduler(models.GetDB())

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	notificationService := services.NewNotificationService(models.GetDB(), taskQueue)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.ProcessTask)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.ProcessTask)
			worker.Start()
		}
	}

	// Authorization resolver and the deliverable workflow built on it
	authzService := services.NewAuthzService(models.GetDB())
	deliverableService := services.NewDeliverableService(models.GetDB(), authzService, &cfg.Visibility)

	// Due date reminder scheduler
	calendarService := services.NewCalendarService()
	reminderService := services.NewReminderService(models.GetDB(), &cfg.Reminder, calendarService, notificationService)
	if cfg.Reminder.Enabled {
		reminderService.StartScheduler()
	}

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		authzService:        authzService,
		deliverableService:  deliverableService,
		notificationService: notificationService,
		reminderService:     reminderService,
		taskQueue:           taskQueue,
		worker:              worker,
		authHandler:         authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.reminderService.StopScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
