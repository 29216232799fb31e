package main

import (
	"github.com/gin-gonic/gin"
	"github.com/gradia/backend/internal/handlers"
	"github.com/gradia/backend/internal/middleware"
	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for invitation redemption (codes are guessable input)
	redeemLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	db := models.GetDB()
	deliverableHandler := handlers.NewDeliverableHandler(db, svc.deliverableService, svc.notificationService)
	invitationHandler := handlers.NewInvitationHandler(db, svc.notificationService)
	membershipHandler := handlers.NewMembershipHandler(db)
	projectHandler := handlers.NewProjectHandler(db)
	workAreaHandler := handlers.NewWorkAreaHandler(db)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Current user's memberships
			protected.GET("/me/memberships", membershipHandler.ListMine)

			// Projects (list and create for all users)
			protected.GET("/projects", projectHandler.List)
			protected.POST("/projects", projectHandler.Create)

			// Work areas (read for all users)
			protected.GET("/work-areas", workAreaHandler.List)
			protected.GET("/work-areas/:id", workAreaHandler.GetByID)

			// Invitation redemption (role checks are irrelevant here, the
			// code itself is the authority)
			protected.POST("/invitations/redeem", redeemLimiter.Middleware(), invitationHandler.Redeem)

			// Deliverable workflow (project role enforced in the service
			// via the resolver, deliverable id carries the project)
			protected.GET("/deliverables/review-queue", deliverableHandler.ReviewQueue)
			protected.POST("/deliverables", deliverableHandler.Create)
			protected.POST("/deliverables/:id/submit", deliverableHandler.Submit)
			protected.POST("/deliverables/:id/transition", deliverableHandler.Transition)
			protected.POST("/deliverables/:id/comments", deliverableHandler.AddComment)
			protected.POST("/deliverables/:id/evaluations", deliverableHandler.AddEvaluation)
		}

		// Project-scoped routes: any resolved role may read
		projectScoped := api.Group("/projects/:id")
		projectScoped.Use(middleware.AuthRequired(), middleware.AuditLog(), middleware.ProjectRoleRequired(svc.authzService))
		{
			projectScoped.GET("", projectHandler.GetByID)
			projectScoped.GET("/phases", projectHandler.ListPhases)
			projectScoped.GET("/members", membershipHandler.ListByProject)
			projectScoped.GET("/deliverables", deliverableHandler.ListForProject)

			// Manager-only operations
			manager := projectScoped.Group("")
			manager.Use(middleware.ProjectManagerRequired())
			{
				manager.PUT("", projectHandler.Update)
				manager.DELETE("", projectHandler.Delete)
				manager.POST("/phases", projectHandler.AddPhase)
				manager.POST("/members", membershipHandler.Assign)
				manager.GET("/invitations", invitationHandler.ListByProject)
				manager.POST("/invitations", invitationHandler.Issue)
				manager.POST("/invitations/:invitation_id/revoke", invitationHandler.Revoke)
			}
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AuditLog(), middleware.AdminRequired())
		{
			// Users
			userHandler := handlers.NewUserHandler(db)
			admin.GET("/users", userHandler.List)
			admin.GET("/users/:id", userHandler.GetByID)
			admin.POST("/users", userHandler.Create)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)

			// Work areas (write)
			admin.POST("/work-areas", workAreaHandler.Create)

			// Membership administration by row id
			admin.PUT("/memberships/:id/role", membershipHandler.ChangeRole)
			admin.POST("/memberships/:id/deactivate", membershipHandler.Deactivate)
			admin.POST("/memberships/:id/reactivate", membershipHandler.Reactivate)

			// System Logs
			systemLogHandler := handlers.NewSystemLogHandler(db)
			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
			admin.GET("/system-logs/retention", systemLogHandler.GetRetention)
			admin.PUT("/system-logs/retention", systemLogHandler.SetRetention)
			admin.POST("/system-logs/cleanup", systemLogHandler.Cleanup)

			// System Config
			systemConfigHandler := handlers.NewSystemConfigHandler(db)
			admin.GET("/system-config/email", systemConfigHandler.GetEmailConfig)
			admin.PUT("/system-config/email", systemConfigHandler.UpdateEmailConfig)
			admin.GET("/system-config/:group", systemConfigHandler.GetByGroup)
		}
	}
}
