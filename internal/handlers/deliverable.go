package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gradia/backend/internal/middleware"
	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/internal/services"
	"github.com/gradia/backend/pkg/response"
	"gorm.io/gorm"
)

type DeliverableHandler struct {
	db                 *gorm.DB
	deliverableService *services.DeliverableService
	notifyService      *services.NotificationService
}

func NewDeliverableHandler(db *gorm.DB, svc *services.DeliverableService, notify *services.NotificationService) *DeliverableHandler {
	return &DeliverableHandler{
		db:                 db,
		deliverableService: svc,
		notifyService:      notify,
	}
}

func (h *DeliverableHandler) currentUser(c *gin.Context) (*models.User, bool) {
	var user models.User
	if err := h.db.First(&user, middleware.GetUserID(c)).Error; err != nil {
		response.Unauthorized(c, "user not found")
		return nil, false
	}
	return &user, true
}

func deliverableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoProjectRole), errors.Is(err, services.ErrRoleNotAllowed):
		response.Forbidden(c, "no access to this project")
	case errors.Is(err, services.ErrInvalidTransition):
		response.Conflict(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, "deliverable not found")
	default:
		response.ServerError(c, err.Error())
	}
}

// ListForProject returns the deliverables the current user may see in
// the project, filtered by their resolved role.
// GET /api/projects/:id/deliverables
func (h *DeliverableHandler) ListForProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	deliverables, err := h.deliverableService.VisibleForProject(user, uint(projectID))
	if err != nil {
		deliverableError(c, err)
		return
	}

	response.Success(c, deliverables)
}

// ReviewQueue returns deliverables awaiting the current user's review
// across all projects they hold a reviewing role on.
// GET /api/deliverables/review-queue
func (h *DeliverableHandler) ReviewQueue(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	deliverables, err := h.deliverableService.ReviewQueue(user)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, deliverables)
}

// Create creates a deliverable in a project phase
// POST /api/deliverables
func (h *DeliverableHandler) Create(c *gin.Context) {
	var req services.CreateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	deliverable, err := h.deliverableService.Create(user, &req)
	if err != nil {
		deliverableError(c, err)
		return
	}

	response.Created(c, deliverable)
}

// Submit moves a deliverable into the review pipeline
// POST /api/deliverables/:id/submit
func (h *DeliverableHandler) Submit(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid deliverable id")
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	deliverable, err := h.deliverableService.Submit(user, uint(id))
	if err != nil {
		deliverableError(c, err)
		return
	}

	if h.notifyService != nil {
		h.notifyService.DeliverableSubmitted(deliverable)
	}

	response.Success(c, deliverable)
}

type transitionRequest struct {
	Status models.DeliverableStatus `json:"status" binding:"required"`
}

// Transition applies a review state change
// POST /api/deliverables/:id/transition
func (h *DeliverableHandler) Transition(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid deliverable id")
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	deliverable, err := h.deliverableService.Transition(user, uint(id), req.Status)
	if err != nil {
		deliverableError(c, err)
		return
	}

	response.Success(c, deliverable)
}

type commentRequest struct {
	Body string `json:"body" binding:"required"`
}

// AddComment attaches a comment to a deliverable
// POST /api/deliverables/:id/comments
func (h *DeliverableHandler) AddComment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid deliverable id")
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	comment, err := h.deliverableService.AddComment(user, uint(id), req.Body)
	if err != nil {
		deliverableError(c, err)
		return
	}

	response.Created(c, comment)
}

type evaluationRequest struct {
	Score    float64 `json:"score" binding:"required"`
	Feedback string  `json:"feedback"`
}

// AddEvaluation records a scored evaluation on a deliverable
// POST /api/deliverables/:id/evaluations
func (h *DeliverableHandler) AddEvaluation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid deliverable id")
		return
	}

	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	evaluation, err := h.deliverableService.AddEvaluation(user, uint(id), req.Score, req.Feedback)
	if err != nil {
		deliverableError(c, err)
		return
	}

	response.Created(c, evaluation)
}
