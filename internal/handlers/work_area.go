package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gradia/backend/internal/services"
	"github.com/gradia/backend/pkg/response"
	"gorm.io/gorm"
)

type WorkAreaHandler struct {
	workAreaService *services.WorkAreaService
}

func NewWorkAreaHandler(db *gorm.DB) *WorkAreaHandler {
	return &WorkAreaHandler{
		workAreaService: services.NewWorkAreaService(db),
	}
}

// List returns all work areas
// GET /api/work-areas
func (h *WorkAreaHandler) List(c *gin.Context) {
	areas, err := h.workAreaService.List()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, areas)
}

// GetByID returns a work area by ID
// GET /api/work-areas/:id
func (h *WorkAreaHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid work area id")
		return
	}

	area, err := h.workAreaService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "work area not found")
		return
	}
	response.Success(c, area)
}

type createWorkAreaRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Create creates a work area
// POST /api/work-areas
func (h *WorkAreaHandler) Create(c *gin.Context) {
	var req createWorkAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	area, err := h.workAreaService.Create(req.Name, req.Description)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Created(c, area)
}
