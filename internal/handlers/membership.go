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

type MembershipHandler struct {
	membershipService *services.MembershipService
}

func NewMembershipHandler(db *gorm.DB) *MembershipHandler {
	return &MembershipHandler{
		membershipService: services.NewMembershipService(db),
	}
}

type assignMemberRequest struct {
	UserID uint               `json:"user_id" binding:"required"`
	Role   models.ProjectRole `json:"role" binding:"required"`
}

// Assign grants a user a role on the project
// POST /api/projects/:id/members
func (h *MembershipHandler) Assign(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req assignMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	membership, err := h.membershipService.Assign(&services.AssignRequest{
		ProjectID: uint(projectID),
		UserID:    req.UserID,
		Role:      req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMembershipConflict):
			response.Conflict(c, err.Error())
		case errors.Is(err, services.ErrInvalidRole):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, err.Error())
		}
		return
	}

	response.Created(c, membership)
}

// ListByProject returns the project's members. Inactive rows are
// included only when ?include_inactive=true is set by a manager.
// GET /api/projects/:id/members
func (h *MembershipHandler) ListByProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	includeInactive := c.Query("include_inactive") == "true"
	if includeInactive {
		role := middleware.GetProjectRole(c)
		if !role.CanManageMembers() && middleware.GetRole(c) != models.SystemRoleAdmin {
			includeInactive = false
		}
	}

	members, err := h.membershipService.ListByProject(uint(projectID), includeInactive)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, members)
}

type changeRoleRequest struct {
	Role models.ProjectRole `json:"role" binding:"required"`
}

// ChangeRole updates the role of an active membership
// PUT /api/memberships/:id/role
func (h *MembershipHandler) ChangeRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid membership id")
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	membership, err := h.membershipService.ChangeRole(uint(id), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMembershipInactive), errors.Is(err, services.ErrInvalidRole):
			response.BadRequest(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "membership not found")
		default:
			response.ServerError(c, err.Error())
		}
		return
	}

	response.Success(c, membership)
}

// Deactivate revokes a membership. The row is kept for audit.
// POST /api/memberships/:id/deactivate
func (h *MembershipHandler) Deactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid membership id")
		return
	}

	membership, err := h.membershipService.Deactivate(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "membership not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, membership)
}

// Reactivate restores a previously deactivated membership
// POST /api/memberships/:id/reactivate
func (h *MembershipHandler) Reactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid membership id")
		return
	}

	membership, err := h.membershipService.Reactivate(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "membership not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, membership)
}

// ListMine returns the current user's active memberships
// GET /api/me/memberships
func (h *MembershipHandler) ListMine(c *gin.Context) {
	memberships, err := h.membershipService.ListByUser(middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, memberships)
}
