package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gradia/backend/internal/middleware"
	"github.com/gradia/backend/internal/services"
	"github.com/gradia/backend/pkg/response"
	"gorm.io/gorm"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
	notifyService     *services.NotificationService
}

func NewInvitationHandler(db *gorm.DB, notify *services.NotificationService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: services.NewInvitationService(db),
		notifyService:     notify,
	}
}

type issueRequest struct {
	MaxUses  int `json:"max_uses"`
	TTLHours int `json:"ttl_hours"`
}

// Issue creates an invitation code for the project
// POST /api/projects/:id/invitations
func (h *InvitationHandler) Issue(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	inv, err := h.invitationService.Issue(&services.IssueRequest{
		ProjectID: uint(projectID),
		MaxUses:   req.MaxUses,
		TTLHours:  req.TTLHours,
	}, middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	if h.notifyService != nil {
		h.notifyService.InvitationIssued(inv)
	}

	response.Created(c, inv)
}

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

// Redeem consumes an invitation code for the current user. Invalid,
// revoked, expired and exhausted codes all come back as structured
// statuses rather than opaque errors.
// POST /api/invitations/redeem
func (h *InvitationHandler) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.invitationService.Redeem(req.Code, middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	switch result.Status {
	case services.RedeemJoined, services.RedeemAlreadyMember:
		response.Success(c, result)
	case services.RedeemNotFound:
		c.JSON(http.StatusNotFound, response.Response{Code: 404, Message: "invitation not found", Data: result})
	case services.RedeemExpired:
		c.JSON(http.StatusGone, response.Response{Code: 410, Message: "invitation expired", Data: result})
	case services.RedeemExhausted:
		c.JSON(http.StatusGone, response.Response{Code: 410, Message: "invitation exhausted", Data: result})
	default:
		response.ServerError(c, "unknown redemption status")
	}
}

// Revoke cancels a pending invitation
// POST /api/projects/:id/invitations/:invitation_id/revoke
func (h *InvitationHandler) Revoke(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}
	invID, err := strconv.ParseUint(c.Param("invitation_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}

	inv, err := h.invitationService.Revoke(uint(projectID), uint(invID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvitationTerminal):
			response.Conflict(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "invitation not found")
		default:
			response.ServerError(c, err.Error())
		}
		return
	}

	response.Success(c, inv)
}

// ListByProject returns the project's invitations with effective statuses
// GET /api/projects/:id/invitations
func (h *InvitationHandler) ListByProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	invitations, err := h.invitationService.ListByProject(uint(projectID))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, invitations)
}
