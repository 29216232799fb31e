package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gradia/backend/internal/services"
	"github.com/gradia/backend/pkg/response"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
	emailService  *services.EmailService
}

func NewSystemConfigHandler(db *gorm.DB) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService: services.NewSystemConfigService(db),
		emailService:  services.NewEmailService(db),
	}
}

// GetEmailConfig returns the SMTP settings. The password is never
// echoed back.
// GET /api/system/config/email
func (h *SystemConfigHandler) GetEmailConfig(c *gin.Context) {
	cfg := h.emailService.GetConfig()
	response.Success(c, gin.H{
		"enabled":  cfg.Enabled,
		"host":     cfg.Host,
		"port":     cfg.Port,
		"username": cfg.Username,
		"from":     cfg.From,
		"use_tls":  cfg.UseTLS,
	})
}

// UpdateEmailConfig updates SMTP settings. An empty password field
// leaves the stored password unchanged.
// PUT /api/system/config/email
func (h *SystemConfigHandler) UpdateEmailConfig(c *gin.Context) {
	var req services.UpdateEmailConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.configService.UpdateEmailConfig(&req); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	h.GetEmailConfig(c)
}

// GetByGroup returns the raw config entries of a group
// GET /api/system/config/:group
func (h *SystemConfigHandler) GetByGroup(c *gin.Context) {
	entries, err := h.configService.GetByGroup(c.Param("group"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	for i := range entries {
		if strings.Contains(entries[i].Key, "password") && entries[i].Value != "" {
			entries[i].Value = "******"
		}
	}
	response.Success(c, entries)
}
