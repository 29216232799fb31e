package services

import (
	"errors"
	"time"

	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrMembershipConflict reports an attempt to create a second membership
// row for the same (project, user) pair.
var ErrMembershipConflict = errors.New("user already has a membership on this project")

// ErrMembershipInactive reports an operation that requires an active row.
var ErrMembershipInactive = errors.New("membership is not active")

type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// AssignRequest carries the parameters for a direct role grant.
type AssignRequest struct {
	ProjectID uint               `json:"project_id" binding:"required"`
	UserID    uint               `json:"user_id" binding:"required"`
	Role      models.ProjectRole `json:"role" binding:"required"`
}

// Assign grants the user a role on the project. At most one membership
// row exists per (project, user); if an inactive row is present the
// grant reactivates it with the new role instead of inserting.
func (s *MembershipService) Assign(req *AssignRequest) (*models.Membership, error) {
	if !req.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	var project models.Project
	if err := s.db.First(&project, req.ProjectID).Error; err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.First(&user, req.UserID).Error; err != nil {
		return nil, err
	}

	var existing models.Membership
	err := s.db.Where("project_id = ? AND user_id = ?", req.ProjectID, req.UserID).
		First(&existing).Error
	if err == nil {
		if existing.Status == models.MembershipActive {
			return nil, ErrMembershipConflict
		}
		updates := map[string]interface{}{
			"status":      models.MembershipActive,
			"role":        req.Role,
			"assigned_at": time.Now(),
		}
		if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
			return nil, err
		}
		existing.Status = models.MembershipActive
		existing.Role = req.Role
		logger.Info().
			Uint("project_id", req.ProjectID).
			Uint("user_id", req.UserID).
			Str("role", string(req.Role)).
			Msg("membership reactivated")
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	m := &models.Membership{
		ProjectID:  req.ProjectID,
		UserID:     req.UserID,
		Role:       req.Role,
		Status:     models.MembershipActive,
		AssignedAt: time.Now(),
	}
	if err := s.db.Create(m).Error; err != nil {
		return nil, err
	}

	logger.Info().
		Uint("project_id", req.ProjectID).
		Uint("user_id", req.UserID).
		Str("role", string(req.Role)).
		Msg("membership assigned")
	return m, nil
}

// ErrInvalidRole reports a role outside the closed project-role set.
var ErrInvalidRole = errors.New("invalid project role")

// ChangeRole updates the role on an active membership in place.
func (s *MembershipService) ChangeRole(membershipID uint, role models.ProjectRole) (*models.Membership, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	var m models.Membership
	if err := s.db.First(&m, membershipID).Error; err != nil {
		return nil, err
	}
	if m.Status != models.MembershipActive {
		return nil, ErrMembershipInactive
	}

	if err := s.db.Model(&m).Update("role", role).Error; err != nil {
		return nil, err
	}
	m.Role = role
	return &m, nil
}

// Deactivate revokes the membership by flipping its status. The row is
// kept so the grant history survives and the unique index still holds; a
// deactivated member resolves to no role even when legacy project fields
// would otherwise match.
func (s *MembershipService) Deactivate(membershipID uint) (*models.Membership, error) {
	var m models.Membership
	if err := s.db.First(&m, membershipID).Error; err != nil {
		return nil, err
	}
	if m.Status != models.MembershipActive {
		return nil, ErrMembershipInactive
	}

	if err := s.db.Model(&m).Update("status", models.MembershipInactive).Error; err != nil {
		return nil, err
	}
	m.Status = models.MembershipInactive

	logger.Info().
		Uint("membership_id", m.ID).
		Uint("project_id", m.ProjectID).
		Uint("user_id", m.UserID).
		Msg("membership deactivated")
	return &m, nil
}

// Reactivate restores an inactive membership with its previous role.
func (s *MembershipService) Reactivate(membershipID uint) (*models.Membership, error) {
	var m models.Membership
	if err := s.db.First(&m, membershipID).Error; err != nil {
		return nil, err
	}
	if m.Status == models.MembershipActive {
		return &m, nil
	}

	updates := map[string]interface{}{
		"status":      models.MembershipActive,
		"assigned_at": time.Now(),
	}
	if err := s.db.Model(&m).Updates(updates).Error; err != nil {
		return nil, err
	}
	m.Status = models.MembershipActive
	return &m, nil
}

// ListByProject returns the project's memberships with user data
// preloaded. Inactive rows are included only when requested; most
// callers want the current roster.
func (s *MembershipService) ListByProject(projectID uint, includeInactive bool) ([]models.Membership, error) {
	query := s.db.Preload("User").Where("project_id = ?", projectID)
	if !includeInactive {
		query = query.Where("status = ?", models.MembershipActive)
	}

	var members []models.Membership
	if err := query.Order("assigned_at ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListByUser returns the user's active memberships with projects
// preloaded.
func (s *MembershipService) ListByUser(userID uint) ([]models.Membership, error) {
	var members []models.Membership
	err := s.db.Preload("Project").
		Where("user_id = ? AND status = ?", userID, models.MembershipActive).
		Order("assigned_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Get loads a single membership row by id.
func (s *MembershipService) Get(membershipID uint) (*models.Membership, error) {
	var m models.Membership
	err := s.db.Preload("User").Preload("Project").First(&m, membershipID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}
