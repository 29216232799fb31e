package services

import (
	"errors"
	"time"

	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/internal/utils"
	"github.com/gradia/backend/pkg/logger"
	"gorm.io/gorm"
)

// RedemptionStatus classifies the outcome of a redemption attempt.
// Failure outcomes are ordinary values rather than errors: a bad code is
// an expected interaction, not a fault.
type RedemptionStatus string

const (
	// RedeemJoined means a membership was created or reactivated.
	RedeemJoined RedemptionStatus = "joined"
	// RedeemAlreadyMember means the user already holds an active
	// membership; the invitation is untouched.
	RedeemAlreadyMember RedemptionStatus = "already_member"
	// RedeemNotFound covers unknown codes and revoked invitations
	// alike, so a caller cannot probe which codes once existed.
	RedeemNotFound RedemptionStatus = "not_found"
	// RedeemExpired means the deadline passed before this attempt.
	RedeemExpired RedemptionStatus = "expired"
	// RedeemExhausted means the usage quota was already consumed.
	RedeemExhausted RedemptionStatus = "exhausted"
)

// RedemptionResult is the outcome of Redeem. Membership is set only when
// Status is RedeemJoined or RedeemAlreadyMember.
type RedemptionResult struct {
	Status     RedemptionStatus   `json:"status"`
	ProjectID  uint               `json:"project_id,omitempty"`
	Membership *models.Membership `json:"-"`
}

type InvitationService struct {
	db *gorm.DB
}

func NewInvitationService(db *gorm.DB) *InvitationService {
	return &InvitationService{db: db}
}

// IssueRequest carries the parameters for creating an invitation.
type IssueRequest struct {
	ProjectID uint          `json:"project_id" binding:"required"`
	MaxUses   int           `json:"max_uses"`
	TTL       time.Duration `json:"-"`
	TTLHours  int           `json:"ttl_hours"`
}

const (
	defaultInviteMaxUses = 1
	defaultInviteTTL     = 7 * 24 * time.Hour
)

// Issue creates a pending invitation for the project. The code is
// generated server-side and is the only capability needed to redeem.
func (s *InvitationService) Issue(req *IssueRequest, issuedBy uint) (*models.Invitation, error) {
	var project models.Project
	if err := s.db.First(&project, req.ProjectID).Error; err != nil {
		return nil, err
	}

	maxUses := req.MaxUses
	if maxUses <= 0 {
		maxUses = defaultInviteMaxUses
	}
	ttl := req.TTL
	if ttl <= 0 && req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, err
	}

	inv := &models.Invitation{
		Code:      code,
		ProjectID: project.ID,
		Status:    models.InvitationPending,
		MaxUses:   maxUses,
		UseCount:  0,
		ExpiresAt: time.Now().Add(ttl),
		CreatedBy: issuedBy,
	}
	if err := s.db.Create(inv).Error; err != nil {
		return nil, err
	}

	logger.Info().
		Uint("invitation_id", inv.ID).
		Uint("project_id", project.ID).
		Int("max_uses", maxUses).
		Time("expires_at", inv.ExpiresAt).
		Msg("invitation issued")
	return inv, nil
}

// Redeem consumes one use of the invitation identified by code on behalf
// of the user and grants a student membership on the project.
//
// The expiry check is lazy: nothing sweeps pending invitations in the
// background, so an invitation past its deadline is flipped to expired
// on the first attempt that observes it. Expiry is checked before the
// quota, so a code that is both past deadline and out of uses reports
// expired.
//
// Quota consumption is a conditional UPDATE guarded by status and
// use_count, so two concurrent redemptions of a last remaining use
// cannot both succeed.
func (s *InvitationService) Redeem(code string, userID uint) (*RedemptionResult, error) {
	now := time.Now()

	var inv models.Invitation
	err := s.db.Where("code = ?", code).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &RedemptionResult{Status: RedeemNotFound}, nil
		}
		return nil, err
	}

	switch inv.Status {
	case models.InvitationRevoked:
		// Indistinguishable from an unknown code on purpose.
		return &RedemptionResult{Status: RedeemNotFound}, nil
	case models.InvitationExpired:
		return &RedemptionResult{Status: RedeemExpired, ProjectID: inv.ProjectID}, nil
	case models.InvitationAccepted:
		return s.terminalOrMember(&inv, userID, RedeemExhausted)
	}

	if inv.IsExpired(now) {
		// Lazy expiry. The guard on status keeps a concurrent revoke
		// from being overwritten.
		s.db.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", inv.ID, models.InvitationPending).
			Update("status", models.InvitationExpired)
		return &RedemptionResult{Status: RedeemExpired, ProjectID: inv.ProjectID}, nil
	}

	var membership *models.Membership
	var alreadyMember *models.Membership
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Redemption is idempotent for members: holding an active
		// membership short-circuits before any use is consumed. The
		// check runs inside the transaction so two concurrent
		// redemptions by the same user cannot both pass it.
		existing, err := s.activeMembership(tx, inv.ProjectID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			alreadyMember = existing
			return nil
		}

		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ? AND use_count < max_uses",
				inv.ID, models.InvitationPending).
			Update("use_count", gorm.Expr("use_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race for the last use, or the invitation was
			// revoked underneath us.
			return errQuotaConsumed
		}

		var fresh models.Invitation
		if err := tx.First(&fresh, inv.ID).Error; err != nil {
			return err
		}
		if fresh.UseCount >= fresh.MaxUses {
			if err := tx.Model(&fresh).Update("status", models.InvitationAccepted).Error; err != nil {
				return err
			}
		}

		m, err := s.grantMembership(tx, inv.ProjectID, userID)
		if err != nil {
			return err
		}
		membership = m
		return nil
	})
	if err != nil {
		if errors.Is(err, errQuotaConsumed) {
			return s.postRaceResult(inv.ID, userID)
		}
		return nil, err
	}
	if alreadyMember != nil {
		return &RedemptionResult{
			Status:     RedeemAlreadyMember,
			ProjectID:  inv.ProjectID,
			Membership: alreadyMember,
		}, nil
	}

	logger.Info().
		Uint("invitation_id", inv.ID).
		Uint("project_id", inv.ProjectID).
		Uint("user_id", userID).
		Msg("invitation redeemed")
	return &RedemptionResult{
		Status:     RedeemJoined,
		ProjectID:  inv.ProjectID,
		Membership: membership,
	}, nil
}

var errQuotaConsumed = errors.New("invitation quota consumed")

// postRaceResult classifies a failed conditional update by re-reading
// the row: the invitation may have been revoked or exhausted since load.
func (s *InvitationService) postRaceResult(invID, userID uint) (*RedemptionResult, error) {
	var inv models.Invitation
	if err := s.db.First(&inv, invID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &RedemptionResult{Status: RedeemNotFound}, nil
		}
		return nil, err
	}
	switch inv.Status {
	case models.InvitationRevoked:
		return &RedemptionResult{Status: RedeemNotFound}, nil
	case models.InvitationExpired:
		return &RedemptionResult{Status: RedeemExpired, ProjectID: inv.ProjectID}, nil
	default:
		return s.terminalOrMember(&inv, userID, RedeemExhausted)
	}
}

// terminalOrMember reports the fallback status unless the user already
// holds an active membership, which still reads as already_member even
// on a spent invitation.
func (s *InvitationService) terminalOrMember(inv *models.Invitation, userID uint, fallback RedemptionStatus) (*RedemptionResult, error) {
	existing, err := s.activeMembership(s.db, inv.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &RedemptionResult{
			Status:     RedeemAlreadyMember,
			ProjectID:  inv.ProjectID,
			Membership: existing,
		}, nil
	}
	return &RedemptionResult{Status: fallback, ProjectID: inv.ProjectID}, nil
}

func (s *InvitationService) activeMembership(db *gorm.DB, projectID, userID uint) (*models.Membership, error) {
	var m models.Membership
	err := db.Where("project_id = ? AND user_id = ? AND status = ?",
		projectID, userID, models.MembershipActive).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// grantMembership creates a student membership, reactivating an inactive
// row if one exists so the unique index on (project_id, user_id) holds.
func (s *InvitationService) grantMembership(tx *gorm.DB, projectID, userID uint) (*models.Membership, error) {
	var m models.Membership
	err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&m).Error
	if err == nil {
		updates := map[string]interface{}{
			"status":      models.MembershipActive,
			"role":        models.ProjectRoleStudent,
			"assigned_at": time.Now(),
		}
		if err := tx.Model(&m).Updates(updates).Error; err != nil {
			return nil, err
		}
		m.Status = models.MembershipActive
		m.Role = models.ProjectRoleStudent
		return &m, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	m = models.Membership{
		ProjectID:  projectID,
		UserID:     userID,
		Role:       models.ProjectRoleStudent,
		Status:     models.MembershipActive,
		AssignedAt: time.Now(),
	}
	if err := tx.Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Revoke withdraws a pending invitation. Revocation is terminal and only
// valid from pending; memberships already granted through the invitation
// are unaffected. The invitation must belong to the given project: a
// manager's authority is scoped to their own project, and an id from
// another project reads as not found rather than forbidden.
func (s *InvitationService) Revoke(projectID, invitationID uint) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.db.Where("id = ? AND project_id = ?", invitationID, projectID).
		First(&inv).Error; err != nil {
		return nil, err
	}
	if inv.Status.Terminal() {
		return nil, ErrInvitationTerminal
	}

	res := s.db.Model(&models.Invitation{}).
		Where("id = ? AND status = ?", inv.ID, models.InvitationPending).
		Update("status", models.InvitationRevoked)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvitationTerminal
	}

	inv.Status = models.InvitationRevoked
	logger.Info().
		Uint("invitation_id", inv.ID).
		Uint("project_id", inv.ProjectID).
		Msg("invitation revoked")
	return &inv, nil
}

// ErrInvitationTerminal reports a state change attempted on an
// invitation already in a terminal state.
var ErrInvitationTerminal = errors.New("invitation is in a terminal state")

// ListByProject returns the project's invitations, newest first. Pending
// rows past their deadline are reported as expired without being
// rewritten; persistence of the flip stays with redemption attempts.
func (s *InvitationService) ListByProject(projectID uint) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := s.db.Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range invs {
		invs[i].Status = invs[i].EffectiveStatus(now)
	}
	return invs, nil
}
