package models

import (
	"time"
)

// Invitation is a single- or multi-use, time-bound code that onboards
// students into a project. Expiry is evaluated lazily at redemption and
// listing time; there is no background sweep.
type Invitation struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Code      string           `gorm:"uniqueIndex;size:64;not null" json:"code"`
	ProjectID uint             `gorm:"index;not null" json:"project_id"`
	Project   *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Status    InvitationStatus `gorm:"size:20;default:pending" json:"status"`
	MaxUses   int              `gorm:"not null" json:"max_uses"`
	UseCount  int              `gorm:"default:0" json:"use_count"`
	ExpiresAt time.Time        `gorm:"index;not null" json:"expires_at"`
	CreatedBy uint             `json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (Invitation) TableName() string { return "invitations" }

// IsExpired compares against the stored absolute timestamp so issuance
// and redemption served by different processes agree.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// EffectiveStatus reports the status a reader should see: a pending
// invitation whose window has passed reads as expired even before the
// stored row is lazily corrected.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && i.IsExpired(now) {
		return InvitationExpired
	}
	return i.Status
}
