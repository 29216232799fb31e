package models

import (
	"time"
)

// Membership binds a user to a project with a project-scoped role. The
// (project_id, user_id) pair is the natural key, enforced by a unique
// index; role changes are updates, never second rows.
//
// Membership has no soft-delete column on purpose: removal is modeled as
// Status = inactive so history is preserved, and a soft-deleted row would
// collide with the unique index when the user is re-added.
type Membership struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	ProjectID  uint             `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	Project    *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	UserID     uint             `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User       *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role       ProjectRole      `gorm:"size:50;not null" json:"role"`
	Status     MembershipStatus `gorm:"size:20;default:active" json:"status"`
	AssignedAt time.Time        `json:"assigned_at"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (Membership) TableName() string { return "memberships" }

// IsActive reports whether the membership currently grants access.
func (m *Membership) IsActive() bool { return m.Status == MembershipActive }
