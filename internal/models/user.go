package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a system user. WorkAreaID is a legacy reference kept
// only for the work-area authorization fallback.
type User struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Username   string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password   string         `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	Email      string         `gorm:"size:255" json:"email"`
	FullName   string         `gorm:"size:200" json:"full_name"`
	Role       SystemRole     `gorm:"size:50;default:student" json:"role"`
	AuthType   string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	WorkAreaID *uint          `gorm:"index" json:"work_area_id"`
	WorkArea   *WorkArea      `gorm:"foreignKey:WorkAreaID" json:"work_area,omitempty"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	LastLogin  *time.Time     `json:"last_login"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
