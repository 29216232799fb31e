package models

import (
	"time"

	"gorm.io/gorm"
)

// WorkArea is a legacy coarse-grained grouping of users and projects.
// It survives only as the lowest-precedence authorization fallback.
type WorkArea struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (WorkArea) TableName() string { return "work_areas" }
