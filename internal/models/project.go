package models

import (
	"time"

	"gorm.io/gorm"
)

// Project represents an academic project.
//
// PrincipalStudentID and DirectorID are direct-assignment shortcuts
// inherited from the older data model. Memberships are the source of
// truth; the resolver reads these fields only when no membership row
// exists for the user.
type Project struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"size:300;not null" json:"title"`
	Description        string         `gorm:"type:text" json:"description"`
	Status             ProjectStatus  `gorm:"size:50;default:draft" json:"status"`
	PrincipalStudentID *uint          `gorm:"index" json:"principal_student_id"`
	PrincipalStudent   *User          `gorm:"foreignKey:PrincipalStudentID" json:"principal_student,omitempty"`
	DirectorID         *uint          `gorm:"index" json:"director_id"`
	Director           *User          `gorm:"foreignKey:DirectorID" json:"director,omitempty"`
	WorkAreaID         *uint          `gorm:"index" json:"work_area_id"`
	WorkArea           *WorkArea      `gorm:"foreignKey:WorkAreaID" json:"work_area,omitempty"`
	Phases             []Phase        `gorm:"foreignKey:ProjectID" json:"phases,omitempty"`
	CreatedBy          uint           `json:"created_by"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

// Phase is a stage within a project's timeline. Deliverables belong to a
// phase.
type Phase struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"index;not null" json:"project_id"`
	Project   *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Name      string         `gorm:"size:200;not null" json:"name"`
	Position  int            `gorm:"default:0" json:"position"`
	StartDate *time.Time     `json:"start_date"`
	EndDate   *time.Time     `json:"end_date"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Phase) TableName() string { return "phases" }
