package models

import (
	"time"

	"gorm.io/gorm"
)

// Deliverable is a trackable unit of work within a project phase, with
// its own review workflow state.
type Deliverable struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ProjectID   uint              `gorm:"index;not null" json:"project_id"`
	Project     *Project          `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	PhaseID     uint              `gorm:"index;not null" json:"phase_id"`
	Phase       *Phase            `gorm:"foreignKey:PhaseID" json:"phase,omitempty"`
	Title       string            `gorm:"size:300;not null" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Status      DeliverableStatus `gorm:"size:30;default:pending" json:"status"`
	AssigneeID  *uint             `gorm:"index" json:"assignee_id"`
	Assignee    *User             `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	DueDate     *time.Time        `gorm:"index" json:"due_date"`
	SubmittedAt *time.Time        `json:"submitted_at"`
	CreatedBy   uint              `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (Deliverable) TableName() string { return "deliverables" }

// Comment is feedback attached to a deliverable.
type Comment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	DeliverableID uint           `gorm:"index;not null" json:"deliverable_id"`
	Deliverable   *Deliverable   `gorm:"foreignKey:DeliverableID" json:"deliverable,omitempty"`
	AuthorID      uint           `gorm:"index;not null" json:"author_id"`
	Author        *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body          string         `gorm:"type:text;not null" json:"body"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Comment) TableName() string { return "comments" }

// Evaluation is an evaluator's verdict on a deliverable.
type Evaluation struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	DeliverableID uint           `gorm:"index;not null" json:"deliverable_id"`
	Deliverable   *Deliverable   `gorm:"foreignKey:DeliverableID" json:"deliverable,omitempty"`
	EvaluatorID   uint           `gorm:"index;not null" json:"evaluator_id"`
	Evaluator     *User          `gorm:"foreignKey:EvaluatorID" json:"evaluator,omitempty"`
	Score         float64        `json:"score"`
	Feedback      string         `gorm:"type:text" json:"feedback"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Evaluation) TableName() string { return "evaluations" }
