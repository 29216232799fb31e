package services

import (
	"errors"
	"time"

	"github.com/gradia/backend/internal/models"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	WorkAreaID  *uint  `json:"work_area_id"`
	DirectorID  *uint  `json:"director_id"`
}

// Create adds a project and makes the creator a coordinator member, so
// the project has an explicit grant from day one and never depends on
// the legacy paths.
func (s *ProjectService) Create(req *CreateProjectRequest, createdBy uint) (*models.Project, error) {
	project := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.ProjectStatusDraft,
		WorkAreaID:  req.WorkAreaID,
		DirectorID:  req.DirectorID,
		CreatedBy:   createdBy,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		member := &models.Membership{
			ProjectID:  project.ID,
			UserID:     createdBy,
			Role:       models.ProjectRoleCoordinator,
			Status:     models.MembershipActive,
			AssignedAt: time.Now(),
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	err := s.db.Preload("WorkArea").Preload("Phases", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Status   string `form:"status"`
	Search   string `form:"search"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

func (s *ProjectService) List(req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Project{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Search != "" {
		query = query.Where("title LIKE ?", "%"+req.Search+"%")
	}

	var total int64
	query.Count(&total)

	var projects []models.Project
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

type UpdateProjectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	WorkAreaID  *uint   `json:"work_area_id"`
	DirectorID  *uint   `json:"director_id"`
}

func (s *ProjectService) Update(id uint, req *UpdateProjectRequest) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		if !status.IsValid() {
			return nil, errors.New("invalid project status")
		}
		updates["status"] = status
	}
	if req.WorkAreaID != nil {
		updates["work_area_id"] = *req.WorkAreaID
	}
	if req.DirectorID != nil {
		updates["director_id"] = *req.DirectorID
	}

	if len(updates) > 0 {
		if err := s.db.Model(&project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &project, nil
}

func (s *ProjectService) Delete(id uint) error {
	return s.db.Delete(&models.Project{}, id).Error
}

type CreatePhaseRequest struct {
	Name      string     `json:"name" binding:"required"`
	Position  int        `json:"position"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// AddPhase appends a phase to the project. Position defaults to the end
// of the current sequence.
func (s *ProjectService) AddPhase(projectID uint, req *CreatePhaseRequest) (*models.Phase, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return nil, err
	}

	position := req.Position
	if position == 0 {
		var maxPos int
		s.db.Model(&models.Phase{}).Where("project_id = ?", projectID).
			Select("COALESCE(MAX(position), 0)").Scan(&maxPos)
		position = maxPos + 1
	}

	phase := &models.Phase{
		ProjectID: projectID,
		Name:      req.Name,
		Position:  position,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.db.Create(phase).Error; err != nil {
		return nil, err
	}
	return phase, nil
}

func (s *ProjectService) ListPhases(projectID uint) ([]models.Phase, error) {
	var phases []models.Phase
	err := s.db.Where("project_id = ?", projectID).
		Order("position ASC").Find(&phases).Error
	if err != nil {
		return nil, err
	}
	return phases, nil
}
