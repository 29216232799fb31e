package services

import (
	"github.com/gradia/backend/internal/models"
	"gorm.io/gorm"
)

// WorkAreaService manages the legacy work-area groupings. New access
// control goes through memberships; work areas persist only for existing
// data and the resolver's last-resort fallback.
type WorkAreaService struct {
	db *gorm.DB
}

func NewWorkAreaService(db *gorm.DB) *WorkAreaService {
	return &WorkAreaService{db: db}
}

func (s *WorkAreaService) List() ([]models.WorkArea, error) {
	var areas []models.WorkArea
	if err := s.db.Order("name ASC").Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

func (s *WorkAreaService) GetByID(id uint) (*models.WorkArea, error) {
	var area models.WorkArea
	if err := s.db.First(&area, id).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

func (s *WorkAreaService) Create(name, description string) (*models.WorkArea, error) {
	area := &models.WorkArea{Name: name, Description: description}
	if err := s.db.Create(area).Error; err != nil {
		return nil, err
	}
	return area, nil
}
