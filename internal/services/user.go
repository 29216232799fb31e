package services

import (
	"errors"

	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/internal/utils"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type CreateUserRequest struct {
	Username   string            `json:"username" binding:"required"`
	Password   string            `json:"password" binding:"required,min=6"`
	Email      string            `json:"email"`
	FullName   string            `json:"full_name"`
	Role       models.SystemRole `json:"role"`
	WorkAreaID *uint             `json:"work_area_id"`
}

func (s *UserService) Create(req *CreateUserRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.SystemRoleStudent
	}
	if !role.IsValid() {
		return nil, errors.New("invalid system role")
	}

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return nil, errors.New("username already exists")
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:   req.Username,
		Password:   hashedPassword,
		Email:      req.Email,
		FullName:   req.FullName,
		Role:       role,
		AuthType:   "local",
		WorkAreaID: req.WorkAreaID,
		IsActive:   true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("WorkArea").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type UserListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Role     string `form:"role"`
	Search   string `form:"search"`
}

type UserListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []models.User `json:"items"`
}

func (s *UserService) List(req *UserListRequest) (*UserListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Search != "" {
		query = query.Where("username LIKE ? OR full_name LIKE ?",
			"%"+req.Search+"%", "%"+req.Search+"%")
	}

	var total int64
	query.Count(&total)

	var users []models.User
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}

	return &UserListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    users,
	}, nil
}

type UpdateUserRequest struct {
	Email      *string `json:"email"`
	FullName   *string `json:"full_name"`
	WorkAreaID *uint   `json:"work_area_id"`
	IsActive   *bool   `json:"is_active"`
}

// Update modifies profile and status fields. The system role is fixed at
// registration and is deliberately not updatable here.
func (s *UserService) Update(id uint, req *UpdateUserRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.WorkAreaID != nil {
		updates["work_area_id"] = *req.WorkAreaID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func (s *UserService) Delete(id uint) error {
	return s.db.Delete(&models.User{}, id).Error
}
