package services

import (
	"errors"
	"time"

	"github.com/gradia/backend/internal/config"
	"github.com/gradia/backend/internal/models"
	"gorm.io/gorm"
)

// ErrNoProjectRole reports an operation attempted without any effective
// role on the target project.
var ErrNoProjectRole = errors.New("no role on project")

// ErrRoleNotAllowed reports an operation the caller's role cannot
// perform.
var ErrRoleNotAllowed = errors.New("role not allowed for this operation")

// ErrInvalidTransition reports a workflow move the current state does
// not permit.
var ErrInvalidTransition = errors.New("invalid deliverable state transition")

// reviewStates is what a coordinator sees: work that needs, is under, or
// just came back from review.
var reviewStates = []models.DeliverableStatus{
	models.DeliverableSubmitted,
	models.DeliverableInReview,
	models.DeliverableChangesRequested,
}

type DeliverableService struct {
	db    *gorm.DB
	authz *AuthzService
	cfg   *config.VisibilityConfig
}

func NewDeliverableService(db *gorm.DB, authz *AuthzService, cfg *config.VisibilityConfig) *DeliverableService {
	return &DeliverableService{db: db, authz: authz, cfg: cfg}
}

// stateFilter returns the status filter for the role, or nil for
// unrestricted visibility. Director and evaluator filters come from
// configuration so institutions can widen or narrow them without a code
// change; coordinator and student visibility are fixed.
func (s *DeliverableService) stateFilter(role models.ProjectRole) []models.DeliverableStatus {
	switch role {
	case models.ProjectRoleStudent, models.ProjectRoleAdministrator:
		return nil
	case models.ProjectRoleCoordinator:
		return reviewStates
	case models.ProjectRoleDirector:
		return toStatuses(s.cfg.DirectorStates)
	case models.ProjectRoleEvaluator:
		return toStatuses(s.cfg.EvaluatorStates)
	default:
		return []models.DeliverableStatus{}
	}
}

func toStatuses(names []string) []models.DeliverableStatus {
	out := make([]models.DeliverableStatus, 0, len(names))
	for _, n := range names {
		out = append(out, models.DeliverableStatus(n))
	}
	return out
}

// VisibleForProject returns the project's deliverables the user may see.
// The role is resolved once; the filter applies in the query, not per
// row.
func (s *DeliverableService) VisibleForProject(user *models.User, projectID uint) ([]models.Deliverable, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return nil, err
	}

	res, err := s.authz.Resolve(user, &project)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrNoProjectRole
	}

	query := s.db.Preload("Phase").Preload("Assignee").
		Where("project_id = ?", projectID)
	if filter := s.stateFilter(res.Role); filter != nil {
		query = query.Where("status IN ?", filter)
	}

	var deliverables []models.Deliverable
	if err := query.Order("due_date ASC, id ASC").Find(&deliverables).Error; err != nil {
		return nil, err
	}
	return deliverables, nil
}

// ReviewQueue returns, across all projects the user can access, the
// deliverables their role lets them see. One resolution per project via
// the cache, regardless of how many deliverables each project holds.
func (s *DeliverableService) ReviewQueue(user *models.User) ([]models.Deliverable, error) {
	var projects []models.Project
	if err := s.candidateProjects(user, &projects); err != nil {
		return nil, err
	}

	cache := s.authz.NewCache(user)
	var queue []models.Deliverable
	for i := range projects {
		res, err := cache.Resolve(&projects[i])
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}

		query := s.db.Preload("Phase").
			Where("project_id = ?", projects[i].ID)
		if filter := s.stateFilter(res.Role); filter != nil {
			query = query.Where("status IN ?", filter)
		}

		var deliverables []models.Deliverable
		if err := query.Order("due_date ASC, id ASC").Find(&deliverables).Error; err != nil {
			return nil, err
		}
		queue = append(queue, deliverables...)
	}
	return queue, nil
}

// candidateProjects narrows the projects worth resolving: those with a
// membership row for the user, plus those reachable through a legacy or
// work-area path. Avoids resolving every project in the system.
func (s *DeliverableService) candidateProjects(user *models.User, out *[]models.Project) error {
	query := s.db.Distinct("projects.*").
		Joins("LEFT JOIN memberships ON memberships.project_id = projects.id AND memberships.user_id = ?", user.ID).
		Where("memberships.id IS NOT NULL OR projects.principal_student_id = ? OR projects.director_id = ?",
			user.ID, user.ID)
	if (user.Role == models.SystemRoleCoordinator || user.Role == models.SystemRoleAdmin) && user.WorkAreaID != nil {
		query = s.db.Distinct("projects.*").
			Joins("LEFT JOIN memberships ON memberships.project_id = projects.id AND memberships.user_id = ?", user.ID).
			Where("memberships.id IS NOT NULL OR projects.principal_student_id = ? OR projects.director_id = ? OR projects.work_area_id = ?",
				user.ID, user.ID, *user.WorkAreaID)
	}
	return query.Find(out).Error
}

// CreateRequest carries the fields for a new deliverable.
type CreateDeliverableRequest struct {
	ProjectID   uint       `json:"project_id" binding:"required"`
	PhaseID     uint       `json:"phase_id" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	AssigneeID  *uint      `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

// Create adds a deliverable to a project phase. Coordinators and
// directors create work items.
func (s *DeliverableService) Create(user *models.User, req *CreateDeliverableRequest) (*models.Deliverable, error) {
	role, err := s.requireRole(user, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if role != models.ProjectRoleCoordinator && role != models.ProjectRoleDirector &&
		role != models.ProjectRoleAdministrator {
		return nil, ErrRoleNotAllowed
	}

	var phase models.Phase
	if err := s.db.Where("id = ? AND project_id = ?", req.PhaseID, req.ProjectID).
		First(&phase).Error; err != nil {
		return nil, err
	}

	d := &models.Deliverable{
		ProjectID:   req.ProjectID,
		PhaseID:     req.PhaseID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.DeliverablePending,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		CreatedBy:   user.ID,
	}
	if err := s.db.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// Submit moves a deliverable to submitted. The assignee may submit; when
// no assignee is set, any student member of the project may.
func (s *DeliverableService) Submit(user *models.User, deliverableID uint) (*models.Deliverable, error) {
	var d models.Deliverable
	if err := s.db.First(&d, deliverableID).Error; err != nil {
		return nil, err
	}

	role, err := s.requireRole(user, d.ProjectID)
	if err != nil {
		return nil, err
	}
	if d.AssigneeID != nil {
		if *d.AssigneeID != user.ID {
			return nil, ErrRoleNotAllowed
		}
	} else if role != models.ProjectRoleStudent {
		return nil, ErrRoleNotAllowed
	}

	if d.Status != models.DeliverablePending && d.Status != models.DeliverableChangesRequested {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.DeliverableSubmitted,
		"submitted_at": now,
	}
	if err := s.db.Model(&d).Updates(updates).Error; err != nil {
		return nil, err
	}
	d.Status = models.DeliverableSubmitted
	d.SubmittedAt = &now
	return &d, nil
}

// reviewTransitions is the workflow a reviewer may drive.
var reviewTransitions = map[models.DeliverableStatus][]models.DeliverableStatus{
	models.DeliverableSubmitted: {models.DeliverableInReview},
	models.DeliverableInReview:  {models.DeliverableApproved, models.DeliverableChangesRequested},
}

// Transition moves a deliverable along the review workflow. Reviewing
// roles only.
func (s *DeliverableService) Transition(user *models.User, deliverableID uint, target models.DeliverableStatus) (*models.Deliverable, error) {
	var d models.Deliverable
	if err := s.db.First(&d, deliverableID).Error; err != nil {
		return nil, err
	}

	role, err := s.requireRole(user, d.ProjectID)
	if err != nil {
		return nil, err
	}
	if !role.CanReview() {
		return nil, ErrRoleNotAllowed
	}

	allowed := false
	for _, t := range reviewTransitions[d.Status] {
		if t == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}

	if err := s.db.Model(&d).Update("status", target).Error; err != nil {
		return nil, err
	}
	d.Status = target
	return &d, nil
}

// AddComment attaches feedback to a deliverable. Any role on the project
// may comment.
func (s *DeliverableService) AddComment(user *models.User, deliverableID uint, body string) (*models.Comment, error) {
	var d models.Deliverable
	if err := s.db.First(&d, deliverableID).Error; err != nil {
		return nil, err
	}
	if _, err := s.requireRole(user, d.ProjectID); err != nil {
		return nil, err
	}

	c := &models.Comment{
		DeliverableID: d.ID,
		AuthorID:      user.ID,
		Body:          body,
	}
	if err := s.db.Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// AddEvaluation records an evaluator's verdict. Evaluator and director
// roles only.
func (s *DeliverableService) AddEvaluation(user *models.User, deliverableID uint, score float64, feedback string) (*models.Evaluation, error) {
	var d models.Deliverable
	if err := s.db.First(&d, deliverableID).Error; err != nil {
		return nil, err
	}

	role, err := s.requireRole(user, d.ProjectID)
	if err != nil {
		return nil, err
	}
	if role != models.ProjectRoleEvaluator && role != models.ProjectRoleDirector {
		return nil, ErrRoleNotAllowed
	}

	e := &models.Evaluation{
		DeliverableID: d.ID,
		EvaluatorID:   user.ID,
		Score:         score,
		Feedback:      feedback,
	}
	if err := s.db.Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

func (s *DeliverableService) requireRole(user *models.User, projectID uint) (models.ProjectRole, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return "", err
	}
	res, err := s.authz.Resolve(user, &project)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", ErrNoProjectRole
	}
	return res.Role, nil
}
