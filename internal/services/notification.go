package services

import (
	"context"
	"fmt"

	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService composes notification tasks from domain events and
// hands them to the task queue. Delivery itself happens in the worker
// (async mode) or a goroutine (sync mode), never in the request path.
type NotificationService struct {
	db    *gorm.DB
	queue TaskQueue
	email *EmailService
}

func NewNotificationService(db *gorm.DB, queue TaskQueue) *NotificationService {
	return &NotificationService{
		db:    db,
		queue: queue,
		email: NewEmailService(db),
	}
}

// ProcessTask is the delivery processor registered with the worker and
// the sync queue.
func (s *NotificationService) ProcessTask(ctx context.Context, task *NotificationTask) error {
	return s.email.SendNotification(task)
}

// InvitationIssued notifies the issuer that their invitation is live.
func (s *NotificationService) InvitationIssued(inv *models.Invitation) {
	var project models.Project
	if err := s.db.First(&project, inv.ProjectID).Error; err != nil {
		logger.Warnf("[Notify] project %d not found for invitation %d: %v", inv.ProjectID, inv.ID, err)
		return
	}

	recipients := s.emailsForUsers([]uint{inv.CreatedBy})
	body := fmt.Sprintf(
		"An invitation code for project %q was issued.\n\nCode: %s\nMax uses: %d\nExpires: %s\n",
		project.Title, inv.Code, inv.MaxUses, inv.ExpiresAt.Format("2006-01-02 15:04"))

	s.enqueue(&NotificationTask{
		Kind:       NotifyInvitationIssued,
		ProjectID:  project.ID,
		Recipients: recipients,
		Subject:    fmt.Sprintf("Invitation issued for %s", project.Title),
		Body:       body,
	})
}

// DeliverableSubmitted notifies the project's reviewing members that a
// deliverable is waiting for review.
func (s *NotificationService) DeliverableSubmitted(d *models.Deliverable) {
	var project models.Project
	if err := s.db.First(&project, d.ProjectID).Error; err != nil {
		logger.Warnf("[Notify] project %d not found for deliverable %d: %v", d.ProjectID, d.ID, err)
		return
	}

	recipients := s.reviewerEmails(project.ID)
	body := fmt.Sprintf(
		"Deliverable %q in project %q was submitted and is waiting for review.\n",
		d.Title, project.Title)

	s.enqueue(&NotificationTask{
		Kind:       NotifyDeliverableSubmitted,
		ProjectID:  project.ID,
		Recipients: recipients,
		Subject:    fmt.Sprintf("Submission in %s: %s", project.Title, d.Title),
		Body:       body,
	})
}

// DueDateReminder notifies the assignee (or all student members when
// unassigned) that a deliverable is due soon.
func (s *NotificationService) DueDateReminder(d *models.Deliverable, businessDays int) {
	var project models.Project
	if err := s.db.First(&project, d.ProjectID).Error; err != nil {
		logger.Warnf("[Notify] project %d not found for deliverable %d: %v", d.ProjectID, d.ID, err)
		return
	}

	var recipients []string
	if d.AssigneeID != nil {
		recipients = s.emailsForUsers([]uint{*d.AssigneeID})
	} else {
		recipients = s.memberEmails(project.ID, models.ProjectRoleStudent)
	}

	due := ""
	if d.DueDate != nil {
		due = d.DueDate.Format("2006-01-02")
	}
	body := fmt.Sprintf(
		"Deliverable %q in project %q is due on %s (%d business days from now).\n",
		d.Title, project.Title, due, businessDays)

	s.enqueue(&NotificationTask{
		Kind:       NotifyDueDateReminder,
		ProjectID:  project.ID,
		Recipients: recipients,
		Subject:    fmt.Sprintf("Due soon in %s: %s", project.Title, d.Title),
		Body:       body,
	})
}

func (s *NotificationService) enqueue(task *NotificationTask) {
	if s.queue == nil || len(task.Recipients) == 0 {
		return
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Warnf("[Notify] enqueue failed for %s: %v", task.Kind, err)
	}
}

// reviewerEmails collects the addresses of active members whose role may
// review, plus the project's legacy director if set.
func (s *NotificationService) reviewerEmails(projectID uint) []string {
	var members []models.Membership
	s.db.Preload("User").
		Where("project_id = ? AND status = ?", projectID, models.MembershipActive).
		Find(&members)

	var ids []uint
	for _, m := range members {
		if m.Role.CanReview() {
			ids = append(ids, m.UserID)
		}
	}

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err == nil && project.DirectorID != nil {
		ids = append(ids, *project.DirectorID)
	}

	return s.emailsForUsers(ids)
}

func (s *NotificationService) memberEmails(projectID uint, role models.ProjectRole) []string {
	var members []models.Membership
	s.db.Where("project_id = ? AND status = ? AND role = ?",
		projectID, models.MembershipActive, role).
		Find(&members)

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return s.emailsForUsers(ids)
}

func (s *NotificationService) emailsForUsers(ids []uint) []string {
	if len(ids) == 0 {
		return nil
	}

	var users []models.User
	s.db.Where("id IN ? AND is_active = ?", ids, true).Find(&users)

	seen := make(map[string]bool)
	var emails []string
	for _, u := range users {
		if u.Email == "" || seen[u.Email] {
			continue
		}
		seen[u.Email] = true
		emails = append(emails, u.Email)
	}
	return emails
}
