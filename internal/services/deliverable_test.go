package services

import (
	"errors"
	"testing"

	"github.com/gradia/backend/internal/config"
	"github.com/gradia/backend/internal/models"
	"gorm.io/gorm"
)

func newDeliverableService(db *gorm.DB) *DeliverableService {
	cfg := &config.VisibilityConfig{
		DirectorStates:  []string{"submitted", "in_review"},
		EvaluatorStates: []string{"in_review"},
	}
	return NewDeliverableService(db, NewAuthzService(db), cfg)
}

func seedDeliverable(t *testing.T, db *gorm.DB, projectID, phaseID uint, title string, status models.DeliverableStatus) *models.Deliverable {
	t.Helper()

	d := &models.Deliverable{
		ProjectID: projectID,
		PhaseID:   phaseID,
		Title:     title,
		Status:    status,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("seed deliverable %s: %v", title, err)
	}
	return d
}

func TestVisibleForProject_CoordinatorSeesReviewStates(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	coordinator := createTestUser(t, db, "coord", models.SystemRoleCoordinator)
	project := createTestProject(t, db, "Reviewed")
	phase := createTestPhase(t, db, project.ID)
	createTestMembership(t, db, project.ID, coordinator.ID, models.ProjectRoleCoordinator, models.MembershipActive)

	seedDeliverable(t, db, project.ID, phase.ID, "draft work", models.DeliverablePending)
	seedDeliverable(t, db, project.ID, phase.ID, "handed in", models.DeliverableSubmitted)
	seedDeliverable(t, db, project.ID, phase.ID, "finished", models.DeliverableApproved)
	seedDeliverable(t, db, project.ID, phase.ID, "sent back", models.DeliverableChangesRequested)

	visible, err := svc.VisibleForProject(coordinator, project.ID)
	if err != nil {
		t.Fatalf("VisibleForProject: %v", err)
	}

	if len(visible) != 2 {
		t.Fatalf("got %d deliverables, expected 2", len(visible))
	}
	states := map[models.DeliverableStatus]bool{}
	for _, d := range visible {
		states[d.Status] = true
	}
	if !states[models.DeliverableSubmitted] || !states[models.DeliverableChangesRequested] {
		t.Errorf("coordinator queue = %v, expected submitted and changes_requested", states)
	}
}

func TestVisibleForProject_StudentSeesEverything(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	student := createTestUser(t, db, "stud", models.SystemRoleStudent)
	other := createTestUser(t, db, "other", models.SystemRoleStudent)
	project := createTestProject(t, db, "Mine")
	phase := createTestPhase(t, db, project.ID)
	createTestMembership(t, db, project.ID, student.ID, models.ProjectRoleStudent, models.MembershipActive)

	// Assignee is informational: the unassigned and otherwise-assigned
	// rows are visible too.
	d := seedDeliverable(t, db, project.ID, phase.ID, "assigned away", models.DeliverablePending)
	db.Model(d).Update("assignee_id", other.ID)
	seedDeliverable(t, db, project.ID, phase.ID, "unassigned", models.DeliverableSubmitted)
	seedDeliverable(t, db, project.ID, phase.ID, "approved", models.DeliverableApproved)

	visible, err := svc.VisibleForProject(student, project.ID)
	if err != nil {
		t.Fatalf("VisibleForProject: %v", err)
	}
	if len(visible) != 3 {
		t.Errorf("got %d deliverables, expected all 3", len(visible))
	}
}

func TestVisibleForProject_EvaluatorUsesConfiguredStates(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	evaluator := createTestUser(t, db, "eval", models.SystemRoleEvaluator)
	project := createTestProject(t, db, "Evaluated")
	phase := createTestPhase(t, db, project.ID)
	createTestMembership(t, db, project.ID, evaluator.ID, models.ProjectRoleEvaluator, models.MembershipActive)

	seedDeliverable(t, db, project.ID, phase.ID, "waiting", models.DeliverableSubmitted)
	seedDeliverable(t, db, project.ID, phase.ID, "under review", models.DeliverableInReview)

	visible, err := svc.VisibleForProject(evaluator, project.ID)
	if err != nil {
		t.Fatalf("VisibleForProject: %v", err)
	}
	if len(visible) != 1 {
		t.Fatalf("got %d deliverables, evaluator config is in_review only", len(visible))
	}
	if visible[0].Status != models.DeliverableInReview {
		t.Errorf("Status = %q, expected in_review", visible[0].Status)
	}
}

func TestVisibleForProject_NoRoleDenied(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	outsider := createTestUser(t, db, "outsider", models.SystemRoleStudent)
	project := createTestProject(t, db, "Closed")
	phase := createTestPhase(t, db, project.ID)
	seedDeliverable(t, db, project.ID, phase.ID, "secret", models.DeliverableSubmitted)

	_, err := svc.VisibleForProject(outsider, project.ID)
	if !errors.Is(err, ErrNoProjectRole) {
		t.Errorf("VisibleForProject = %v, expected ErrNoProjectRole", err)
	}
}

func TestReviewQueue_SpansProjectsByRole(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	user := createTestUser(t, db, "busy", models.SystemRoleCoordinator)

	// Coordinator on p1, student on p2, nothing on p3.
	p1 := createTestProject(t, db, "P1")
	ph1 := createTestPhase(t, db, p1.ID)
	createTestMembership(t, db, p1.ID, user.ID, models.ProjectRoleCoordinator, models.MembershipActive)

	p2 := createTestProject(t, db, "P2")
	ph2 := createTestPhase(t, db, p2.ID)
	createTestMembership(t, db, p2.ID, user.ID, models.ProjectRoleStudent, models.MembershipActive)

	p3 := createTestProject(t, db, "P3")
	ph3 := createTestPhase(t, db, p3.ID)

	seedDeliverable(t, db, p1.ID, ph1.ID, "p1 pending", models.DeliverablePending)
	seedDeliverable(t, db, p1.ID, ph1.ID, "p1 submitted", models.DeliverableSubmitted)
	seedDeliverable(t, db, p2.ID, ph2.ID, "p2 pending", models.DeliverablePending)
	seedDeliverable(t, db, p3.ID, ph3.ID, "p3 submitted", models.DeliverableSubmitted)

	queue, err := svc.ReviewQueue(user)
	if err != nil {
		t.Fatalf("ReviewQueue: %v", err)
	}

	// p1 contributes its submitted row (coordinator filter), p2 all its
	// rows (student), p3 nothing.
	if len(queue) != 2 {
		t.Fatalf("queue = %d deliverables, expected 2", len(queue))
	}
	for _, d := range queue {
		if d.ProjectID == p3.ID {
			t.Errorf("deliverable from inaccessible project %d leaked into queue", p3.ID)
		}
	}
}

func TestSubmit_Workflow(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	student := createTestUser(t, db, "worker", models.SystemRoleStudent)
	project := createTestProject(t, db, "Workflow")
	phase := createTestPhase(t, db, project.ID)
	createTestMembership(t, db, project.ID, student.ID, models.ProjectRoleStudent, models.MembershipActive)

	d := seedDeliverable(t, db, project.ID, phase.ID, "homework", models.DeliverablePending)

	submitted, err := svc.Submit(student, d.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != models.DeliverableSubmitted {
		t.Errorf("Status = %q, expected submitted", submitted.Status)
	}
	if submitted.SubmittedAt == nil {
		t.Error("SubmittedAt should be set")
	}

	// Submitting twice is not a legal transition.
	if _, err := svc.Submit(student, d.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Submit = %v, expected ErrInvalidTransition", err)
	}
}

func TestSubmit_AssigneeOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	assignee := createTestUser(t, db, "owner", models.SystemRoleStudent)
	other := createTestUser(t, db, "bystander", models.SystemRoleStudent)
	project := createTestProject(t, db, "Assigned")
	phase := createTestPhase(t, db, project.ID)
	createTestMembership(t, db, project.ID, assignee.ID, models.ProjectRoleStudent, models.MembershipActive)
	createTestMembership(t, db, project.ID, other.ID, models.ProjectRoleStudent, models.MembershipActive)

	d := seedDeliverable(t, db, project.ID, phase.ID, "personal task", models.DeliverablePending)
	db.Model(d).Update("assignee_id", assignee.ID)

	if _, err := svc.Submit(other, d.ID); !errors.Is(err, ErrRoleNotAllowed) {
		t.Errorf("Submit by non-assignee = %v, expected ErrRoleNotAllowed", err)
	}
	if _, err := svc.Submit(assignee, d.ID); err != nil {
		t.Errorf("Submit by assignee: %v", err)
	}
}

func TestTransition_ReviewFlow(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	coordinator := createTestUser(t, db, "reviewer", models.SystemRoleCoordinator)
	student := createTestUser(t, db, "author", models.SystemRoleStudent)
	project := createTestProject(t, db, "Review Flow")
	phase := createTestPhase(t, db, project.ID)
	createTestMembership(t, db, project.ID, coordinator.ID, models.ProjectRoleCoordinator, models.MembershipActive)
	createTestMembership(t, db, project.ID, student.ID, models.ProjectRoleStudent, models.MembershipActive)

	d := seedDeliverable(t, db, project.ID, phase.ID, "chapter one", models.DeliverableSubmitted)

	// submitted -> in_review -> changes_requested is legal.
	if _, err := svc.Transition(coordinator, d.ID, models.DeliverableInReview); err != nil {
		t.Fatalf("to in_review: %v", err)
	}
	if _, err := svc.Transition(coordinator, d.ID, models.DeliverableChangesRequested); err != nil {
		t.Fatalf("to changes_requested: %v", err)
	}

	// Students cannot drive review transitions.
	d2 := seedDeliverable(t, db, project.ID, phase.ID, "chapter two", models.DeliverableSubmitted)
	if _, err := svc.Transition(student, d2.ID, models.DeliverableInReview); !errors.Is(err, ErrRoleNotAllowed) {
		t.Errorf("student Transition = %v, expected ErrRoleNotAllowed", err)
	}

	// submitted -> approved skips review and is rejected.
	if _, err := svc.Transition(coordinator, d2.ID, models.DeliverableApproved); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("skip transition = %v, expected ErrInvalidTransition", err)
	}
}

func TestCreate_RoleGate(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	coordinator := createTestUser(t, db, "maker", models.SystemRoleCoordinator)
	student := createTestUser(t, db, "junior", models.SystemRoleStudent)
	project := createTestProject(t, db, "Gated")
	phase := createTestPhase(t, db, project.ID)
	createTestMembership(t, db, project.ID, coordinator.ID, models.ProjectRoleCoordinator, models.MembershipActive)
	createTestMembership(t, db, project.ID, student.ID, models.ProjectRoleStudent, models.MembershipActive)

	req := &CreateDeliverableRequest{
		ProjectID: project.ID,
		PhaseID:   phase.ID,
		Title:     "new work item",
	}

	if _, err := svc.Create(student, req); !errors.Is(err, ErrRoleNotAllowed) {
		t.Errorf("Create by student = %v, expected ErrRoleNotAllowed", err)
	}
	if _, err := svc.Create(coordinator, req); err != nil {
		t.Errorf("Create by coordinator: %v", err)
	}
}

func TestAddEvaluation_EvaluatorAndDirectorOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newDeliverableService(db)

	evaluator := createTestUser(t, db, "grader", models.SystemRoleEvaluator)
	student := createTestUser(t, db, "graded", models.SystemRoleStudent)
	project := createTestProject(t, db, "Graded")
	phase := createTestPhase(t, db, project.ID)
	createTestMembership(t, db, project.ID, evaluator.ID, models.ProjectRoleEvaluator, models.MembershipActive)
	createTestMembership(t, db, project.ID, student.ID, models.ProjectRoleStudent, models.MembershipActive)

	d := seedDeliverable(t, db, project.ID, phase.ID, "final report", models.DeliverableInReview)

	if _, err := svc.AddEvaluation(student, d.ID, 9.0, "self grade"); !errors.Is(err, ErrRoleNotAllowed) {
		t.Errorf("AddEvaluation by student = %v, expected ErrRoleNotAllowed", err)
	}

	e, err := svc.AddEvaluation(evaluator, d.ID, 8.5, "solid work")
	if err != nil {
		t.Fatalf("AddEvaluation: %v", err)
	}
	if e.Score != 8.5 {
		t.Errorf("Score = %v, expected 8.5", e.Score)
	}
}
