package services

import (
	"errors"
	"testing"

	"github.com/gradia/backend/internal/models"
)

func TestAssign_CreatesActiveMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)

	user := createTestUser(t, db, "newmember", models.SystemRoleStudent)
	project := createTestProject(t, db, "Assignable")

	m, err := svc.Assign(&AssignRequest{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      models.ProjectRoleEvaluator,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if m.Status != models.MembershipActive {
		t.Errorf("Status = %q, expected active", m.Status)
	}
	if m.Role != models.ProjectRoleEvaluator {
		t.Errorf("Role = %q, expected evaluator", m.Role)
	}
}

func TestAssign_DuplicateActiveConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)

	user := createTestUser(t, db, "dupe", models.SystemRoleStudent)
	project := createTestProject(t, db, "Conflict")

	req := &AssignRequest{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      models.ProjectRoleStudent,
	}
	if _, err := svc.Assign(req); err != nil {
		t.Fatalf("first Assign: %v", err)
	}

	_, err := svc.Assign(req)
	if !errors.Is(err, ErrMembershipConflict) {
		t.Errorf("second Assign = %v, expected ErrMembershipConflict", err)
	}
}

func TestAssign_ReactivatesInactiveRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)

	user := createTestUser(t, db, "comeback", models.SystemRoleStudent)
	project := createTestProject(t, db, "Rejoin")
	old := createTestMembership(t, db, project.ID, user.ID, models.ProjectRoleStudent, models.MembershipInactive)

	m, err := svc.Assign(&AssignRequest{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      models.ProjectRoleCoordinator,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if m.ID != old.ID {
		t.Errorf("expected the existing row to be reused, got new id %d", m.ID)
	}
	if m.Status != models.MembershipActive || m.Role != models.ProjectRoleCoordinator {
		t.Errorf("got status=%q role=%q after reactivation", m.Status, m.Role)
	}

	var count int64
	db.Model(&models.Membership{}).
		Where("project_id = ? AND user_id = ?", project.ID, user.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("membership rows = %d, expected 1", count)
	}
}

func TestAssign_InvalidRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)

	user := createTestUser(t, db, "badrole", models.SystemRoleStudent)
	project := createTestProject(t, db, "Strict")

	_, err := svc.Assign(&AssignRequest{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      models.ProjectRole("professor"),
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Assign with free-text role = %v, expected ErrInvalidRole", err)
	}
}

func TestUniqueness_AcrossAssignRedeemDeactivate(t *testing.T) {
	db := newTestDB(t)
	memberSvc := NewMembershipService(db)
	invSvc := NewInvitationService(db)

	coordinator := createTestUser(t, db, "coord", models.SystemRoleCoordinator)
	user := createTestUser(t, db, "churner", models.SystemRoleStudent)
	project := createTestProject(t, db, "Churn")

	// assign -> deactivate -> redeem -> deactivate -> assign
	m, err := memberSvc.Assign(&AssignRequest{
		ProjectID: project.ID, UserID: user.ID, Role: models.ProjectRoleStudent,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := memberSvc.Deactivate(m.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	inv, err := invSvc.Issue(&IssueRequest{ProjectID: project.ID, MaxUses: 2}, coordinator.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	result, err := invSvc.Redeem(inv.Code, user.ID)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if result.Status != RedeemJoined {
		t.Fatalf("Redeem status = %q, expected joined", result.Status)
	}

	if _, err := memberSvc.Deactivate(result.Membership.ID); err != nil {
		t.Fatalf("second Deactivate: %v", err)
	}
	if _, err := memberSvc.Assign(&AssignRequest{
		ProjectID: project.ID, UserID: user.ID, Role: models.ProjectRoleEvaluator,
	}); err != nil {
		t.Fatalf("final Assign: %v", err)
	}

	var count int64
	db.Model(&models.Membership{}).
		Where("project_id = ? AND user_id = ?", project.ID, user.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("membership rows = %d after churn, expected 1", count)
	}
}

func TestDeactivate_RevokesResolverAccess(t *testing.T) {
	db := newTestDB(t)
	memberSvc := NewMembershipService(db)
	authz := NewAuthzService(db)

	user := createTestUser(t, db, "revoked", models.SystemRoleStudent)
	project := createTestProject(t, db, "Locked Out")
	m := createTestMembership(t, db, project.ID, user.ID, models.ProjectRoleStudent, models.MembershipActive)

	res, err := authz.Resolve(user, project)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res == nil {
		t.Fatal("expected access before deactivation")
	}

	if _, err := memberSvc.Deactivate(m.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	res, err = authz.Resolve(user, project)
	if err != nil {
		t.Fatalf("Resolve after deactivate: %v", err)
	}
	if res != nil {
		t.Errorf("expected no role after deactivation, got %q", res.Role)
	}
}

func TestChangeRole_RejectsInactive(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)

	user := createTestUser(t, db, "frozen", models.SystemRoleStudent)
	project := createTestProject(t, db, "Frozen")
	m := createTestMembership(t, db, project.ID, user.ID, models.ProjectRoleStudent, models.MembershipInactive)

	_, err := svc.ChangeRole(m.ID, models.ProjectRoleCoordinator)
	if !errors.Is(err, ErrMembershipInactive) {
		t.Errorf("ChangeRole on inactive = %v, expected ErrMembershipInactive", err)
	}
}

func TestListByProject_InactiveVisibility(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)

	active := createTestUser(t, db, "active", models.SystemRoleStudent)
	inactive := createTestUser(t, db, "inactive", models.SystemRoleStudent)
	project := createTestProject(t, db, "Roster")

	createTestMembership(t, db, project.ID, active.ID, models.ProjectRoleStudent, models.MembershipActive)
	createTestMembership(t, db, project.ID, inactive.ID, models.ProjectRoleStudent, models.MembershipInactive)

	roster, err := svc.ListByProject(project.ID, false)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(roster) != 1 {
		t.Errorf("active roster = %d rows, expected 1", len(roster))
	}

	// Administrative read path sees revoked rows too.
	full, err := svc.ListByProject(project.ID, true)
	if err != nil {
		t.Fatalf("ListByProject(includeInactive): %v", err)
	}
	if len(full) != 2 {
		t.Errorf("full roster = %d rows, expected 2", len(full))
	}
}
