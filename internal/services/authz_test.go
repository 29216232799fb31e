package services

import (
	"testing"

	"github.com/gradia/backend/internal/models"
)

func TestResolve_ActiveMembershipWins(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)

	user := createTestUser(t, db, "carla", models.SystemRoleCoordinator)
	project := createTestProject(t, db, "Thesis Platform")
	createTestMembership(t, db, project.ID, user.ID, models.ProjectRoleCoordinator, models.MembershipActive)

	// Legacy fields and work area point elsewhere; the membership row
	// must decide regardless.
	area := &models.WorkArea{Name: "Engineering"}
	if err := db.Create(area).Error; err != nil {
		t.Fatalf("create work area: %v", err)
	}
	db.Model(project).Updates(map[string]interface{}{
		"work_area_id":         area.ID,
		"principal_student_id": user.ID,
	})
	db.Model(user).Update("work_area_id", area.ID)

	var fresh models.Project
	db.First(&fresh, project.ID)

	res, err := svc.Resolve(user, &fresh)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res == nil {
		t.Fatal("expected a resolution, got nil")
	}
	if res.Role != models.ProjectRoleCoordinator {
		t.Errorf("Role = %q, expected coordinator", res.Role)
	}
	if res.Source != SourceMembership {
		t.Errorf("Source = %q, expected membership", res.Source)
	}
}

func TestResolve_InactiveMembershipDeniesLegacyPaths(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)

	user := createTestUser(t, db, "diego", models.SystemRoleStudent)
	project := createTestProject(t, db, "Capstone")

	// The legacy field matches, but the inactive row is an explicit
	// revocation and must shut the door completely.
	db.Model(project).Update("principal_student_id", user.ID)
	createTestMembership(t, db, project.ID, user.ID, models.ProjectRoleStudent, models.MembershipInactive)

	var fresh models.Project
	db.First(&fresh, project.ID)

	res, err := svc.Resolve(user, &fresh)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res != nil {
		t.Errorf("expected no role, got %q via %q", res.Role, res.Source)
	}
}

func TestResolve_LegacyPrincipalStudent(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)

	user := createTestUser(t, db, "elena", models.SystemRoleStudent)
	project := createTestProject(t, db, "Old Project")
	db.Model(project).Update("principal_student_id", user.ID)

	var fresh models.Project
	db.First(&fresh, project.ID)

	res, err := svc.Resolve(user, &fresh)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res == nil {
		t.Fatal("expected a resolution, got nil")
	}
	if res.Role != models.ProjectRoleStudent {
		t.Errorf("Role = %q, expected student", res.Role)
	}
	if res.Source != SourceLegacyStudent {
		t.Errorf("Source = %q, expected legacy_principal_student", res.Source)
	}
}

func TestResolve_LegacyDirectorBeatsWorkArea(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)

	user := createTestUser(t, db, "franco", models.SystemRoleCoordinator)
	project := createTestProject(t, db, "Mixed Signals")

	area := &models.WorkArea{Name: "Sciences"}
	if err := db.Create(area).Error; err != nil {
		t.Fatalf("create work area: %v", err)
	}
	db.Model(project).Updates(map[string]interface{}{
		"director_id":  user.ID,
		"work_area_id": area.ID,
	})
	db.Model(user).Update("work_area_id", area.ID)

	var freshUser models.User
	db.First(&freshUser, user.ID)
	var fresh models.Project
	db.First(&fresh, project.ID)

	res, err := svc.Resolve(&freshUser, &fresh)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res == nil {
		t.Fatal("expected a resolution, got nil")
	}
	if res.Role != models.ProjectRoleDirector {
		t.Errorf("Role = %q, expected director", res.Role)
	}
	if res.Source != SourceLegacyDirector {
		t.Errorf("Source = %q, expected legacy_director", res.Source)
	}
}

func TestResolve_WorkAreaFallback(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)

	area := &models.WorkArea{Name: "Humanities"}
	if err := db.Create(area).Error; err != nil {
		t.Fatalf("create work area: %v", err)
	}

	coordinator := createTestUser(t, db, "gloria", models.SystemRoleCoordinator)
	db.Model(coordinator).Update("work_area_id", area.ID)

	project := createTestProject(t, db, "Area Project")
	db.Model(project).Update("work_area_id", area.ID)

	var freshUser models.User
	db.First(&freshUser, coordinator.ID)
	var fresh models.Project
	db.First(&fresh, project.ID)

	res, err := svc.Resolve(&freshUser, &fresh)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res == nil {
		t.Fatal("expected a resolution, got nil")
	}
	if res.Role != models.ProjectRoleCoordinator {
		t.Errorf("Role = %q, expected coordinator", res.Role)
	}
	if res.Source != SourceWorkArea {
		t.Errorf("Source = %q, expected work_area_fallback", res.Source)
	}
}

func TestResolve_WorkAreaFallbackStudentsExcluded(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)

	area := &models.WorkArea{Name: "Arts"}
	if err := db.Create(area).Error; err != nil {
		t.Fatalf("create work area: %v", err)
	}

	// Same-area student must not get coordinator by coincidence.
	student := createTestUser(t, db, "hugo", models.SystemRoleStudent)
	db.Model(student).Update("work_area_id", area.ID)

	project := createTestProject(t, db, "Area Project 2")
	db.Model(project).Update("work_area_id", area.ID)

	var freshUser models.User
	db.First(&freshUser, student.ID)
	var fresh models.Project
	db.First(&fresh, project.ID)

	res, err := svc.Resolve(&freshUser, &fresh)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res != nil {
		t.Errorf("expected no role, got %q via %q", res.Role, res.Source)
	}
}

func TestResolve_NoRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)

	user := createTestUser(t, db, "ines", models.SystemRoleStudent)
	project := createTestProject(t, db, "Unrelated")

	res, err := svc.Resolve(user, project)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res != nil {
		t.Errorf("expected no role, got %q", res.Role)
	}
}

func TestResolutionCache_ResolvesOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)

	user := createTestUser(t, db, "jorge", models.SystemRoleStudent)
	project := createTestProject(t, db, "Cached")
	m := createTestMembership(t, db, project.ID, user.ID, models.ProjectRoleStudent, models.MembershipActive)

	cache := svc.NewCache(user)

	first, err := cache.Resolve(project)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first == nil || first.Role != models.ProjectRoleStudent {
		t.Fatalf("expected student resolution, got %+v", first)
	}

	// Deactivate the row; the cache must keep serving the first answer
	// for the rest of the request.
	db.Model(m).Update("status", models.MembershipInactive)

	second, err := cache.Resolve(project)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second == nil || second.Role != models.ProjectRoleStudent {
		t.Errorf("cached resolution changed: %+v", second)
	}
}
