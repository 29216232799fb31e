package services

import (
	"testing"
	"time"

	"github.com/gradia/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.WorkArea{},
		&models.Project{},
		&models.Phase{},
		&models.Membership{},
		&models.Invitation{},
		&models.Deliverable{},
		&models.Comment{},
		&models.Evaluation{},
		&models.SystemConfig{},
		&models.SystemLog{},
		&models.SchedulerLock{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// Each pooled connection to a bare :memory: DSN gets its own
	// database; a single connection keeps concurrent tests coherent.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.SystemRole) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.edu",
		Role:     role,
		AuthType: "local",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, title string) *models.Project {
	t.Helper()

	project := &models.Project{
		Title:  title,
		Status: models.ProjectStatusActive,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create project %s: %v", title, err)
	}
	return project
}

func createTestMembership(t *testing.T, db *gorm.DB, projectID, userID uint, role models.ProjectRole, status models.MembershipStatus) *models.Membership {
	t.Helper()

	m := &models.Membership{
		ProjectID:  projectID,
		UserID:     userID,
		Role:       role,
		Status:     status,
		AssignedAt: time.Now(),
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to create membership: %v", err)
	}
	return m
}

func createTestPhase(t *testing.T, db *gorm.DB, projectID uint) *models.Phase {
	t.Helper()

	phase := &models.Phase{
		ProjectID: projectID,
		Name:      "Phase 1",
		Position:  1,
	}
	if err := db.Create(phase).Error; err != nil {
		t.Fatalf("failed to create phase: %v", err)
	}
	return phase
}
