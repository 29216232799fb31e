package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/gradia/backend/internal/config"
	"github.com/gradia/backend/internal/models"
	"github.com/gradia/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	reminderLockName = "due_date_reminder"
	reminderLockTTL  = 10 * time.Minute
)

// ReminderService runs the due-date reminder job. Each run notifies
// assignees of deliverables coming due within the configured number of
// business days. A database lock keeps multi-instance deployments from
// sending duplicate reminders.
type ReminderService struct {
	db       *gorm.DB
	cfg      *config.ReminderConfig
	calendar *CalendarService
	notify   *NotificationService
	cron     *cron.Cron
	owner    string
	country  string
}

func NewReminderService(db *gorm.DB, cfg *config.ReminderConfig, calendar *CalendarService, notify *NotificationService) *ReminderService {
	return &ReminderService{
		db:       db,
		cfg:      cfg,
		calendar: calendar,
		notify:   notify,
		owner:    uuid.NewString(),
		country:  "ES",
	}
}

// StartScheduler registers and starts the cron job. No-op when the
// reminder is disabled.
func (s *ReminderService) StartScheduler() {
	if !s.cfg.Enabled {
		logger.Infof("[Reminder] Scheduler disabled")
		return
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Cron, func() {
		if err := s.Run(); err != nil {
			logger.Errorf("[Reminder] Run failed: %v", err)
		}
	}); err != nil {
		logger.Errorf("[Reminder] Failed to add cron job: %v", err)
		return
	}

	s.cron.Start()
	logger.Infof("[Reminder] Scheduler started (cron: %s, lead: %d business days)", s.cfg.Cron, s.cfg.LeadDays)
}

// StopScheduler stops the cron scheduler.
func (s *ReminderService) StopScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Run executes one reminder pass under the scheduler lock. The lock key
// is the current date, so the job fires at most once per day across all
// instances even if their clocks drift within the lock TTL.
func (s *ReminderService) Run() error {
	now := time.Now()
	lockKey := now.Format("2006-01-02")

	acquired, err := s.acquireLock(reminderLockName, lockKey, now)
	if err != nil {
		return err
	}
	if !acquired {
		logger.Debug().Str("lock_key", lockKey).Msg("reminder lock held elsewhere, skipping run")
		return nil
	}

	due, err := s.dueSoon(now)
	if err != nil {
		return err
	}

	for i := range due {
		days := s.calendar.BusinessDaysUntil(now, *due[i].DueDate, s.country)
		s.notify.DueDateReminder(&due[i], days)
	}

	logger.Infof("[Reminder] Run complete: %d deliverables due within %d business days", len(due), s.cfg.LeadDays)
	return nil
}

// dueSoon returns unfinished deliverables whose due date falls within
// the configured lead window, counting business days only.
func (s *ReminderService) dueSoon(now time.Time) ([]models.Deliverable, error) {
	// Wide calendar pre-filter in SQL, exact business-day check in Go.
	horizon := now.AddDate(0, 0, s.cfg.LeadDays*2+3)

	var candidates []models.Deliverable
	err := s.db.
		Where("due_date IS NOT NULL AND due_date > ? AND due_date <= ?", now, horizon).
		Where("status IN ?", []models.DeliverableStatus{
			models.DeliverablePending,
			models.DeliverableChangesRequested,
		}).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	var due []models.Deliverable
	for _, d := range candidates {
		if s.calendar.BusinessDaysUntil(now, *d.DueDate, s.country) <= s.cfg.LeadDays {
			due = append(due, d)
		}
	}
	return due, nil
}

// acquireLock claims the (name, key) scheduler lock for this instance.
// An expired lock left by a crashed instance is taken over.
func (s *ReminderService) acquireLock(name, key string, now time.Time) (bool, error) {
	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  s.owner,
		LockedAt:  now,
		ExpiresAt: now.Add(reminderLockTTL),
	}

	if err := s.db.Create(&lock).Error; err == nil {
		return true, nil
	}

	// Row exists. Take it only if the previous holder's lease lapsed.
	res := s.db.Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND lock_key = ? AND expires_at < ?", name, key, now).
		Updates(map[string]interface{}{
			"locked_by":  s.owner,
			"locked_at":  now,
			"expires_at": now.Add(reminderLockTTL),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
