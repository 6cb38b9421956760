package cron

import (
	"log"
	"time"

	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/services"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron          *cron.Cron
	db            *gorm.DB
	unlockService *services.UnlockService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, unlockService *services.UnlockService) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:          c,
		db:            db,
		unlockService: unlockService,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Every hour: clear expired unlock verification codes
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.logJobStart("expire_unlock_codes")
		m.ExpireUnlockCodes()
	})
	if err != nil {
		return err
	}

	// 2. Every 15 minutes: clear expired password reset codes
	_, err = m.cron.AddFunc("0 */15 * * * *", func() {
		m.logJobStart("purge_reset_codes")
		m.PurgeExpiredResetCodes()
	})
	if err != nil {
		return err
	}

	// 3. Daily at 3 AM: prune old audit and job logs
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.logJobStart("prune_old_logs")
		m.PruneOldLogs()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronJobStatusRunning,
		StartedAt: time.Now(),
	}
	m.db.Create(&cronLog)
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName string, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, model.CronJobStatusRunning).
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       model.CronJobStatusCompleted,
			"completed_at": time.Now(),
			"message":      message,
		})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Error in job: %s - %v", jobName, err)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, model.CronJobStatusRunning).
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       model.CronJobStatusFailed,
			"completed_at": time.Now(),
			"message":      err.Error(),
		})
}
