package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/avaliaedu/portal/model"
)

// Retention windows for the daily log pruning job
const (
	auditLogRetention = 365 * 24 * time.Hour
	cronLogRetention  = 30 * 24 * time.Hour
)

// ExpireUnlockCodes clears unlock verification codes past their one hour
// expiry. Runs hourly.
func (m *CronManager) ExpireUnlockCodes() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	jobName := "expire_unlock_codes"

	touched, err := m.unlockService.ExpireStaleCodes(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to expire unlock codes: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Cleared %d expired code(s)", touched))
}

// PurgeExpiredResetCodes clears password reset codes past their expiry.
// Runs every 15 minutes.
func (m *CronManager) PurgeExpiredResetCodes() {
	jobName := "purge_reset_codes"

	res := m.db.Model(&model.User{}).
		Where("reset_code <> '' AND reset_code_expires_at < ?", time.Now()).
		Updates(map[string]interface{}{
			"reset_code":            "",
			"reset_code_expires_at": nil,
		})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to purge reset codes: %w", res.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Purged %d expired reset code(s)", res.RowsAffected))
}

// PruneOldLogs deletes admin audit rows older than a year and cron job rows
// older than thirty days. Runs daily.
func (m *CronManager) PruneOldLogs() {
	jobName := "prune_old_logs"

	res := m.db.Where("created_at < ?", time.Now().Add(-auditLogRetention)).
		Delete(&model.AdminAuditLog{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to prune audit logs: %w", res.Error))
		return
	}
	auditPruned := res.RowsAffected

	res = m.db.Where("started_at < ?", time.Now().Add(-cronLogRetention)).
		Delete(&model.CronJobLog{})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to prune cron logs: %w", res.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Pruned %d audit log(s), %d cron log(s)", auditPruned, res.RowsAffected))
}
