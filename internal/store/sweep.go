package store

import (
	"context"
	"database/sql"
	"time"

	"schedr/internal/models"
)

// SweepTx is the transactional view one alarm sweep cycle works against.
type SweepTx interface {
	DueSchedules(ctx context.Context, now time.Time) ([]models.Schedule, error)
	OverdueSchedules(ctx context.Context, now time.Time) ([]models.Schedule, error)
	ActiveUsers(ctx context.Context) ([]models.User, error)
	OpenDueAlarms(ctx context.Context, scheduleIDs []int64) ([]models.Alarm, error)
	InsertAlarm(ctx context.Context, alarm *models.Alarm) error
	ActivateAlarm(ctx context.Context, id int64, message string, at time.Time) error
}

// Sweep runs fn inside a single write transaction. Any error from fn rolls
// the whole cycle back.
func (s *Store) Sweep(ctx context.Context, fn func(tx SweepTx) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(sweepTx{tx: tx})
	})
}

type sweepTx struct {
	tx *sql.Tx
}

// DueSchedules returns live, incomplete schedules whose alarm_time has passed.
func (t sweepTx) DueSchedules(ctx context.Context, now time.Time) ([]models.Schedule, error) {
	return querySchedules(ctx, t.tx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE is_deleted = 0 AND is_completed = 0
		  AND alarm_time IS NOT NULL AND alarm_time <= ?
		ORDER BY id ASC
	`, formatTime(now))
}

// OverdueSchedules returns live, incomplete schedules whose due_time has passed.
func (t sweepTx) OverdueSchedules(ctx context.Context, now time.Time) ([]models.Schedule, error) {
	return querySchedules(ctx, t.tx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE is_deleted = 0 AND is_completed = 0
		  AND due_time IS NOT NULL AND due_time <= ?
		ORDER BY id ASC
	`, formatTime(now))
}

func (t sweepTx) ActiveUsers(ctx context.Context) ([]models.User, error) {
	return listActiveUsers(ctx, t.tx)
}

// OpenDueAlarms returns the non-deleted, non-acked schedule_due alarms of the given schedules.
func (t sweepTx) OpenDueAlarms(ctx context.Context, scheduleIDs []int64) ([]models.Alarm, error) {
	if len(scheduleIDs) == 0 {
		return []models.Alarm{}, nil
	}
	args := append([]any{string(models.AlarmScheduleDue)}, int64Args(scheduleIDs)...)
	return queryAlarms(ctx, t.tx, `
		SELECT `+alarmColumns+`
		FROM alarms
		WHERE type = ? AND is_deleted = 0 AND is_acked = 0
		  AND schedule_id IN (`+placeholders(len(scheduleIDs))+`)
		ORDER BY id ASC
	`, args...)
}

func (t sweepTx) InsertAlarm(ctx context.Context, alarm *models.Alarm) error {
	return insertAlarm(ctx, t.tx, alarm)
}

func (t sweepTx) ActivateAlarm(ctx context.Context, id int64, message string, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE alarms SET is_activated = 1, activated_at = ?, message = ?
		WHERE id = ?
	`, formatTime(at), message, id)
	return err
}
