package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"schedr/internal/models"
)

const alarmColumns = `id, user_id, schedule_id, type, message, is_activated, activated_at,
	is_acked, acked_at, is_deleted, created_at`

// CreateAlarm inserts one alarm row and sets its ID.
func (s *Store) CreateAlarm(ctx context.Context, alarm *models.Alarm) error {
	return insertAlarm(ctx, s.db, alarm)
}

// ListAlarmsForUser returns a user's non-deleted alarms, newest first.
func (s *Store) ListAlarmsForUser(ctx context.Context, userID int64, limit, offset int) ([]models.Alarm, error) {
	query := `SELECT ` + alarmColumns + ` FROM alarms
		WHERE user_id = ? AND is_deleted = 0
		ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	} else if offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, offset)
	}
	return queryAlarms(ctx, s.db, query, args...)
}

// ListAlarmsForSchedule returns every alarm raised for a schedule, deleted ones included.
func (s *Store) ListAlarmsForSchedule(ctx context.Context, scheduleID int64) ([]models.Alarm, error) {
	return queryAlarms(ctx, s.db, `SELECT `+alarmColumns+` FROM alarms
		WHERE schedule_id = ?
		ORDER BY id ASC`, scheduleID)
}

// AckAlarm marks one of the user's live alarms acknowledged. It reports
// whether the alarm exists and is not deleted.
func (s *Store) AckAlarm(ctx context.Context, id, userID int64, now time.Time) (bool, error) {
	return execAffected(ctx, s.db, `
		UPDATE alarms SET is_acked = 1, acked_at = COALESCE(acked_at, ?)
		WHERE id = ? AND user_id = ? AND is_deleted = 0
	`, formatTime(now), id, userID)
}

// DeleteAlarm soft-deletes one of the user's alarms, acknowledging it as well.
func (s *Store) DeleteAlarm(ctx context.Context, id, userID int64, now time.Time) (bool, error) {
	return execAffected(ctx, s.db, `
		UPDATE alarms SET is_deleted = 1, is_acked = 1, acked_at = COALESCE(acked_at, ?)
		WHERE id = ? AND user_id = ? AND is_deleted = 0
	`, formatTime(now), id, userID)
}

// ClearAlarms soft-deletes every live alarm of a user and returns how many changed.
func (s *Store) ClearAlarms(ctx context.Context, userID int64, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alarms SET is_deleted = 1, is_acked = 1, acked_at = COALESCE(acked_at, ?)
		WHERE user_id = ? AND is_deleted = 0
	`, formatTime(now), userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func insertAlarm(ctx context.Context, q execer, alarm *models.Alarm) error {
	if alarm == nil {
		return fmt.Errorf("alarm is required")
	}
	if !models.IsValidAlarmType(alarm.Type) {
		return fmt.Errorf("invalid alarm type %q: %w", alarm.Type, models.ErrValidation)
	}
	result, err := q.ExecContext(ctx, `
		INSERT INTO alarms (user_id, schedule_id, type, message, is_activated, activated_at, is_acked, acked_at, is_deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		alarm.UserID,
		alarm.ScheduleID,
		string(alarm.Type),
		alarm.Message,
		boolInt(alarm.IsActivated),
		nullTime(alarm.ActivatedAt),
		boolInt(alarm.IsAcked),
		nullTime(alarm.AckedAt),
		boolInt(alarm.IsDeleted),
		formatTime(alarm.CreatedAt),
	)
	if err != nil {
		return err
	}
	alarm.ID, err = result.LastInsertId()
	return err
}

func execAffected(ctx context.Context, q execer, query string, args ...any) (bool, error) {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func queryAlarms(ctx context.Context, q querier, query string, args ...any) ([]models.Alarm, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alarms := make([]models.Alarm, 0)
	for rows.Next() {
		alarm, err := scanAlarm(rows)
		if err != nil {
			return nil, err
		}
		if alarm == nil {
			continue
		}
		alarms = append(alarms, *alarm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return alarms, nil
}

func scanAlarm(scanner interface {
	Scan(dest ...any) error
}) (*models.Alarm, error) {
	var alarm models.Alarm
	var alarmType, createdAt string
	var activated, acked, deleted int
	var activatedAt, ackedAt sql.NullString

	if err := scanner.Scan(
		&alarm.ID,
		&alarm.UserID,
		&alarm.ScheduleID,
		&alarmType,
		&alarm.Message,
		&activated,
		&activatedAt,
		&acked,
		&ackedAt,
		&deleted,
		&createdAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	alarm.Type = models.AlarmType(alarmType)
	alarm.IsActivated = activated != 0
	alarm.IsAcked = acked != 0
	alarm.IsDeleted = deleted != 0

	var err error
	if alarm.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if alarm.ActivatedAt, err = parseNullTime(nullStringPtr(activatedAt)); err != nil {
		return nil, err
	}
	if alarm.AckedAt, err = parseNullTime(nullStringPtr(ackedAt)); err != nil {
		return nil, err
	}
	return &alarm, nil
}
