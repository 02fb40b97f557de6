package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"schedr/internal/models"
	"schedr/internal/ordering"
)

const scheduleColumns = `id, title, content, date, due_time, alarm_time, priority, owner_id, individual,
	project_name, parent_id, parent_order, memo, memo_author_id, memo_updated_at,
	is_completed, is_deleted, created_at, updated_at`

// ScheduleFilter narrows ListSchedules. The zero value lists every schedule
// the viewer can see, completed ones included.
type ScheduleFilter struct {
	ViewerID      int64
	OwnOnly       bool
	HideCompleted bool
	CompletedOnly bool
	Start         *time.Time
	End           *time.Time
	SearchTerms   []string
	ExcludeTerms  []string
	// SearchFields limits which text columns the terms apply to; empty means all.
	SearchFields []SearchField
	Limit        int
	Offset       int
}

// SearchField names a text column searched by ScheduleFilter terms.
type SearchField string

const (
	SearchTitle   SearchField = "title"
	SearchContent SearchField = "content"
	SearchMemo    SearchField = "memo"
)

// ScheduleUpdate carries optional field changes. Nil pointers leave the
// column untouched; the Clear flags null out optional timestamps.
type ScheduleUpdate struct {
	Title          *string
	Content        *string
	Date           *time.Time
	DueTime        *time.Time
	ClearDueTime   bool
	AlarmTime      *time.Time
	ClearAlarmTime bool
	Priority       *models.Priority
	Individual     *bool
	ProjectName    *string
	IsCompleted    *bool
	UpdatedAt      time.Time
}

// CreateSchedule inserts a schedule, assigning its parent_order and the
// initial collaborator grants in the same transaction. The owner is never
// added as a collaborator of their own schedule.
func (s *Store) CreateSchedule(ctx context.Context, sched *models.Schedule, collaborators []int64, opts ordering.Options) error {
	if sched == nil {
		return fmt.Errorf("schedule is required")
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		order, err := ordering.Assign(ctx, orderingReader{q: tx}, sched.ParentID, opts)
		if err != nil {
			return err
		}
		sched.ParentOrder = order

		result, err := tx.ExecContext(ctx, `
			INSERT INTO schedules (
				title, content, date, due_time, alarm_time, priority, owner_id, individual,
				project_name, parent_id, parent_order, memo, memo_author_id, memo_updated_at,
				is_completed, is_deleted, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		`,
			sched.Title,
			nullIfEmpty(sched.Content),
			formatTime(sched.Date),
			nullTime(sched.DueTime),
			nullTime(sched.AlarmTime),
			nullIfEmpty(string(sched.Priority)),
			sched.OwnerID,
			boolInt(sched.Individual),
			nullIfEmpty(sched.ProjectName),
			nullInt64(sched.ParentID),
			sched.ParentOrder,
			nullIfEmpty(sched.Memo),
			nullInt64(sched.MemoAuthorID),
			nullTime(sched.MemoUpdatedAt),
			boolInt(sched.IsCompleted),
			formatTime(sched.CreatedAt),
			formatTime(sched.UpdatedAt),
		)
		if err != nil {
			return err
		}
		sched.ID, err = result.LastInsertId()
		if err != nil {
			return err
		}

		caps := models.DefaultCapabilities()
		for _, userID := range collaborators {
			if userID == sched.OwnerID {
				continue
			}
			user, err := getUser(ctx, tx, userID)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("collaborator %d does not exist: %w", userID, models.ErrValidation)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO schedule_shares
					(schedule_id, shared_with_id, can_edit, can_delete, can_complete, can_share, role, added_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, sched.ID, userID, boolInt(caps.CanEdit), boolInt(caps.CanDelete), boolInt(caps.CanComplete),
				boolInt(caps.CanShare), caps.Role, formatTime(sched.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSchedule returns a schedule by id, soft-deleted rows included, or nil when missing.
func (s *Store) GetSchedule(ctx context.Context, id int64) (*models.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	return scanSchedule(row)
}

// ListSchedules returns non-deleted schedules visible to filter.ViewerID,
// ordered by due time (unset last) then newest first.
func (s *Store) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]models.Schedule, error) {
	query, args := buildScheduleListQuery(filter)
	return querySchedules(ctx, s.db, query, args...)
}

// ListChildren returns the non-deleted children of parentID in parent_order.
func (s *Store) ListChildren(ctx context.Context, parentID int64) ([]models.Schedule, error) {
	return querySchedules(ctx, s.db, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE parent_id = ? AND is_deleted = 0
		ORDER BY parent_order ASC, id ASC
	`, parentID)
}

// UpdateSchedule applies update to a non-deleted schedule. It reports whether a row changed.
func (s *Store) UpdateSchedule(ctx context.Context, id int64, update ScheduleUpdate) (bool, error) {
	set := []string{}
	args := []any{}

	if update.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Content != nil {
		set = append(set, "content = ?")
		args = append(args, nullIfEmpty(*update.Content))
	}
	if update.Date != nil {
		set = append(set, "date = ?")
		args = append(args, formatTime(*update.Date))
	}
	if update.ClearDueTime {
		set = append(set, "due_time = NULL")
	} else if update.DueTime != nil {
		set = append(set, "due_time = ?")
		args = append(args, formatTime(*update.DueTime))
	}
	if update.ClearAlarmTime {
		set = append(set, "alarm_time = NULL")
	} else if update.AlarmTime != nil {
		set = append(set, "alarm_time = ?")
		args = append(args, formatTime(*update.AlarmTime))
	}
	if update.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, nullIfEmpty(string(*update.Priority)))
	}
	if update.Individual != nil {
		set = append(set, "individual = ?")
		args = append(args, boolInt(*update.Individual))
	}
	if update.ProjectName != nil {
		set = append(set, "project_name = ?")
		args = append(args, nullIfEmpty(*update.ProjectName))
	}
	if update.IsCompleted != nil {
		set = append(set, "is_completed = ?")
		args = append(args, boolInt(*update.IsCompleted))
	}

	set = append(set, "updated_at = ?")
	args = append(args, formatTime(update.UpdatedAt))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE schedules SET %s WHERE id = ? AND is_deleted = 0", strings.Join(set, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SoftDeleteSchedule marks a schedule deleted and cascades is_deleted to all
// of its live alarms in one transaction. It reports whether the schedule was live.
func (s *Store) SoftDeleteSchedule(ctx context.Context, id int64, now time.Time) (bool, error) {
	deleted := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE schedules SET is_deleted = 1, updated_at = ?
			WHERE id = ? AND is_deleted = 0
		`, formatTime(now), id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		deleted = true

		_, err = tx.ExecContext(ctx, `
			UPDATE alarms SET is_deleted = 1
			WHERE schedule_id = ? AND is_deleted = 0
		`, id)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// UpdateMemo records a memo edit and inserts the resulting notification
// alarms atomically. It reports whether the schedule was live.
func (s *Store) UpdateMemo(ctx context.Context, id int64, memo string, authorID int64, now time.Time, alarms []models.Alarm) (bool, error) {
	updated := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE schedules
			SET memo = ?, memo_author_id = ?, memo_updated_at = ?, updated_at = ?
			WHERE id = ? AND is_deleted = 0
		`, nullIfEmpty(memo), authorID, formatTime(now), formatTime(now), id)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		updated = true

		for i := range alarms {
			if err := insertAlarm(ctx, tx, &alarms[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func buildScheduleListQuery(filter ScheduleFilter) (string, []any) {
	where := []string{"is_deleted = 0"}
	args := []any{}

	if filter.OwnOnly {
		where = append(where, "owner_id = ?")
		args = append(args, filter.ViewerID)
	} else {
		where = append(where, "(owner_id = ? OR individual = 0)")
		args = append(args, filter.ViewerID)
	}

	if filter.CompletedOnly {
		where = append(where, "is_completed = 1")
	} else if filter.HideCompleted {
		where = append(where, "is_completed = 0")
	}

	if filter.Start != nil {
		where = append(where, "date >= ?")
		args = append(args, formatTime(*filter.Start))
	}
	if filter.End != nil {
		where = append(where, "date <= ?")
		args = append(args, formatTime(*filter.End))
	}

	fields := filter.SearchFields
	if len(fields) == 0 {
		fields = []SearchField{SearchTitle, SearchContent, SearchMemo}
	}

	var anyOf []string
	for _, term := range filter.SearchTerms {
		cond, condArgs := termCondition(fields, term)
		if cond == "" {
			continue
		}
		anyOf = append(anyOf, cond)
		args = append(args, condArgs...)
	}
	if len(anyOf) > 0 {
		where = append(where, "("+strings.Join(anyOf, " OR ")+")")
	}

	for _, term := range filter.ExcludeTerms {
		cond, condArgs := termCondition(fields, term)
		if cond == "" {
			continue
		}
		where = append(where, "NOT "+cond)
		args = append(args, condArgs...)
	}

	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY due_time IS NULL, due_time ASC, created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	} else if filter.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	return query, args
}

// termCondition matches term case-insensitively against any of fields.
func termCondition(fields []SearchField, term string) (string, []any) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", nil
	}
	pattern := "%" + escapeLike(term) + "%"

	parts := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		switch field {
		case SearchTitle, SearchContent, SearchMemo:
			parts = append(parts, fmt.Sprintf(`LOWER(COALESCE(%s, '')) LIKE LOWER(?) ESCAPE '\'`, field))
			args = append(args, pattern)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func querySchedules(ctx context.Context, q querier, query string, args ...any) ([]models.Schedule, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]models.Schedule, 0)
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		if sched == nil {
			continue
		}
		schedules = append(schedules, *sched)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

func scanSchedule(scanner interface {
	Scan(dest ...any) error
}) (*models.Schedule, error) {
	var sched models.Schedule
	var content, priority, projectName, memo sql.NullString
	var dueTime, alarmTime, memoUpdatedAt sql.NullString
	var parentID, memoAuthorID sql.NullInt64
	var individual, completed, deleted int
	var date, createdAt, updatedAt string

	if err := scanner.Scan(
		&sched.ID,
		&sched.Title,
		&content,
		&date,
		&dueTime,
		&alarmTime,
		&priority,
		&sched.OwnerID,
		&individual,
		&projectName,
		&parentID,
		&sched.ParentOrder,
		&memo,
		&memoAuthorID,
		&memoUpdatedAt,
		&completed,
		&deleted,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	sched.Content = content.String
	sched.Priority = models.Priority(priority.String)
	sched.ProjectName = projectName.String
	sched.Memo = memo.String
	sched.Individual = individual != 0
	sched.IsCompleted = completed != 0
	sched.IsDeleted = deleted != 0
	if parentID.Valid {
		v := parentID.Int64
		sched.ParentID = &v
	}
	if memoAuthorID.Valid {
		v := memoAuthorID.Int64
		sched.MemoAuthorID = &v
	}

	var err error
	if sched.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if sched.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sched.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if sched.DueTime, err = parseNullTime(nullStringPtr(dueTime)); err != nil {
		return nil, err
	}
	if sched.AlarmTime, err = parseNullTime(nullStringPtr(alarmTime)); err != nil {
		return nil, err
	}
	if sched.MemoUpdatedAt, err = parseNullTime(nullStringPtr(memoUpdatedAt)); err != nil {
		return nil, err
	}

	return &sched, nil
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// orderingReader answers sibling-order questions against one transaction.
type orderingReader struct {
	q querier
}

func (r orderingReader) ParentOrder(ctx context.Context, parentID int64) (int, bool, error) {
	var order int
	err := r.q.QueryRowContext(ctx, `SELECT parent_order FROM schedules WHERE id = ?`, parentID).Scan(&order)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return order, true, nil
}

func (r orderingReader) MaxChildOrder(ctx context.Context, parentID int64) (int, bool, error) {
	var max sql.NullInt64
	err := r.q.QueryRowContext(ctx, `SELECT MAX(parent_order) FROM schedules WHERE parent_id = ?`, parentID).Scan(&max)
	if err != nil {
		return 0, false, err
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}
