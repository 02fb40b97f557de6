package store

import (
	"context"
	"database/sql"
	"time"

	"schedr/internal/models"
)

const shareColumns = `id, schedule_id, shared_with_id, can_edit, can_delete, can_complete, can_share, role, added_at`

// Collaborator is a share grant joined with the grantee's account.
type Collaborator struct {
	Share models.ScheduleShare
	User  models.User
}

// GetShare returns the grant for (scheduleID, userID), or nil when none exists.
func (s *Store) GetShare(ctx context.Context, scheduleID, userID int64) (*models.ScheduleShare, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shareColumns+`
		FROM schedule_shares
		WHERE schedule_id = ? AND shared_with_id = ?
	`, scheduleID, userID)
	return scanShare(row)
}

// UpsertShare creates or replaces the grant for (scheduleID, userID).
// It reports whether a new row was created.
func (s *Store) UpsertShare(ctx context.Context, scheduleID, userID int64, caps models.Capabilities, now time.Time) (*models.ScheduleShare, bool, error) {
	var share *models.ScheduleShare
	created := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existing int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM schedule_shares WHERE schedule_id = ? AND shared_with_id = ?
		`, scheduleID, userID).Scan(&existing)
		if err != nil {
			return err
		}
		created = existing == 0

		_, err = tx.ExecContext(ctx, `
			INSERT INTO schedule_shares
				(schedule_id, shared_with_id, can_edit, can_delete, can_complete, can_share, role, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(schedule_id, shared_with_id) DO UPDATE SET
				can_edit = excluded.can_edit,
				can_delete = excluded.can_delete,
				can_complete = excluded.can_complete,
				can_share = excluded.can_share,
				role = excluded.role
		`, scheduleID, userID, boolInt(caps.CanEdit), boolInt(caps.CanDelete), boolInt(caps.CanComplete),
			boolInt(caps.CanShare), caps.Role, formatTime(now))
		if err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, `
			SELECT `+shareColumns+` FROM schedule_shares WHERE schedule_id = ? AND shared_with_id = ?
		`, scheduleID, userID)
		share, err = scanShare(row)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return share, created, nil
}

// UpdateShare overwrites the capabilities of an existing grant. It returns nil when no grant exists.
func (s *Store) UpdateShare(ctx context.Context, scheduleID, userID int64, caps models.Capabilities) (*models.ScheduleShare, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE schedule_shares
		SET can_edit = ?, can_delete = ?, can_complete = ?, can_share = ?, role = ?
		WHERE schedule_id = ? AND shared_with_id = ?
	`, boolInt(caps.CanEdit), boolInt(caps.CanDelete), boolInt(caps.CanComplete), boolInt(caps.CanShare),
		caps.Role, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetShare(ctx, scheduleID, userID)
}

// DeleteShare removes a grant. It reports whether one existed.
func (s *Store) DeleteShare(ctx context.Context, scheduleID, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM schedule_shares WHERE schedule_id = ? AND shared_with_id = ?
	`, scheduleID, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListCollaborators returns the grants on a schedule with their users, oldest grant first.
func (s *Store) ListCollaborators(ctx context.Context, scheduleID int64) ([]Collaborator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sh.id, sh.schedule_id, sh.shared_with_id, sh.can_edit, sh.can_delete, sh.can_complete,
			sh.can_share, sh.role, sh.added_at,
			u.id, u.username, u.name, u.password_hash, u.role, u.is_active, u.created_at, u.updated_at
		FROM schedule_shares sh
		JOIN users u ON u.id = sh.shared_with_id
		WHERE sh.schedule_id = ?
		ORDER BY sh.added_at ASC, sh.id ASC
	`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Collaborator, 0)
	for rows.Next() {
		var c Collaborator
		var canEdit, canDelete, canComplete, canShare, active int
		var addedAt, role, createdAt, updatedAt string
		if err := rows.Scan(
			&c.Share.ID, &c.Share.ScheduleID, &c.Share.SharedWithID,
			&canEdit, &canDelete, &canComplete, &canShare, &c.Share.Capabilities.Role, &addedAt,
			&c.User.ID, &c.User.Username, &c.User.Name, &c.User.PasswordHash, &role, &active,
			&createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		c.Share.Capabilities.CanEdit = canEdit != 0
		c.Share.Capabilities.CanDelete = canDelete != 0
		c.Share.Capabilities.CanComplete = canComplete != 0
		c.Share.Capabilities.CanShare = canShare != 0
		c.User.Role = models.Role(role)
		c.User.IsActive = active != 0
		if c.Share.AddedAt, err = parseTime(addedAt); err != nil {
			return nil, err
		}
		if c.User.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if c.User.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// AccessibleUserIDs returns, in ascending order, the actor, every selected
// user, every user the actor shares a live schedule with, and every owner of
// a live schedule shared with a selected user. Resolution is a single hop.
func (s *Store) AccessibleUserIDs(ctx context.Context, actorID int64, selected []int64) ([]int64, error) {
	args := []any{actorID, actorID}
	query := `
		SELECT ? AS user_id
		UNION
		SELECT sh.shared_with_id
		FROM schedule_shares sh
		JOIN schedules s ON s.id = sh.schedule_id
		WHERE s.owner_id = ? AND s.is_deleted = 0`

	if len(selected) > 0 {
		in := placeholders(len(selected))
		query += `
		UNION
		SELECT id FROM users WHERE id IN (` + in + `)
		UNION
		SELECT s.owner_id
		FROM schedule_shares sh
		JOIN schedules s ON s.id = sh.schedule_id
		WHERE sh.shared_with_id IN (` + in + `) AND s.is_deleted = 0`
		args = append(args, int64Args(selected)...)
		args = append(args, int64Args(selected)...)
	}
	query += `
		ORDER BY user_id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanShare(scanner interface {
	Scan(dest ...any) error
}) (*models.ScheduleShare, error) {
	var share models.ScheduleShare
	var canEdit, canDelete, canComplete, canShare int
	var addedAt string
	if err := scanner.Scan(
		&share.ID,
		&share.ScheduleID,
		&share.SharedWithID,
		&canEdit,
		&canDelete,
		&canComplete,
		&canShare,
		&share.Capabilities.Role,
		&addedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	share.Capabilities.CanEdit = canEdit != 0
	share.Capabilities.CanDelete = canDelete != 0
	share.Capabilities.CanComplete = canComplete != 0
	share.Capabilities.CanShare = canShare != 0

	parsed, err := parseTime(addedAt)
	if err != nil {
		return nil, err
	}
	share.AddedAt = parsed
	return &share, nil
}
