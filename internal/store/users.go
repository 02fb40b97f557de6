package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"schedr/internal/models"
)

const userColumns = `id, username, name, password_hash, role, is_active, created_at, updated_at`

// CreateUser inserts a user and sets its ID.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	user.Username = normalizeUsername(user.Username)
	if user.Username == "" {
		return fmt.Errorf("username is required")
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, name, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.Username, user.Name, user.PasswordHash, string(user.Role), boolInt(user.IsActive),
		formatTime(user.CreatedAt), formatTime(user.UpdatedAt))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

// GetUser returns a user by id, or nil when missing.
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return getUser(ctx, s.db, id)
}

func getUser(ctx context.Context, q querier, id int64) (*models.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername returns a user by normalized username, or nil when missing.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? LIMIT 1`, username)
	return scanUser(row)
}

// ListUsers returns all users sorted by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return queryUsers(ctx, s.db, `SELECT `+userColumns+` FROM users ORDER BY username ASC`)
}

// ListActiveUsers returns every active user ordered by id.
func (s *Store) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	return listActiveUsers(ctx, s.db)
}

func listActiveUsers(ctx context.Context, q querier) ([]models.User, error) {
	return queryUsers(ctx, q, `SELECT `+userColumns+` FROM users WHERE is_active = 1 ORDER BY id ASC`)
}

// SetUserActive toggles is_active by username. It returns nil when no user matched.
func (s *Store) SetUserActive(ctx context.Context, username string, active bool, now time.Time) (*models.User, error) {
	return s.updateUserByUsername(ctx, username, "is_active = ?", boolInt(active), now)
}

// SetUserRole changes a user's role by username. It returns nil when no user matched.
func (s *Store) SetUserRole(ctx context.Context, username string, role models.Role, now time.Time) (*models.User, error) {
	return s.updateUserByUsername(ctx, username, "role = ?", string(role), now)
}

// SetUserPassword replaces a user's password hash by username.
func (s *Store) SetUserPassword(ctx context.Context, username, passwordHash string, now time.Time) (*models.User, error) {
	if strings.TrimSpace(passwordHash) == "" {
		return nil, fmt.Errorf("password hash is required")
	}
	return s.updateUserByUsername(ctx, username, "password_hash = ?", passwordHash, now)
}

func (s *Store) updateUserByUsername(ctx context.Context, username, set string, value any, now time.Time) (*models.User, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+set+`, updated_at = ? WHERE username = ?`,
		value, formatTime(now), username)
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
	return s.GetUserByUsername(ctx, username)
}

func queryUsers(ctx context.Context, q querier, query string, args ...any) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(scanner interface {
	Scan(dest ...any) error
}) (*models.User, error) {
	var user models.User
	var role string
	var active int
	var createdAt, updatedAt string
	if err := scanner.Scan(&user.ID, &user.Username, &user.Name, &user.PasswordHash, &role, &active, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	user.Role = models.Role(role)
	user.IsActive = active != 0

	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	parsedUpdated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = parsedCreated
	user.UpdatedAt = parsedUpdated
	return &user, nil
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(strings.ToLower(username))
}
