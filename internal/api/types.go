package api

import (
	"time"

	"schedr/internal/models"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// MessageResponse acknowledges an operation that returns no resource.
type MessageResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ScheduleCreateRequest is the payload for POST /v1/schedules.
type ScheduleCreateRequest struct {
	Title       string     `json:"title"`
	Content     *string    `json:"content,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	DueTime     *time.Time `json:"due_time,omitempty"`
	AlarmTime   *time.Time `json:"alarm_time,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Individual  bool       `json:"individual"`
	ProjectName *string    `json:"project_name,omitempty"`
	ParentID    *int64     `json:"parent_id,omitempty"`
	// StrictParent rejects a parent_id that does not exist instead of
	// creating a top-level schedule.
	StrictParent  bool    `json:"strict_parent,omitempty"`
	Collaborators []int64 `json:"collaborators,omitempty"`
}

// ScheduleUpdateRequest is the payload for PATCH /v1/schedules/{id}.
type ScheduleUpdateRequest struct {
	Title          *string    `json:"title,omitempty"`
	Content        *string    `json:"content,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	DueTime        *time.Time `json:"due_time,omitempty"`
	ClearDueTime   bool       `json:"clear_due_time,omitempty"`
	AlarmTime      *time.Time `json:"alarm_time,omitempty"`
	ClearAlarmTime bool       `json:"clear_alarm_time,omitempty"`
	Priority       *string    `json:"priority,omitempty"`
	Individual     *bool      `json:"individual,omitempty"`
	ProjectName    *string    `json:"project_name,omitempty"`
	IsCompleted    *bool      `json:"is_completed,omitempty"`
}

// MemoUpdateRequest is the payload for PUT /v1/schedules/{id}/memo.
type MemoUpdateRequest struct {
	Memo string `json:"memo"`
}

// PermissionsResponse is one actor's capability vector on a schedule.
type PermissionsResponse struct {
	IsOwner     bool   `json:"is_owner"`
	CanEdit     bool   `json:"can_edit"`
	CanDelete   bool   `json:"can_delete"`
	CanComplete bool   `json:"can_complete"`
	CanShare    bool   `json:"can_share"`
	Role        string `json:"role"`
}

// ScheduleResponse is a schedule plus derived display fields.
type ScheduleResponse struct {
	models.Schedule
	PriorityLabel string               `json:"priority_label,omitempty"`
	Permissions   *PermissionsResponse `json:"permissions,omitempty"`
}

// CollaboratorRequest adds or updates a grant. Omitted flags default to
// true on add and stay unchanged on update.
type CollaboratorRequest struct {
	UserID      int64   `json:"user_id,omitempty"`
	CanEdit     *bool   `json:"can_edit,omitempty"`
	CanDelete   *bool   `json:"can_delete,omitempty"`
	CanComplete *bool   `json:"can_complete,omitempty"`
	CanShare    *bool   `json:"can_share,omitempty"`
	Role        *string `json:"role,omitempty"`
}

// CollaboratorResponse is a grant with the grantee's identity.
type CollaboratorResponse struct {
	ScheduleID  int64     `json:"schedule_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	Name        string    `json:"name,omitempty"`
	CanEdit     bool      `json:"can_edit"`
	CanDelete   bool      `json:"can_delete"`
	CanComplete bool      `json:"can_complete"`
	CanShare    bool      `json:"can_share"`
	Role        string    `json:"role"`
	AddedAt     time.Time `json:"added_at"`
	Created     bool      `json:"created,omitempty"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	IsActive bool        `json:"is_active"`
}

// AlarmResponse is one inbox entry. CreatedAt is RFC3339.
type AlarmResponse struct {
	ID         int64            `json:"id"`
	Type       models.AlarmType `json:"type"`
	Message    string           `json:"message"`
	IsAcked    bool             `json:"is_acked"`
	CreatedAt  string           `json:"created_at"`
	ScheduleID int64            `json:"schedule_id"`
}

// ClearAlarmsResponse reports how many inbox entries were cleared.
type ClearAlarmsResponse struct {
	Message string `json:"message"`
	Cleared int64  `json:"cleared"`
}
