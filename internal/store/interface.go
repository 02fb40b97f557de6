package store

import (
	"context"
	"time"

	"schedr/internal/models"
	"schedr/internal/ordering"
)

// ScheduleStore abstracts schedule persistence for the services.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, sched *models.Schedule, collaborators []int64, opts ordering.Options) error
	GetSchedule(ctx context.Context, id int64) (*models.Schedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]models.Schedule, error)
	ListChildren(ctx context.Context, parentID int64) ([]models.Schedule, error)
	UpdateSchedule(ctx context.Context, id int64, update ScheduleUpdate) (bool, error)
	SoftDeleteSchedule(ctx context.Context, id int64, now time.Time) (bool, error)
	UpdateMemo(ctx context.Context, id int64, memo string, authorID int64, now time.Time, alarms []models.Alarm) (bool, error)
}

// ShareStore abstracts grant persistence.
type ShareStore interface {
	GetShare(ctx context.Context, scheduleID, userID int64) (*models.ScheduleShare, error)
	UpsertShare(ctx context.Context, scheduleID, userID int64, caps models.Capabilities, now time.Time) (*models.ScheduleShare, bool, error)
	UpdateShare(ctx context.Context, scheduleID, userID int64, caps models.Capabilities) (*models.ScheduleShare, error)
	DeleteShare(ctx context.Context, scheduleID, userID int64) (bool, error)
	ListCollaborators(ctx context.Context, scheduleID int64) ([]Collaborator, error)
	AccessibleUserIDs(ctx context.Context, actorID int64, selected []int64) ([]int64, error)
}

// AlarmStore abstracts alarm inbox persistence.
type AlarmStore interface {
	CreateAlarm(ctx context.Context, alarm *models.Alarm) error
	ListAlarmsForUser(ctx context.Context, userID int64, limit, offset int) ([]models.Alarm, error)
	AckAlarm(ctx context.Context, id, userID int64, now time.Time) (bool, error)
	DeleteAlarm(ctx context.Context, id, userID int64, now time.Time) (bool, error)
	ClearAlarms(ctx context.Context, userID int64, now time.Time) (int64, error)
	Sweep(ctx context.Context, fn func(tx SweepTx) error) error
}

// UserStore abstracts account persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListActiveUsers(ctx context.Context) ([]models.User, error)
	SetUserActive(ctx context.Context, username string, active bool, now time.Time) (*models.User, error)
	SetUserRole(ctx context.Context, username string, role models.Role, now time.Time) (*models.User, error)
	SetUserPassword(ctx context.Context, username, passwordHash string, now time.Time) (*models.User, error)
}

var (
	_ ScheduleStore = (*Store)(nil)
	_ ShareStore    = (*Store)(nil)
	_ AlarmStore    = (*Store)(nil)
	_ UserStore     = (*Store)(nil)
)
