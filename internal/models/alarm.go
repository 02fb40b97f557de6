package models

import "time"

// AlarmType classifies why an alarm was raised.
type AlarmType string

const (
	AlarmScheduleDue       AlarmType = "schedule_due"
	AlarmMemo              AlarmType = "memo"
	AlarmShare             AlarmType = "share"
	AlarmCompletionRequest AlarmType = "completion_request"
)

var validAlarmTypes = map[AlarmType]struct{}{
	AlarmScheduleDue:       {},
	AlarmMemo:              {},
	AlarmShare:             {},
	AlarmCompletionRequest: {},
}

// IsValidAlarmType reports whether t is a known alarm type.
func IsValidAlarmType(t AlarmType) bool {
	_, ok := validAlarmTypes[t]
	return ok
}

// Alarm is one per-user notification row.
type Alarm struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	ScheduleID  int64      `json:"schedule_id"`
	Type        AlarmType  `json:"type"`
	Message     string     `json:"message"`
	IsActivated bool       `json:"is_activated"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	IsAcked     bool       `json:"is_acked"`
	AckedAt     *time.Time `json:"acked_at,omitempty"`
	IsDeleted   bool       `json:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Open reports whether the alarm still counts toward the one-open-due-alarm invariant.
func (a *Alarm) Open() bool {
	return a != nil && !a.IsDeleted && !a.IsAcked
}
