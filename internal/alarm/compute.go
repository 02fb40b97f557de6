// Package alarm turns due schedules into per-user alarm rows.
//
// ComputeDueAlarmOps is pure; Engine wraps it in one store transaction per
// cycle and drives cycles on a cron schedule.
package alarm

import (
	"sort"
	"time"

	"schedr/internal/models"
)

// OpKind says what a sweep operation does to the alarm table.
type OpKind int

const (
	// OpCreate inserts a new activated schedule_due alarm.
	OpCreate OpKind = iota + 1
	// OpActivate flips an existing, not yet activated alarm.
	OpActivate
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpActivate:
		return "activate"
	default:
		return "unknown"
	}
}

// Op is one change a sweep cycle applies.
type Op struct {
	Kind       OpKind
	ScheduleID int64
	UserID     int64
	// AlarmID is set for OpActivate.
	AlarmID int64
	Message string
	At      time.Time
}

// Snapshot is the state one cycle reads before deciding.
type Snapshot struct {
	// Due holds live, incomplete schedules with alarm_time <= now.
	Due []models.Schedule
	// Overdue holds live, incomplete schedules with due_time <= now.
	// They currently produce no operations.
	Overdue     []models.Schedule
	ActiveUsers []models.User
	// OpenDue holds the non-deleted, non-acked schedule_due alarms of Due.
	OpenDue []models.Alarm
}

type pairKey struct {
	scheduleID int64
	userID     int64
}

// ComputeDueAlarmOps returns the operations that bring every audience member
// of every due schedule to exactly one activated, open schedule_due alarm.
// Output order is by schedule id, then user id.
func ComputeDueAlarmOps(now time.Time, snap Snapshot, loc *time.Location) []Op {
	open := make(map[pairKey]models.Alarm, len(snap.OpenDue))
	for _, a := range snap.OpenDue {
		if a.Type != models.AlarmScheduleDue || !a.Open() {
			continue
		}
		key := pairKey{scheduleID: a.ScheduleID, userID: a.UserID}
		if _, seen := open[key]; !seen {
			open[key] = a
		}
	}

	activeIDs := make([]int64, 0, len(snap.ActiveUsers))
	for _, u := range snap.ActiveUsers {
		if u.IsActive {
			activeIDs = append(activeIDs, u.ID)
		}
	}
	sort.Slice(activeIDs, func(i, j int) bool { return activeIDs[i] < activeIDs[j] })

	due := make([]models.Schedule, len(snap.Due))
	copy(due, snap.Due)
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })

	var ops []Op
	for _, s := range due {
		if s.IsDeleted || s.IsCompleted || s.AlarmTime == nil || s.AlarmTime.After(now) {
			continue
		}
		message := DueMessage(s, loc)
		for _, userID := range Audience(s, activeIDs) {
			existing, ok := open[pairKey{scheduleID: s.ID, userID: userID}]
			switch {
			case !ok:
				ops = append(ops, Op{Kind: OpCreate, ScheduleID: s.ID, UserID: userID, Message: message, At: now})
			case !existing.IsActivated:
				ops = append(ops, Op{Kind: OpActivate, ScheduleID: s.ID, UserID: userID, AlarmID: existing.ID, Message: message, At: now})
			}
		}
	}
	return ops
}

// Audience returns who is notified about a due schedule: the owner alone for
// individual schedules, every active user otherwise.
func Audience(s models.Schedule, activeUserIDs []int64) []int64 {
	if s.Individual {
		return []int64{s.OwnerID}
	}
	out := make([]int64, len(activeUserIDs))
	copy(out, activeUserIDs)
	return out
}

// MemoRecipients returns who is told about a memo edit. On an individual
// schedule only the owner hears about someone else's edit; on a public one
// every active user except the editor does.
func MemoRecipients(s models.Schedule, editorID int64, activeUserIDs []int64) []int64 {
	if s.Individual {
		if editorID == s.OwnerID {
			return nil
		}
		return []int64{s.OwnerID}
	}
	out := make([]int64, 0, len(activeUserIDs))
	for _, id := range activeUserIDs {
		if id != editorID {
			out = append(out, id)
		}
	}
	return out
}
