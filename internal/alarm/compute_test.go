package alarm

import (
	"testing"
	"time"

	"schedr/internal/models"
)

func at(hour, min int) *time.Time {
	t := time.Date(2024, 1, 1, hour, min, 0, 0, time.UTC)
	return &t
}

func activeUsers(ids ...int64) []models.User {
	users := make([]models.User, len(ids))
	for i, id := range ids {
		users[i] = models.User{ID: id, IsActive: true}
	}
	return users
}

func TestDueMessage(t *testing.T) {
	s := models.Schedule{Title: "스프린트 계획", AlarmTime: at(9, 0)}
	if got, want := DueMessage(s, time.UTC), "프로젝트 미지정:스프린트 계획:2024-01-01 09:00"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	s.ProjectName = "alpha"
	seoul := time.FixedZone("KST", 9*60*60)
	if got, want := DueMessage(s, seoul), "alpha:스프린트 계획:2024-01-01 18:00"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	s.AlarmTime = nil
	s.DueTime = at(10, 30)
	if got, want := DueMessage(s, time.UTC), "alpha:스프린트 계획:2024-01-01 10:30"; got != want {
		t.Fatalf("expected due time fallback %q, got %q", want, got)
	}
}

func TestMemoAndCompletionMessages(t *testing.T) {
	if got, want := MemoMessage("김철수", "주간 회의"), "김철수님이 일정 '주간 회의'에 메모를 추가했습니다."; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got, want := CompletionRequestMessage("이영희", "주간 회의"), "이영희님이 일정 '주간 회의'의 완료를 요청했습니다."; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestComputeIndividualAudience(t *testing.T) {
	now := *at(9, 1)
	snap := Snapshot{
		Due:         []models.Schedule{{ID: 1, Title: "dentist", OwnerID: 2, Individual: true, AlarmTime: at(9, 0)}},
		ActiveUsers: activeUsers(1, 2, 3),
	}

	ops := ComputeDueAlarmOps(now, snap, time.UTC)
	if len(ops) != 1 {
		t.Fatalf("expected 1 op, got %d", len(ops))
	}
	if ops[0].Kind != OpCreate || ops[0].UserID != 2 || ops[0].ScheduleID != 1 {
		t.Fatalf("unexpected op: %+v", ops[0])
	}
}

func TestComputePublicAudience(t *testing.T) {
	now := *at(9, 1)
	snap := Snapshot{
		Due:         []models.Schedule{{ID: 1, Title: "standup", OwnerID: 2, AlarmTime: at(9, 0)}},
		ActiveUsers: append(activeUsers(3, 1, 2), models.User{ID: 4, IsActive: false}),
	}

	ops := ComputeDueAlarmOps(now, snap, time.UTC)
	if len(ops) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(ops))
	}
	for i, want := range []int64{1, 2, 3} {
		if ops[i].UserID != want || ops[i].Kind != OpCreate {
			t.Fatalf("op %d: expected create for user %d, got %+v", i, want, ops[i])
		}
		if ops[i].Message != "프로젝트 미지정:standup:2024-01-01 09:00" {
			t.Fatalf("unexpected message %q", ops[i].Message)
		}
		if !ops[i].At.Equal(now) {
			t.Fatalf("expected op time %v, got %v", now, ops[i].At)
		}
	}
}

func TestComputeExistingAlarms(t *testing.T) {
	now := *at(9, 1)
	snap := Snapshot{
		Due:         []models.Schedule{{ID: 1, Title: "standup", OwnerID: 1, AlarmTime: at(9, 0)}},
		ActiveUsers: activeUsers(1, 2, 3),
		OpenDue: []models.Alarm{
			{ID: 10, ScheduleID: 1, UserID: 1, Type: models.AlarmScheduleDue, IsActivated: true},
			{ID: 11, ScheduleID: 1, UserID: 2, Type: models.AlarmScheduleDue, IsActivated: false},
			// Acked alarms do not count as open; user 3 gets a fresh one.
			{ID: 12, ScheduleID: 1, UserID: 3, Type: models.AlarmScheduleDue, IsActivated: true, IsAcked: true},
		},
	}

	ops := ComputeDueAlarmOps(now, snap, time.UTC)
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %+v", ops)
	}
	if ops[0].Kind != OpActivate || ops[0].AlarmID != 11 || ops[0].UserID != 2 {
		t.Fatalf("expected activation of alarm 11, got %+v", ops[0])
	}
	if ops[1].Kind != OpCreate || ops[1].UserID != 3 {
		t.Fatalf("expected create for user 3, got %+v", ops[1])
	}
}

func TestComputeSkipsNotYetDueAndOverdue(t *testing.T) {
	now := *at(9, 1)
	snap := Snapshot{
		Due: []models.Schedule{
			{ID: 1, Title: "later", OwnerID: 1, AlarmTime: at(10, 0)},
			{ID: 2, Title: "done", OwnerID: 1, AlarmTime: at(9, 0), IsCompleted: true},
			{ID: 3, Title: "gone", OwnerID: 1, AlarmTime: at(9, 0), IsDeleted: true},
		},
		Overdue:     []models.Schedule{{ID: 4, Title: "overdue", OwnerID: 1, DueTime: at(8, 0)}},
		ActiveUsers: activeUsers(1),
	}

	if ops := ComputeDueAlarmOps(now, snap, time.UTC); len(ops) != 0 {
		t.Fatalf("expected no ops, got %+v", ops)
	}
}

func TestMemoRecipients(t *testing.T) {
	active := []int64{1, 2, 3}
	tests := []struct {
		name       string
		individual bool
		editor     int64
		want       []int64
	}{
		{"individual edited by other", true, 2, []int64{1}},
		{"individual edited by owner", true, 1, nil},
		{"public edited by other", false, 2, []int64{1, 3}},
		{"public edited by owner", false, 1, []int64{2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := models.Schedule{ID: 9, OwnerID: 1, Individual: tc.individual}
			got := MemoRecipients(s, tc.editor, active)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		spec      string
		wantDelay time.Duration
		wantErr   bool
	}{
		{"", time.Minute, false},
		{"@every 60s", time.Minute, false},
		{"90s", 90 * time.Second, false},
		{"*/5 * * * *", 0, false},
		{"-1s", 0, true},
		{"not a schedule", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			sched, err := ParseSchedule(tc.spec)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tc.spec, err)
			}
			if tc.wantDelay == 0 {
				return
			}
			e := NewEngine(nil, Options{Schedule: sched})
			if got := e.nextDelay(time.Date(2024, 1, 1, 9, 0, 30, 0, time.UTC)); got != tc.wantDelay {
				t.Fatalf("expected delay %s, got %s", tc.wantDelay, got)
			}
		})
	}
}

func TestNextDelayFromCronSpec(t *testing.T) {
	sched, err := ParseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := NewEngine(nil, Options{Schedule: sched})
	finished := time.Date(2024, 1, 1, 9, 1, 0, 0, time.UTC)
	if got := e.nextDelay(finished); got != 4*time.Minute {
		t.Fatalf("expected 4m until the next slot, got %s", got)
	}
}
