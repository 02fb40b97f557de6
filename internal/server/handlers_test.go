package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"schedr/internal/api"
	"schedr/internal/models"
)

func ptr[T any](v T) *T { return &v }

func (e *testEnv) createSchedule(t *testing.T, username string, req api.ScheduleCreateRequest) api.ScheduleResponse {
	t.Helper()
	rec := e.do(t, username, http.MethodPost, "/v1/schedules", req)
	expectStatus(t, rec, http.StatusCreated)
	return decodeBody[api.ScheduleResponse](t, rec)
}

func TestCreateAndGetSchedule(t *testing.T) {
	env := newTestEnv(t, Options{})

	created := env.createSchedule(t, "kim", api.ScheduleCreateRequest{
		Title:       "  sprint planning ",
		Priority:    ptr("high"),
		ProjectName: ptr("apollo"),
	})
	if created.Title != "sprint planning" || created.OwnerID != env.users["kim"].ID {
		t.Fatalf("unexpected schedule: %+v", created)
	}
	if created.Priority != models.PriorityHigh || created.PriorityLabel == "" {
		t.Fatalf("expected priority with label, got %q %q", created.Priority, created.PriorityLabel)
	}
	if !created.Date.Equal(env.now) {
		t.Fatalf("expected date to default to now, got %s", created.Date)
	}
	if created.Permissions == nil || !created.Permissions.IsOwner || created.Permissions.Role != "owner" {
		t.Fatalf("expected owner permissions, got %+v", created.Permissions)
	}

	rec := env.do(t, "lee", http.MethodGet, fmt.Sprintf("/v1/schedules/%d", created.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	got := decodeBody[api.ScheduleResponse](t, rec)
	if got.ID != created.ID || got.Permissions == nil || got.Permissions.CanEdit {
		t.Fatalf("expected read-only view for another user, got %+v", got)
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	env := newTestEnv(t, Options{})

	tests := []struct {
		name string
		req  api.ScheduleCreateRequest
		code int
	}{
		{"missing title", api.ScheduleCreateRequest{Title: "  "}, ErrCodeMissingRequired},
		{"bad priority", api.ScheduleCreateRequest{Title: "x", Priority: ptr("sometime")}, ErrCodeInvalidPriority},
		{"bad parent", api.ScheduleCreateRequest{Title: "x", ParentID: ptr(int64(-1))}, ErrCodeInvalidParentID},
		{"bad collaborator", api.ScheduleCreateRequest{Title: "x", Collaborators: []int64{0}}, ErrCodeInvalidCollaborator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "kim", http.MethodPost, "/v1/schedules", tt.req)
			expectErrorCode(t, rec, http.StatusBadRequest, tt.code)
		})
	}

	t.Run("strict parent", func(t *testing.T) {
		rec := env.do(t, "kim", http.MethodPost, "/v1/schedules", api.ScheduleCreateRequest{
			Title: "orphan", ParentID: ptr(int64(999)), StrictParent: true,
		})
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("lenient parent", func(t *testing.T) {
		sched := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "orphan", ParentID: ptr(int64(999))})
		if sched.ParentOrder != 0 {
			t.Fatalf("expected fallback order 0, got %d", sched.ParentOrder)
		}
	})
}

func TestPrivateScheduleHiddenFromOthers(t *testing.T) {
	env := newTestEnv(t, Options{})
	private := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "dentist", Individual: true})
	path := fmt.Sprintf("/v1/schedules/%d", private.ID)

	expectStatus(t, env.do(t, "lee", http.MethodGet, path, nil), http.StatusNotFound)
	// Mutations go through the capability check, which denies rather than hides.
	expectStatus(t, env.do(t, "lee", http.MethodPatch, path, api.ScheduleUpdateRequest{Title: ptr("mine")}), http.StatusForbidden)
	expectStatus(t, env.do(t, "lee", http.MethodGet, path+"/permissions", nil), http.StatusNotFound)
	expectStatus(t, env.do(t, "root", http.MethodGet, path, nil), http.StatusOK)
}

func TestPublicScheduleMutationsRequireCapabilities(t *testing.T) {
	env := newTestEnv(t, Options{})
	sched := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "release"})
	path := fmt.Sprintf("/v1/schedules/%d", sched.ID)

	expectStatus(t, env.do(t, "lee", http.MethodPatch, path, api.ScheduleUpdateRequest{Title: ptr("hijacked")}), http.StatusForbidden)
	expectStatus(t, env.do(t, "lee", http.MethodDelete, path, nil), http.StatusForbidden)
	expectStatus(t, env.do(t, "lee", http.MethodPost, path+"/complete", nil), http.StatusForbidden)

	rec := env.do(t, "root", http.MethodPatch, path, api.ScheduleUpdateRequest{Title: ptr("release 2")})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[api.ScheduleResponse](t, rec); got.Title != "release 2" || got.Permissions.Role != "admin" {
		t.Fatalf("expected admin edit, got %+v", got)
	}

	rec = env.do(t, "kim", http.MethodPost, path+"/complete", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[api.ScheduleResponse](t, rec); !got.IsCompleted {
		t.Fatalf("expected completed schedule, got %+v", got)
	}

	expectStatus(t, env.do(t, "kim", http.MethodDelete, path, nil), http.StatusOK)
	expectStatus(t, env.do(t, "kim", http.MethodGet, path, nil), http.StatusNotFound)
}

func TestDeleteCascadesAlarms(t *testing.T) {
	env := newTestEnv(t, Options{})
	sched := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "standup"})
	a := &models.Alarm{UserID: env.users["lee"].ID, ScheduleID: sched.ID, Type: models.AlarmScheduleDue, Message: "m", IsActivated: true, CreatedAt: env.now}
	if err := env.store.CreateAlarm(context.Background(), a); err != nil {
		t.Fatalf("create alarm: %v", err)
	}

	expectStatus(t, env.do(t, "kim", http.MethodDelete, fmt.Sprintf("/v1/schedules/%d", sched.ID), nil), http.StatusOK)

	alarms, err := env.store.ListAlarmsForSchedule(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("list alarms: %v", err)
	}
	if len(alarms) != 1 || !alarms[0].IsDeleted {
		t.Fatalf("expected alarm soft-deleted with its schedule, got %+v", alarms)
	}
	rec := env.do(t, "lee", http.MethodGet, "/v1/alarms", nil)
	expectStatus(t, rec, http.StatusOK)
	if inbox := decodeBody[[]api.AlarmResponse](t, rec); len(inbox) != 0 {
		t.Fatalf("expected empty inbox, got %+v", inbox)
	}
}

func TestListSchedules(t *testing.T) {
	env := newTestEnv(t, Options{})
	early := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "late review", DueTime: &late})
	env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "early review", DueTime: &early})
	env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "no due date", Content: ptr("draft notes")})
	env.createSchedule(t, "lee", api.ScheduleCreateRequest{Title: "lee public"})
	env.createSchedule(t, "lee", api.ScheduleCreateRequest{Title: "lee private", Individual: true})

	list := func(query string) []string {
		t.Helper()
		rec := env.do(t, "kim", http.MethodGet, "/v1/schedules"+query, nil)
		expectStatus(t, rec, http.StatusOK)
		var titles []string
		for _, s := range decodeBody[[]api.ScheduleResponse](t, rec) {
			titles = append(titles, s.Title)
		}
		return titles
	}

	all := list("")
	if len(all) != 4 || all[0] != "early review" || all[1] != "late review" {
		t.Fatalf("expected due-time ordering with private schedules hidden, got %v", all)
	}
	if own := list("?show_all_users=false"); len(own) != 3 {
		t.Fatalf("expected only own schedules, got %v", own)
	}
	if found := list("?search_terms=review&exclude_terms=late"); len(found) != 1 || found[0] != "early review" {
		t.Fatalf("unexpected search result %v", found)
	}
	if found := list("?search_terms=draft&search_in_content=false"); len(found) != 0 {
		t.Fatalf("expected content search disabled, got %v", found)
	}
	if page := list("?limit=2&skip=1"); len(page) != 2 || page[0] != "late review" {
		t.Fatalf("unexpected page %v", page)
	}

	rec := env.do(t, "kim", http.MethodGet, "/v1/schedules?show_completed=maybe", nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestScheduleHierarchy(t *testing.T) {
	env := newTestEnv(t, Options{})
	parent := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "epic"})
	first := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "story 1", ParentID: &parent.ID})
	second := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "story 2", ParentID: &parent.ID})
	env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "secret story", ParentID: &parent.ID, Individual: true})

	if second.ParentOrder <= first.ParentOrder {
		t.Fatalf("expected increasing sibling order, got %d then %d", first.ParentOrder, second.ParentOrder)
	}

	rec := env.do(t, "lee", http.MethodGet, fmt.Sprintf("/v1/schedules/%d/children", parent.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	children := decodeBody[[]api.ScheduleResponse](t, rec)
	if len(children) != 2 || children[0].ID != first.ID || children[1].ID != second.ID {
		t.Fatalf("expected the two visible children in order, got %+v", children)
	}

	rec = env.do(t, "lee", http.MethodGet, fmt.Sprintf("/v1/schedules/%d/parent", second.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[api.ScheduleResponse](t, rec); got.ID != parent.ID {
		t.Fatalf("expected parent %d, got %d", parent.ID, got.ID)
	}
	expectStatus(t, env.do(t, "lee", http.MethodGet, fmt.Sprintf("/v1/schedules/%d/parent", parent.ID), nil), http.StatusNotFound)
}

func TestUpdateMemoCreatesAlarms(t *testing.T) {
	env := newTestEnv(t, Options{})
	sched := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "회고"})
	path := fmt.Sprintf("/v1/schedules/%d/memo", sched.ID)

	rec := env.do(t, "lee", http.MethodPut, path, api.MemoUpdateRequest{Memo: "notes"})
	expectStatus(t, rec, http.StatusOK)
	got := decodeBody[api.ScheduleResponse](t, rec)
	if got.Memo != "notes" || got.MemoAuthorID == nil || *got.MemoAuthorID != env.users["lee"].ID {
		t.Fatalf("expected memo recorded with author, got %+v", got)
	}

	alarms, err := env.store.ListAlarmsForSchedule(context.Background(), sched.ID)
	if err != nil {
		t.Fatalf("list alarms: %v", err)
	}
	recipients := map[int64]bool{}
	for _, a := range alarms {
		if a.Type != models.AlarmMemo || a.Message != "lee님이 일정 '회고'에 메모를 추가했습니다." {
			t.Fatalf("unexpected alarm %+v", a)
		}
		recipients[a.UserID] = true
	}
	for _, name := range []string{"kim", "park", "root"} {
		if !recipients[env.users[name].ID] {
			t.Fatalf("expected memo alarm for %s, got %+v", name, alarms)
		}
	}
	if recipients[env.users["lee"].ID] || recipients[env.users["gone"].ID] {
		t.Fatalf("editor and inactive users must not be notified: %+v", alarms)
	}

	// Unchanged memo is a no-op.
	expectStatus(t, env.do(t, "lee", http.MethodPut, path, api.MemoUpdateRequest{Memo: "notes"}), http.StatusOK)
	again, _ := env.store.ListAlarmsForSchedule(context.Background(), sched.ID)
	if len(again) != len(alarms) {
		t.Fatalf("expected no new alarms, got %d -> %d", len(alarms), len(again))
	}
}

func TestRequestCompletion(t *testing.T) {
	env := newTestEnv(t, Options{})
	sched := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "deploy"})
	path := fmt.Sprintf("/v1/schedules/%d/completion-request", sched.ID)

	expectErrorCode(t, env.do(t, "kim", http.MethodPost, path, nil), http.StatusBadRequest, ErrCodeOwnSchedule)

	expectStatus(t, env.do(t, "lee", http.MethodPost, path, nil), http.StatusCreated)
	rec := env.do(t, "kim", http.MethodGet, "/v1/alarms", nil)
	expectStatus(t, rec, http.StatusOK)
	inbox := decodeBody[[]api.AlarmResponse](t, rec)
	if len(inbox) != 1 || inbox[0].Type != models.AlarmCompletionRequest || inbox[0].Message != "lee님이 일정 'deploy'의 완료를 요청했습니다." {
		t.Fatalf("unexpected owner inbox %+v", inbox)
	}

	expectStatus(t, env.do(t, "kim", http.MethodPost, fmt.Sprintf("/v1/schedules/%d/complete", sched.ID), nil), http.StatusOK)
	expectErrorCode(t, env.do(t, "lee", http.MethodPost, path, nil), http.StatusBadRequest, ErrCodeScheduleCompleted)
}

func TestCollaborators(t *testing.T) {
	env := newTestEnv(t, Options{})
	sched := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "launch"})
	base := fmt.Sprintf("/v1/schedules/%d", sched.ID)
	lee := env.users["lee"].ID

	rec := env.do(t, "kim", http.MethodPost, base+"/collaborators", api.CollaboratorRequest{UserID: lee, CanDelete: ptr(false)})
	expectStatus(t, rec, http.StatusCreated)
	share := decodeBody[api.CollaboratorResponse](t, rec)
	if !share.Created || share.CanDelete || !share.CanEdit || share.Role != models.DefaultShareRole {
		t.Fatalf("unexpected grant %+v", share)
	}

	rec = env.do(t, "kim", http.MethodPost, base+"/collaborators", api.CollaboratorRequest{UserID: lee, CanDelete: ptr(false)})
	expectStatus(t, rec, http.StatusOK)
	if again := decodeBody[api.CollaboratorResponse](t, rec); again.Created {
		t.Fatalf("expected existing grant to be updated, got %+v", again)
	}

	expectStatus(t, env.do(t, "lee", http.MethodPatch, base, api.ScheduleUpdateRequest{Title: ptr("launch v2")}), http.StatusOK)
	expectStatus(t, env.do(t, "lee", http.MethodDelete, base, nil), http.StatusForbidden)

	rec = env.do(t, "lee", http.MethodGet, base+"/permissions", nil)
	expectStatus(t, rec, http.StatusOK)
	perms := decodeBody[api.PermissionsResponse](t, rec)
	if perms.IsOwner || !perms.CanEdit || perms.CanDelete || perms.Role != models.DefaultShareRole {
		t.Fatalf("unexpected collaborator vector %+v", perms)
	}

	rec = env.do(t, "kim", http.MethodGet, base+"/collaborators", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decodeBody[[]api.CollaboratorResponse](t, rec); len(list) != 1 || list[0].UserID != lee || list[0].Username != "lee" {
		t.Fatalf("unexpected collaborators %+v", list)
	}

	userPath := fmt.Sprintf("%s/collaborators/%d", base, lee)
	rec = env.do(t, "kim", http.MethodPatch, userPath, api.CollaboratorRequest{CanDelete: ptr(true)})
	expectStatus(t, rec, http.StatusOK)
	if updated := decodeBody[api.CollaboratorResponse](t, rec); !updated.CanDelete {
		t.Fatalf("expected can_delete granted, got %+v", updated)
	}

	expectStatus(t, env.do(t, "kim", http.MethodPost, base+"/collaborators", api.CollaboratorRequest{UserID: env.users["kim"].ID}), http.StatusBadRequest)
	expectErrorCode(t, env.do(t, "kim", http.MethodPost, base+"/collaborators", api.CollaboratorRequest{}), http.StatusBadRequest, ErrCodeInvalidCollaborator)
	expectStatus(t, env.do(t, "park", http.MethodPost, base+"/collaborators", api.CollaboratorRequest{UserID: env.users["park"].ID}), http.StatusForbidden)

	expectStatus(t, env.do(t, "kim", http.MethodDelete, userPath, nil), http.StatusNoContent)
	expectErrorCode(t, env.do(t, "kim", http.MethodDelete, userPath, nil), http.StatusNotFound, ErrCodeCollaboratorNotFound)
	expectErrorCode(t, env.do(t, "kim", http.MethodPost, base+"/collaborators", api.CollaboratorRequest{UserID: 9999}), http.StatusBadRequest, ErrCodeInvalidCollaborator)
	expectStatus(t, env.do(t, "lee", http.MethodPatch, base, api.ScheduleUpdateRequest{Title: ptr("again")}), http.StatusForbidden)
}

func TestAccessibleUsers(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "pair", Collaborators: []int64{env.users["lee"].ID}})

	rec := env.do(t, "kim", http.MethodGet, "/v1/users/accessible", nil)
	expectStatus(t, rec, http.StatusOK)
	users := decodeBody[[]api.UserResponse](t, rec)
	ids := map[int64]bool{}
	for _, u := range users {
		ids[u.ID] = true
	}
	if len(users) != 2 || !ids[env.users["kim"].ID] || !ids[env.users["lee"].ID] {
		t.Fatalf("expected kim and lee, got %+v", users)
	}

	expectStatus(t, env.do(t, "kim", http.MethodGet, "/v1/users/accessible?selected=abc", nil), http.StatusBadRequest)
}

func TestAlarmInbox(t *testing.T) {
	env := newTestEnv(t, Options{})
	sched := env.createSchedule(t, "kim", api.ScheduleCreateRequest{Title: "inbox"})
	kim := env.users["kim"].ID
	// At most one open schedule_due alarm may exist per schedule and user,
	// so the inbox is seeded with one alarm of each kind.
	kinds := []models.AlarmType{models.AlarmScheduleDue, models.AlarmMemo, models.AlarmCompletionRequest}
	var ids []int64
	for i, kind := range kinds {
		a := &models.Alarm{
			UserID:      kim,
			ScheduleID:  sched.ID,
			Type:        kind,
			Message:     fmt.Sprintf("alarm %d", i),
			IsActivated: true,
			CreatedAt:   env.now.Add(time.Duration(i) * time.Minute),
		}
		if err := env.store.CreateAlarm(context.Background(), a); err != nil {
			t.Fatalf("create alarm: %v", err)
		}
		ids = append(ids, a.ID)
	}

	rec := env.do(t, "kim", http.MethodGet, "/v1/alarms", nil)
	expectStatus(t, rec, http.StatusOK)
	inbox := decodeBody[[]api.AlarmResponse](t, rec)
	if len(inbox) != 3 || inbox[0].ID != ids[2] || inbox[0].Type != models.AlarmCompletionRequest || inbox[0].ScheduleID != sched.ID {
		t.Fatalf("expected newest first, got %+v", inbox)
	}
	if inbox[0].CreatedAt != "2024-03-04T09:02:00Z" {
		t.Fatalf("unexpected created_at %q", inbox[0].CreatedAt)
	}

	expectStatus(t, env.do(t, "kim", http.MethodPost, fmt.Sprintf("/v1/alarms/%d/ack", ids[0]), nil), http.StatusOK)
	expectErrorCode(t, env.do(t, "lee", http.MethodPost, fmt.Sprintf("/v1/alarms/%d/ack", ids[0]), nil), http.StatusNotFound, ErrCodeAlarmNotFound)
	expectStatus(t, env.do(t, "kim", http.MethodPost, "/v1/alarms/0/ack", nil), http.StatusBadRequest)

	expectStatus(t, env.do(t, "kim", http.MethodDelete, fmt.Sprintf("/v1/alarms/%d", ids[1]), nil), http.StatusOK)
	expectStatus(t, env.do(t, "kim", http.MethodDelete, fmt.Sprintf("/v1/alarms/%d", ids[1]), nil), http.StatusNotFound)
	expectErrorCode(t, env.do(t, "kim", http.MethodPost, fmt.Sprintf("/v1/alarms/%d/ack", ids[1]), nil), http.StatusNotFound, ErrCodeAlarmNotFound)

	rec = env.do(t, "kim", http.MethodGet, "/v1/alarms", nil)
	inbox = decodeBody[[]api.AlarmResponse](t, rec)
	if len(inbox) != 2 || !inbox[1].IsAcked {
		t.Fatalf("expected two alarms with the oldest acked, got %+v", inbox)
	}

	rec = env.do(t, "kim", http.MethodDelete, "/v1/alarms", nil)
	expectStatus(t, rec, http.StatusOK)
	if cleared := decodeBody[api.ClearAlarmsResponse](t, rec); cleared.Cleared != 2 {
		t.Fatalf("expected 2 cleared, got %+v", cleared)
	}
}
