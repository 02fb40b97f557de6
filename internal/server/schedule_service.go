package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"schedr/internal/alarm"
	"schedr/internal/api"
	"schedr/internal/models"
	"schedr/internal/ordering"
	"schedr/internal/permission"
	"schedr/internal/store"
)

type scheduleStore interface {
	store.ScheduleStore
	CreateAlarm(ctx context.Context, alarm *models.Alarm) error
	ListActiveUsers(ctx context.Context) ([]models.User, error)
}

// ScheduleService centralizes schedule validation, authorization and defaults.
type ScheduleService struct {
	store    scheduleStore
	resolver *permission.Resolver
	now      func() time.Time
	loc      *time.Location
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(st scheduleStore, resolver *permission.Resolver, now func() time.Time, loc *time.Location) *ScheduleService {
	return &ScheduleService{store: st, resolver: resolver, now: now, loc: loc}
}

// ListQuery is the parsed form of GET /v1/schedules.
type ListQuery struct {
	ShowCompleted   bool
	CompletedOnly   bool
	ShowAllUsers    bool
	Start           *time.Time
	End             *time.Time
	SearchTerms     []string
	ExcludeTerms    []string
	SearchInTitle   bool
	SearchInContent bool
	SearchInMemo    bool
	Limit           int
	Offset          int
}

// Create inserts a schedule owned by actor.
func (s *ScheduleService) Create(ctx context.Context, actor models.Actor, req api.ScheduleCreateRequest) (api.ScheduleResponse, error) {
	var resp api.ScheduleResponse

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return resp, badRequestCode(fmt.Errorf("title is required"), ErrCodeMissingRequired)
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return resp, err
	}
	if req.ParentID != nil && *req.ParentID <= 0 {
		return resp, badRequestCode(fmt.Errorf("invalid parent_id"), ErrCodeInvalidParentID)
	}
	for _, id := range req.Collaborators {
		if id <= 0 {
			return resp, badRequestCode(fmt.Errorf("invalid collaborator id %d", id), ErrCodeInvalidCollaborator)
		}
	}

	now := s.now()
	date := now
	if req.Date != nil {
		date = *req.Date
	}
	sched := &models.Schedule{
		Title:       title,
		Content:     valueOrEmpty(req.Content),
		Date:        date,
		DueTime:     req.DueTime,
		AlarmTime:   req.AlarmTime,
		Priority:    priority,
		OwnerID:     actor.ID,
		Individual:  req.Individual,
		ProjectName: valueOrEmpty(req.ProjectName),
		ParentID:    req.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	opts := ordering.Options{Strict: req.StrictParent}
	if err := s.store.CreateSchedule(ctx, sched, req.Collaborators, opts); err != nil {
		return resp, err
	}
	return s.respond(ctx, actor, sched)
}

// Get returns a schedule the actor can see, with their capabilities.
func (s *ScheduleService) Get(ctx context.Context, actor models.Actor, id int64) (api.ScheduleResponse, error) {
	sched, err := s.resolver.View(ctx, actor, id)
	if err != nil {
		return api.ScheduleResponse{}, err
	}
	return s.respond(ctx, actor, sched)
}

// List returns the actor's own schedules plus public ones, due soonest first.
func (s *ScheduleService) List(ctx context.Context, actor models.Actor, q ListQuery) ([]api.ScheduleResponse, error) {
	filter := store.ScheduleFilter{
		ViewerID:      actor.ID,
		OwnOnly:       !q.ShowAllUsers,
		HideCompleted: !q.ShowCompleted,
		CompletedOnly: q.CompletedOnly,
		Start:         q.Start,
		End:           q.End,
		SearchTerms:   q.SearchTerms,
		ExcludeTerms:  q.ExcludeTerms,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	if q.SearchInTitle {
		filter.SearchFields = append(filter.SearchFields, store.SearchTitle)
	}
	if q.SearchInContent {
		filter.SearchFields = append(filter.SearchFields, store.SearchContent)
	}
	if q.SearchInMemo {
		filter.SearchFields = append(filter.SearchFields, store.SearchMemo)
	}
	if len(filter.SearchFields) == 0 {
		// Every field switched off disables term matching entirely.
		filter.SearchTerms = nil
		filter.ExcludeTerms = nil
	}

	schedules, err := s.store.ListSchedules(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]api.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		out = append(out, toScheduleResponse(schedules[i], nil))
	}
	return out, nil
}

// Update applies a partial update. Changing completion also needs the
// complete capability.
func (s *ScheduleService) Update(ctx context.Context, actor models.Actor, id int64, req api.ScheduleUpdateRequest) (api.ScheduleResponse, error) {
	var resp api.ScheduleResponse

	if _, err := s.resolver.Authorize(ctx, actor, id, models.ActionEdit); err != nil {
		return resp, err
	}
	if req.IsCompleted != nil {
		if _, err := s.resolver.Authorize(ctx, actor, id, models.ActionComplete); err != nil {
			return resp, err
		}
	}

	update := store.ScheduleUpdate{
		Content:        req.Content,
		Date:           req.Date,
		DueTime:        req.DueTime,
		ClearDueTime:   req.ClearDueTime,
		AlarmTime:      req.AlarmTime,
		ClearAlarmTime: req.ClearAlarmTime,
		Individual:     req.Individual,
		ProjectName:    req.ProjectName,
		IsCompleted:    req.IsCompleted,
		UpdatedAt:      s.now(),
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return resp, badRequestCode(fmt.Errorf("title cannot be empty"), ErrCodeMissingRequired)
		}
		update.Title = &title
	}
	if req.Priority != nil {
		priority, err := parsePriority(req.Priority)
		if err != nil {
			return resp, err
		}
		update.Priority = &priority
	}

	ok, err := s.store.UpdateSchedule(ctx, id, update)
	if err != nil {
		return resp, err
	}
	if !ok {
		return resp, notFound(fmt.Errorf("schedule %d: %w", id, models.ErrNotFound))
	}
	return s.reload(ctx, actor, id)
}

// Delete soft-deletes the schedule and its alarms.
func (s *ScheduleService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if _, err := s.resolver.Authorize(ctx, actor, id, models.ActionDelete); err != nil {
		return err
	}
	ok, err := s.store.SoftDeleteSchedule(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return notFound(fmt.Errorf("schedule %d: %w", id, models.ErrNotFound))
	}
	return nil
}

// Complete marks the schedule completed.
func (s *ScheduleService) Complete(ctx context.Context, actor models.Actor, id int64) (api.ScheduleResponse, error) {
	if _, err := s.resolver.Authorize(ctx, actor, id, models.ActionComplete); err != nil {
		return api.ScheduleResponse{}, err
	}
	completed := true
	ok, err := s.store.UpdateSchedule(ctx, id, store.ScheduleUpdate{IsCompleted: &completed, UpdatedAt: s.now()})
	if err != nil {
		return api.ScheduleResponse{}, err
	}
	if !ok {
		return api.ScheduleResponse{}, notFound(fmt.Errorf("schedule %d: %w", id, models.ErrNotFound))
	}
	return s.reload(ctx, actor, id)
}

// UpdateMemo replaces the memo and notifies the affected users in the same
// transaction. An unchanged memo is a no-op.
func (s *ScheduleService) UpdateMemo(ctx context.Context, actor models.Actor, id int64, memo string) (api.ScheduleResponse, error) {
	sched, err := s.resolver.View(ctx, actor, id)
	if err != nil {
		return api.ScheduleResponse{}, err
	}
	if memo == sched.Memo {
		return s.respond(ctx, actor, sched)
	}

	active, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		return api.ScheduleResponse{}, err
	}
	activeIDs := make([]int64, 0, len(active))
	for _, u := range active {
		activeIDs = append(activeIDs, u.ID)
	}

	now := s.now()
	message := alarm.MemoMessage(actor.Name, sched.Title)
	recipients := alarm.MemoRecipients(*sched, actor.ID, activeIDs)
	alarms := make([]models.Alarm, 0, len(recipients))
	for _, userID := range recipients {
		alarms = append(alarms, models.Alarm{
			UserID:     userID,
			ScheduleID: sched.ID,
			Type:       models.AlarmMemo,
			Message:    message,
			CreatedAt:  now,
		})
	}

	ok, err := s.store.UpdateMemo(ctx, id, memo, actor.ID, now, alarms)
	if err != nil {
		return api.ScheduleResponse{}, err
	}
	if !ok {
		return api.ScheduleResponse{}, notFound(fmt.Errorf("schedule %d: %w", id, models.ErrNotFound))
	}
	return s.reload(ctx, actor, id)
}

// RequestCompletion asks the owner to complete a schedule.
func (s *ScheduleService) RequestCompletion(ctx context.Context, actor models.Actor, id int64) (api.MessageResponse, error) {
	sched, err := s.resolver.View(ctx, actor, id)
	if err != nil {
		return api.MessageResponse{}, err
	}
	if sched.OwnerID == actor.ID {
		return api.MessageResponse{}, badRequestCode(fmt.Errorf("cannot request completion of your own schedule"), ErrCodeOwnSchedule)
	}
	if sched.IsCompleted {
		return api.MessageResponse{}, badRequestCode(fmt.Errorf("schedule %d is already completed", id), ErrCodeScheduleCompleted)
	}

	request := &models.Alarm{
		UserID:     sched.OwnerID,
		ScheduleID: sched.ID,
		Type:       models.AlarmCompletionRequest,
		Message:    alarm.CompletionRequestMessage(actor.Name, sched.Title),
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateAlarm(ctx, request); err != nil {
		return api.MessageResponse{}, err
	}
	return api.MessageResponse{Message: "completion requested", ID: request.ID}, nil
}

// Parent returns the schedule's parent.
func (s *ScheduleService) Parent(ctx context.Context, actor models.Actor, id int64) (api.ScheduleResponse, error) {
	child, err := s.resolver.View(ctx, actor, id)
	if err != nil {
		return api.ScheduleResponse{}, err
	}
	if child.ParentID == nil {
		return api.ScheduleResponse{}, notFound(fmt.Errorf("schedule %d has no parent: %w", id, models.ErrNotFound))
	}
	return s.Get(ctx, actor, *child.ParentID)
}

// Children returns the visible live children ordered by parent_order.
func (s *ScheduleService) Children(ctx context.Context, actor models.Actor, id int64) ([]api.ScheduleResponse, error) {
	if _, err := s.resolver.View(ctx, actor, id); err != nil {
		return nil, err
	}
	children, err := s.store.ListChildren(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]api.ScheduleResponse, 0, len(children))
	for i := range children {
		child := children[i]
		if !actor.IsAdmin() && !child.VisibleTo(actor.ID) {
			if _, err := s.resolver.View(ctx, actor, child.ID); err != nil {
				continue
			}
		}
		out = append(out, toScheduleResponse(child, nil))
	}
	return out, nil
}

// Permissions returns the actor's capability vector on a visible schedule.
func (s *ScheduleService) Permissions(ctx context.Context, actor models.Actor, id int64) (api.PermissionsResponse, error) {
	if _, err := s.resolver.View(ctx, actor, id); err != nil {
		return api.PermissionsResponse{}, err
	}
	vector, decision, err := s.resolver.Vector(ctx, actor, id)
	if err != nil {
		return api.PermissionsResponse{}, err
	}
	if err := decisionErr(decision, id); err != nil {
		return api.PermissionsResponse{}, err
	}
	return toPermissionsResponse(vector), nil
}

func (s *ScheduleService) reload(ctx context.Context, actor models.Actor, id int64) (api.ScheduleResponse, error) {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return api.ScheduleResponse{}, err
	}
	if sched == nil || sched.IsDeleted {
		return api.ScheduleResponse{}, notFound(fmt.Errorf("schedule %d: %w", id, models.ErrNotFound))
	}
	return s.respond(ctx, actor, sched)
}

func (s *ScheduleService) respond(ctx context.Context, actor models.Actor, sched *models.Schedule) (api.ScheduleResponse, error) {
	vector, _, err := s.resolver.Vector(ctx, actor, sched.ID)
	if err != nil {
		return api.ScheduleResponse{}, err
	}
	perms := toPermissionsResponse(vector)
	return toScheduleResponse(*sched, &perms), nil
}

// decisionErr turns a NotFound decision into an error; Deny still lets the
// caller read its (empty) vector.
func decisionErr(decision permission.Decision, id int64) error {
	if decision == permission.NotFound {
		return decision.Err(id)
	}
	return nil
}

func parsePriority(raw *string) (models.Priority, error) {
	if raw == nil {
		return "", nil
	}
	priority, err := models.ParsePriority(*raw)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidPriority)
	}
	return priority, nil
}

func valueOrEmpty(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return strings.TrimSpace(*ptr)
}
