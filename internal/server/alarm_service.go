package server

import (
	"context"
	"fmt"
	"time"

	"schedr/internal/api"
	"schedr/internal/models"
	"schedr/internal/store"
)

// AlarmService serves a user's alarm inbox.
type AlarmService struct {
	store store.AlarmStore
	now   func() time.Time
}

// NewAlarmService constructs an AlarmService.
func NewAlarmService(st store.AlarmStore, now func() time.Time) *AlarmService {
	return &AlarmService{store: st, now: now}
}

// List returns the actor's live alarms, newest first.
func (s *AlarmService) List(ctx context.Context, actor models.Actor, limit, offset int) ([]api.AlarmResponse, error) {
	alarms, err := s.store.ListAlarmsForUser(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]api.AlarmResponse, 0, len(alarms))
	for _, a := range alarms {
		out = append(out, toAlarmResponse(a))
	}
	return out, nil
}

// Ack acknowledges one of the actor's alarms.
func (s *AlarmService) Ack(ctx context.Context, actor models.Actor, id int64) error {
	ok, err := s.store.AckAlarm(ctx, id, actor.ID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return alarmNotFound(id)
	}
	return nil
}

// Delete soft-deletes one of the actor's alarms.
func (s *AlarmService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	ok, err := s.store.DeleteAlarm(ctx, id, actor.ID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return alarmNotFound(id)
	}
	return nil
}

// Clear soft-deletes every live alarm of the actor.
func (s *AlarmService) Clear(ctx context.Context, actor models.Actor) (int64, error) {
	return s.store.ClearAlarms(ctx, actor.ID, s.now())
}

func alarmNotFound(id int64) error {
	return notFoundCode(fmt.Errorf("alarm %d: %w", id, models.ErrNotFound), ErrCodeAlarmNotFound)
}
