// Package permission decides what an actor may do to a schedule.
//
// Priority is admin, then owner, then the actor's share grant; anything else
// is denied. A missing or soft-deleted schedule resolves to NotFound so the
// caller can answer 404 rather than 403.
package permission

import (
	"context"
	"fmt"
	"time"

	"schedr/internal/models"
	"schedr/internal/store"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case NotFound:
		return "not_found"
	default:
		return "deny"
	}
}

// Err converts a non-Allow decision into the matching error kind.
func (d Decision) Err(scheduleID int64) error {
	switch d {
	case Allow:
		return nil
	case NotFound:
		return fmt.Errorf("schedule %d: %w", scheduleID, models.ErrNotFound)
	default:
		return fmt.Errorf("schedule %d: %w", scheduleID, models.ErrPermissionDenied)
	}
}

const (
	RoleAdmin = "admin"
	RoleOwner = "owner"
	RoleNone  = "none"
)

// Vector is the full capability picture of one actor on one schedule.
type Vector struct {
	IsOwner     bool   `json:"is_owner"`
	CanEdit     bool   `json:"can_edit"`
	CanDelete   bool   `json:"can_delete"`
	CanComplete bool   `json:"can_complete"`
	CanShare    bool   `json:"can_share"`
	Role        string `json:"role"`
}

// Store is the persistence the resolver reads and, for grants, writes.
type Store interface {
	GetSchedule(ctx context.Context, id int64) (*models.Schedule, error)
	GetShare(ctx context.Context, scheduleID, userID int64) (*models.ScheduleShare, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpsertShare(ctx context.Context, scheduleID, userID int64, caps models.Capabilities, now time.Time) (*models.ScheduleShare, bool, error)
	UpdateShare(ctx context.Context, scheduleID, userID int64, caps models.Capabilities) (*models.ScheduleShare, error)
	DeleteShare(ctx context.Context, scheduleID, userID int64) (bool, error)
	ListCollaborators(ctx context.Context, scheduleID int64) ([]store.Collaborator, error)
	AccessibleUserIDs(ctx context.Context, actorID int64, selected []int64) ([]int64, error)
}

// Resolver answers authorization questions against a Store.
type Resolver struct {
	store Store
	now   func() time.Time
}

// NewResolver builds a Resolver. A nil clock defaults to time.Now.
func NewResolver(st Store, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: st, now: now}
}

// CanPerform decides whether actor may apply action to the schedule.
func (r *Resolver) CanPerform(ctx context.Context, actor models.Actor, scheduleID int64, action models.Action) (Decision, error) {
	if !models.IsValidAction(action) {
		return Deny, fmt.Errorf("unknown action %q: %w", action, models.ErrValidation)
	}
	sched, err := r.liveSchedule(ctx, scheduleID)
	if err != nil {
		return Deny, err
	}
	if sched == nil {
		return NotFound, nil
	}
	return r.decide(ctx, actor, sched, action)
}

// Authorize is CanPerform folded into a single error: nil on Allow,
// ErrNotFound or ErrPermissionDenied otherwise. It returns the live schedule.
func (r *Resolver) Authorize(ctx context.Context, actor models.Actor, scheduleID int64, action models.Action) (*models.Schedule, error) {
	if !models.IsValidAction(action) {
		return nil, fmt.Errorf("unknown action %q: %w", action, models.ErrValidation)
	}
	sched, err := r.liveSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, NotFound.Err(scheduleID)
	}
	decision, err := r.decide(ctx, actor, sched, action)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(scheduleID); err != nil {
		return nil, err
	}
	return sched, nil
}

// Vector returns actor's capabilities on the schedule using the same
// priority as CanPerform.
func (r *Resolver) Vector(ctx context.Context, actor models.Actor, scheduleID int64) (Vector, Decision, error) {
	sched, err := r.liveSchedule(ctx, scheduleID)
	if err != nil {
		return Vector{}, Deny, err
	}
	if sched == nil {
		return Vector{Role: RoleNone}, NotFound, nil
	}

	isOwner := sched.OwnerID == actor.ID
	switch {
	case actor.IsAdmin():
		return fullVector(isOwner, RoleAdmin), Allow, nil
	case isOwner:
		return fullVector(true, RoleOwner), Allow, nil
	}

	share, err := r.store.GetShare(ctx, scheduleID, actor.ID)
	if err != nil {
		return Vector{}, Deny, err
	}
	if share == nil {
		return Vector{Role: RoleNone}, Allow, nil
	}
	caps := share.Capabilities
	return Vector{
		CanEdit:     caps.CanEdit,
		CanDelete:   caps.CanDelete,
		CanComplete: caps.CanComplete,
		CanShare:    caps.CanShare,
		Role:        caps.Role,
	}, Allow, nil
}

// View returns the schedule when actor may read it: admins, the owner,
// anyone for public schedules, and grantees of individual ones. Otherwise it
// reports ErrNotFound so private schedules do not leak their existence.
func (r *Resolver) View(ctx context.Context, actor models.Actor, scheduleID int64) (*models.Schedule, error) {
	sched, err := r.liveSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, NotFound.Err(scheduleID)
	}
	if actor.IsAdmin() || sched.VisibleTo(actor.ID) {
		return sched, nil
	}
	share, err := r.store.GetShare(ctx, scheduleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if share == nil {
		return nil, NotFound.Err(scheduleID)
	}
	return sched, nil
}

func (r *Resolver) decide(ctx context.Context, actor models.Actor, sched *models.Schedule, action models.Action) (Decision, error) {
	if actor.IsAdmin() || sched.OwnerID == actor.ID {
		return Allow, nil
	}
	share, err := r.store.GetShare(ctx, sched.ID, actor.ID)
	if err != nil {
		return Deny, err
	}
	if share != nil && share.Capabilities.Allows(action) {
		return Allow, nil
	}
	return Deny, nil
}

func (r *Resolver) liveSchedule(ctx context.Context, id int64) (*models.Schedule, error) {
	sched, err := r.store.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched == nil || sched.IsDeleted {
		return nil, nil
	}
	return sched, nil
}

func fullVector(isOwner bool, role string) Vector {
	return Vector{
		IsOwner:     isOwner,
		CanEdit:     true,
		CanDelete:   true,
		CanComplete: true,
		CanShare:    true,
		Role:        role,
	}
}
