package permission

import (
	"context"
	"fmt"

	"schedr/internal/models"
	"schedr/internal/store"
)

var (
	// ErrCollaboratorNotFound reports a missing grant on an existing schedule.
	ErrCollaboratorNotFound = fmt.Errorf("collaborator not found: %w", models.ErrNotFound)
	// ErrUnknownGrantee reports a grant naming a user that does not exist.
	ErrUnknownGrantee = fmt.Errorf("grantee does not exist: %w", models.ErrValidation)
)

// AddCollaborator grants userID access to the schedule. A nil caps applies
// the default full grant. An existing grant is overwritten; created reports
// whether a new one was made.
func (r *Resolver) AddCollaborator(ctx context.Context, actor models.Actor, scheduleID, userID int64, caps *models.Capabilities) (*models.ScheduleShare, bool, error) {
	sched, err := r.Authorize(ctx, actor, scheduleID, models.ActionShare)
	if err != nil {
		return nil, false, err
	}
	if err := r.checkGrantee(ctx, actor, sched, userID); err != nil {
		return nil, false, err
	}

	grant := models.DefaultCapabilities()
	if caps != nil {
		grant = *caps
		if grant.Role == "" {
			grant.Role = models.DefaultShareRole
		}
	}
	return r.store.UpsertShare(ctx, scheduleID, userID, grant, r.now())
}

// UpdateCollaborator applies patch to an existing grant.
func (r *Resolver) UpdateCollaborator(ctx context.Context, actor models.Actor, scheduleID, userID int64, patch models.CapabilitiesPatch) (*models.ScheduleShare, error) {
	sched, err := r.Authorize(ctx, actor, scheduleID, models.ActionShare)
	if err != nil {
		return nil, err
	}
	if err := r.checkGrantee(ctx, actor, sched, userID); err != nil {
		return nil, err
	}

	existing, err := r.store.GetShare(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("user %d on schedule %d: %w", userID, scheduleID, ErrCollaboratorNotFound)
	}
	updated, err := r.store.UpdateShare(ctx, scheduleID, userID, patch.Apply(existing.Capabilities))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("user %d on schedule %d: %w", userID, scheduleID, ErrCollaboratorNotFound)
	}
	return updated, nil
}

// RemoveCollaborator revokes userID's grant on the schedule.
func (r *Resolver) RemoveCollaborator(ctx context.Context, actor models.Actor, scheduleID, userID int64) error {
	if _, err := r.Authorize(ctx, actor, scheduleID, models.ActionShare); err != nil {
		return err
	}
	removed, err := r.store.DeleteShare(ctx, scheduleID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("user %d on schedule %d: %w", userID, scheduleID, ErrCollaboratorNotFound)
	}
	return nil
}

// ListCollaborators returns the grants on a schedule the actor can see.
func (r *Resolver) ListCollaborators(ctx context.Context, actor models.Actor, scheduleID int64) ([]store.Collaborator, error) {
	if _, err := r.View(ctx, actor, scheduleID); err != nil {
		return nil, err
	}
	return r.store.ListCollaborators(ctx, scheduleID)
}

// AccessibleUsers returns the actor, the selected users, everyone the actor
// shares a schedule with, and the owners of schedules shared with any
// selected user. It does not follow grants any further.
func (r *Resolver) AccessibleUsers(ctx context.Context, actor models.Actor, selected []int64) ([]int64, error) {
	return r.store.AccessibleUserIDs(ctx, actor.ID, selected)
}

func (r *Resolver) checkGrantee(ctx context.Context, actor models.Actor, sched *models.Schedule, userID int64) error {
	if userID == actor.ID {
		return fmt.Errorf("cannot change your own grant: %w", models.ErrValidation)
	}
	if userID == sched.OwnerID {
		return fmt.Errorf("owner already has full access: %w", models.ErrValidation)
	}
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrUnknownGrantee)
	}
	return nil
}
