package permission

import (
	"context"
	"errors"
	"testing"

	"schedr/internal/models"
)

func TestAddCollaboratorValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  models.Actor
		userID int64
		want   error
	}{
		{"self grant", f.editor, f.editor.ID, models.ErrValidation},
		{"grant to owner", f.editor, f.owner.ID, models.ErrValidation},
		{"unknown grantee", f.owner, 4242, models.ErrValidation},
		{"no share capability", f.stranger, f.admin.ID, models.ErrPermissionDenied},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.resolver.AddCollaborator(ctx, tc.actor, f.sched.ID, tc.userID, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, _, err := f.resolver.AddCollaborator(ctx, f.owner, 9999, f.stranger.ID, nil); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found for missing schedule, got %v", err)
	}
}

func TestCollaboratorLifecycle(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	// A grantee holding can_share may extend access.
	share, created, err := f.resolver.AddCollaborator(ctx, f.editor, f.sched.ID, f.stranger.ID, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !created || share.Capabilities != models.DefaultCapabilities() {
		t.Fatalf("unexpected grant: created=%v %+v", created, share)
	}

	no := false
	updated, err := f.resolver.UpdateCollaborator(ctx, f.owner, f.sched.ID, f.stranger.ID, models.CapabilitiesPatch{CanShare: &no})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Capabilities.CanShare || !updated.Capabilities.CanEdit {
		t.Fatalf("expected only can_share revoked, got %+v", updated.Capabilities)
	}

	if _, _, err := f.resolver.AddCollaborator(ctx, f.stranger, f.sched.ID, f.admin.ID, nil); !errors.Is(err, models.ErrPermissionDenied) {
		t.Fatalf("expected revoked share capability to deny, got %v", err)
	}

	list, err := f.resolver.ListCollaborators(ctx, f.stranger, f.sched.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 collaborators, got %d", len(list))
	}

	if err := f.resolver.RemoveCollaborator(ctx, f.owner, f.sched.ID, f.stranger.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.resolver.RemoveCollaborator(ctx, f.owner, f.sched.ID, f.stranger.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected second remove to report not found, got %v", err)
	}
	if _, err := f.resolver.UpdateCollaborator(ctx, f.owner, f.sched.ID, f.stranger.ID, models.CapabilitiesPatch{CanShare: &no}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected update of removed grant to report not found, got %v", err)
	}
}

func TestAccessibleUsers(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	got, err := f.resolver.AccessibleUsers(ctx, f.owner, []int64{f.stranger.ID})
	if err != nil {
		t.Fatalf("accessible: %v", err)
	}
	want := []int64{f.owner.ID, f.editor.ID, f.stranger.ID}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
