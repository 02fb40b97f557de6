package store

import (
	"context"
	"testing"
	"time"

	"schedr/internal/models"
)

func TestCreateUserNormalizesUsername(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	user := &models.User{Username: "  Kim.Admin ", Name: "Kim", PasswordHash: "hash", IsActive: true, CreatedAt: testNow, UpdatedAt: testNow}
	if err := st.CreateUser(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Username != "kim.admin" {
		t.Fatalf("expected normalized username, got %q", user.Username)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("expected default role user, got %q", user.Role)
	}

	got, err := st.GetUserByUsername(ctx, "KIM.ADMIN")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got == nil || got.ID != user.ID || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}

	dup := &models.User{Username: "kim.admin", CreatedAt: testNow, UpdatedAt: testNow}
	if err := st.CreateUser(ctx, dup); err == nil {
		t.Fatal("expected duplicate username to fail")
	}
}

func TestUserAdminUpdates(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	seedUser(t, st, "kim")
	seedUser(t, st, "lee")

	later := testNow.Add(time.Hour)
	user, err := st.SetUserRole(ctx, "kim", models.RoleAdmin, later)
	if err != nil {
		t.Fatalf("set role: %v", err)
	}
	if user == nil || user.Role != models.RoleAdmin || !user.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected user after role change: %+v", user)
	}

	user, err = st.SetUserActive(ctx, "lee", false, later)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if user == nil || user.IsActive {
		t.Fatalf("expected lee inactive, got %+v", user)
	}

	active, err := st.ListActiveUsers(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].Username != "kim" {
		t.Fatalf("unexpected active users: %+v", active)
	}

	all, err := st.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}

	missing, err := st.SetUserActive(ctx, "nobody", true, later)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown user, got %+v err=%v", missing, err)
	}

	if _, err := st.SetUserPassword(ctx, "kim", "", later); err == nil {
		t.Fatal("expected empty password hash to be rejected")
	}
}
