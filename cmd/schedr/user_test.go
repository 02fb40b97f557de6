package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"schedr/internal/auth"
	"schedr/internal/config"
	"schedr/internal/models"
	"schedr/internal/store"
)

func TestReadPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"trailing newline", "s3cret-pass\n", "s3cret-pass", false},
		{"crlf", "s3cret-pass\r\n", "s3cret-pass", false},
		{"no newline", "s3cret-pass", "s3cret-pass", false},
		{"keeps inner spaces", " two words \n", " two words ", false},
		{"only first line", "first-line\nsecond\n", "first-line", false},
		{"empty", "\n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPassword(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddUser(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	created, err := addUser(ctx, st, " Kim ", "", "admin", "long-enough-1", now)
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	if created.Username != "kim" || created.Name != "kim" || created.Role != models.RoleAdmin || !created.IsActive {
		t.Fatalf("unexpected user %+v", created)
	}

	stored, err := st.GetUserByUsername(ctx, "kim")
	if err != nil || stored == nil {
		t.Fatalf("lookup: %v", err)
	}
	if err := auth.Authenticate(stored, "long-enough-1"); err != nil {
		t.Fatalf("expected stored hash to verify: %v", err)
	}

	if _, err := addUser(ctx, st, "kim", "Kim", "user", "long-enough-1", now); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := addUser(ctx, st, "lee", "", "owner", "long-enough-1", now); err == nil {
		t.Fatal("expected invalid role error")
	}
	if _, err := addUser(ctx, st, "lee", "", "user", "short", now); err == nil {
		t.Fatal("expected short password error")
	}
	if _, err := addUser(ctx, st, "bad name!", "", "user", "long-enough-1", now); err == nil {
		t.Fatal("expected invalid username error")
	}
}

func TestUserListCommandReadsStore(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "cli.db")
	state := &cliState{cfg: &cfg}

	if err := withStore(state, func(st *store.Store) error {
		_, err := addUser(context.Background(), st, "park", "Park", "user", "long-enough-1", time.Now().UTC())
		return err
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cmd := newUserListCmd(state)
	cmd.SetArgs([]string{})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute user list: %v", err)
	}
}
