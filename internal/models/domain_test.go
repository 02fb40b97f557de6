package models

import "testing"

func TestParsePriority(t *testing.T) {
	tests := []struct {
		raw  string
		want Priority
	}{
		{raw: " urgent ", want: PriorityUrgent},
		{raw: "TURTLE", want: PriorityTurtle},
		{raw: "곧임박", want: PriorityMedium},
		{raw: "", want: ""},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("parse %q: expected %q, got %q", tt.raw, tt.want, got)
		}
	}

	if _, err := ParsePriority("someday"); err == nil {
		t.Fatal("expected invalid priority error")
	}
}

func TestParseAction(t *testing.T) {
	got, err := ParseAction(" EDIT ")
	if err != nil {
		t.Fatalf("parse action: %v", err)
	}
	if got != ActionEdit {
		t.Fatalf("expected %q, got %q", ActionEdit, got)
	}

	if _, err := ParseAction("archive"); err == nil {
		t.Fatal("expected invalid action error")
	}
}

func TestParseRole(t *testing.T) {
	got, err := ParseRole("Admin")
	if err != nil {
		t.Fatalf("parse role: %v", err)
	}
	if got != RoleAdmin {
		t.Fatalf("expected %q, got %q", RoleAdmin, got)
	}
	if _, err := ParseRole("root"); err == nil {
		t.Fatal("expected invalid role error")
	}
}

func TestCapabilitiesPatchApply(t *testing.T) {
	no := false
	role := "viewer"
	caps := CapabilitiesPatch{CanEdit: &no, Role: &role}.Apply(DefaultCapabilities())

	if caps.CanEdit {
		t.Fatal("expected can_edit=false after patch")
	}
	if !caps.CanDelete || !caps.CanComplete || !caps.CanShare {
		t.Fatalf("expected untouched flags to stay true, got %+v", caps)
	}
	if caps.Role != "viewer" {
		t.Fatalf("expected role viewer, got %q", caps.Role)
	}
}

func TestCapabilitiesAllows(t *testing.T) {
	caps := Capabilities{CanEdit: true, CanShare: true}
	if !caps.Allows(ActionEdit) || !caps.Allows(ActionShare) {
		t.Fatal("expected edit and share to be allowed")
	}
	if caps.Allows(ActionDelete) || caps.Allows(ActionComplete) {
		t.Fatal("expected delete and complete to be denied")
	}
	if caps.Allows(Action("archive")) {
		t.Fatal("expected unknown action to be denied")
	}
}
