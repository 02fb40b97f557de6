package models

import "time"

// DefaultShareRole is the role label stored on new grants.
const DefaultShareRole = "collaborator"

// Capabilities is the explicit capability set carried by a ScheduleShare.
// Every flag is always present; there is no "unset" state.
type Capabilities struct {
	CanEdit     bool   `json:"can_edit"`
	CanDelete   bool   `json:"can_delete"`
	CanComplete bool   `json:"can_complete"`
	CanShare    bool   `json:"can_share"`
	Role        string `json:"role"`
}

// DefaultCapabilities returns the grant applied when a caller does not specify one.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		CanEdit:     true,
		CanDelete:   true,
		CanComplete: true,
		CanShare:    true,
		Role:        DefaultShareRole,
	}
}

// NoCapabilities returns the all-false vector.
func NoCapabilities(role string) Capabilities {
	return Capabilities{Role: role}
}

// CapabilitiesPatch describes a partial update to a grant.
type CapabilitiesPatch struct {
	CanEdit     *bool   `json:"can_edit,omitempty"`
	CanDelete   *bool   `json:"can_delete,omitempty"`
	CanComplete *bool   `json:"can_complete,omitempty"`
	CanShare    *bool   `json:"can_share,omitempty"`
	Role        *string `json:"role,omitempty"`
}

// Apply returns caps with the non-nil fields of p applied.
func (p CapabilitiesPatch) Apply(caps Capabilities) Capabilities {
	if p.CanEdit != nil {
		caps.CanEdit = *p.CanEdit
	}
	if p.CanDelete != nil {
		caps.CanDelete = *p.CanDelete
	}
	if p.CanComplete != nil {
		caps.CanComplete = *p.CanComplete
	}
	if p.CanShare != nil {
		caps.CanShare = *p.CanShare
	}
	if p.Role != nil {
		caps.Role = *p.Role
	}
	return caps
}

// Allows reports whether the capability for action is granted.
func (c Capabilities) Allows(action Action) bool {
	switch action {
	case ActionEdit:
		return c.CanEdit
	case ActionDelete:
		return c.CanDelete
	case ActionComplete:
		return c.CanComplete
	case ActionShare:
		return c.CanShare
	default:
		return false
	}
}

// ScheduleShare grants a non-owner user a subset of capabilities on one schedule.
type ScheduleShare struct {
	ID           int64        `json:"id"`
	ScheduleID   int64        `json:"schedule_id"`
	SharedWithID int64        `json:"shared_with_id"`
	Capabilities Capabilities `json:"capabilities"`
	AddedAt      time.Time    `json:"added_at"`
}
