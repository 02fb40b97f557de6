package models

import (
	"fmt"
	"strings"
)

// Priority is the optional urgency level of a schedule.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
	PriorityTurtle Priority = "TURTLE"
)

var priorityLabels = map[Priority]string{
	PriorityUrgent: "긴급",
	PriorityHigh:   "급함",
	PriorityMedium: "곧임박",
	PriorityLow:    "일반",
	PriorityTurtle: "거북이",
}

// Action is a mutating operation guarded by the permission resolver.
type Action string

const (
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionComplete Action = "complete"
	ActionShare    Action = "share"
)

var validActions = map[Action]struct{}{
	ActionEdit:     {},
	ActionDelete:   {},
	ActionComplete: {},
	ActionShare:    {},
}

func IsValidPriority(p Priority) bool {
	_, ok := priorityLabels[p]
	return ok
}

// Label returns the display label for p, or "" when unset.
func (p Priority) Label() string {
	return priorityLabels[p]
}

// ParsePriority accepts either the key ("urgent") or the display label ("긴급").
// An empty value parses to the unset priority.
func ParsePriority(raw string) (Priority, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}
	upper := Priority(strings.ToUpper(value))
	if IsValidPriority(upper) {
		return upper, nil
	}
	for key, label := range priorityLabels {
		if label == value {
			return key, nil
		}
	}
	return "", fmt.Errorf("invalid priority: %s", value)
}

func IsValidAction(action Action) bool {
	_, ok := validActions[action]
	return ok
}

func ParseAction(raw string) (Action, error) {
	value := Action(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("action is required")
	}
	if !IsValidAction(value) {
		return "", fmt.Errorf("invalid action: %s", value)
	}
	return value, nil
}

func ParseRole(raw string) (Role, error) {
	value := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case RoleUser, RoleAdmin:
		return value, nil
	case "":
		return "", fmt.Errorf("role is required")
	default:
		return "", fmt.Errorf("invalid role: %s", value)
	}
}
