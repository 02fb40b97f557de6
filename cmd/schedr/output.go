package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"schedr/internal/api"
	"schedr/internal/format"
	"schedr/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(layout string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, layout, args...)
	return err
}

func writeScheduleList(schedules []api.ScheduleResponse) error {
	table := format.Table{Header: []string{"id", "status", "priority", "due", "project", "title"}}
	for _, s := range schedules {
		due := "-"
		if s.DueTime != nil {
			due = formatTime(*s.DueTime)
		}
		project := s.ProjectName
		if project == "" {
			project = "-"
		}
		table.Append(s.ID, scheduleStatus(s.Schedule), priorityLabel(s.Priority), due, project, s.Title)
	}
	return table.Write(os.Stdout)
}

func writeScheduleDetail(s api.ScheduleResponse) error {
	lines := []string{
		fmt.Sprintf("id: %d", s.ID),
		fmt.Sprintf("title: %s", s.Title),
		fmt.Sprintf("status: %s", scheduleStatus(s.Schedule)),
		fmt.Sprintf("owner_id: %d", s.OwnerID),
		fmt.Sprintf("individual: %t", s.Individual),
		fmt.Sprintf("date: %s", formatTime(s.Date)),
	}
	if s.Priority != "" {
		lines = append(lines, fmt.Sprintf("priority: %s", priorityLabel(s.Priority)))
	}
	if s.ProjectName != "" {
		lines = append(lines, fmt.Sprintf("project: %s", s.ProjectName))
	}
	if s.DueTime != nil {
		lines = append(lines, fmt.Sprintf("due_time: %s", formatTime(*s.DueTime)))
	}
	if s.AlarmTime != nil {
		lines = append(lines, fmt.Sprintf("alarm_time: %s", formatTime(*s.AlarmTime)))
	}
	if s.ParentID != nil {
		lines = append(lines, fmt.Sprintf("parent_id: %d (order %d)", *s.ParentID, s.ParentOrder))
	}
	if s.Content != "" {
		lines = append(lines, fmt.Sprintf("content: %s", s.Content))
	}
	if s.Memo != "" {
		lines = append(lines, fmt.Sprintf("memo: %s", s.Memo))
	}
	if p := s.Permissions; p != nil {
		lines = append(lines, fmt.Sprintf("access: %s (edit=%t delete=%t complete=%t share=%t)",
			p.Role, p.CanEdit, p.CanDelete, p.CanComplete, p.CanShare))
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeAlarmList(alarms []api.AlarmResponse) error {
	table := format.Table{Header: []string{"id", "type", "schedule", "created", "message"}}
	for _, a := range alarms {
		id := fmt.Sprint(a.ID)
		if !a.IsAcked {
			id = color.New(color.Bold).Sprint(id)
		}
		table.Append(id, a.Type, a.ScheduleID, a.CreatedAt, a.Message)
	}
	return table.Write(os.Stdout)
}

func scheduleStatus(s models.Schedule) string {
	if s.IsCompleted {
		return color.GreenString("done")
	}
	if s.Individual {
		return color.CyanString("private")
	}
	return "open"
}

func priorityLabel(p models.Priority) string {
	if p == "" {
		return "-"
	}
	label := fmt.Sprintf("%s(%s)", p, p.Label())
	switch p {
	case models.PriorityUrgent:
		return color.RedString(label)
	case models.PriorityHigh:
		return color.YellowString(label)
	default:
		return label
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
