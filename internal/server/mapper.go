package server

import (
	"time"

	"schedr/internal/api"
	"schedr/internal/models"
	"schedr/internal/permission"
	"schedr/internal/store"
)

func toScheduleResponse(sched models.Schedule, perms *api.PermissionsResponse) api.ScheduleResponse {
	return api.ScheduleResponse{
		Schedule:      sched,
		PriorityLabel: sched.Priority.Label(),
		Permissions:   perms,
	}
}

func toPermissionsResponse(v permission.Vector) api.PermissionsResponse {
	return api.PermissionsResponse{
		IsOwner:     v.IsOwner,
		CanEdit:     v.CanEdit,
		CanDelete:   v.CanDelete,
		CanComplete: v.CanComplete,
		CanShare:    v.CanShare,
		Role:        v.Role,
	}
}

func toAlarmResponse(a models.Alarm) api.AlarmResponse {
	return api.AlarmResponse{
		ID:         a.ID,
		Type:       a.Type,
		Message:    a.Message,
		IsAcked:    a.IsAcked,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
		ScheduleID: a.ScheduleID,
	}
}

func toShareResponse(share models.ScheduleShare) api.CollaboratorResponse {
	return api.CollaboratorResponse{
		ScheduleID:  share.ScheduleID,
		UserID:      share.SharedWithID,
		CanEdit:     share.Capabilities.CanEdit,
		CanDelete:   share.Capabilities.CanDelete,
		CanComplete: share.Capabilities.CanComplete,
		CanShare:    share.Capabilities.CanShare,
		Role:        share.Capabilities.Role,
		AddedAt:     share.AddedAt,
	}
}

func toCollaboratorResponse(c store.Collaborator) api.CollaboratorResponse {
	resp := toShareResponse(c.Share)
	resp.Username = c.User.Username
	resp.Name = c.User.Name
	return resp
}

func toUserResponse(u models.User) api.UserResponse {
	return api.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
