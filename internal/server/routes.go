package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and identity.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/me", s.handleMe)
	mux.HandleFunc("GET /v1/users/accessible", s.handleAccessibleUsers)

	// Schedules collection.
	mux.HandleFunc("POST /v1/schedules", s.handleCreateSchedule)
	mux.HandleFunc("GET /v1/schedules", s.handleListSchedules)

	// Single schedule.
	mux.HandleFunc("GET /v1/schedules/{id}", s.handleGetSchedule)
	mux.HandleFunc("PATCH /v1/schedules/{id}", s.handleUpdateSchedule)
	mux.HandleFunc("DELETE /v1/schedules/{id}", s.handleDeleteSchedule)
	mux.HandleFunc("POST /v1/schedules/{id}/complete", s.handleCompleteSchedule)
	mux.HandleFunc("PUT /v1/schedules/{id}/memo", s.handleUpdateMemo)
	mux.HandleFunc("POST /v1/schedules/{id}/completion-request", s.handleRequestCompletion)
	mux.HandleFunc("GET /v1/schedules/{id}/permissions", s.handleSchedulePermissions)

	// Hierarchy.
	mux.HandleFunc("GET /v1/schedules/{id}/parent", s.handleScheduleParent)
	mux.HandleFunc("GET /v1/schedules/{id}/children", s.handleScheduleChildren)

	// Collaborators.
	mux.HandleFunc("GET /v1/schedules/{id}/collaborators", s.handleListCollaborators)
	mux.HandleFunc("POST /v1/schedules/{id}/collaborators", s.handleAddCollaborator)
	mux.HandleFunc("PATCH /v1/schedules/{id}/collaborators/{user_id}", s.handleUpdateCollaborator)
	mux.HandleFunc("DELETE /v1/schedules/{id}/collaborators/{user_id}", s.handleRemoveCollaborator)

	// Alarm inbox.
	mux.HandleFunc("GET /v1/alarms", s.handleListAlarms)
	mux.HandleFunc("DELETE /v1/alarms", s.handleClearAlarms)
	mux.HandleFunc("POST /v1/alarms/{id}/ack", s.handleAckAlarm)
	mux.HandleFunc("DELETE /v1/alarms/{id}", s.handleDeleteAlarm)

	return mux
}
