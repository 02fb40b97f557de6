package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument     = 1000
	ErrCodeInvalidJSON         = 1001
	ErrCodeRequestTooLarge     = 1002
	ErrCodeInvalidQuery        = 1003
	ErrCodeInvalidID           = 1004
	ErrCodeInvalidPriority     = 1005
	ErrCodeMissingRequired     = 1006
	ErrCodeInvalidTimeFilter   = 1007
	ErrCodeInvalidParentID     = 1008
	ErrCodeInvalidCollaborator = 1009

	// Domain state (2xxx)
	ErrCodeScheduleNotFound     = 2001
	ErrCodeAlarmNotFound        = 2002
	ErrCodeCollaboratorNotFound = 2004
	ErrCodeScheduleCompleted    = 2101
	ErrCodeOwnSchedule          = 2102

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeForbidden         = 3002
	ErrCodeResourceExhausted = 3003
	ErrCodeUserDisabled      = 3004

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 403:
		return ErrCodeForbidden
	case 404:
		return ErrCodeScheduleNotFound
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
