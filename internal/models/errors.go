package models

import "errors"

// Error kinds shared by the core packages. Callers wrap them with fmt.Errorf("...: %w")
// and the HTTP layer maps them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation error")
	ErrStore            = errors.New("store failure")
)
