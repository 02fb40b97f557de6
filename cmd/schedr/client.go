package main

import (
	"fmt"

	"schedr/internal/api"
)

// withClient runs fn against the configured API server. Credentials come
// from SCHEDR_USER and SCHEDR_PASSWORD.
func withClient(state *cliState, fn func(*api.Client) error) error {
	if state.cfg.APIURL == "" {
		return fmt.Errorf("api url is required")
	}
	return fn(api.NewClient(state.cfg.APIURL))
}
