package main

import (
	"context"
	"errors"
	"net"

	"schedr/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: set SCHEDR_USER and SCHEDR_PASSWORD to an active account.")
		case "forbidden":
			lines = append(lines, "hint: ask the schedule owner to share it with you or grant the missing capability.")
		case "resource_exhausted":
			lines = append(lines, "hint: retry shortly; the server limits login failures and write bursts.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify SCHEDR_API_URL points to a schedr server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase SCHEDR_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a schedr server is running at SCHEDR_API_URL.",
			"hint: start it with: schedr serve",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
