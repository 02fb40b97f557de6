package server

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"schedr/internal/auth"
	"schedr/internal/models"
)

const authRealm = `Basic realm="schedr", charset="UTF-8"`

// withAuth resolves the caller from HTTP Basic credentials. Every route
// except /health requires an active account.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.authenticate(r)
		if err != nil {
			if httpStatusFromError(err) == http.StatusUnauthorized {
				w.Header().Set("WWW-Authenticate", authRealm)
			}
			var locked errLoginLocked
			if errors.As(err, &locked) {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(locked.retryAfter.Seconds()))))
			}
			s.writeErrorReq(w, r, httpStatusFromError(err), err)
			return
		}

		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Int64("user_id", user.ID)
		})
		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

func (s *Server) authenticate(r *http.Request) (*models.User, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, unauthorized(fmt.Errorf("authentication required"))
	}

	now := s.now()
	key := loginAttemptKey(username, r)
	if wait := s.loginGuard.check(key, now); wait > 0 {
		return nil, makeAPIError(http.StatusTooManyRequests, "resource_exhausted", ErrCodeResourceExhausted,
			errLoginLocked{retryAfter: wait})
	}

	normalized, err := auth.NormalizeUsername(username)
	if err != nil {
		s.loginGuard.fail(key, now)
		return nil, unauthorized(auth.ErrInvalidCredentials)
	}
	user, err := s.store.GetUserByUsername(r.Context(), normalized)
	if err != nil {
		return nil, storeFailure(err)
	}

	if err := auth.Authenticate(user, password); err != nil {
		if errors.Is(err, auth.ErrInactiveUser) {
			return nil, makeAPIError(http.StatusUnauthorized, "unauthorized", ErrCodeUserDisabled, err)
		}
		s.loginGuard.fail(key, now)
		return nil, unauthorized(auth.ErrInvalidCredentials)
	}
	s.loginGuard.succeed(key)
	return user, nil
}

func loginAttemptKey(username string, r *http.Request) string {
	user := strings.ToLower(strings.TrimSpace(username))
	if user == "" {
		user = "<empty>"
	}
	ip := requestClientIP(r)
	if ip == "" {
		ip = "<unknown>"
	}
	return ip + "|" + user
}

func requestClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remote)
	if err == nil {
		return strings.TrimSpace(host)
	}
	return remote
}
