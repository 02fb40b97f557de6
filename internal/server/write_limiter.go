package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// writeLimiter throttles mutating requests per authenticated user.
type writeLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

func newWriteLimiter(perSecond float64, burst int) *writeLimiter {
	if perSecond <= 0 || burst <= 0 {
		return nil
	}
	return &writeLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[int64]*rate.Limiter),
	}
}

func (l *writeLimiter) Allow(userID int64, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()

	return limiter.AllowN(now, 1)
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func (s *Server) withWriteLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isWriteMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		user, ok := userFromContext(r.Context())
		if ok && !s.writeLimiter.Allow(user.ID, s.now()) {
			w.Header().Set("Retry-After", "1")
			s.writeErrorReq(w, r, http.StatusTooManyRequests, makeAPIError(http.StatusTooManyRequests,
				"resource_exhausted", ErrCodeResourceExhausted, fmt.Errorf("too many write requests")))
			return
		}
		next.ServeHTTP(w, r)
	})
}
