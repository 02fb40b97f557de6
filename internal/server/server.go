// Package server exposes the schedule core over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"schedr/internal/permission"
	"schedr/internal/store"
)

const (
	allowRemoteEnvKey = "SCHEDR_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second

	defaultMaxBodyBytes int64 = 1 << 20
)

// Store is the persistence the HTTP layer needs.
type Store interface {
	store.ScheduleStore
	store.ShareStore
	store.AlarmStore
	store.UserStore
}

// Options tunes a Server. Zero values pick defaults.
type Options struct {
	Logger         zerolog.Logger
	Now            func() time.Time
	Location       *time.Location
	WriteRateLimit float64
	WriteBurst     int
	MaxBodyBytes   int64
	LoginLimits    LoginLimits
}

// Server wraps HTTP handlers for the schedr API.
type Server struct {
	addr         string
	store        Store
	resolver     *permission.Resolver
	schedules    *ScheduleService
	alarms       *AlarmService
	logger       zerolog.Logger
	now          func() time.Time
	loginGuard   *loginGuard
	writeLimiter *writeLimiter
	maxBodyBytes int64
}

// New creates a new server instance.
func New(addr string, st Store, opts Options) *Server {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	resolver := permission.NewResolver(st, now)
	return &Server{
		addr:         addr,
		store:        st,
		resolver:     resolver,
		schedules:    NewScheduleService(st, resolver, now, loc),
		alarms:       NewAlarmService(st, now),
		logger:       opts.Logger.With().Str("component", "http").Logger(),
		now:          now,
		loginGuard:   newLoginGuard(opts.LoginLimits),
		writeLimiter: newWriteLimiter(opts.WriteRateLimit, opts.WriteBurst),
		maxBodyBytes: maxBody,
	}
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.withAuth(s.withWriteLimit(s.routes())))
}

// Listen binds the server address. Callers that need to signal readiness
// after the socket is open use Listen followed by Serve.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.addr)
}

// Serve handles connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("starting server")
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	err := server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// log returns the request-scoped logger when one is attached.
func (s *Server) log(r *http.Request) *zerolog.Logger {
	if r != nil {
		if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return &s.logger
}
