package server

import (
	"fmt"
	"sync"
	"time"
)

// LoginLimits bounds failed Basic-auth attempts per client ip and username.
type LoginLimits struct {
	// MaxFailures within Window locks the key out for Lockout.
	MaxFailures int
	Window      time.Duration
	Lockout     time.Duration
}

// DefaultLoginLimits allows five failures in five minutes, then locks the
// key for fifteen minutes.
func DefaultLoginLimits() LoginLimits {
	return LoginLimits{MaxFailures: 5, Window: 5 * time.Minute, Lockout: 15 * time.Minute}
}

func (l LoginLimits) withDefaults() LoginLimits {
	def := DefaultLoginLimits()
	if l.MaxFailures <= 0 {
		l.MaxFailures = def.MaxFailures
	}
	if l.Window <= 0 {
		l.Window = def.Window
	}
	if l.Lockout <= 0 {
		l.Lockout = def.Lockout
	}
	return l
}

// errLoginLocked is returned while a key is locked out.
type errLoginLocked struct {
	retryAfter time.Duration
}

func (e errLoginLocked) Error() string {
	return fmt.Sprintf("too many failed logins; retry in %s", e.retryAfter.Round(time.Second))
}

// loginGuard tracks failed logins in a sliding window. Keys that have been
// quiet for longer than their window and lockout are forgotten on the next
// sweep.
type loginGuard struct {
	mu        sync.Mutex
	limits    LoginLimits
	keys      map[string]*loginRecord
	lastSweep time.Time
}

type loginRecord struct {
	failures    []time.Time
	lockedUntil time.Time
}

func newLoginGuard(limits LoginLimits) *loginGuard {
	return &loginGuard{
		limits: limits.withDefaults(),
		keys:   make(map[string]*loginRecord),
	}
}

// check reports how long key stays locked. Zero means an attempt may proceed.
func (g *loginGuard) check(key string, now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked(now)

	rec, ok := g.keys[key]
	if !ok || !now.Before(rec.lockedUntil) {
		return 0
	}
	return rec.lockedUntil.Sub(now)
}

// fail records a failed attempt and starts a lockout once the window is full.
func (g *loginGuard) fail(key string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.keys[key]
	if !ok {
		rec = &loginRecord{}
		g.keys[key] = rec
	}
	rec.failures = append(pruneBefore(rec.failures, now.Add(-g.limits.Window)), now)
	if len(rec.failures) >= g.limits.MaxFailures {
		rec.lockedUntil = now.Add(g.limits.Lockout)
		rec.failures = nil
	}
}

// succeed forgets key after a successful login.
func (g *loginGuard) succeed(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
}

func (g *loginGuard) sweepLocked(now time.Time) {
	if now.Sub(g.lastSweep) < g.limits.Window {
		return
	}
	g.lastSweep = now
	cutoff := now.Add(-g.limits.Window)
	for key, rec := range g.keys {
		rec.failures = pruneBefore(rec.failures, cutoff)
		if len(rec.failures) == 0 && !now.Before(rec.lockedUntil) {
			delete(g.keys, key)
		}
	}
}

// pruneBefore drops the leading timestamps older than cutoff. failures is
// kept in insertion order.
func pruneBefore(failures []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(failures) && !failures[i].After(cutoff) {
		i++
	}
	return failures[i:]
}
