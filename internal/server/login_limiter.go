package server

import (
	"sync"
	"time"
)

const (
	loginLimiterSweepSize = 256
	loginLimiterMinStale  = 10 * time.Minute
)

// loginLimiter blocks a client after repeated failed operator logins.
// A nil *loginLimiter allows everything.
type loginLimiter struct {
	mu          sync.Mutex
	clients     map[string]loginAttempts
	maxFailures int
	window      time.Duration
	blockFor    time.Duration
	staleAfter  time.Duration
}

type loginAttempts struct {
	failures     int
	windowStart  time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

func newLoginLimiter(maxFailures int, window, blockFor time.Duration) *loginLimiter {
	if maxFailures <= 0 || window <= 0 || blockFor <= 0 {
		return nil
	}
	staleAfter := 2 * max(window, blockFor)
	if staleAfter < loginLimiterMinStale {
		staleAfter = loginLimiterMinStale
	}
	return &loginLimiter{
		clients:     make(map[string]loginAttempts),
		maxFailures: maxFailures,
		window:      window,
		blockFor:    blockFor,
		staleAfter:  staleAfter,
	}
}

// Check reports whether client may attempt a login at now. When it may not,
// retryAfter is the remaining block time.
func (l *loginLimiter) Check(client string, now time.Time) (retryAfter time.Duration, ok bool) {
	if l == nil || client == "" {
		return 0, true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.clients[client]
	a.lastSeen = now
	if now.Before(a.blockedUntil) {
		l.clients[client] = a
		return a.blockedUntil.Sub(now), false
	}
	if !a.windowStart.IsZero() && now.Sub(a.windowStart) > l.window {
		a.failures = 0
		a.windowStart = time.Time{}
	}
	a.blockedUntil = time.Time{}
	l.clients[client] = a
	return 0, true
}

// Fail records a failed login. The client is blocked once maxFailures land
// inside one window.
func (l *loginLimiter) Fail(client string, now time.Time) {
	if l == nil || client == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.clients[client]
	if a.windowStart.IsZero() || now.Sub(a.windowStart) > l.window {
		a.failures = 0
		a.windowStart = now
	}
	a.failures++
	a.lastSeen = now
	if a.failures >= l.maxFailures {
		a.blockedUntil = now.Add(l.blockFor)
		a.failures = 0
		a.windowStart = time.Time{}
	}
	l.clients[client] = a

	if len(l.clients) >= loginLimiterSweepSize {
		l.sweepLocked(now)
	}
}

// Clear forgets client after a successful login.
func (l *loginLimiter) Clear(client string) {
	if l == nil || client == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, client)
}

func (l *loginLimiter) sweepLocked(now time.Time) {
	for client, a := range l.clients {
		if now.Before(a.blockedUntil) {
			continue
		}
		if now.Sub(a.lastSeen) > l.staleAfter {
			delete(l.clients, client)
		}
	}
}

func (l *loginLimiter) size() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
