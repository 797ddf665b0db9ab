package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles requests per client address and locks out addresses
// that keep failing logins.
type Limiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter

	maxAttempts int
	lockout     time.Duration
	attempts    map[string]*loginState

	now func() time.Time
}

type loginState struct {
	failures    int
	lockedUntil time.Time
}

// NewLimiter creates a limiter allowing requests per window with
// failed-login lockout after maxAttempts.
func NewLimiter(requests int, window time.Duration, maxAttempts int, lockout time.Duration) *Limiter {
	return &Limiter{
		limit:       rate.Limit(float64(requests) / window.Seconds()),
		burst:       requests,
		limiters:    make(map[string]*rate.Limiter),
		maxAttempts: maxAttempts,
		lockout:     lockout,
		attempts:    make(map[string]*loginState),
		now:         time.Now,
	}
}

// Allow reports whether a request from ip fits the rate limit.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim.Allow()
}

// CheckLockout reports whether ip may attempt a login, and if not, how
// long until the lockout lifts.
func (l *Limiter) CheckLockout(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.attempts[ip]
	if !ok {
		return true, 0
	}
	now := l.now()
	if st.lockedUntil.After(now) {
		return false, st.lockedUntil.Sub(now)
	}
	if !st.lockedUntil.IsZero() && !st.lockedUntil.After(now) {
		delete(l.attempts, ip)
	}
	return true, 0
}

// RecordAttempt registers a login outcome. Success clears the failure
// count; enough failures lock the address out.
func (l *Limiter) RecordAttempt(ip string, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if success {
		delete(l.attempts, ip)
		return
	}

	st, ok := l.attempts[ip]
	if !ok {
		st = &loginState{}
		l.attempts[ip] = st
	}
	st.failures++
	if st.failures >= l.maxAttempts {
		st.lockedUntil = l.now().Add(l.lockout)
		st.failures = 0
	}
}
