package gateway

import (
	"net"
	"sync"
	"time"
)

const (
	authRateWindow   = 5 * time.Minute
	authRateMaxFails = 10
	authRateMaxHosts = 10000
)

// authRateLimiter refuses connections from hosts with too many recent
// handshake failures. Stale entries are pruned lazily on access.
type authRateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	maxFails int
	failures map[string][]time.Time
	now      func() time.Time
}

func newAuthRateLimiter(window time.Duration, maxFails int) *authRateLimiter {
	return &authRateLimiter{
		window:   window,
		maxFails: maxFails,
		failures: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (l *authRateLimiter) allow(remoteAddr string) bool {
	host := hostOf(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(host)) < l.maxFails
}

func (l *authRateLimiter) recordFailure(remoteAddr string) {
	host := hostOf(remoteAddr)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, tracked := l.failures[host]; !tracked && len(l.failures) >= authRateMaxHosts {
		l.prune()
		if len(l.failures) >= authRateMaxHosts {
			return
		}
	}
	l.failures[host] = append(l.recent(host), l.now())
}

// recent drops expired failures for host and returns the rest. Caller holds mu.
func (l *authRateLimiter) recent(host string) []time.Time {
	cutoff := l.now().Add(-l.window)
	times := l.failures[host]
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, host)
		return nil
	}
	l.failures[host] = kept
	return kept
}

// prune drops every expired entry. Caller holds mu.
func (l *authRateLimiter) prune() {
	for host := range l.failures {
		l.recent(host)
	}
}

func hostOf(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil || host == "" {
		return remoteAddr
	}
	return host
}
