// Package guard decides whether a protected destination may be shown and
// remembers where a signed-out user was headed.
package guard

import (
	"net/url"
	"strings"
	"sync"

	"github.com/blogdeck/blogdeck/internal/session"
)

// Decision is the outcome of guarding a protected destination
type Decision int

const (
	// Pending means the session is still resolving: show a loading indicator only
	Pending Decision = iota
	// Allow means the protected content may be shown
	Allow
	// Deny means the user must sign in first
	Deny
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Decide maps a session snapshot to a guard decision
func Decide(state session.State) Decision {
	if state.IsLoading {
		return Pending
	}
	if state.IsAuthenticated() {
		return Allow
	}
	return Deny
}

// Redirects holds the single pending post-login target
type Redirects struct {
	mu     sync.Mutex
	target string
}

// Capture remembers path as the post-login target. Unsafe paths are ignored
// and leave the previous target in place.
func (r *Redirects) Capture(path string) bool {
	if !SafeTarget(path) {
		return false
	}
	r.mu.Lock()
	r.target = path
	r.mu.Unlock()
	return true
}

// Peek returns the pending target without consuming it
func (r *Redirects) Peek() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target, r.target != ""
}

// Consume returns the pending target once, or fallback when there is none
func (r *Redirects) Consume(fallback string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.target == "" {
		return fallback
	}
	target := r.target
	r.target = ""
	return target
}

// SafeTarget reports whether path is a local path we may redirect to
func SafeTarget(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return false
	}
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
