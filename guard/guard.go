// Package guard gates protected views behind a capability predicate.
//
// A guard never changes the session; it reads a snapshot and decides one of
// four outcomes. The decision order is fixed: a loading session is Pending
// whatever else it says, an anonymous one is DeniedUnauthenticated, and only
// then is the capability checked.
package guard

import (
	"sync"

	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/users"
)

type Outcome int

const (
	Pending Outcome = iota
	Granted
	DeniedUnauthenticated
	DeniedForbidden
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Granted:
		return "granted"
	case DeniedUnauthenticated:
		return "denied-unauthenticated"
	case DeniedForbidden:
		return "denied-forbidden"
	default:
		return "unknown"
	}
}

// SessionSource is the part of the session store a guard reads.
// Watch delivers the current state and then every later one, in commit order.
type SessionSource interface {
	Snapshot() sessions.State
	Watch(fn func(sessions.State)) (unsubscribe func())
}

var _ SessionSource = (*sessions.Store)(nil)

// Evaluate decides the outcome for a session snapshot
func Evaluate(required users.Capability, s sessions.State) Outcome {
	switch {
	case s.Loading:
		return Pending
	case !s.Authenticated || s.User == nil:
		return DeniedUnauthenticated
	case !required.Allows(s.User):
		return DeniedForbidden
	default:
		return Granted
	}
}

// Guard is a live guard instance. It re-evaluates whenever the session store notifies.
type Guard struct {
	capability  users.Capability
	unsubscribe func()

	mu       sync.RWMutex
	outcome  Outcome
	user     *users.User
	onChange func(Outcome)
}

type GuardOption func(*Guard)

// OnChange is called with each new outcome after it differs from the previous one
func OnChange(fn func(Outcome)) GuardOption {
	return func(g *Guard) { g.onChange = fn }
}

func New(src SessionSource, capability users.Capability, opts ...GuardOption) *Guard {
	g := &Guard{capability: capability, outcome: Pending}
	for _, opt := range opts {
		opt(g)
	}
	g.unsubscribe = src.Watch(g.observe)
	return g
}

func (g *Guard) observe(s sessions.State) {
	next := Evaluate(g.capability, s)

	g.mu.Lock()
	changed := next != g.outcome
	g.outcome = next
	g.user = s.User.Clone()
	onChange := g.onChange
	g.mu.Unlock()

	if changed && onChange != nil {
		onChange(next)
	}
}

func (g *Guard) Outcome() Outcome {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.outcome
}

// User is the session user at the last evaluation, nil when anonymous
func (g *Guard) User() *users.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.user.Clone()
}

func (g *Guard) Capability() users.Capability {
	return g.capability
}

// Close stops following the session store
func (g *Guard) Close() {
	g.unsubscribe()
}
