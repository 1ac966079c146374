package gate

import (
	"sync"
	"time"

	"portalgate/internal/role"
)

// DefaultTimeout is how long a gate may stay Loading.
const DefaultTimeout = 5 * time.Second

// Timer is a cancellable watchdog handle.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type GateOption func(*Gate)

func WithTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithAfterFunc(fn AfterFunc) GateOption {
	return func(g *Gate) { g.afterFunc = fn }
}

// OnDecision registers a callback run once when the gate leaves Loading,
// and again if a granted gate is revoked. It runs without the gate lock.
func OnDecision(fn func(Decision)) GateOption {
	return func(g *Gate) { g.onDecision = fn }
}

// Gate is the access state machine for one mount of a protected route.
// It starts Loading with the watchdog armed. Resolving the last input, the
// watchdog firing, Fail and Close all leave Loading exactly once, and every
// exit stops the watchdog. A timer that fires after Loading was left does
// nothing.
type Gate struct {
	mu         sync.Mutex
	route      Route
	timeout    time.Duration
	afterFunc  AfterFunc
	onDecision func(Decision)

	state    State
	decision Decision
	timer    Timer
	closed   bool
	done     chan struct{}

	auth     *Auth
	role     *role.Role
	userType *role.UserType
}

// New creates a gate for route and arms its watchdog.
func New(route Route, opts ...GateOption) *Gate {
	g := &Gate{
		route:     route,
		timeout:   DefaultTimeout,
		afterFunc: realAfterFunc,
		state:     StateLoading,
		decision:  loading(route),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.mu.Lock()
	g.timer = g.afterFunc(g.timeout, g.fire)
	g.mu.Unlock()
	return g
}

func (g *Gate) Route() Route { return g.route }

// Done is closed when the gate leaves Loading or is closed.
func (g *Gate) Done() <-chan struct{} { return g.done }

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

func (g *Gate) ResolveAuth(a Auth) {
	g.resolve(func() { g.auth = &a })
}

func (g *Gate) ResolveRole(r role.Role) {
	g.resolve(func() { g.role = &r })
}

func (g *Gate) ResolveUserType(t role.UserType) {
	g.resolve(func() { g.userType = &t })
}

// Fail leaves Loading as TimedOut without waiting for the watchdog. Used
// when a load fails in a way that says nothing about the caller's rights.
func (g *Gate) Fail() {
	g.transition(func() (Decision, bool) {
		return timedOut(g.route), true
	})
}

// Revoke moves a granted gate to Unauthenticated after its session was
// found invalid. Other states are left as they are.
func (g *Gate) Revoke(reason ExpiryReason) {
	g.mu.Lock()
	if g.closed || g.state != StateGranted {
		g.mu.Unlock()
		return
	}
	d := unauthenticated(g.route, reason)
	d.SubjectID = g.decision.SubjectID
	g.state = d.State
	g.decision = d
	cb := g.onDecision
	g.mu.Unlock()
	if cb != nil {
		cb(d)
	}
}

// Close releases the gate. The watchdog is stopped and later inputs are
// ignored. Safe to call more than once.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.stopTimer()
	if g.state == StateLoading {
		close(g.done)
	}
}

func (g *Gate) resolve(set func()) {
	g.transition(func() (Decision, bool) {
		set()
		if g.auth == nil || g.role == nil || g.userType == nil {
			return Decision{}, false
		}
		return Evaluate(g.route, Inputs{Auth: *g.auth, Role: *g.role, UserType: *g.userType}), true
	})
}

func (g *Gate) fire() {
	g.transition(func() (Decision, bool) {
		return timedOut(g.route), true
	})
}

// transition runs step under the lock while the gate is Loading. When step
// reports a decision the gate leaves Loading for good.
func (g *Gate) transition(step func() (Decision, bool)) {
	g.mu.Lock()
	if g.closed || g.state != StateLoading {
		g.mu.Unlock()
		return
	}
	d, decided := step()
	if !decided {
		g.mu.Unlock()
		return
	}
	g.state = d.State
	g.decision = d
	g.stopTimer()
	close(g.done)
	cb := g.onDecision
	g.mu.Unlock()
	if cb != nil {
		cb(d)
	}
}

func (g *Gate) stopTimer() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
