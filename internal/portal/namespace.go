// Package portal defines the three isolated session namespaces (end-user,
// admin, simulator) and the pure route-to-namespace selector.
package portal

import (
	"context"
	"time"
)

// ID identifies a session namespace. It never changes for a namespace.
type ID string

const (
	EndUser   ID = "end_user"
	Admin     ID = "admin"
	Simulator ID = "simulator"
)

func (id ID) String() string { return string(id) }

// Medium is where a namespace keeps its sessions.
type Medium string

const (
	// Durable sessions survive browser restarts.
	Durable Medium = "durable"
	// Ephemeral sessions end when the simulator tab or frame closes.
	Ephemeral Medium = "ephemeral"
)

// Namespace is an isolated authentication session scope.
type Namespace struct {
	ID                  ID
	Medium              Medium
	StorageKey          string
	AutoRefresh         bool
	URLSessionDetection bool
	// SessionTTL bounds how long a stored record lives in the namespace store.
	SessionTTL time.Duration
}

var namespaces = map[ID]Namespace{
	EndUser: {
		ID:                  EndUser,
		Medium:              Durable,
		StorageKey:          "pg-enduser-auth",
		AutoRefresh:         true,
		URLSessionDetection: true,
		SessionTTL:          30 * 24 * time.Hour,
	},
	Admin: {
		ID:                  Admin,
		Medium:              Durable,
		StorageKey:          "pg-admin-auth",
		AutoRefresh:         true,
		URLSessionDetection: true,
		SessionTTL:          30 * 24 * time.Hour,
	},
	// Simulator never parses URLs for hand-off tokens so a shared link cannot
	// carry a staff session into a test account (or back).
	Simulator: {
		ID:                  Simulator,
		Medium:              Ephemeral,
		StorageKey:          "pg-simulator-auth",
		AutoRefresh:         false,
		URLSessionDetection: false,
		SessionTTL:          12 * time.Hour,
	},
}

// Get returns the namespace definition for id. Unknown ids resolve to EndUser.
func Get(id ID) Namespace {
	if ns, ok := namespaces[id]; ok {
		return ns
	}
	return namespaces[EndUser]
}

// All returns every namespace in a stable order.
func All() []Namespace {
	return []Namespace{namespaces[EndUser], namespaces[Admin], namespaces[Simulator]}
}

// Parse maps a stored namespace name back to its ID.
func Parse(s string) (ID, bool) {
	id := ID(s)
	_, ok := namespaces[id]
	return id, ok
}

type namespaceKey struct{}

// WithNamespace records the namespace selected for the current request.
func WithNamespace(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, namespaceKey{}, id)
}

// FromContext returns the namespace selected for the current request,
// defaulting to EndUser.
func FromContext(ctx context.Context) ID {
	if id, ok := ctx.Value(namespaceKey{}).(ID); ok {
		return id
	}
	return EndUser
}
