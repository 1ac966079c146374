package service

import (
	"context"
	"fmt"

	"portalgate/internal/portal"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
)

// NamespaceStore holds the sessions of exactly one namespace.
type NamespaceStore interface {
	Namespace() portal.Namespace
	Put(ctx context.Context, session *models.AuthSession) error
	Get(ctx context.Context, handle id.HandleID) (*models.AuthSession, error)
	Delete(ctx context.Context, handle id.HandleID) error
}

// Multiplexer resolves the store for a namespace or a route. It holds no
// "current namespace"; callers pass the route or id on every call.
type Multiplexer struct {
	stores map[portal.ID]NamespaceStore
}

// NewMultiplexer requires one store for every namespace and refuses two
// stores that share a storage key.
func NewMultiplexer(stores ...NamespaceStore) (*Multiplexer, error) {
	m := &Multiplexer{stores: make(map[portal.ID]NamespaceStore, len(stores))}
	keys := make(map[string]portal.ID, len(stores))
	for _, store := range stores {
		if store == nil {
			return nil, fmt.Errorf("nil namespace store")
		}
		ns := store.Namespace()
		if _, dup := m.stores[ns.ID]; dup {
			return nil, fmt.Errorf("duplicate store for namespace %s", ns.ID)
		}
		if owner, shared := keys[ns.StorageKey]; shared {
			return nil, fmt.Errorf("namespaces %s and %s share storage key %q", owner, ns.ID, ns.StorageKey)
		}
		keys[ns.StorageKey] = ns.ID
		m.stores[ns.ID] = store
	}
	for _, ns := range portal.All() {
		if _, ok := m.stores[ns.ID]; !ok {
			return nil, fmt.Errorf("missing store for namespace %s", ns.ID)
		}
	}
	return m, nil
}

func (m *Multiplexer) Store(nsID portal.ID) NamespaceStore {
	if store, ok := m.stores[nsID]; ok {
		return store
	}
	return m.stores[portal.EndUser]
}

// ForPath selects the store for the namespace active on pathname.
func (m *Multiplexer) ForPath(pathname string) NamespaceStore {
	return m.Store(portal.SelectNamespace(pathname))
}
