package cache

import (
	"strings"
	"time"
)

// Namespace is a view over a MemoryCache that prefixes every key.
// Several namespaces can share one store without seeing each other's keys.
type Namespace struct {
	store  *MemoryCache
	prefix string
}

// NewNamespace returns a view of store under prefix+":".
func NewNamespace(store *MemoryCache, prefix string) *Namespace {
	return &Namespace{store: store, prefix: GenerateKey(prefix, "")}
}

func (n *Namespace) Get(key string) (any, bool) {
	return n.store.Get(n.prefix + key)
}

func (n *Namespace) Set(key string, value any, ttl time.Duration) {
	n.store.Set(n.prefix+key, value, ttl)
}

func (n *Namespace) Delete(keys ...string) {
	wrapped := make([]string, len(keys))
	for i, key := range keys {
		wrapped[i] = n.prefix + key
	}
	n.store.Delete(wrapped...)
}

// Clear removes only this namespace's keys.
func (n *Namespace) Clear() {
	n.store.DeleteByPrefix(n.prefix)
}

// Stats reports keys without the namespace prefix.
func (n *Namespace) Stats() Stats {
	st := n.store.StatsWithPrefix(n.prefix)
	for i, key := range st.Keys {
		st.Keys[i] = strings.TrimPrefix(key, n.prefix)
	}
	return st
}
