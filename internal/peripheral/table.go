package peripheral

import (
	"sort"
	"sync/atomic"

	"github.com/cornelk/hashmap"
)

type tableEntry struct {
	central ConnectedCentral
	handle  Subscription
}

// SubscriptionTable maps central IDs to their live subscription.
//
// Only the engine goroutine mutates the table. Len, Centrals and Handles may be called from
// any goroutine and see a consistent-enough snapshot.
type SubscriptionTable struct {
	entries atomic.Pointer[hashmap.Map[string, tableEntry]]
}

// NewSubscriptionTable creates an empty table.
func NewSubscriptionTable() *SubscriptionTable {
	t := &SubscriptionTable{}
	t.entries.Store(hashmap.New[string, tableEntry]())
	return t
}

// Put stores the subscription for central. It reports true when the central was not
// present before; an existing entry only gets its handle replaced.
func (t *SubscriptionTable) Put(central string, handle Subscription) bool {
	entry := tableEntry{central: ConnectedCentral{ID: central}, handle: handle}
	m := t.entries.Load()
	if m.Insert(central, entry) {
		return true
	}
	m.Set(central, entry)
	return false
}

// Remove deletes central when handle is its current subscription and reports whether an
// entry was removed. A nil handle matches any subscription. An unsubscribe from a handle that
// a re-subscription already replaced leaves the live entry in place.
func (t *SubscriptionTable) Remove(central string, handle Subscription) (ConnectedCentral, bool) {
	m := t.entries.Load()
	entry, ok := m.Get(central)
	if !ok {
		return ConnectedCentral{}, false
	}
	if handle != nil && entry.handle != handle {
		return ConnectedCentral{}, false
	}
	m.Del(central)
	return entry.central, true
}

// Clear drops every entry at once.
func (t *SubscriptionTable) Clear() int {
	old := t.entries.Swap(hashmap.New[string, tableEntry]())
	return old.Len()
}

func (t *SubscriptionTable) Len() int {
	return t.entries.Load().Len()
}

// Contains reports whether central is subscribed.
func (t *SubscriptionTable) Contains(central string) bool {
	_, ok := t.entries.Load().Get(central)
	return ok
}

// Centrals returns the subscribed centrals sorted by ID.
func (t *SubscriptionTable) Centrals() []ConnectedCentral {
	m := t.entries.Load()
	out := make([]ConnectedCentral, 0, m.Len())
	m.Range(func(_ string, e tableEntry) bool {
		out = append(out, e.central)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Handles returns the live subscription handles.
func (t *SubscriptionTable) Handles() []Subscription {
	m := t.entries.Load()
	out := make([]Subscription, 0, m.Len())
	m.Range(func(_ string, e tableEntry) bool {
		out = append(out, e.handle)
		return true
	})
	return out
}
