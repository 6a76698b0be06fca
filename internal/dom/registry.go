package dom

import (
	"fmt"
	"sort"
	"sync"
)

// StyleKey addresses the style element of one frame of one animation
type StyleKey struct {
	ID            string
	BaseClassName string
	Index         int // 1-based frame key
}

// ElementID is the id attribute of the style element for this key
func (k StyleKey) ElementID() string {
	return fmt.Sprintf("%s-%s-style-%d", k.ID, k.BaseClassName, k.Index)
}

// StyleRegistry owns the style elements injected by compilation passes.
// Every key maps to exactly one element in the document; re-upserting a key
// replaces its text instead of adding another element.
type StyleRegistry struct {
	mu      sync.Mutex
	entries map[StyleKey]string
}

// NewStyleRegistry creates an empty registry
func NewStyleRegistry() *StyleRegistry {
	return &StyleRegistry{entries: make(map[StyleKey]string)}
}

// Upsert writes css into the element for key
func (r *StyleRegistry) Upsert(doc Document, key StyleKey, css string) error {
	if err := doc.UpsertStyle(key.ElementID(), css); err != nil {
		return fmt.Errorf("style %s: %w", key.ElementID(), err)
	}

	r.mu.Lock()
	r.entries[key] = css
	r.mu.Unlock()
	return nil
}

// CSS returns the last text written for key
func (r *StyleRegistry) CSS(key StyleKey) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	css, ok := r.entries[key]
	return css, ok
}

// Retain removes every style element except those of animation id/base with keys 1..count
func (r *StyleRegistry) Retain(doc Document, id, base string, count int) error {
	r.mu.Lock()
	var stale []StyleKey
	for key := range r.entries {
		if key.ID != id || key.BaseClassName != base || key.Index < 1 || key.Index > count {
			stale = append(stale, key)
		}
	}
	r.mu.Unlock()

	sort.Slice(stale, func(i, j int) bool {
		return stale[i].ElementID() < stale[j].ElementID()
	})

	for _, key := range stale {
		if err := doc.RemoveStyle(key.ElementID()); err != nil {
			return fmt.Errorf("remove style %s: %w", key.ElementID(), err)
		}
		r.mu.Lock()
		delete(r.entries, key)
		r.mu.Unlock()
	}
	return nil
}

// Keys returns the registered keys ordered by element id
func (r *StyleRegistry) Keys() []StyleKey {
	r.mu.Lock()
	keys := make([]StyleKey, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	r.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID || keys[i].BaseClassName != keys[j].BaseClassName {
			return keys[i].ElementID() < keys[j].ElementID()
		}
		return keys[i].Index < keys[j].Index
	})
	return keys
}

// Len returns the number of live style elements
func (r *StyleRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
