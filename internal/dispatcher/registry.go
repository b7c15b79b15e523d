package dispatcher

import (
	"sort"
	"sync"

	"github.com/dshills/fluxstate/internal/action"
)

// Registry holds the ordered callback list for each action tag.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[action.Tag][]Callback
}

// NewRegistry creates a new callback registry.
func NewRegistry() *Registry {
	return &Registry{
		callbacks: make(map[action.Tag][]Callback),
	}
}

// Add appends a callback for a tag.
// Adding the same callback twice makes it run twice.
func (r *Registry) Add(tag action.Tag, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[tag] = append(r.callbacks[tag], cb)
}

// Snapshot returns a copy of the callbacks for a tag in registration order.
func (r *Registry) Snapshot(tag action.Tag) []Callback {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cbs := r.callbacks[tag]
	if len(cbs) == 0 {
		return nil
	}
	out := make([]Callback, len(cbs))
	copy(out, cbs)
	return out
}

// Tags returns all tags with subscriptions, sorted.
func (r *Registry) Tags() []action.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]action.Tag, 0, len(r.callbacks))
	for tag := range r.callbacks {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
