package hook

import (
	"context"
	"sort"
	"sync"

	"github.com/dshills/fluxstate/internal/action"
)

// Manager manages dispatch hooks with priority-based ordering.
type Manager struct {
	mu        sync.RWMutex
	preHooks  []PreDispatchHook
	postHooks []PostDispatchHook
}

// NewManager creates a new hook manager.
func NewManager() *Manager {
	return &Manager{
		preHooks:  make([]PreDispatchHook, 0),
		postHooks: make([]PostDispatchHook, 0),
	}
}

// RegisterPre adds a pre-dispatch hook, replacing one with the same name.
func (m *Manager) RegisterPre(h PreDispatchHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.preHooks {
		if existing.Name() == h.Name() {
			m.preHooks[i] = h
			m.sortPreHooks()
			return
		}
	}

	m.preHooks = append(m.preHooks, h)
	m.sortPreHooks()
}

// RegisterPost adds a post-dispatch hook, replacing one with the same name.
func (m *Manager) RegisterPost(h PostDispatchHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.postHooks {
		if existing.Name() == h.Name() {
			m.postHooks[i] = h
			m.sortPostHooks()
			return
		}
	}

	m.postHooks = append(m.postHooks, h)
	m.sortPostHooks()
}

// Register adds a hook under every interface it implements.
func (m *Manager) Register(h Hook) {
	if pre, ok := h.(PreDispatchHook); ok {
		m.RegisterPre(pre)
	}
	if post, ok := h.(PostDispatchHook); ok {
		m.RegisterPost(post)
	}
}

// Unregister removes a hook by name from both lists.
func (m *Manager) Unregister(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := false
	for i, h := range m.preHooks {
		if h.Name() == name {
			m.preHooks = append(m.preHooks[:i], m.preHooks[i+1:]...)
			removed = true
			break
		}
	}
	for i, h := range m.postHooks {
		if h.Name() == name {
			m.postHooks = append(m.postHooks[:i], m.postHooks[i+1:]...)
			removed = true
			break
		}
	}
	return removed
}

// RunPreDispatch runs all pre-dispatch hooks in priority order.
func (m *Manager) RunPreDispatch(ctx context.Context, a action.Action) {
	m.mu.RLock()
	hooks := make([]PreDispatchHook, len(m.preHooks))
	copy(hooks, m.preHooks)
	m.mu.RUnlock()

	for _, h := range hooks {
		h.PreDispatch(ctx, a)
	}
}

// RunPostDispatch runs all post-dispatch hooks from lowest to highest priority.
func (m *Manager) RunPostDispatch(ctx context.Context, a action.Action, out Outcome) {
	m.mu.RLock()
	hooks := make([]PostDispatchHook, len(m.postHooks))
	copy(hooks, m.postHooks)
	m.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(ctx, a, out)
	}
}

// PreHookNames returns the names of all pre-dispatch hooks in order.
func (m *Manager) PreHookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.preHooks))
	for i, h := range m.preHooks {
		names[i] = h.Name()
	}
	return names
}

// PostHookNames returns the names of all post-dispatch hooks in order.
func (m *Manager) PostHookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.postHooks))
	for i, h := range m.postHooks {
		names[i] = h.Name()
	}
	return names
}

// Len returns the total number of registered hook entries.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.preHooks) + len(m.postHooks)
}

// sortPreHooks sorts pre-hooks by priority descending (higher first).
func (m *Manager) sortPreHooks() {
	sort.SliceStable(m.preHooks, func(i, j int) bool {
		return m.preHooks[i].Priority() > m.preHooks[j].Priority()
	})
}

// sortPostHooks sorts post-hooks by priority ascending (lower first, higher last).
func (m *Manager) sortPostHooks() {
	sort.SliceStable(m.postHooks, func(i, j int) bool {
		return m.postHooks[i].Priority() < m.postHooks[j].Priority()
	})
}

// Clear removes all hooks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preHooks = m.preHooks[:0]
	m.postHooks = m.postHooks[:0]
}
