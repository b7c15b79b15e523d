// Package reentrant provides a mutex that the holder can lend to work it
// starts, through a token carried in a context.
//
// Acquire takes the lock and returns a context holding a token. A caller whose
// context carries an open token enters a nested section instead of blocking on
// the lock. Nested sections under the same token are serialized with each
// other, whichever goroutine runs them. A token stays valid only until its
// section is released; callers carrying a released token fall back to the
// next open section above it, and finally to the lock itself.
package reentrant

import (
	"context"
	"sync"
)

// Lock is a context-reentrant mutex. The zero value is unlocked.
type Lock struct {
	mu sync.Mutex
}

type ctxKey struct {
	lock *Lock
}

// holder is the token for one section.
// Nested sections lock mu for their whole duration.
type holder struct {
	parent *holder
	mu     sync.Mutex
	open   bool
}

// close waits for nested sections still running and invalidates the token.
func (h *holder) close() {
	h.mu.Lock()
	h.open = false
	h.mu.Unlock()
}

// Acquire enters a nested section when ctx carries an open token for l, and
// otherwise takes l. The returned function releases the section.
func (l *Lock) Acquire(ctx context.Context) (context.Context, func()) {
	if nctx, release, ok := l.Nested(ctx); ok {
		return nctx, release
	}

	l.mu.Lock()
	h := &holder{open: true}
	return context.WithValue(ctx, ctxKey{lock: l}, h), func() {
		h.close()
		l.mu.Unlock()
	}
}

// Nested enters a nested section if ctx carries an open token for l.
// It reports false, without blocking on l, when it does not.
func (l *Lock) Nested(ctx context.Context) (context.Context, func(), bool) {
	h, _ := ctx.Value(ctxKey{lock: l}).(*holder)
	for ; h != nil; h = h.parent {
		h.mu.Lock()
		if !h.open {
			h.mu.Unlock()
			continue
		}

		parent := h
		child := &holder{parent: parent, open: true}
		return context.WithValue(ctx, ctxKey{lock: l}, child), func() {
			child.close()
			parent.mu.Unlock()
		}, true
	}
	return ctx, nil, false
}

// Hold excludes nested sections from the section ctx belongs to until the
// returned function is called. Use it when the section's owner itself touches
// the guarded resource while nested work may be running.
func (l *Lock) Hold(ctx context.Context) func() {
	h, _ := ctx.Value(ctxKey{lock: l}).(*holder)
	if h == nil {
		return func() {}
	}
	h.mu.Lock()
	return h.mu.Unlock
}

// Suspend lifts a Hold for the duration of a call out of the section, so that
// nested sections can run. The returned function restores the Hold.
func (l *Lock) Suspend(ctx context.Context) func() {
	h, _ := ctx.Value(ctxKey{lock: l}).(*holder)
	if h == nil {
		return func() {}
	}
	h.mu.Unlock()
	return h.mu.Lock
}
