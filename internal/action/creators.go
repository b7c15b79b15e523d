package action

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Creators resolves actions by tag.
// A tag may have an asynchronous Creator, a zero-argument factory, or both;
// the creator wins when both are present.
type Creators struct {
	mu        sync.RWMutex
	creators  map[Tag]Creator
	factories map[Tag]func() Action
}

// NewCreators creates an empty registry.
func NewCreators() *Creators {
	return &Creators{
		creators:  make(map[Tag]Creator),
		factories: make(map[Tag]func() Action),
	}
}

// Register binds a creator to a tag, replacing any previous creator.
func (c *Creators) Register(tag Tag, cr Creator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creators[tag] = cr
}

// RegisterFactory binds a zero-argument factory to a tag.
func (c *Creators) RegisterFactory(tag Tag, fn func() Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[tag] = fn
}

// RegisterCreator binds a typed creator under the tag of A.
func RegisterCreator[A Action](c *Creators, fn func(ctx context.Context) (A, error)) {
	c.Register(TagOf[A](), TypedCreator[A](fn))
}

// RegisterDefault binds a factory returning the zero value of A.
func RegisterDefault[A Action](c *Creators) {
	c.RegisterFactory(TagOf[A](), func() Action {
		var zero A
		return zero
	})
}

// Resolve produces an action for tag.
func (c *Creators) Resolve(ctx context.Context, tag Tag) (Action, error) {
	c.mu.RLock()
	cr := c.creators[tag]
	factory := c.factories[tag]
	c.mu.RUnlock()

	switch {
	case cr != nil:
		a, err := cr.Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", tag, err)
		}
		return a, nil
	case factory != nil:
		return factory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoCreator, tag)
	}
}

// Has returns true if tag can be resolved.
func (c *Creators) Has(tag Tag) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasCreator := c.creators[tag]
	_, hasFactory := c.factories[tag]
	return hasCreator || hasFactory
}

// Tags returns all resolvable tags in sorted order.
func (c *Creators) Tags() []Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[Tag]struct{}, len(c.creators)+len(c.factories))
	for t := range c.creators {
		seen[t] = struct{}{}
	}
	for t := range c.factories {
		seen[t] = struct{}{}
	}

	tags := make([]Tag, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
