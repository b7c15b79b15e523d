package action

import (
	"context"
	"fmt"
)

// Tag is the stable identity used to route an action.
type Tag string

// String returns the tag as a string.
func (t Tag) String() string {
	return string(t)
}

// Action is an immutable intent to change state.
type Action interface {
	// ActionTag returns the routing key for this action.
	ActionTag() Tag
}

// TagOf returns the tag carried by the zero value of A.
// A must be a value type whose ActionTag does not depend on its fields.
func TagOf[A Action]() Tag {
	var zero A
	return zero.ActionTag()
}

// Named is an untyped action identified only by its tag.
// It is used where actions are described by data (scripts, scenario files).
type Named struct {
	Name    Tag
	Payload map[string]any
}

// ActionTag implements Action.
func (n Named) ActionTag() Tag {
	return n.Name
}

// Get returns a payload value by key.
func (n Named) Get(key string) (any, bool) {
	if n.Payload == nil {
		return nil, false
	}
	v, ok := n.Payload[key]
	return v, ok
}

// Validate reports whether a can be dispatched.
func Validate(a Action) error {
	if a == nil {
		return ErrNilAction
	}
	if a.ActionTag() == "" {
		return fmt.Errorf("%w: %T", ErrEmptyTag, a)
	}
	return nil
}

// Creator asynchronously produces one action.
type Creator interface {
	Create(ctx context.Context) (Action, error)
}

// CreatorFunc adapts a function to the Creator interface.
type CreatorFunc func(ctx context.Context) (Action, error)

// Create implements Creator.
func (f CreatorFunc) Create(ctx context.Context) (Action, error) {
	return f(ctx)
}

// TypedCreator adapts a function producing a concrete action type.
type TypedCreator[A Action] func(ctx context.Context) (A, error)

// Create implements Creator.
func (f TypedCreator[A]) Create(ctx context.Context) (Action, error) {
	a, err := f(ctx)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Tag returns the tag of the actions this creator produces.
func (f TypedCreator[A]) Tag() Tag {
	return TagOf[A]()
}
