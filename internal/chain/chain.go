package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/fluxstate/internal/action"
	"github.com/dshills/fluxstate/internal/dispatcher"
)

// Target receives the actions of a chain.
// Both dispatchers and stores satisfy it.
type Target interface {
	Dispatch(ctx context.Context, a action.Action) error
}

type batchTarget interface {
	DispatchBatch(ctx context.Context, actions ...action.Action) error
}

// step yields one action when the chain runs.
type step struct {
	tag    action.Tag
	obtain func(ctx context.Context) (action.Action, error)
}

// Sequencer builds and runs an ordered chain of actions.
type Sequencer struct {
	target   Target
	creators *action.Creators
	steps    []step
}

// New creates an empty sequencer dispatching to target.
// creators resolves DispatchFrom steps and may be nil.
func New(target Target, creators *action.Creators) *Sequencer {
	return &Sequencer{target: target, creators: creators}
}

// Dispatch appends a literal action.
func (s *Sequencer) Dispatch(a action.Action) *Sequencer {
	var tag action.Tag
	if a != nil {
		tag = a.ActionTag()
	}
	s.steps = append(s.steps, step{
		tag: tag,
		obtain: func(context.Context) (action.Action, error) {
			return a, nil
		},
	})
	return s
}

// Then is Dispatch.
func (s *Sequencer) Then(a action.Action) *Sequencer {
	return s.Dispatch(a)
}

// DispatchCreator appends a step whose action is produced by c when the step runs.
func (s *Sequencer) DispatchCreator(c action.Creator) *Sequencer {
	var tag action.Tag
	if t, ok := c.(interface{ Tag() action.Tag }); ok {
		tag = t.Tag()
	}
	s.steps = append(s.steps, step{tag: tag, obtain: c.Create})
	return s
}

// ThenCreator is DispatchCreator.
func (s *Sequencer) ThenCreator(c action.Creator) *Sequencer {
	return s.DispatchCreator(c)
}

// DispatchFrom appends a step whose action is resolved by tag from the
// creator registry when the step runs.
func (s *Sequencer) DispatchFrom(tag action.Tag) *Sequencer {
	s.steps = append(s.steps, step{
		tag: tag,
		obtain: func(ctx context.Context) (action.Action, error) {
			if s.creators == nil {
				return nil, fmt.Errorf("%w: %s", ErrUnknownCreator, tag)
			}
			a, err := s.creators.Resolve(ctx, tag)
			if errors.Is(err, action.ErrNoCreator) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownCreator, tag)
			}
			return a, err
		},
	})
	return s
}

// ThenFrom is DispatchFrom.
func (s *Sequencer) ThenFrom(tag action.Tag) *Sequencer {
	return s.DispatchFrom(tag)
}

// DispatchNew appends the zero value of A.
func DispatchNew[A action.Action](s *Sequencer) *Sequencer {
	var a A
	return s.Dispatch(a)
}

// ThenNew is DispatchNew.
func ThenNew[A action.Action](s *Sequencer) *Sequencer {
	return DispatchNew[A](s)
}

// Len returns the number of steps.
func (s *Sequencer) Len() int {
	return len(s.steps)
}

// Execute runs every step in order.
// The context is checked between steps; a step already running is not interrupted.
func (s *Sequencer) Execute(ctx context.Context) error {
	if len(s.steps) == 0 {
		return nil
	}
	if s.target == nil {
		return ErrNilTarget
	}

	for i, st := range s.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Index: i, Tag: st.tag, Err: err}
		}

		a, err := s.obtain(ctx, st)
		if err != nil {
			return &StepError{Index: i, Tag: st.tag, Err: err}
		}

		if err := s.target.Dispatch(ctx, a); err != nil {
			return &StepError{Index: i, Tag: a.ActionTag(), Err: err}
		}
	}
	return nil
}

// ExecuteBatch obtains every action first and hands them to the target as one
// batch. The target must support batch dispatch.
func (s *Sequencer) ExecuteBatch(ctx context.Context) error {
	b, ok := s.target.(batchTarget)
	if !ok {
		return fmt.Errorf("%w: %T", dispatcher.ErrBatchUnsupported, s.target)
	}
	if len(s.steps) == 0 {
		return nil
	}

	actions := make([]action.Action, 0, len(s.steps))
	for i, st := range s.steps {
		a, err := s.obtain(ctx, st)
		if err != nil {
			return &StepError{Index: i, Tag: st.tag, Err: err}
		}
		actions = append(actions, a)
	}

	if err := b.DispatchBatch(ctx, actions...); err != nil {
		return fmt.Errorf("chain: batch of %d: %w", len(actions), err)
	}
	return nil
}

func (s *Sequencer) obtain(ctx context.Context, st step) (action.Action, error) {
	a, err := st.obtain(ctx)
	if err != nil {
		return nil, err
	}
	if err := action.Validate(a); err != nil {
		return nil, fmt.Errorf("%w: %w", dispatcher.ErrInvalidAction, err)
	}
	return a, nil
}
