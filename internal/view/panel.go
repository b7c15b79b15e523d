package view

import (
	"context"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/fluxstate/internal/store"
)

// Renderer turns a state into display lines.
type Renderer[S any] func(S) []string

// TextRenderer adapts a function returning multi-line text.
func TextRenderer[S any](fn func(S) string) Renderer[S] {
	return func(s S) []string {
		return strings.Split(strings.TrimRight(fn(s), "\n"), "\n")
	}
}

// Panel renders one store's state into a tcell screen.
type Panel[S any] struct {
	screen tcell.Screen
	title  string
	render Renderer[S]

	titleStyle tcell.Style
	bodyStyle  tcell.Style

	mu      sync.Mutex
	lines   []string
	status  string
	renders int
}

// PanelOption configures a Panel.
type PanelOption func(*panelOptions)

type panelOptions struct {
	titleStyle tcell.Style
	bodyStyle  tcell.Style
}

// WithTitleStyle sets the style of the title row.
func WithTitleStyle(st tcell.Style) PanelOption {
	return func(o *panelOptions) { o.titleStyle = st }
}

// WithBodyStyle sets the style of the state rows.
func WithBodyStyle(st tcell.Style) PanelOption {
	return func(o *panelOptions) { o.bodyStyle = st }
}

// NewPanel creates a panel drawing into screen. The screen must be initialized.
func NewPanel[S any](screen tcell.Screen, title string, render Renderer[S], opts ...PanelOption) *Panel[S] {
	o := panelOptions{
		titleStyle: tcell.StyleDefault.Reverse(true).Bold(true),
		bodyStyle:  tcell.StyleDefault,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Panel[S]{
		screen:     screen,
		title:      title,
		render:     render,
		titleStyle: o.titleStyle,
		bodyStyle:  o.bodyStyle,
	}
}

// Bind draws the store's current state and redraws after every committed
// change. The status line shows the tag of the last applied action.
func (p *Panel[S]) Bind(st *store.Store[S]) {
	p.Draw(st.Current())
	st.OnChange(func(_ context.Context, ch store.Change[S]) error {
		p.SetStatus(string(ch.Action.ActionTag()))
		p.Draw(ch.New)
		return nil
	})
}

// SetStatus sets the text shown after the title. It takes effect on the next draw.
func (p *Panel[S]) SetStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

// Draw renders s and shows it.
func (p *Panel[S]) Draw(s S) {
	lines := p.render(s)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lines = lines
	p.renders++
	p.paint()
}

// Renders returns how many times the panel has drawn a state.
func (p *Panel[S]) Renders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renders
}

// Lines returns the lines of the last drawn state.
func (p *Panel[S]) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

// paint must be called with p.mu held.
func (p *Panel[S]) paint() {
	p.screen.Clear()
	width, height := p.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}

	title := p.title
	if p.status != "" {
		title += " | " + p.status
	}
	for x := 0; x < width; x++ {
		p.screen.SetContent(x, 0, ' ', nil, p.titleStyle)
	}
	putString(p.screen, 0, 0, width, title, p.titleStyle)

	for i, line := range p.lines {
		y := i + 1
		if y >= height {
			break
		}
		putString(p.screen, 0, y, width, line, p.bodyStyle)
	}

	p.screen.Show()
}

// Run handles screen events until the user presses q, Esc or Ctrl-C, or ctx
// ends. Resizes repaint the last drawn state.
func (p *Panel[S]) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		// Wake PollEvent so the loop below can observe the cancellation.
		_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return p.loop(gctx)
	})

	return g.Wait()
}

func (p *Panel[S]) loop(ctx context.Context) error {
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch e := ev.(type) {
		case *tcell.EventResize:
			p.mu.Lock()
			p.screen.Sync()
			p.paint()
			p.mu.Unlock()

		case *tcell.EventKey:
			if quitKey(e) {
				return nil
			}

		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		}
	}
}

func quitKey(e *tcell.EventKey) bool {
	switch e.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return e.Rune() == 'q'
	}
	return false
}

// putString writes s at (x, y) one grapheme cluster per cell run, clipped
// to width. Wide clusters take two cells; a cluster that would straddle the
// edge is dropped.
func putString(screen tcell.Screen, x, y, width int, s string, style tcell.Style) {
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		runes := gr.Runes()
		w := gr.Width()
		if runes[0] == '\t' {
			runes, w = []rune{' '}, 1
		}
		if w == 0 {
			continue
		}
		if x+w > width {
			return
		}
		screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
}
