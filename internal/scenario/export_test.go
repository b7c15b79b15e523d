package scenario

import (
	"io"

	"github.com/dshills/fluxstate/internal/flux"
)

// AddRuntimeCloser registers c with every runtime Run builds until the
// returned function is called.
func AddRuntimeCloser(c io.Closer) func() {
	prev := newRuntime
	newRuntime = func(opts ...flux.Option) *flux.Runtime {
		rt := prev(opts...)
		rt.AddCloser(c)
		return rt
	}
	return func() { newRuntime = prev }
}
