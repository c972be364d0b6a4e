package cleaner

import "github.com/pkg/errors"

// Scope is a release-on-close registration list, the Go equivalent of the
// source tool's ExitStack: every resource a Cleaner allocates while
// producing an artifact is registered here with Defer, and Close releases
// them all in reverse registration order - on the normal path, on error,
// and (via the caller's defer) on panic.
type Scope struct {
	releasers []func() error
}

// NewScope returns an empty, ready to use Scope.
func NewScope() *Scope {
	return &Scope{}
}

// Defer registers a release function to run when the scope closes.
func (s *Scope) Defer(release func() error) {
	s.releasers = append(s.releasers, release)
}

// Close runs every registered release function in reverse order and
// returns the first error encountered, if any. Close is idempotent: a
// second call is a no-op.
func (s *Scope) Close() error {
	var first error
	for i := len(s.releasers) - 1; i >= 0; i-- {
		if err := s.releasers[i](); err != nil && first == nil {
			first = errors.Wrap(err, "releasing scoped resource")
		}
	}
	s.releasers = nil
	return first
}
