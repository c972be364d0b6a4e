package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cyraxred/bleanser/cleaner"
	"github.com/cyraxred/bleanser/relation"
)

// cleanResult pairs an input path with its cleaned artifact (empty on
// failure) and the scope that owns it. Each clean gets its own scope
// rather than sharing one across the whole run, since the artifact must
// be releasable on its own schedule (spec §4.3.1 step 2), independent of
// every other artifact's lifetime.
type cleanResult struct {
	path   string
	clean  string
	failed bool
	scope  *cleaner.Scope
}

// Relations runs the serial algorithm (spec §4.3.1) over inputs, or the
// chunked parallel one when more than one worker resolves, and returns a
// channel of relations plus a channel that carries at most one fatal
// error (a failure to create a scratch directory - per-input
// cleaner/comparator failures are folded into relation.ERROR and never
// reach this channel).
// The relations channel is closed when the stream ends or ctx is
// cancelled; the caller must drain it to let the producer goroutine
// release its scratch directory.
func (e *Engine) Relations(ctx context.Context, inputs []string) (<-chan relation.Relation, <-chan error) {
	out := make(chan relation.Relation)
	fatal := make(chan error, 1)

	if len(inputs) < 2 {
		go func() {
			defer close(out)
			defer close(fatal)
		}()
		return out, fatal
	}

	workers := e.Config.resolvedWorkers(len(inputs))
	if workers <= 1 {
		go e.runSerial(ctx, inputs, out, fatal)
	} else {
		go e.runParallel(ctx, inputs, workers, out, fatal)
	}
	return out, fatal
}

// runSerial implements spec.md §4.3.1 in a single scratch directory: clean input i,
// emit the relation against input i-1 as soon as it is known, and release
// input i-1's artifact before moving on to input i+1.
func (e *Engine) runSerial(ctx context.Context, inputs []string, out chan<- relation.Relation, fatal chan<- error) {
	defer close(out)
	defer close(fatal)

	root, cleanup, err := e.newScratchDir()
	if err != nil {
		fatal <- err
		return
	}
	defer cleanup()

	var last *cleanResult
	defer func() {
		if last != nil {
			e.release(last)
		}
	}()

	for _, input := range inputs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := e.clean(ctx, input, root)

		if last != nil {
			rel := relation.Relation{
				Before: last.path,
				After:  res.path,
				Diff:   e.compare(*last, res),
			}
			select {
			case out <- rel:
			case <-ctx.Done():
				return
			}
			e.release(last)
		}
		last = &res
	}
}

// clean invokes the configured Cleaner under a fresh scope, downgrading
// any error to a failed cleanResult (spec §7: CleanerError is recorded,
// never fatal).
func (e *Engine) clean(ctx context.Context, input, wdir string) cleanResult {
	scope := cleaner.NewScope()
	path, err := e.Cleaner.Clean(ctx, input, wdir, scope)
	if err != nil {
		e.Config.logger().Warnf("cleaning %s: %v", input, err)
		scope.Close()
		return cleanResult{path: input, failed: true, scope: scope}
	}
	return cleanResult{path: input, clean: path, scope: scope}
}

// compare diffs two cleanResults, folding either side's failure into
// relation.ERROR per spec §4.2 step 4 / §7.
func (e *Engine) compare(a, b cleanResult) relation.Diff {
	if a.failed || b.failed {
		return relation.Diff{Cmp: relation.ERROR}
	}
	d, err := e.Cmp.Compare(a.clean, b.clean, a.failed, b.failed)
	if err != nil {
		e.Config.logger().Warnf("comparing %s and %s: %v", a.path, b.path, err)
		return relation.Diff{Cmp: relation.ERROR}
	}
	return d
}

// release closes a cleaned artifact's scope once it can no longer be
// referenced by a future relation, bounding the working set to two
// artifacts (spec §4.3.1 step 2). A failed clean's scope is already
// closed by clean().
func (e *Engine) release(r *cleanResult) {
	if r.failed {
		return
	}
	if err := r.scope.Close(); err != nil {
		e.Config.logger().Warnf("releasing %s: %v", r.clean, err)
	}
}

// newScratchDir creates a uniquely named scratch directory under the
// configured WorkDirRoot (or os.TempDir() if unset), backed by a
// github.com/go-git/go-billy/v5 osfs filesystem - the same indirection
// layer the teacher uses between logical and physical paths. It returns
// the directory's absolute path (Cleaner.Clean works with plain OS paths)
// and a cleanup func that removes it and everything under it.
func (e *Engine) newScratchDir() (string, func() error, error) {
	root := e.Config.WorkDirRoot
	if root == "" {
		root = os.TempDir()
	}
	name := uuid.NewString()
	fs := osfs.New(filepath.Join(root, name))
	if err := fs.MkdirAll(".", 0o755); err != nil {
		return "", nil, errors.Wrapf(err, "creating scratch dir under %s", root)
	}
	abs := fs.Root()
	cleanup := func() error { return util.RemoveAll(fs, ".") }
	return abs, cleanup, nil
}
