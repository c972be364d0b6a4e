// Package engine turns an ordered list of snapshot paths into a lazy
// stream of relation.Relation, bounding disk working set to roughly two
// cleaned artifacts per worker (spec §4.3). It owns the cleaner and
// comparator but never inspects cleaned content itself.
package engine

import (
	"runtime"

	"github.com/cyraxred/bleanser/cleaner"
	"github.com/cyraxred/bleanser/comparator"
	"github.com/cyraxred/bleanser/internal/corelog"
)

// Config carries the knobs assembled from CLI flags or a YAML config file
// (spec.md EngineConfig entity).
type Config struct {
	// Workers is the number of parallel chunks to run the pipeline over.
	// 0 forces fully synchronous (serial) execution regardless of CPU
	// count. A negative value is treated as 0.
	Workers int
	// WorkDirRoot is the parent directory under which each run creates a
	// uuid-named scratch subdirectory for cleaned artifacts.
	WorkDirRoot string
	// Logger receives diagnostics for failed cleans/compares. A nil
	// Logger falls back to corelog.DefaultLogger.
	Logger corelog.Logger
}

// resolvedWorkers returns the worker count to actually use for n inputs:
// Config.Workers, with a negative value treated as 0, capped at n.
func (c Config) resolvedWorkers(n int) int {
	w := c.Workers
	if w < 0 {
		w = 0
	}
	if w > n {
		w = n
	}
	return w
}

func (c Config) logger() corelog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return corelog.NewLogger()
}

// DefaultWorkers mirrors the host's CPU count, the spec's default before
// capping to len(paths).
func DefaultWorkers() int { return runtime.NumCPU() }

// Engine binds a cleaner factory and comparator to a Config and produces
// relation streams for a sequence of input paths.
type Engine struct {
	Cleaner cleaner.Cleaner
	Cmp     *comparator.Comparator
	Config  Config
}

// New builds an Engine. cmp may be nil, in which case comparator.New()'s
// defaults are used.
func New(c cleaner.Cleaner, cmp *comparator.Comparator, cfg Config) *Engine {
	if cmp == nil {
		cmp = comparator.New()
	}
	return &Engine{Cleaner: c, Cmp: cmp, Config: cfg}
}
