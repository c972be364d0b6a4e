// Package apply executes a plan.Report's Remove/Move instructions
// against the real filesystem. It is the CLI's collaborator, out of the
// core engine's scope per spec §6.3/§1: the engine only ever produces a
// plan, never mutates input paths itself.
package apply

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/cyraxred/bleanser/plan"
)

// Result tallies what was actually done, for the CLI to report back.
type Result struct {
	Removed int
	Moved   int
	Skipped int
}

// Run applies report's instructions. In plan.Dry mode it does nothing
// and returns a zero Result; Keep instructions are always no-ops.
func Run(report plan.Report) (Result, error) {
	var res Result
	if report.Mode == plan.Dry {
		return res, nil
	}

	for _, in := range report.Instructions {
		switch in.Action {
		case plan.Keep:
			res.Skipped++
		case plan.Remove:
			if err := os.Remove(in.Path); err != nil {
				return res, errors.Wrapf(err, "removing %s", in.Path)
			}
			res.Removed++
		case plan.Move:
			if err := moveInto(in.Path, in.Dest); err != nil {
				return res, errors.Wrapf(err, "moving %s to %s", in.Path, in.Dest)
			}
			res.Moved++
		}
	}
	return res, nil
}

// moveInto relocates path into destDir, preserving its basename, per
// spec §4.5's Move mode variant.
func moveInto(path, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating destination %s", destDir)
	}
	target := filepath.Join(destDir, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return errors.Wrapf(err, "renaming into %s", target)
	}
	return nil
}
