package cleaner

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func init() {
	Register("lines", func() Cleaner { return &Lines{} })
}

// Lines is the identity cleaner: it copies the input byte for byte. It is
// the Go analogue of sleepasandroid_android.py's "ID_FILTER = '.'" no-op
// jq filter, for a format that needs no normalisation before comparison - a
// snapshot that is already a stable, line-oriented rendering of its
// source (e.g. a pre-sorted export) can be compared directly.
type Lines struct{}

// Name implements Cleaner.
func (l *Lines) Name() string { return "lines" }

// Clean implements Cleaner.
func (l *Lines) Clean(ctx context.Context, input string, wdir string, scope *Scope) (string, error) {
	in, err := os.Open(input)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", input)
	}
	defer in.Close()

	outPath := filepath.Join(wdir, uuid.NewString()+".lines.clean")
	out, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrapf(err, "creating cleaned artifact %s", outPath)
	}
	scope.Defer(func() error { return os.Remove(outPath) })

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", errors.Wrapf(err, "copying %s to %s", input, outPath)
	}
	if err := out.Close(); err != nil {
		return "", errors.Wrapf(err, "closing cleaned artifact %s", outPath)
	}
	return outPath, nil
}
