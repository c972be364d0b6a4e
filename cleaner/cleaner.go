// Package cleaner defines the scoped cleaning contract the engine depends
// on (spec §4.1/§6.1) and ships three concrete implementations grounded in
// the bleanser modules this tool replaces: a json cleaner (lastfm/spotify
// style jq-ish projection), a sqlite cleaner (kobo/podcastaddict style
// row dump; the schema itself is not dumped) and a lines cleaner
// (sleepasandroid style identity copy).
package cleaner

import "context"

// Cleaner is a scoped factory: given an input snapshot path and a writable
// working directory, it produces a canonicalised artifact inside wdir.
// Output bytes must depend only on input bytes - identical input produces
// identical output across runs. Any temporary state the implementation
// creates while cleaning must be registered with scope so it is released
// when the scope closes, whether that happens because the engine is done
// with the artifact or because the run is aborting.
type Cleaner interface {
	// Name identifies the cleaner for CLI selection and logging.
	Name() string
	// Clean produces a cleaned artifact for input inside wdir, returning
	// its path. Any error aborts only this single cleaning; the engine
	// records it as relation.ERROR and continues with the next input.
	Clean(ctx context.Context, input string, wdir string, scope *Scope) (path string, err error)
}
