package cleaner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func init() {
	Register("json", func() Cleaner { return &JSON{} })
}

// JSON cleans record-oriented JSON exports, grounded in
// original_source/lastfm.py and original_source/src/bleanser/modules/spotify.py:
// both normalise a list of records with a jq filter before diffing. Since
// this engine has no dependency on the jq binary, the same normalisation
// is done in-process with encoding/json.
type JSON struct {
	// RecordsPath is a dot-separated path to the array of records within
	// the document, e.g. "playlists.tracks". Empty means the document
	// root is itself the array (the lastfm.py case).
	RecordsPath string
	// SortKey, if set, sorts records by this top-level string field before
	// emitting them - the Go equivalent of lastfm.py's "sort_by(.date)".
	SortKey string
	// DropFields removes these top-level keys from every record before
	// comparison, the Go equivalent of spotify.py's delkeys() calls for
	// flaky metadata such as "popularity" or "snapshot_id".
	DropFields []string
	// Lowercase downcases every string value (recursively), the Go
	// equivalent of lastfm.py's "map(map_values(ascii_downcase))" - it
	// makes comparisons resilient to a source that only ever changed
	// case.
	Lowercase bool
}

// Name implements Cleaner.
func (j *JSON) Name() string { return "json" }

// Clean implements Cleaner.
func (j *JSON) Clean(ctx context.Context, input string, wdir string, scope *Scope) (string, error) {
	raw, err := os.ReadFile(input)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", input)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", errors.Wrapf(err, "parsing JSON %s", input)
	}

	records, err := extractRecords(doc, j.RecordsPath)
	if err != nil {
		return "", errors.Wrapf(err, "extracting records from %s", input)
	}

	for _, rec := range records {
		for _, field := range j.DropFields {
			delete(rec, field)
		}
	}
	if j.Lowercase {
		for i, rec := range records {
			records[i] = lowercaseValue(rec).(map[string]interface{})
		}
	}
	if j.SortKey != "" {
		sortRecordsByKey(records, j.SortKey)
	}

	outPath := filepath.Join(wdir, uuid.NewString()+".json.clean")
	f, err := os.Create(outPath)
	if err != nil {
		return "", errors.Wrapf(err, "creating cleaned artifact %s", outPath)
	}
	scope.Defer(func() error { return os.Remove(outPath) })

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			f.Close()
			return "", errors.Wrapf(err, "writing cleaned record to %s", outPath)
		}
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "closing cleaned artifact %s", outPath)
	}
	return outPath, nil
}

// extractRecords navigates to the array at dottedPath within doc and
// returns its elements as maps. Elements which are not JSON objects are
// skipped: a record-oriented export should only ever contain objects.
func extractRecords(doc interface{}, dottedPath string) ([]map[string]interface{}, error) {
	node := doc
	if dottedPath != "" {
		for _, part := range strings.Split(dottedPath, ".") {
			m, ok := node.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("expected an object while descending into %q", part)
			}
			node, ok = m[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found", part)
			}
		}
	}
	arr, ok := node.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an array at %q", dottedPath)
	}
	records := make([]map[string]interface{}, 0, len(arr))
	for _, elem := range arr {
		if m, ok := elem.(map[string]interface{}); ok {
			records = append(records, m)
		}
	}
	return records, nil
}

func lowercaseValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return strings.ToLower(val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, vv := range val {
			out[k] = lowercaseValue(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, vv := range val {
			out[i] = lowercaseValue(vv)
		}
		return out
	default:
		return val
	}
}

func sortRecordsByKey(records []map[string]interface{}, key string) {
	sort.SliceStable(records, func(i, k int) bool {
		vi := fmt.Sprint(records[i][key])
		vk := fmt.Sprint(records[k][key])
		return vi < vk
	})
}
