package comparator

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyraxred/bleanser/relation"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestCompareSame(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a", "line1\nline2\nline3\n")
	b := write(t, dir, "b", "line1\nline2\nline3\n")

	c := New()
	diff, err := c.Compare(a, b, false, false)
	require.NoError(t, err)
	assert.Equal(t, relation.SAME, diff.Cmp)
}

func TestCompareDominates(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a", "line1\nline2\n")
	b := write(t, dir, "b", "line1\nline2\nline3\n")

	c := New()
	diff, err := c.Compare(a, b, false, false)
	require.NoError(t, err)
	assert.Equal(t, relation.DOMINATES, diff.Cmp)
}

func TestCompareDifferent(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a", "line1\nline2\nline3\n")
	b := write(t, dir, "b", "line1\nline3\n")

	c := New()
	diff, err := c.Compare(a, b, false, false)
	require.NoError(t, err)
	assert.Equal(t, relation.DIFFERENT, diff.Cmp)
}

func TestCompareError(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a", "line1\n")
	b := write(t, dir, "b", "line1\nline2\n")

	c := New()
	diff, err := c.Compare(a, b, true, false)
	require.NoError(t, err)
	assert.Equal(t, relation.ERROR, diff.Cmp)

	diff, err = c.Compare(a, b, false, true)
	require.NoError(t, err)
	assert.Equal(t, relation.ERROR, diff.Cmp)
}

// TestCompareNoisePatternIgnoresVolatileRemoval checks that a removed line
// matching the noise pattern does not prevent a DOMINATES classification.
func TestCompareNoisePatternIgnoresVolatileRemoval(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a", "keep1\ntimestamp: 100\nkeep2\n")
	b := write(t, dir, "b", "keep1\ntimestamp: 200\nkeep2\nkeep3\n")

	c := New()
	c.NoisePattern = regexp.MustCompile(`timestamp:`)
	diff, err := c.Compare(a, b, false, false)
	require.NoError(t, err)
	assert.Equal(t, relation.DOMINATES, diff.Cmp)
}

func TestCompareFastPathThreshold(t *testing.T) {
	dir := t.TempDir()
	// a large pure-addition diff - would classify as DOMINATES without the
	// fast-path threshold, but DIFFERENT is the documented, conservative
	// behaviour above the threshold (spec §9).
	a := write(t, dir, "a", "line\n")
	big := "line\n"
	for i := 0; i < 3000; i++ {
		big += "extra content padded out to be large enough\n"
	}
	b := write(t, dir, "b", big)

	c := New()
	c.FastPathThreshold = 10
	diff, err := c.Compare(a, b, false, false)
	require.NoError(t, err)
	assert.Equal(t, relation.DIFFERENT, diff.Cmp)
}
