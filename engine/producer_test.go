package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cyraxred/bleanser/cleaner"
	"github.com/cyraxred/bleanser/comparator"
	"github.com/cyraxred/bleanser/relation"
)

func writeInputs(t *testing.T, dir string, contents []string) []string {
	t.Helper()
	paths := make([]string, len(contents))
	for i, c := range contents {
		p := filepath.Join(dir, fmt.Sprintf("snap-%02d.txt", i))
		require.NoError(t, os.WriteFile(p, []byte(c), 0o644))
		paths[i] = p
	}
	return paths
}

func collect(t *testing.T, out <-chan relation.Relation, fatal <-chan error) []relation.Relation {
	t.Helper()
	var rels []relation.Relation
	for rel := range out {
		rels = append(rels, rel)
	}
	err, ok := <-fatal
	if ok {
		require.NoError(t, err)
	}
	return rels
}

func TestRelationsSerialSameDominatesDifferent(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, []string{
		"a\nb\n",
		"a\nb\n",       // SAME
		"a\nb\nc\n",    // DOMINATES (pure addition)
		"z\n",          // DIFFERENT
	})

	e := New(&cleaner.Lines{}, comparator.New(), Config{WorkDirRoot: t.TempDir()})
	out, fatal := e.Relations(context.Background(), inputs)
	rels := collect(t, out, fatal)

	require.Len(t, rels, 3)
	require.Equal(t, relation.SAME, rels[0].Diff.Cmp)
	require.Equal(t, relation.DOMINATES, rels[1].Diff.Cmp)
	require.Equal(t, relation.DIFFERENT, rels[2].Diff.Cmp)

	require.Equal(t, inputs[0], rels[0].Before)
	require.Equal(t, inputs[1], rels[0].After)
	require.Equal(t, inputs[3], rels[2].After)
}

func TestRelationsSerialBoundsWorkingSet(t *testing.T) {
	wdirRoot := t.TempDir()
	dir := t.TempDir()
	contents := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		contents = append(contents, fmt.Sprintf("line-%d\n", i))
	}
	inputs := writeInputs(t, dir, contents)

	e := New(&cleaner.Lines{}, comparator.New(), Config{WorkDirRoot: wdirRoot})
	out, fatal := e.Relations(context.Background(), inputs)

	maxSeen := 0
	for range out {
		entries, err := os.ReadDir(wdirRoot)
		require.NoError(t, err)
		var artifactCount int
		for _, ent := range entries {
			sub := filepath.Join(wdirRoot, ent.Name())
			files, err := os.ReadDir(sub)
			require.NoError(t, err)
			artifactCount += len(files)
		}
		if artifactCount > maxSeen {
			maxSeen = artifactCount
		}
	}
	for err := range fatal {
		require.NoError(t, err)
	}
	require.LessOrEqual(t, maxSeen, 2)
}

func TestRelationsSingleInputProducesNoRelations(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir, []string{"only\n"})

	e := New(&cleaner.Lines{}, comparator.New(), Config{WorkDirRoot: t.TempDir()})
	out, fatal := e.Relations(context.Background(), inputs)
	rels := collect(t, out, fatal)
	require.Empty(t, rels)
}

func TestRelationsEmptyInputProducesNoRelations(t *testing.T) {
	e := New(&cleaner.Lines{}, comparator.New(), Config{WorkDirRoot: t.TempDir()})
	out, fatal := e.Relations(context.Background(), nil)
	rels := collect(t, out, fatal)
	require.Empty(t, rels)
}
