package plan

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestReportCounts(t *testing.T) {
	r := NewReport(Dry, []Instruction{
		{Path: "a", Action: Keep},
		{Path: "b", Action: Remove},
		{Path: "c", Action: Move, Dest: "/trash"},
	})
	kept, removed, moved := r.Counts()
	require.Equal(t, 1, kept)
	require.Equal(t, 1, removed)
	require.Equal(t, 1, moved)
}

func TestReportWriteTableContainsEveryPath(t *testing.T) {
	r := NewReport(Dry, []Instruction{
		{Path: "a", Action: Keep},
		{Path: "b", Action: Remove},
	})
	var buf bytes.Buffer
	require.NoError(t, r.WriteTable(&buf))
	out := buf.String()
	require.Contains(t, out, "a")
	require.Contains(t, out, "b")
	require.Contains(t, out, "1 kept, 1 removed, 0 moved")
}

func TestReportWriteYAMLRoundTrips(t *testing.T) {
	r := NewReport(ApplyMove, []Instruction{
		{Path: "a", Action: Move, Dest: "/trash"},
	})
	var buf bytes.Buffer
	require.NoError(t, r.WriteYAML(&buf))

	var decoded yamlReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "move", decoded.Mode)
	require.Equal(t, 0, decoded.Kept)
	require.Equal(t, 0, decoded.Removed)
	require.Equal(t, 1, decoded.Moved)
	require.Len(t, decoded.Instructions, 1)
	require.Equal(t, "a", decoded.Instructions[0].Path)
	require.Equal(t, "/trash", decoded.Instructions[0].Dest)
}
