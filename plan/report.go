package plan

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v2"
)

// Report is the final output of the core pipeline: an ordered instruction
// list plus summary counts, handed to the CLI for display or to the
// apply package for execution.
type Report struct {
	Mode         Mode
	Instructions []Instruction
}

// NewReport summarises instructions under mode.
func NewReport(mode Mode, instructions []Instruction) Report {
	return Report{Mode: mode, Instructions: instructions}
}

// Counts tallies instructions by Action.
func (r Report) Counts() (kept, removed, moved int) {
	for _, in := range r.Instructions {
		switch in.Action {
		case Keep:
			kept++
		case Remove:
			removed++
		case Move:
			moved++
		}
	}
	return
}

// WriteTable renders the plan as an aligned plain-text table, in the
// teacher's plain-stdout reporting style (gopkg.in/src-d/hercules.v2's
// stdout package prints directly with fmt; here the alignment is done
// with text/tabwriter instead of manual width computation).
func (r Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tPATH\tDEST")
	for _, in := range r.Instructions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", in.Action, in.Path, in.Dest)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	kept, removed, moved := r.Counts()
	_, err := fmt.Fprintf(w, "\n%d kept, %d removed, %d moved\n", kept, removed, moved)
	return err
}

// yamlInstruction mirrors Instruction with lower-cased, omitempty tags
// suited to a machine-readable report (gopkg.in/yaml.v2, a dependency
// the teacher declares but never exercises).
type yamlInstruction struct {
	Path   string `yaml:"path"`
	Action string `yaml:"action"`
	Dest   string `yaml:"dest,omitempty"`
}

type yamlReport struct {
	Mode         string            `yaml:"mode"`
	Kept         int               `yaml:"kept"`
	Removed      int               `yaml:"removed"`
	Moved        int               `yaml:"moved"`
	Instructions []yamlInstruction `yaml:"instructions"`
}

func (m Mode) String() string {
	switch m {
	case Dry:
		return "dry"
	case ApplyRemove:
		return "remove"
	case ApplyMove:
		return "move"
	default:
		return "unknown"
	}
}

// WriteYAML renders the plan as YAML for machine consumption.
func (r Report) WriteYAML(w io.Writer) error {
	kept, removed, moved := r.Counts()
	out := yamlReport{
		Mode:    r.Mode.String(),
		Kept:    kept,
		Removed: removed,
		Moved:   moved,
	}
	for _, in := range r.Instructions {
		out.Instructions = append(out.Instructions, yamlInstruction{
			Path:   in.Path,
			Action: in.Action.String(),
			Dest:   in.Dest,
		})
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(out)
}
