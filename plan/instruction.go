// Package plan converts groups of mutually redundant snapshots into a
// concrete deletion/move plan (spec §4.5), and renders that plan for the
// CLI to either display or apply.
package plan

// Action identifies what an Instruction tells the caller to do with one
// input path.
type Action int

const (
	// Keep leaves the path untouched.
	Keep Action = iota
	// Remove deletes the path outright.
	Remove
	// Move relocates the path into Dest, preserving its basename.
	Move
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Remove:
		return "remove"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// Instruction is the final, per-path output of the core pipeline.
type Instruction struct {
	Path   string
	Action Action
	// Dest is set only when Action == Move.
	Dest string
}
