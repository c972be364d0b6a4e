package plan

import (
	"github.com/cyraxred/bleanser/group"
)

// Mode selects what an instruction's non-Keep Action should be and
// whether the CLI's applier is allowed to touch the filesystem at all.
// It corresponds to spec.md §4.5's Dry/Remove/Move mode variants.
type Mode int

const (
	// Dry renders Remove instructions for inspection only; nothing is
	// ever applied to disk under this mode.
	Dry Mode = iota
	// ApplyRemove unlinks removable paths.
	ApplyRemove
	// ApplyMove relocates removable paths into Dest.
	ApplyMove
)

// Build converts groups into an ordered instruction list under keepBoth,
// following original_source/lastfm.py's _iter_deleted list-slicing rule
// (spec §4.5, §9's "later, list-based definition"): removable = g[1:-1]
// when keepBoth, else g[0:-1]. moveDest is only consulted when mode is
// ApplyMove.
func Build(groups []group.Group, keepBoth bool, mode Mode, moveDest string) []Instruction {
	var instructions []Instruction
	for _, g := range groups {
		instructions = append(instructions, buildGroup(g, keepBoth, mode, moveDest)...)
	}
	return instructions
}

func buildGroup(g group.Group, keepBoth bool, mode Mode, moveDest string) []Instruction {
	if len(g) <= 1 {
		return keepAll(g)
	}

	start := 0
	if keepBoth {
		start = 1
	}
	removable := g[start : len(g)-1]
	removableSet := make(map[string]bool, len(removable))
	for _, p := range removable {
		removableSet[p] = true
	}

	instructions := make([]Instruction, 0, len(g))
	for _, p := range g {
		if !removableSet[p] {
			instructions = append(instructions, Instruction{Path: p, Action: Keep})
			continue
		}
		instructions = append(instructions, removeInstruction(p, mode, moveDest))
	}
	return instructions
}

func removeInstruction(path string, mode Mode, moveDest string) Instruction {
	switch mode {
	case ApplyMove:
		return Instruction{Path: path, Action: Move, Dest: moveDest}
	default:
		// Dry and ApplyRemove both describe the path as Remove; Dry's
		// applier collaborator simply never executes it.
		return Instruction{Path: path, Action: Remove}
	}
}

func keepAll(g group.Group) []Instruction {
	instructions := make([]Instruction, len(g))
	for i, p := range g {
		instructions[i] = Instruction{Path: p, Action: Keep}
	}
	return instructions
}
