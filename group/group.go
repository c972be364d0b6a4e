// Package group folds a relation stream into contiguous runs of
// equivalent snapshots (spec §4.4). A Group is the unit the plan builder
// later turns into Keep/Remove/Move instructions.
package group

import (
	"fmt"

	"github.com/cyraxred/bleanser/relation"
)

// Group is an ordered run of input paths the fold classified as
// redundant with one another (or, for a singleton group, not redundant
// with any neighbor).
type Group []string

// Policy carries the fold's one knob (spec §4.4). keep_both is a sibling
// knob in the same EngineConfig surface, but it only affects plan
// building (package plan), not the fold.
type Policy struct {
	// DeleteDominated folds DOMINATES into SAME when true, else DIFFERENT.
	DeleteDominated bool
}

// normalize applies spec §4.4 step 1: DOMINATES becomes SAME or DIFFERENT
// depending on policy, ERROR always becomes DIFFERENT.
func (p Policy) normalize(cmp relation.CmpResult) relation.CmpResult {
	switch cmp {
	case relation.DOMINATES:
		if p.DeleteDominated {
			return relation.SAME
		}
		return relation.DIFFERENT
	case relation.ERROR:
		return relation.DIFFERENT
	default:
		return cmp
	}
}

// Fold consumes an ordered relation list and yields Groups per spec
// §4.4. first is the path of the very first input in the run; it seeds
// the fold when there are no relations at all (a zero- or one-input
// run), which is the one case Fold cannot recover purely from relations.
func Fold(first string, relations []relation.Relation, policy Policy) ([]Group, error) {
	if len(relations) == 0 {
		if first == "" {
			return nil, nil
		}
		return []Group{{first}}, nil
	}

	var groups []Group
	var current Group

	for i, rel := range relations {
		if i > 0 && relations[i-1].After != rel.Before {
			return nil, fmt.Errorf("broken relation chain at index %d: %q != %q",
				i, relations[i-1].After, rel.Before)
		}

		if len(current) == 0 || current[len(current)-1] != rel.Before {
			current = append(current, rel.Before)
		}

		if policy.normalize(rel.Diff.Cmp) == relation.DIFFERENT {
			groups = append(groups, current)
			current = nil
		}
	}

	last := relations[len(relations)-1]
	current = append(current, last.After)
	groups = append(groups, current)

	return groups, nil
}
