package structure

import (
	"slices"

	"github.com/desertthunder/listkit/internal/models"
)

// Step is one node to execute during a structured sync.
type Step struct {
	Handle       Handle   `json:"handle"`
	ID           string   `json:"id"`
	Level        int      `json:"level"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// IsLeaf reports whether the step has nothing to pull from.
func (s Step) IsLeaf() bool { return len(s.Dependencies) == 0 }

// Plan orders the definition bottom-up: the deepest level comes first.
//
// Steps inside one level are independent of each other. Callers are expected to
// [Validate] first; Plan does not check the tree.
func Plan(def *models.StructuredPlaylistsDefinition) [][]Step {
	t := flatten(def.Playlists)
	levels := t.levels()
	slices.Reverse(levels)

	plan := make([][]Step, len(levels))
	for i, level := range levels {
		steps := make([]Step, len(level))
		for j, h := range level {
			n := t.nodes[h]
			steps[j] = Step{Handle: h, ID: n.id, Level: n.level, Dependencies: t.ids(n.children)}
		}
		plan[i] = steps
	}
	return plan
}

// CountExecutable returns the number of non-leaf steps in a plan.
func CountExecutable(plan [][]Step) int {
	var n int
	for _, level := range plan {
		for _, step := range level {
			if !step.IsLeaf() {
				n++
			}
		}
	}
	return n
}
