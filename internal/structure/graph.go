package structure

import (
	"github.com/desertthunder/listkit/internal/models"
)

// Handle is the structural position of a node in a definition tree.
//
// One playlist id may occupy several positions when it is shared by unrelated branches,
// so graph walks key on handles and only compare ids when looking for repeats.
type Handle int

const noParent Handle = -1

type node struct {
	handle   Handle
	id       string
	parent   Handle
	level    int
	children []Handle
}

// tree is a flattened definition. nodes[h].handle == h.
type tree struct {
	nodes []node
	roots []Handle
}

func flatten(roots []models.PlaylistDefinitionNode) *tree {
	t := &tree{}
	var walk func(n models.PlaylistDefinitionNode, parent Handle, level int) Handle
	walk = func(n models.PlaylistDefinitionNode, parent Handle, level int) Handle {
		h := Handle(len(t.nodes))
		t.nodes = append(t.nodes, node{handle: h, id: n.ID, parent: parent, level: level})
		children := make([]Handle, 0, len(n.Dependencies))
		for _, dep := range n.Dependencies {
			children = append(children, walk(dep, h, level+1))
		}
		t.nodes[h].children = children
		return h
	}
	for _, r := range roots {
		t.roots = append(t.roots, walk(r, noParent, 0))
	}
	return t
}

func (t *tree) ids(handles []Handle) []string {
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = t.nodes[h].id
	}
	return out
}

// levels groups handles breadth-first, keeping declaration order within a level.
func (t *tree) levels() [][]Handle {
	var out [][]Handle
	current := t.roots
	for len(current) > 0 {
		out = append(out, current)
		var next []Handle
		for _, h := range current {
			next = append(next, t.nodes[h].children...)
		}
		current = next
	}
	return out
}

// paths returns one handle sequence per leaf, depth-first.
func (t *tree) paths() [][]Handle {
	var out [][]Handle
	var walk func(h Handle, prefix []Handle)
	walk = func(h Handle, prefix []Handle) {
		path := append(append([]Handle(nil), prefix...), h)
		children := t.nodes[h].children
		if len(children) == 0 {
			out = append(out, path)
			return
		}
		for _, c := range children {
			walk(c, path)
		}
	}
	for _, r := range t.roots {
		walk(r, nil)
	}
	return out
}

// GroupByLevel returns playlist ids grouped by breadth-first level, in declaration order.
func GroupByLevel(roots []models.PlaylistDefinitionNode) [][]string {
	t := flatten(roots)
	levels := t.levels()
	out := make([][]string, len(levels))
	for i, level := range levels {
		out[i] = t.ids(level)
	}
	return out
}

// ListAllPaths returns every root-to-leaf id sequence.
func ListAllPaths(roots []models.PlaylistDefinitionNode) [][]string {
	t := flatten(roots)
	paths := t.paths()
	out := make([][]string, len(paths))
	for i, p := range paths {
		out[i] = t.ids(p)
	}
	return out
}

// HasCycle reports whether the id graph of the definition contains a cycle.
//
// Children of an id are the union of the children of every node carrying that id,
// so a cycle may close across unrelated branches.
func HasCycle(def *models.StructuredPlaylistsDefinition) bool {
	t := flatten(def.Playlists)

	adjacency := make(map[string][]string)
	var order []string
	for _, n := range t.nodes {
		if _, seen := adjacency[n.id]; !seen {
			adjacency[n.id] = nil
			order = append(order, n.id)
		}
		for _, c := range n.children {
			adjacency[n.id] = append(adjacency[n.id], t.nodes[c].id)
		}
	}

	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visiting[id] = true
		for _, next := range adjacency[id] {
			if visiting[next] {
				return true
			}
			if !visited[next] && dfs(next) {
				return true
			}
		}
		delete(visiting, id)
		visited[id] = true
		return false
	}

	for _, id := range order {
		if !visited[id] && dfs(id) {
			return true
		}
	}
	return false
}

// HasInvalidStructure reports sibling or path violations.
//
// Siblings are the nodes sharing one parent within a breadth-first level (roots share the
// implicit top parent); a repeated id among them is invalid. A repeated id along one
// root-to-leaf path is invalid as well.
func HasInvalidStructure(def *models.StructuredPlaylistsDefinition) bool {
	t := flatten(def.Playlists)
	return hasDuplicateSiblings(t) || hasRepeatedPathID(t)
}

func hasDuplicateSiblings(t *tree) bool {
	for _, level := range t.levels() {
		seen := make(map[Handle]map[string]bool)
		for _, h := range level {
			parent := t.nodes[h].parent
			if seen[parent] == nil {
				seen[parent] = make(map[string]bool)
			}
			id := t.nodes[h].id
			if seen[parent][id] {
				return true
			}
			seen[parent][id] = true
		}
	}
	return false
}

func hasRepeatedPathID(t *tree) bool {
	for _, path := range t.paths() {
		seen := make(map[string]bool, len(path))
		for _, h := range path {
			id := t.nodes[h].id
			if seen[id] {
				return true
			}
			seen[id] = true
		}
	}
	return false
}

// Validate runs the graph checks and returns a [*DefinitionError], or nil when the tree is safe to sync.
func Validate(def *models.StructuredPlaylistsDefinition) error {
	if HasCycle(def) {
		return &DefinitionError{Code: CodeDependencyCycle, Field: "playlists", Msg: "dependency cycle detected"}
	}
	if HasInvalidStructure(def) {
		return &DefinitionError{Code: CodeInvalidStructure, Field: "playlists", Msg: "playlist repeated among siblings or along one path"}
	}
	return nil
}
