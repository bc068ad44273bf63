package graph

import "fmt"

// GlobalDefaults contains graph-wide settings.
type GlobalDefaults struct {
	Units string `json:"units"` // "mm" only
}

// MovementGraph is the top-level immutable data structure produced by Lisp
// evaluation. It is never mutated in place; each evaluation produces a new
// graph.
type MovementGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  GlobalDefaults    `json:"defaults"`
	Version   uint64            `json:"version"`
}

// New creates an empty MovementGraph with default settings.
func New() *MovementGraph {
	return &MovementGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Defaults:  GlobalDefaults{Units: "mm"},
	}
}

// AddNode adds a node to the graph. Re-adding an identical node is a no-op
// since IDs are content derived.
func (g *MovementGraph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph.
func (g *MovementGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *MovementGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *MovementGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *MovementGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Children returns the child nodes of the given node.
func (g *MovementGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// ChildrenOfKind returns the children of n with the given kind, in order.
func (g *MovementGraph) ChildrenOfKind(n *Node, kind NodeKind) []*Node {
	var out []*Node
	for _, c := range g.Children(n) {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Train returns the first train child of n with the given role, or nil.
func (g *MovementGraph) Train(n *Node, role TrainRole) *Node {
	for _, c := range g.ChildrenOfKind(n, NodeTrain) {
		if td, ok := c.Data.(TrainData); ok && td.Role == role {
			return c
		}
	}
	return nil
}

// Stages returns the stage payloads of a train node in mesh order.
func (g *MovementGraph) Stages(train *Node) []StageData {
	var out []StageData
	for _, c := range g.ChildrenOfKind(train, NodeStage) {
		if sd, ok := c.Data.(StageData); ok {
			out = append(out, sd)
		}
	}
	return out
}

// Movements returns the movement nodes reachable from the roots, in root
// order.
func (g *MovementGraph) Movements() []*Node {
	var out []*Node
	for _, id := range g.Roots {
		if n := g.Nodes[id]; n != nil && n.Kind == NodeMovement {
			out = append(out, n)
		}
	}
	return out
}

// NodeCount returns the total number of nodes.
func (g *MovementGraph) NodeCount() int {
	return len(g.Nodes)
}
