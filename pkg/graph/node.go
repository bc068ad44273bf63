package graph

// NodeKind enumerates the types of nodes in the movement graph.
type NodeKind int

const (
	NodeMovement   NodeKind = iota // logical grouping of one clock movement
	NodePendulum                   // pendulum period and length
	NodeEscapement                 // anchor escapement geometry inputs
	NodeTrain                      // going or power train, children are stages
	NodeStage                      // one wheel and pinion mesh
)

func (k NodeKind) String() string {
	switch k {
	case NodeMovement:
		return "movement"
	case NodePendulum:
		return "pendulum"
	case NodeEscapement:
		return "escapement"
	case NodeTrain:
		return "train"
	case NodeStage:
		return "stage"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the movement graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// NewNode builds a node whose ID is derived from its content, so two
// evaluations of the same script produce the same IDs.
func NewNode(kind NodeKind, name string, data NodeData, children ...NodeID) *Node {
	return &Node{
		ID:       ContentID(kind, name, data, children),
		Kind:     kind,
		Name:     name,
		Children: children,
		Data:     data,
	}
}
