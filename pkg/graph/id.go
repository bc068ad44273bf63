package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// NodeID is a content-addressed identifier for graph nodes.
type NodeID [sha256.Size]byte

// ZeroID is the unset NodeID.
var ZeroID NodeID

// NewNodeID derives an ID from a path such as "train/going".
func NewNodeID(path string) NodeID {
	return sha256.Sum256([]byte(path))
}

// ContentID hashes a node's kind, name, payload and children.
func ContentID(kind NodeKind, name string, data NodeData, children []NodeID) NodeID {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", kind, name)
	// payloads are plain structs of numbers and strings
	b, _ := json.Marshal(data)
	h.Write(b)
	for _, c := range children {
		h.Write(c[:])
	}
	var id NodeID
	copy(id[:], h.Sum(nil))
	return id
}

func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 8 hex digits, for messages.
func (id NodeID) Short() string {
	return id.String()[:8]
}

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// MarshalText encodes the ID as hex so it can key JSON objects.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex ID.
func (id *NodeID) UnmarshalText(b []byte) error {
	if hex.DecodedLen(len(b)) != len(id) {
		return fmt.Errorf("graph: node id %q has wrong length", b)
	}
	_, err := hex.Decode(id[:], b)
	return err
}
