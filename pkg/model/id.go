package model

import (
	"crypto/rand"
	"encoding/hex"
)

// NewNodeID generates a random 128-bit node identifier. Collisions are
// cryptographically implausible; the graph engine still rejects a
// colliding add_node as defense in depth (NodeAlreadyExists).
func NewNodeID() NodeID {
	var id NodeID
	// crypto/rand.Read on a fixed-size array never returns a short read
	// without an error, and an error here only happens if the system
	// entropy source is unavailable -- a condition every other part of
	// this process would already be failing under.
	_, _ = rand.Read(id[:])
	return id
}

// ParseNodeID parses a hex-encoded node id string, as produced by
// NodeID.String or read back from storage.
func ParseNodeID(s string) (NodeID, error) {
	var id NodeID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return NodeID{}, ErrInvalidID
	}
	copy(id[:], b)
	return id, nil
}
