// Package kvstore provides the durable key-value storage surface behind
// the graph database: named logical partitions ("column families") over
// a single keyspace, atomic multi-key batches, and a predicate-filtered
// node scan.
//
// Two engines are provided: MemoryEngine (in-memory, for tests and
// small corpora) and BadgerEngine (persistent, backed by
// github.com/dgraph-io/badger/v4). Both satisfy the same Engine
// interface and error taxonomy, so callers can swap one for the other
// without changing behavior.
package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// ColumnFamily names the fixed logical partitions of the keyspace.
type ColumnFamily string

const (
	CFNodes     ColumnFamily = "nodes"
	CFEdges     ColumnFamily = "edges"
	CFEdgesOut  ColumnFamily = "edges_out"
	CFEdgesIn   ColumnFamily = "edges_in"
	CFMetadata  ColumnFamily = "metadata"
	CFAccessLog ColumnFamily = "access_log"
)

// Storage error taxonomy (spec.md §4.1, §7 "Storage" kind).
var (
	ErrNotFound         = errors.New("kvstore: not found")
	ErrSerialization    = errors.New("kvstore: serialization failed")
	ErrDeserialization  = errors.New("kvstore: deserialization failed")
	ErrInvalidOperation = errors.New("kvstore: invalid operation")
	ErrBackend          = errors.New("kvstore: backend error")
	ErrIOError          = errors.New("kvstore: io error")
	ErrClosed           = errors.New("kvstore: engine is closed")
)

// NodeFilter narrows a ScanNodes call. A zero-value filter matches
// every node. NodeTypes empty means "all types"; Custom, when non-nil,
// is an additional arbitrary predicate evaluated after the structural
// filters, mirroring spec.md's "custom" scan predicate.
type NodeFilter struct {
	NodeTypes     []model.NodeType
	MinConfidence *float64
	MaxConfidence *float64
	MinAccessScore *float64
	CreatedAfter  *time.Time
	Custom        func(*model.Node) bool
}

// Match reports whether n satisfies f.
func (f NodeFilter) Match(n *model.Node) bool {
	if len(f.NodeTypes) > 0 {
		ok := false
		for _, t := range f.NodeTypes {
			if n.NodeType == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.MinConfidence != nil && n.Meta.Confidence < *f.MinConfidence {
		return false
	}
	if f.MaxConfidence != nil && n.Meta.Confidence > *f.MaxConfidence {
		return false
	}
	if f.MinAccessScore != nil && n.Meta.AccessScore < *f.MinAccessScore {
		return false
	}
	if f.CreatedAfter != nil && !n.Meta.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	if f.Custom != nil && !f.Custom(n) {
		return false
	}
	return true
}

// OpKind identifies the kind of operation inside a Batch.
type OpKind int

const (
	OpPutNode OpKind = iota
	OpDeleteNode
	OpPutEdge
	OpDeleteEdge
	OpPut
	OpDelete
)

// Op is one operation inside an atomic Batch. Only the fields relevant
// to Kind are read.
type Op struct {
	Kind   OpKind
	Node   *model.Node
	Edge   *model.Edge
	NodeID model.NodeID
	Key    model.EdgeKey
	CF     ColumnFamily
	RawKey []byte
	Value  []byte
}

// Engine is the storage surface's public interface. All methods are
// safe for concurrent use; batch_write is all-or-nothing (spec.md
// §4.1, P nothing-partial).
type Engine interface {
	GetNode(ctx context.Context, id model.NodeID) (*model.Node, error)
	PutNode(ctx context.Context, n *model.Node) error
	DeleteNode(ctx context.Context, id model.NodeID) (bool, error)
	NodeExists(ctx context.Context, id model.NodeID) (bool, error)

	GetEdge(ctx context.Context, key model.EdgeKey) (*model.Edge, error)
	PutEdge(ctx context.Context, e *model.Edge) error
	DeleteEdge(ctx context.Context, key model.EdgeKey) (bool, error)

	GetOutgoingEdges(ctx context.Context, source model.NodeID) ([]*model.Edge, error)
	GetIncomingEdges(ctx context.Context, target model.NodeID) ([]*model.Edge, error)

	BatchWrite(ctx context.Context, ops []Op) error

	ScanNodes(ctx context.Context, filter NodeFilter) (<-chan *model.Node, error)

	GetMetadata(ctx context.Context, key string) ([]byte, error)
	PutMetadata(ctx context.Context, key string, value []byte) error

	Flush(ctx context.Context) error
	CountNodes(ctx context.Context) (int64, error)
	CountEdges(ctx context.Context) (int64, error)

	Close() error
}

// edgeKeyBytes returns the canonical UTF-8 encoding of an edge key,
// "{source}::{target}::{relation}", as specified for iteration order
// stability across process restarts.
func edgeKeyBytes(k model.EdgeKey) []byte {
	return []byte(k.String())
}

// nodeIDBytes returns the node id's 16 raw bytes, as specified for the
// `nodes` column family key.
func nodeIDBytes(id model.NodeID) []byte {
	return id[:]
}
