package kvstore

import (
	"context"
	"sync"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// MemoryEngine is a thread-safe in-memory Engine implementation. It
// exists for tests and small corpora; nothing is persisted to disk.
//
// Like BadgerEngine, it maintains secondary indexes for outgoing and
// incoming edges so traversal-shaped queries don't require a full scan.
type MemoryEngine struct {
	mu       sync.RWMutex
	nodes    map[model.NodeID]*model.Node
	edges    map[model.EdgeKey]*model.Edge
	outIndex map[model.NodeID]map[model.EdgeKey]struct{}
	inIndex  map[model.NodeID]map[model.EdgeKey]struct{}
	metadata map[string][]byte
	closed   bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		nodes:    make(map[model.NodeID]*model.Node),
		edges:    make(map[model.EdgeKey]*model.Edge),
		outIndex: make(map[model.NodeID]map[model.EdgeKey]struct{}),
		inIndex:  make(map[model.NodeID]map[model.EdgeKey]struct{}),
		metadata: make(map[string][]byte),
	}
}

func (m *MemoryEngine) checkOpen() error {
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *MemoryEngine) GetNode(_ context.Context, id model.NodeID) (*model.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	n, ok := m.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n.Clone(), nil
}

func (m *MemoryEngine) PutNode(_ context.Context, n *model.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.nodes[n.ID] = n.Clone()
	return nil
}

func (m *MemoryEngine) DeleteNode(_ context.Context, id model.NodeID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return false, err
	}
	if _, ok := m.nodes[id]; !ok {
		return false, nil
	}
	delete(m.nodes, id)
	return true, nil
}

func (m *MemoryEngine) NodeExists(_ context.Context, id model.NodeID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return false, err
	}
	_, ok := m.nodes[id]
	return ok, nil
}

func (m *MemoryEngine) GetEdge(_ context.Context, key model.EdgeKey) (*model.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	e, ok := m.edges[key]
	if !ok {
		return nil, ErrNotFound
	}
	return e.Clone(), nil
}

func (m *MemoryEngine) PutEdge(_ context.Context, e *model.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.putEdgeLocked(e)
	return nil
}

func (m *MemoryEngine) putEdgeLocked(e *model.Edge) {
	key := e.Key()
	m.edges[key] = e.Clone()
	if m.outIndex[e.Source] == nil {
		m.outIndex[e.Source] = make(map[model.EdgeKey]struct{})
	}
	m.outIndex[e.Source][key] = struct{}{}
	if m.inIndex[e.Target] == nil {
		m.inIndex[e.Target] = make(map[model.EdgeKey]struct{})
	}
	m.inIndex[e.Target][key] = struct{}{}
}

func (m *MemoryEngine) DeleteEdge(_ context.Context, key model.EdgeKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return false, err
	}
	if _, ok := m.edges[key]; !ok {
		return false, nil
	}
	m.deleteEdgeLocked(key)
	return true, nil
}

func (m *MemoryEngine) deleteEdgeLocked(key model.EdgeKey) {
	delete(m.edges, key)
	if s := m.outIndex[key.Source]; s != nil {
		delete(s, key)
	}
	if s := m.inIndex[key.Target]; s != nil {
		delete(s, key)
	}
}

func (m *MemoryEngine) GetOutgoingEdges(_ context.Context, source model.NodeID) ([]*model.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]*model.Edge, 0, len(m.outIndex[source]))
	for key := range m.outIndex[source] {
		out = append(out, m.edges[key].Clone())
	}
	return out, nil
}

func (m *MemoryEngine) GetIncomingEdges(_ context.Context, target model.NodeID) ([]*model.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	out := make([]*model.Edge, 0, len(m.inIndex[target]))
	for key := range m.inIndex[target] {
		out = append(out, m.edges[key].Clone())
	}
	return out, nil
}

// BatchWrite applies ops atomically: the engine's lock is held for the
// whole batch so no reader observes a partial application.
func (m *MemoryEngine) BatchWrite(_ context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}
	for _, op := range ops {
		switch op.Kind {
		case OpPutNode, OpDeleteNode, OpPutEdge, OpDeleteEdge, OpPut, OpDelete:
		default:
			return ErrInvalidOperation
		}
	}
	for _, op := range ops {
		switch op.Kind {
		case OpPutNode:
			m.nodes[op.Node.ID] = op.Node.Clone()
		case OpDeleteNode:
			delete(m.nodes, op.NodeID)
		case OpPutEdge:
			m.putEdgeLocked(op.Edge)
		case OpDeleteEdge:
			m.deleteEdgeLocked(op.Key)
		case OpPut:
			if op.CF == CFMetadata {
				m.metadata[string(op.RawKey)] = append([]byte(nil), op.Value...)
			}
		case OpDelete:
			if op.CF == CFMetadata {
				delete(m.metadata, string(op.RawKey))
			}
		default:
			return ErrInvalidOperation
		}
	}
	return nil
}

// ScanNodes streams nodes matching filter over a buffered channel fed
// by a goroutine holding a read lock over a point-in-time snapshot of
// ids, mirroring BadgerEngine's iterator-based scan so callers can
// treat both engines identically.
func (m *MemoryEngine) ScanNodes(ctx context.Context, filter NodeFilter) (<-chan *model.Node, error) {
	m.mu.RLock()
	snapshot := make([]*model.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		snapshot = append(snapshot, n.Clone())
	}
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	out := make(chan *model.Node, 16)
	go func() {
		defer close(out)
		for _, n := range snapshot {
			if !filter.Match(n) {
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *MemoryEngine) GetMetadata(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	v, ok := m.metadata[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryEngine) PutMetadata(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.metadata[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryEngine) Flush(_ context.Context) error { return nil }

func (m *MemoryEngine) CountNodes(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.nodes)), nil
}

func (m *MemoryEngine) CountEdges(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.edges)), nil
}

func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Engine = (*MemoryEngine)(nil)
