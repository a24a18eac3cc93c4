// Package facade exposes the Graph-RAG core as a set of atomic,
// request/response-shaped composite operations: the single entry point
// external adapters (HTTP, RPC, CLI) are meant to call into.
//
// Grounded on the teacher's pkg/nornicdb/db.go: a single struct owning
// storage, decay, and search, with created-flag dedupe in Store and an
// RWMutex serializing access, adapted from the teacher's one-Memory-type
// shape to this spec's separate Node/Edge/Request/Response types.
package facade

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/orneryd/graphrag-core/pkg/graphengine"
	"github.com/orneryd/graphrag-core/pkg/kvstore"
	"github.com/orneryd/graphrag-core/pkg/memdecay"
	"github.com/orneryd/graphrag-core/pkg/model"
	"github.com/orneryd/graphrag-core/pkg/vectorindex"
)

// Errors returned by the façade, grouped by the taxonomy spec.md §7
// defines (Validation/NotFound/Conflict pass through from pkg/model and
// pkg/graphengine unchanged; these are the façade's own additions).
var (
	ErrNodeNotFound = errors.New("facade: node not found")
)

// Service is the façade: it owns the graph, vector index, and memory
// manager, and optionally a persistent storage engine, coordinating
// between them behind a single reader/writer lock per spec.md §5.
type Service struct {
	mu sync.RWMutex

	graph   *graphengine.Graph
	vector  vectorindex.Index
	decay   *memdecay.Manager
	storage kvstore.Engine // nil if running without persistence
	clock   func() time.Time
}

// New creates a façade over the given graph, vector index, and memory
// manager. storage may be nil to run without persistence.
func New(graph *graphengine.Graph, vector vectorindex.Index, decay *memdecay.Manager, storage kvstore.Engine) *Service {
	return &Service{
		graph:   graph,
		vector:  vector,
		decay:   decay,
		storage: storage,
		clock:   time.Now,
	}
}

// AddNodeRequest is the input to AddNode.
type AddNodeRequest struct {
	Content    string
	NodeType   model.NodeType
	Embedding  []float32
	Attributes model.Attributes
}

// AddNodeResponse is the output of AddNode.
type AddNodeResponse struct {
	Node    *model.Node
	Created bool
}

// AddNode inserts a new node, or returns the existing one unchanged if
// an id collision occurs (spec.md §4.6: created=false on collision).
// Since NodeID is assigned fresh here, a collision only happens when the
// caller replays a request with an explicit id via AddNodeWithID.
func (s *Service) AddNode(ctx context.Context, req AddNodeRequest) (AddNodeResponse, error) {
	return s.AddNodeWithID(ctx, model.NewNodeID(), req)
}

// AddNodeWithID is AddNode with a caller-supplied id, used for replay
// and bulk-load paths where the id must be stable across retries.
func (s *Service) AddNodeWithID(ctx context.Context, id model.NodeID, req AddNodeRequest) (AddNodeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.graph.GetNode(id); err == nil {
		return AddNodeResponse{Node: existing, Created: false}, nil
	}

	now := s.clock()
	node := &model.Node{
		ID:         id,
		Content:    req.Content,
		NodeType:   req.NodeType,
		Embedding:  req.Embedding,
		Meta:       model.DefaultMetadata(now),
		Attributes: req.Attributes,
	}
	if err := node.Validate(); err != nil {
		return AddNodeResponse{}, err
	}
	if err := s.graph.AddNode(node); err != nil {
		return AddNodeResponse{}, err
	}
	s.decay.Register(node)
	if len(req.Embedding) > 0 && s.vector != nil {
		if err := s.vector.Insert(id, req.Embedding); err != nil {
			return AddNodeResponse{}, err
		}
	}
	if s.storage != nil {
		if err := s.storage.PutNode(ctx, node); err != nil {
			return AddNodeResponse{}, err
		}
	}
	return AddNodeResponse{Node: node.Clone(), Created: true}, nil
}

// GetNodeResponse is the output of GetNode.
type GetNodeResponse struct {
	Node *model.Node // nil if not found
}

// GetNode looks up a node by id and, if found, records an access with
// the memory-decay manager.
func (s *Service) GetNode(ctx context.Context, id model.NodeID) (GetNodeResponse, error) {
	s.mu.RLock()
	node, err := s.graph.GetNode(id)
	s.mu.RUnlock()
	if errors.Is(err, graphengine.ErrNodeNotFound) {
		return GetNodeResponse{}, nil
	}
	if err != nil {
		return GetNodeResponse{}, err
	}
	if _, err := s.decay.RecordAccess(id); err != nil && !errors.Is(err, memdecay.ErrNodeNotFound) {
		return GetNodeResponse{}, err
	}
	return GetNodeResponse{Node: node}, nil
}

// DeleteNodeResponse is the output of DeleteNode.
type DeleteNodeResponse struct {
	Deleted bool
	ID      model.NodeID
}

// DeleteNode removes a node from the graph, unregisters it from the
// memory manager, removes its vector from the vector index, and deletes
// it from storage when storage is configured. Per spec.md §4.6 and §9's
// open question, edges
// referencing the node are left in place rather than cascade-deleted.
func (s *Service) DeleteNode(ctx context.Context, id model.NodeID) (DeleteNodeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := s.graph.RemoveNode(id)
	if deleted {
		s.decay.Unregister(id)
		if s.vector != nil {
			s.vector.Remove(id)
		}
		if s.storage != nil {
			if _, err := s.storage.DeleteNode(ctx, id); err != nil {
				return DeleteNodeResponse{}, err
			}
		}
	}
	return DeleteNodeResponse{Deleted: deleted, ID: id}, nil
}

// AddEdgeRequest is the input to AddEdge.
type AddEdgeRequest struct {
	Source   model.NodeID
	Target   model.NodeID
	Relation model.RelationType
	Weight   float64
	Vector   []float32
}

// AddEdgeResponse is the output of AddEdge.
type AddEdgeResponse struct {
	Edge *model.Edge
}

// AddEdge validates both endpoints exist, then inserts the edge into the
// graph (and storage, if configured).
func (s *Service) AddEdge(ctx context.Context, req AddEdgeRequest) (AddEdgeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	weight := req.Weight
	if weight == 0 {
		weight = model.DefaultWeight
	}
	edge := &model.Edge{
		Source:    req.Source,
		Target:    req.Target,
		Relation:  req.Relation,
		Weight:    weight,
		Vector:    req.Vector,
		CreatedAt: s.clock(),
	}
	if err := edge.Validate(); err != nil {
		return AddEdgeResponse{}, err
	}
	if err := s.graph.AddEdge(edge); err != nil {
		if errors.Is(err, graphengine.ErrNodeNotFound) {
			return AddEdgeResponse{}, ErrNodeNotFound
		}
		return AddEdgeResponse{}, err
	}
	if s.storage != nil {
		if err := s.storage.PutEdge(ctx, edge); err != nil {
			return AddEdgeResponse{}, err
		}
	}
	return AddEdgeResponse{Edge: edge.Clone()}, nil
}

// QueryRequest is the input to Query.
type QueryRequest struct {
	QueryText        string
	Limit            int
	IncludeMetadata  bool
}

// QueryResponse is the output of Query.
type QueryResponse struct {
	Nodes           []*model.Node
	TotalCount      int
	ExecutionTimeMS float64
	Truncated       bool
}

// Query performs a case-insensitive substring search over node content,
// sorted by access score descending, per spec.md §4.6.
func (s *Service) Query(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	start := s.clock()

	s.mu.RLock()
	all := s.graph.AllNodes()
	scores := s.decay.GetAllScores()
	s.mu.RUnlock()

	needle := strings.ToLower(req.QueryText)
	var matched []*model.Node
	for _, n := range all {
		if needle == "" || strings.Contains(strings.ToLower(n.Content), needle) {
			matched = append(matched, n)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return scores[matched[i].ID] > scores[matched[j].ID]
	})

	total := len(matched)
	truncated := false
	if req.Limit > 0 && total > req.Limit {
		matched = matched[:req.Limit]
		truncated = true
	}

	elapsed := s.clock().Sub(start)
	return QueryResponse{
		Nodes:           matched,
		TotalCount:      total,
		ExecutionTimeMS: float64(elapsed.Microseconds()) / 1000.0,
		Truncated:       truncated,
	}, nil
}

// TraverseRequest is the input to Traverse.
type TraverseRequest struct {
	StartID  model.NodeID
	MaxDepth int
	MaxNodes int
	Direction graphengine.Direction
}

// TraverseResponse is the output of Traverse.
type TraverseResponse struct {
	Nodes     []*model.Node
	Edges     []*model.Edge
	Depth     int
	Truncated bool
}

// Traverse runs a bounded BFS from start and gathers the forward edges
// of every node visited, per spec.md §4.6.
func (s *Service) Traverse(ctx context.Context, req TraverseRequest) (TraverseResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, err := s.graph.BFS(req.StartID, graphengine.TraversalConfig{
		MaxDepth:     req.MaxDepth,
		MaxNodes:     req.MaxNodes,
		Direction:    req.Direction,
		AvoidCycles:  true,
		IncludeStart: true,
	})
	if err != nil {
		if errors.Is(err, graphengine.ErrNodeNotFound) {
			return TraverseResponse{}, ErrNodeNotFound
		}
		return TraverseResponse{}, err
	}

	var edges []*model.Edge
	for _, n := range result.Nodes {
		edges = append(edges, s.graph.Edges(n.ID, graphengine.Forward)...)
	}

	truncated := req.MaxNodes > 0 && len(result.Nodes) >= req.MaxNodes
	return TraverseResponse{Nodes: result.Nodes, Edges: edges, Depth: result.Depth, Truncated: truncated}, nil
}

// Stats aggregates node/edge/embedded counts and memory-decay stats.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	EmbeddedCount int
	Memory        memdecay.Stats
}

// Stats returns current façade-wide statistics.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	embedded := 0
	if s.vector != nil {
		embedded = s.vector.Count()
	}
	return Stats{
		NodeCount:     s.graph.CountNodes(),
		EdgeCount:     s.graph.CountEdges(),
		EmbeddedCount: embedded,
		Memory:        s.decay.Stats(),
	}
}

// Health is a liveness sentinel; it never fails so long as the process
// can acquire its own lock.
func (s *Service) Health(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return true
}

// AllNodes returns every node currently held, for admin/export use.
func (s *Service) AllNodes(ctx context.Context) []*model.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.AllNodes()
}
