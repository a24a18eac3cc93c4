package facade

import (
	"context"
	"fmt"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// BulkOperationRequest batches node and edge creation into one call.
type BulkOperationRequest struct {
	Nodes []AddNodeRequest
	Edges []AddEdgeRequest
}

// BulkOperationResponse reports per-item outcomes; per spec.md §7, bulk
// operations continue past individual failures rather than aborting.
type BulkOperationResponse struct {
	NodeIDs      []model.NodeID
	EdgeKeys     []model.EdgeKey
	SuccessCount int
	FailureCount int
	Errors       []string
}

// BulkOperation inserts req.Nodes then req.Edges, collecting per-item
// errors instead of failing the whole batch.
func (s *Service) BulkOperation(ctx context.Context, req BulkOperationRequest) (BulkOperationResponse, error) {
	var resp BulkOperationResponse

	for i, nr := range req.Nodes {
		out, err := s.AddNode(ctx, nr)
		if err != nil {
			resp.FailureCount++
			resp.Errors = append(resp.Errors, fmt.Sprintf("node[%d]: %v", i, err))
			continue
		}
		resp.SuccessCount++
		resp.NodeIDs = append(resp.NodeIDs, out.Node.ID)
	}

	for i, er := range req.Edges {
		out, err := s.AddEdge(ctx, er)
		if err != nil {
			resp.FailureCount++
			resp.Errors = append(resp.Errors, fmt.Sprintf("edge[%d]: %v", i, err))
			continue
		}
		resp.SuccessCount++
		resp.EdgeKeys = append(resp.EdgeKeys, out.Edge.Key())
	}

	return resp, nil
}
