package vectorindex

import "github.com/orneryd/graphrag-core/pkg/model"

// BackendKind names one of the supported ANN backend families
// (spec.md §4.3b).
type BackendKind string

const (
	BackendFlat BackendKind = "Flat"
	BackendHNSW BackendKind = "Hnsw"
	BackendIVF  BackendKind = "Ivf"
	BackendAuto BackendKind = "Auto"
)

// Population thresholds for Auto selection, per spec.md §4.3b's
// recommendation ("Hnsw ... for >= ~1k vectors", "Ivf ... for >= ~5k").
const (
	AutoHNSWThreshold = 1000
	AutoIVFThreshold  = 5000
)

// SelectBackend maps a population size to the backend kind Auto would
// choose for it.
func SelectBackend(populationHint int) BackendKind {
	switch {
	case populationHint >= AutoIVFThreshold:
		return BackendIVF
	case populationHint >= AutoHNSWThreshold:
		return BackendHNSW
	default:
		return BackendFlat
	}
}

// newBackend constructs a fresh, empty Index of the requested kind.
// BackendAuto resolves populationHint through SelectBackend.
func newBackend(kind BackendKind, dim int, populationHint int) Index {
	resolved := kind
	if resolved == BackendAuto {
		resolved = SelectBackend(populationHint)
	}
	switch resolved {
	case BackendHNSW:
		return NewHNSWIndex(dim, DefaultHNSWConfig())
	case BackendIVF:
		return NewIVFIndex(dim, DefaultIVFConfig())
	default:
		return NewFlatIndex(dim)
	}
}

// Auto is an Index that transparently selects and delegates to a
// concrete backend based on its current population, re-evaluating the
// choice as vectors are inserted or removed (spec.md §4.3b "Auto —
// select by population"). Migrating between backends on a threshold
// crossing replays every currently-held vector into the new backend,
// matching the "nothing about the query contract changes after
// migration" guarantee.
type Auto struct {
	dimension int
	active    Index
	kind      BackendKind
}

// NewAuto creates an Auto index fixed to dimension dim, starting with
// the Flat backend (appropriate for an empty population).
func NewAuto(dim int) *Auto {
	return &Auto{dimension: dim, active: NewFlatIndex(dim), kind: BackendFlat}
}

func (a *Auto) Dimension() int { return a.dimension }
func (a *Auto) IsReady() bool  { return a.active.IsReady() }
func (a *Auto) Count() int     { return a.active.Count() }

// ActiveBackend reports which concrete backend Auto is currently
// delegating to.
func (a *Auto) ActiveBackend() BackendKind { return a.kind }

func (a *Auto) maybeMigrate() error {
	target := SelectBackend(a.active.Count())
	if target == a.kind {
		return nil
	}
	next := newBackend(target, a.dimension, a.active.Count())
	items, err := a.snapshot()
	if err != nil {
		return err
	}
	if len(items) > 0 {
		if err := next.InsertBatch(items); err != nil {
			return err
		}
	}
	a.active = next
	a.kind = target
	return nil
}

func (a *Auto) snapshot() ([]IDVector, error) {
	switch idx := a.active.(type) {
	case *FlatIndex:
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		out := make([]IDVector, 0, len(idx.vectors))
		for id, v := range idx.vectors {
			out = append(out, IDVector{ID: id, Vector: append([]float32(nil), v...)})
		}
		return out, nil
	case *HNSWIndex:
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		out := make([]IDVector, 0, len(idx.nodes))
		for id, n := range idx.nodes {
			out = append(out, IDVector{ID: id, Vector: append([]float32(nil), n.vector...)})
		}
		return out, nil
	case *IVFIndex:
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		out := make([]IDVector, 0, len(idx.entries))
		for id, v := range idx.entries {
			out = append(out, IDVector{ID: id, Vector: append([]float32(nil), v...)})
		}
		return out, nil
	default:
		return nil, nil
	}
}

func (a *Auto) Insert(id model.NodeID, vector []float32) error {
	if err := a.active.Insert(id, vector); err != nil {
		return err
	}
	return a.maybeMigrate()
}

func (a *Auto) InsertBatch(items []IDVector) error {
	if err := a.active.InsertBatch(items); err != nil {
		return err
	}
	return a.maybeMigrate()
}

func (a *Auto) Update(id model.NodeID, vector []float32) error {
	return a.active.Update(id, vector)
}

func (a *Auto) Remove(id model.NodeID) bool {
	removed := a.active.Remove(id)
	if removed {
		_ = a.maybeMigrate()
	}
	return removed
}

func (a *Auto) Search(query []float32, k int) ([]SearchResult, error) {
	return a.active.Search(query, k)
}
