// Package memdecay implements the memory-decay manager: per-node
// access-score bookkeeping under a configurable forgetting curve, with
// boosting on access, pruning of decayed nodes, and retention queries.
//
// The decay math (Ebbinghaus/PowerLaw/Hyperbolic curves, reinforcement
// on access) is grounded on the teacher's three-tier decay system; this
// package generalizes the teacher's fixed per-tier half-lives into a
// fully configurable decay_scale, while keeping the named tiers as
// convenience presets on top.
package memdecay

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/orneryd/graphrag-core/pkg/model"
)

// Curve selects the forgetting-curve family.
type Curve string

const (
	Ebbinghaus Curve = "Ebbinghaus"
	PowerLaw   Curve = "PowerLaw"
	Hyperbolic Curve = "Hyperbolic"
	NoDecay    Curve = "None"
)

// Tier is a named convenience preset over decay_scale, mirroring the
// teacher's three-tier memory system. Tiers are not part of the
// spec.md contract; they are an additive supplement (SPEC_FULL.md §11).
type Tier string

const (
	TierEpisodic   Tier = "EPISODIC"   // ~7-day half-life
	TierSemantic   Tier = "SEMANTIC"   // ~69-day half-life
	TierProcedural Tier = "PROCEDURAL" // ~693-day half-life
)

// DecayScaleForTier returns the Ebbinghaus lambda that gives the named
// tier's documented half-life: lambda = ln(2) / halfLifeHours.
func DecayScaleForTier(t Tier) float64 {
	switch t {
	case TierEpisodic:
		return math.Ln2 / (7 * 24)
	case TierProcedural:
		return math.Ln2 / (693 * 24)
	default: // TierSemantic and unknown tiers fall back to the default tier
		return math.Ln2 / (69 * 24)
	}
}

// Config configures curve shape, clamping, and access-boost behavior.
type Config struct {
	Curve               Curve
	DecayScale          float64 // lambda override; 0 means "use curve default"
	PowerLawAlpha        float64
	InitialAccessScore  float64
	AccessBoost         float64
	MinScore            float64
	MaxScore            float64
	ClampScores         bool
	RetentionThreshold  float64
}

// DefaultConfig returns spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{
		Curve:              Ebbinghaus,
		DecayScale:         0.0015,
		PowerLawAlpha:      0.5,
		InitialAccessScore: 1.0,
		AccessBoost:        0.5,
		MinScore:           0.0,
		MaxScore:           10.0,
		ClampScores:        true,
		RetentionThreshold: 0.1,
	}
}

// Validate rejects inverted or out-of-range configuration.
func (c Config) Validate() error {
	if c.MinScore > c.MaxScore {
		return ErrInvalidConfig
	}
	if c.MinScore < 0 {
		return ErrInvalidConfig
	}
	if c.AccessBoost < 0 {
		return ErrInvalidConfig
	}
	switch c.Curve {
	case Ebbinghaus, PowerLaw, Hyperbolic, NoDecay:
	default:
		return ErrInvalidConfig
	}
	return nil
}

// Errors.
var (
	ErrNodeNotFound  = errors.New("memdecay: node not found")
	ErrInvalidConfig = errors.New("memdecay: invalid configuration")
)

// retentionFactor computes R(t_hours) for the given curve and scale.
func retentionFactor(curve Curve, scale, alpha, hours float64) float64 {
	switch curve {
	case Ebbinghaus:
		return math.Exp(-scale * hours)
	case PowerLaw:
		if hours <= 1 {
			return 1.0
		}
		return math.Pow(hours, -alpha)
	case Hyperbolic:
		return 1.0 / (1.0 + scale*hours)
	default: // NoDecay
		return 1.0
	}
}

// trackedNode is the snapshot the manager keeps per registered node:
// just enough to compute the current score on demand.
type trackedNode struct {
	accessScore float64
	accessedAt  *time.Time
}

// Manager owns per-node access-score state and the active decay
// configuration. Safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	nodes  map[model.NodeID]*trackedNode
	clock  func() time.Time
}

// New creates a Manager with the given configuration.
func New(cfg Config) *Manager {
	return &Manager{
		cfg:   cfg,
		nodes: make(map[model.NodeID]*trackedNode),
		clock: time.Now,
	}
}

// Register starts tracking n at its current access score (I4: the
// tracked set is always a subset of the node set — callers are
// responsible for calling Register only for live nodes and Unregister
// on delete).
func (m *Manager) Register(n *model.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	score := n.Meta.AccessScore
	if score == 0 {
		score = m.cfg.InitialAccessScore
	}
	var accessedAt *time.Time
	if n.Meta.AccessedAt != nil {
		t := *n.Meta.AccessedAt
		accessedAt = &t
	}
	m.nodes[n.ID] = &trackedNode{accessScore: score, accessedAt: accessedAt}
}

// Unregister stops tracking id. No-op if not tracked.
func (m *Manager) Unregister(id model.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, id)
}

// currentScoreLocked computes the current score for a tracked node.
// Caller must hold at least a read lock.
func (m *Manager) currentScoreLocked(tn *trackedNode, now time.Time) float64 {
	if tn.accessedAt == nil {
		return tn.accessScore
	}
	hours := now.Sub(*tn.accessedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	retention := retentionFactor(m.cfg.Curve, m.effectiveScale(), m.cfg.PowerLawAlpha, hours)
	current := tn.accessScore * retention
	if m.cfg.ClampScores {
		current = clamp(current, m.cfg.MinScore, m.cfg.MaxScore)
	}
	return current
}

func (m *Manager) effectiveScale() float64 {
	if m.cfg.DecayScale != 0 {
		return m.cfg.DecayScale
	}
	return DefaultConfig().DecayScale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetScore returns the current (decayed) score for a tracked node.
func (m *Manager) GetScore(id model.NodeID) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tn, ok := m.nodes[id]
	if !ok {
		return 0, ErrNodeNotFound
	}
	return m.currentScoreLocked(tn, m.clock()), nil
}

// GetAllScores returns the current score of every tracked node.
func (m *Manager) GetAllScores() map[model.NodeID]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.clock()
	out := make(map[model.NodeID]float64, len(m.nodes))
	for id, tn := range m.nodes {
		out[id] = m.currentScoreLocked(tn, now)
	}
	return out
}

// GetRetention returns the fraction of the initial access score still
// present for a tracked node (current / original access_score).
func (m *Manager) GetRetention(id model.NodeID) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tn, ok := m.nodes[id]
	if !ok {
		return 0, ErrNodeNotFound
	}
	if tn.accessScore == 0 {
		return 0, nil
	}
	return m.currentScoreLocked(tn, m.clock()) / tn.accessScore, nil
}

// RecordAccess boosts a node's score and resets its accessed_at to now.
// P7: this strictly increases current_score up to max_score.
func (m *Manager) RecordAccess(id model.NodeID) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tn, ok := m.nodes[id]
	if !ok {
		return 0, ErrNodeNotFound
	}
	now := m.clock()
	current := m.currentScoreLocked(tn, now)
	newScore := current + m.cfg.AccessBoost
	if m.cfg.ClampScores {
		newScore = clamp(newScore, m.cfg.MinScore, m.cfg.MaxScore)
	}
	tn.accessScore = newScore
	tn.accessedAt = &now
	return newScore, nil
}

// RecordAccessBatch folds RecordAccess over every id, collecting
// per-id errors rather than aborting on the first failure (bulk
// operations continue past per-item failures, per spec.md §7).
func (m *Manager) RecordAccessBatch(ids []model.NodeID) (map[model.NodeID]float64, map[model.NodeID]error) {
	scores := make(map[model.NodeID]float64, len(ids))
	errs := make(map[model.NodeID]error)
	for _, id := range ids {
		s, err := m.RecordAccess(id)
		if err != nil {
			errs[id] = err
			continue
		}
		scores[id] = s
	}
	return scores, errs
}

// PruneResult reports the outcome of a Prune call.
type PruneResult struct {
	PrunedIDs     []model.NodeID
	Count         int
	ScoreReclaimed float64
	DurationMS    float64
}

// Prune removes every tracked node whose current score is below
// min_score, returning what was removed. P9: every surviving node has
// current_score >= min_score immediately afterward. With ClampScores
// set, the current score of a node that has an access time is floored
// at min_score, so such a node is never removed.
func (m *Manager) Prune() PruneResult {
	start := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()

	var result PruneResult
	for id, tn := range m.nodes {
		score := m.currentScoreLocked(tn, now)
		if score < m.cfg.MinScore {
			result.PrunedIDs = append(result.PrunedIDs, id)
			result.ScoreReclaimed += score
			delete(m.nodes, id)
		}
	}
	result.Count = len(result.PrunedIDs)
	result.DurationMS = float64(m.clock().Sub(start).Microseconds()) / 1000.0
	return result
}

// Stats summarizes the tracked population.
type Stats struct {
	Total        int
	Active       int
	Decayed      int
	AverageScore float64
	LoadFactor   float64
}

// Stats computes aggregate statistics over the tracked set.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.clock()

	var s Stats
	s.Total = len(m.nodes)
	var sum float64
	for _, tn := range m.nodes {
		score := m.currentScoreLocked(tn, now)
		sum += score
		if score >= m.cfg.MinScore {
			s.Active++
		} else {
			s.Decayed++
		}
	}
	if s.Total > 0 {
		s.AverageScore = sum / float64(s.Total)
		s.LoadFactor = float64(s.Active) / float64(s.Total)
	}
	return s
}

// UpdateConfig validates and atomically replaces the active configuration.
func (m *Manager) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	return nil
}
