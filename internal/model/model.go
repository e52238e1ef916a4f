// Package model evaluates the trained RUL regressor: a gradient-boosted
// ensemble of regression trees exported to a JSON artifact.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
)

// RUL predictions are clipped to this range; the target was capped at 125
// cycles during training.
const (
	MinRUL = 0.0
	MaxRUL = 125.0
)

// Node is one node of a regression tree. Children are indexes into the
// tree's node slice; a node with Left < 0 is a leaf and Value is its
// prediction contribution.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a single regression tree stored as a flat node array, root first.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Artifact is the on-disk model format: ensemble, base score, the ordered
// feature columns the trees index into, and training metadata surfaced by
// the model-info endpoint.
type Artifact struct {
	ModelType       string             `json:"model_type"`
	Version         string             `json:"version"`
	BaseScore       float64            `json:"base_score"`
	FeatureColumns  []string           `json:"feature_columns"`
	Trees           []Tree             `json:"trees"`
	Hyperparameters map[string]float64 `json:"hyperparameters,omitempty"`
	Performance     map[string]float64 `json:"performance,omitempty"`
}

// Regressor evaluates a loaded artifact. Safe for concurrent use.
type Regressor struct {
	mu       sync.RWMutex
	artifact Artifact
	loaded   bool
}

// New returns an empty, unloaded Regressor.
func New() *Regressor {
	return &Regressor{}
}

// LoadFile reads and validates a model artifact from disk.
func (r *Regressor) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading model artifact: %w", err)
	}
	return r.Load(data)
}

// Load parses and validates a JSON model artifact.
func (r *Regressor) Load(data []byte) error {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("parsing model artifact: %w", err)
	}
	if err := validateArtifact(a); err != nil {
		return fmt.Errorf("validating model artifact: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifact = a
	r.loaded = true
	return nil
}

func validateArtifact(a Artifact) error {
	if len(a.Trees) == 0 {
		return errors.New("artifact contains no trees")
	}
	if len(a.FeatureColumns) == 0 {
		return errors.New("artifact contains no feature columns")
	}
	width := len(a.FeatureColumns)
	for ti, tree := range a.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range tree.Nodes {
			if n.Left < 0 {
				continue // leaf
			}
			if n.Right < 0 || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d has out-of-range children", ti, ni)
			}
			if n.Feature < 0 || n.Feature >= width {
				return fmt.Errorf("tree %d node %d splits on unknown feature %d", ti, ni, n.Feature)
			}
		}
	}
	return nil
}

// Loaded reports whether an artifact has been loaded.
func (r *Regressor) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// FeatureColumns returns the ordered engineered columns the model expects.
func (r *Regressor) FeatureColumns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.artifact.FeatureColumns))
	copy(out, r.artifact.FeatureColumns)
	return out
}

// Info returns a copy of the loaded artifact's metadata with the tree
// ensemble omitted.
func (r *Regressor) Info() Artifact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := r.artifact
	info.Trees = nil
	info.FeatureColumns = append([]string(nil), r.artifact.FeatureColumns...)
	return info
}

// NumTrees returns the ensemble size.
func (r *Regressor) NumTrees() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.artifact.Trees)
}

// Predict evaluates the ensemble for one sample, ordered per
// FeatureColumns, and returns the RUL clipped to [MinRUL, MaxRUL].
func (r *Regressor) Predict(sample []float64) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.loaded {
		return 0, errors.New("model not loaded")
	}
	if len(sample) != len(r.artifact.FeatureColumns) {
		return 0, fmt.Errorf("sample has %d features, model expects %d",
			len(sample), len(r.artifact.FeatureColumns))
	}

	sum := r.artifact.BaseScore
	for _, tree := range r.artifact.Trees {
		sum += evalTree(tree, sample)
	}
	return math.Min(MaxRUL, math.Max(MinRUL, sum)), nil
}

func evalTree(t Tree, sample []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if sample[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// ClassifyRUL maps a predicted RUL to the engine health status and the
// reported prediction confidence.
func ClassifyRUL(rul float64) (status, confidence string) {
	switch {
	case rul < 30:
		return "Critical", "High"
	case rul < 80:
		return "Warning", "Medium"
	default:
		return "Healthy", "High"
	}
}
