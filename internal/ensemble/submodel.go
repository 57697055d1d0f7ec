package ensemble

import (
	"encoding/json"
	"fmt"
	"math"
)

// NumClasses is the size of every sub-model's output distribution.
const NumClasses = 3

// Classifier is an opaque scoring sub-model: a feature vector in, a
// probability distribution over the three classes out.
type Classifier interface {
	Name() string
	PredictProba(vec FeatureVector) ([NumClasses]float64, error)
}

// Importancer is implemented by the sub-model that carries global
// per-feature importance scores aligned to the feature slots.
type Importancer interface {
	FeatureImportances() []float64
}

// forestNode is one node of a serialized decision tree. Leaf nodes carry a
// class distribution; internal nodes split on vec[Feature] <= Threshold.
type forestNode struct {
	Feature   int                 `json:"feature"`
	Threshold float64             `json:"threshold"`
	Left      int                 `json:"left"`
	Right     int                 `json:"right"`
	Leaf      bool                `json:"leaf"`
	Probs     [NumClasses]float64 `json:"probs,omitempty"`
}

// Forest is sub-model A: an averaged ensemble of decision trees. It also
// carries the trained global feature importances used for explainability.
type Forest struct {
	Trees       [][]forestNode `json:"trees"`
	Importances []float64      `json:"feature_importances"`
}

// LoadForest decodes a forest artifact and sanity-checks its structure.
func LoadForest(data []byte) (*Forest, error) {
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ConfigError{Artifact: "forest", Reason: err.Error()}
	}
	if len(f.Trees) == 0 {
		return nil, &ConfigError{Artifact: "forest", Reason: "no trees"}
	}
	if len(f.Importances) != NumFeatures {
		return nil, &ConfigError{
			Artifact: "forest",
			Reason:   fmt.Sprintf("expected %d importances, got %d", NumFeatures, len(f.Importances)),
		}
	}
	for ti, tree := range f.Trees {
		for ni, n := range tree {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= NumFeatures ||
				n.Left < 0 || n.Left >= len(tree) || n.Right < 0 || n.Right >= len(tree) {
				return nil, &ConfigError{
					Artifact: "forest",
					Reason:   fmt.Sprintf("tree %d node %d references out of range", ti, ni),
				}
			}
		}
	}
	return &f, nil
}

func (f *Forest) Name() string { return "forest" }

// PredictProba averages the leaf distributions reached by each tree.
func (f *Forest) PredictProba(vec FeatureVector) ([NumClasses]float64, error) {
	var sum [NumClasses]float64
	for ti, tree := range f.Trees {
		node := tree[0]
		for depth := 0; !node.Leaf; depth++ {
			if depth > len(tree) {
				return sum, fmt.Errorf("forest tree %d: cycle detected", ti)
			}
			if vec[node.Feature] <= node.Threshold {
				node = tree[node.Left]
			} else {
				node = tree[node.Right]
			}
		}
		for i := range sum {
			sum[i] += node.Probs[i]
		}
	}
	n := float64(len(f.Trees))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}

func (f *Forest) FeatureImportances() []float64 { return f.Importances }

// Softmax is sub-model B: a multinomial logistic model over the same feature
// layout. Scoring is a linear pass per class followed by a softmax, the same
// shape as a logistic-regression ranker.
type Softmax struct {
	Weights [NumClasses][]float64 `json:"weights"`
	Bias    [NumClasses]float64   `json:"bias"`
	// Scale optionally standardizes inputs before the linear pass.
	Mean  []float64 `json:"mean,omitempty"`
	Scale []float64 `json:"scale,omitempty"`
}

// LoadSoftmax decodes a softmax artifact and validates its layout against
// the engine's feature count.
func LoadSoftmax(data []byte) (*Softmax, error) {
	var m Softmax
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ConfigError{Artifact: "softmax", Reason: err.Error()}
	}
	for c, w := range m.Weights {
		if len(w) != NumFeatures {
			return nil, &ConfigError{
				Artifact: "softmax",
				Reason:   fmt.Sprintf("class %d: expected %d weights, got %d", c, NumFeatures, len(w)),
			}
		}
	}
	if m.Mean != nil && len(m.Mean) != NumFeatures {
		return nil, &ConfigError{Artifact: "softmax", Reason: "mean length mismatch"}
	}
	if m.Scale != nil && len(m.Scale) != NumFeatures {
		return nil, &ConfigError{Artifact: "softmax", Reason: "scale length mismatch"}
	}
	return &m, nil
}

func (m *Softmax) Name() string { return "softmax" }

func (m *Softmax) PredictProba(vec FeatureVector) ([NumClasses]float64, error) {
	var logits [NumClasses]float64
	for c := 0; c < NumClasses; c++ {
		z := m.Bias[c]
		for i := 0; i < NumFeatures; i++ {
			x := vec[i]
			if m.Mean != nil {
				x -= m.Mean[i]
			}
			if m.Scale != nil && m.Scale[i] != 0 {
				x /= m.Scale[i]
			}
			z += m.Weights[c][i] * x
		}
		logits[c] = z
	}

	// Max-shifted softmax for numeric stability.
	maxLogit := logits[0]
	for _, z := range logits[1:] {
		if z > maxLogit {
			maxLogit = z
		}
	}
	var probs [NumClasses]float64
	var total float64
	for c, z := range logits {
		probs[c] = math.Exp(z - maxLogit)
		total += probs[c]
	}
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return probs, fmt.Errorf("softmax: degenerate logits")
	}
	for c := range probs {
		probs[c] /= total
	}
	return probs, nil
}
