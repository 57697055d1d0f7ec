package ensemble

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// leafForest builds a single-tree forest whose root is a leaf, so every
// input scores the same distribution.
func leafForest(probs [NumClasses]float64, importances []float64) *Forest {
	if importances == nil {
		importances = make([]float64, NumFeatures)
	}
	return &Forest{
		Trees:       [][]forestNode{{{Leaf: true, Probs: probs}}},
		Importances: importances,
	}
}

// uniformSoftmax scores 1/3 per class for any input.
func uniformSoftmax() *Softmax {
	var m Softmax
	for c := range m.Weights {
		m.Weights[c] = make([]float64, NumFeatures)
	}
	return &m
}

// stubModel lets tests inject per-row scoring failures.
type stubModel struct {
	probs  [NumClasses]float64
	failOn func(vec FeatureVector) bool
}

func (s *stubModel) Name() string { return "stub" }

func (s *stubModel) PredictProba(vec FeatureVector) ([NumClasses]float64, error) {
	if s.failOn != nil && s.failOn(vec) {
		return s.probs, fmt.Errorf("injected scoring fault")
	}
	return s.probs, nil
}

// newReadyStore assembles a Ready store without touching the filesystem.
func newReadyStore(a, b Classifier) *Store {
	return &Store{
		state:   StateReady,
		modelA:  a,
		modelB:  b,
		weightA: 0.6,
		weightB: 0.4,
		labels:  [NumClasses]string{LabelFalsePositive, LabelCandidate, LabelConfirmed},
		bounds:  defaultBounds(),
	}
}

func newDegradedStore() *Store {
	return &Store{
		state:   StateDegraded,
		weightA: 0.6,
		weightB: 0.4,
		labels:  [NumClasses]string{LabelFalsePositive, LabelCandidate, LabelConfirmed},
		bounds:  defaultBounds(),
	}
}

// writeArtifacts writes a complete, loadable model directory and returns its
// path. Individual artifacts can be overridden or removed by the caller.
func writeArtifacts(t *testing.T, meta map[string]any) string {
	t.Helper()
	dir := t.TempDir()

	forest := leafForest([NumClasses]float64{0.2, 0.3, 0.5}, nil)
	writeJSON(t, filepath.Join(dir, forestArtifact), forest)

	sm := uniformSoftmax()
	writeJSON(t, filepath.Join(dir, softmaxArtifact), sm)

	if meta == nil {
		meta = map[string]any{
			"version":  "test-1",
			"weight_a": 0.6,
			"weight_b": 0.4,
		}
	}
	writeJSON(t, filepath.Join(dir, metadataArtifact), meta)

	writeJSON(t, filepath.Join(dir, boundsArtifact), defaultBounds())
	return dir
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
