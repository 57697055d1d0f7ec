package ensemble

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStore_Ready(t *testing.T) {
	t.Parallel()
	dir := writeArtifacts(t, nil)

	store, err := LoadStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.Ready() {
		t.Fatalf("expected Ready state, got %s", store.State())
	}
	if store.Version() != "test-1" {
		t.Errorf("expected version test-1, got %q", store.Version())
	}
	wA, wB := store.Weights()
	if wA != 0.6 || wB != 0.4 {
		t.Errorf("expected weights (0.6, 0.4), got (%g, %g)", wA, wB)
	}
	labels := store.Labels()
	if labels[0] != LabelFalsePositive || labels[2] != LabelConfirmed {
		t.Errorf("unexpected default labels: %v", labels)
	}
}

func TestLoadStore_MissingSubModelDegrades(t *testing.T) {
	t.Parallel()
	dir := writeArtifacts(t, nil)
	if err := os.Remove(filepath.Join(dir, softmaxArtifact)); err != nil {
		t.Fatal(err)
	}

	store, err := LoadStore(dir)
	if err != nil {
		t.Fatalf("missing sub-model must degrade, not fail: %v", err)
	}
	if store.State() != StateDegraded {
		t.Fatalf("expected Degraded state, got %s", store.State())
	}

	// Every prediction short-circuits.
	engine := New(store)
	if _, err := engine.Predict(nominalObservation()); !errors.Is(err, ErrDegraded) {
		t.Errorf("expected ErrDegraded, got %v", err)
	}
}

func TestLoadStore_UnparseableForestIsFatal(t *testing.T) {
	t.Parallel()
	dir := writeArtifacts(t, nil)
	if err := os.WriteFile(filepath.Join(dir, forestArtifact), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadStore(dir)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for unparseable artifact, got %v", err)
	}
}

func TestLoadStore_FeatureOrderMismatchIsFatal(t *testing.T) {
	t.Parallel()
	badOrder := FeatureNames()
	badOrder[0], badOrder[1] = badOrder[1], badOrder[0]
	dir := writeArtifacts(t, map[string]any{
		"version":  "bad",
		"features": badOrder,
	})

	_, err := LoadStore(dir)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for feature order mismatch, got %v", err)
	}
}

func TestLoadStore_MatchingFeatureOrderAccepted(t *testing.T) {
	t.Parallel()
	dir := writeArtifacts(t, map[string]any{
		"version":  "ok",
		"features": FeatureNames(),
	})

	store, err := LoadStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.Ready() {
		t.Errorf("expected Ready, got %s", store.State())
	}
}

func TestLoadStore_TargetMapByIndex(t *testing.T) {
	t.Parallel()
	dir := writeArtifacts(t, map[string]any{
		"target_map": map[string]any{"0": "FALSE POSITIVE", "1": "CANDIDATE", "2": "CONFIRMED"},
	})

	store, err := LoadStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels := store.Labels()
	if labels != [NumClasses]string{LabelFalsePositive, LabelCandidate, LabelConfirmed} {
		t.Errorf("unexpected labels: %v", labels)
	}
}

func TestLoadStore_InvertedTargetMapNormalized(t *testing.T) {
	t.Parallel()
	// Label-keyed map, as some training pipelines emit it.
	dir := writeArtifacts(t, map[string]any{
		"target_map": map[string]any{"FALSE POSITIVE": 0, "CANDIDATE": 1, "CONFIRMED": 2},
	})

	store, err := LoadStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels := store.Labels()
	if labels != [NumClasses]string{LabelFalsePositive, LabelCandidate, LabelConfirmed} {
		t.Errorf("inverted map not normalized: %v", labels)
	}
}

func TestLoadStore_NonBijectiveTargetMapIsFatal(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		m    map[string]any
	}{
		{"duplicate index", map[string]any{"A": 0, "B": 0, "C": 1}},
		{"index out of range", map[string]any{"A": 0, "B": 1, "C": 7}},
		{"too few entries", map[string]any{"0": "A", "1": "B"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeArtifacts(t, map[string]any{"target_map": tc.m})
			_, err := LoadStore(dir)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestLoadStore_BlendWeightsNormalized(t *testing.T) {
	t.Parallel()
	dir := writeArtifacts(t, map[string]any{
		"weight_a": 3.0,
		"weight_b": 1.0,
	})

	store, err := LoadStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wA, wB := store.Weights()
	if math.Abs(wA-0.75) > 1e-12 || math.Abs(wB-0.25) > 1e-12 {
		t.Errorf("expected normalized weights (0.75, 0.25), got (%g, %g)", wA, wB)
	}
	if math.Abs(wA+wB-1.0) > 1e-12 {
		t.Errorf("weights must sum to 1, got %g", wA+wB)
	}
}

func TestLoadStore_MissingBoundsFallsBack(t *testing.T) {
	t.Parallel()
	dir := writeArtifacts(t, nil)
	if err := os.Remove(filepath.Join(dir, boundsArtifact)); err != nil {
		t.Fatal(err)
	}

	store, err := LoadStore(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.Ready() {
		t.Errorf("missing bounds must not degrade scoring, got %s", store.State())
	}
	if _, ok := store.Bounds()[FeatPeriod]; !ok {
		t.Error("fallback bounds should cover koi_period")
	}
}

func TestLoadForest_RejectsBadStructure(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		f    Forest
	}{
		{"no trees", Forest{Importances: make([]float64, NumFeatures)}},
		{"importances mismatch", Forest{
			Trees:       [][]forestNode{{{Leaf: true}}},
			Importances: []float64{1, 2, 3},
		}},
		{"node out of range", Forest{
			Trees:       [][]forestNode{{{Feature: 99, Left: 0, Right: 0}}},
			Importances: make([]float64, NumFeatures),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.f)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := LoadForest(data); err == nil {
				t.Error("expected load failure")
			}
		})
	}
}

func TestForest_PredictProbaWalksTree(t *testing.T) {
	t.Parallel()
	// Root splits on koi_period <= 5: left leaf favors FALSE POSITIVE,
	// right leaf favors CONFIRMED.
	f := &Forest{
		Trees: [][]forestNode{{
			{Feature: 0, Threshold: 5.0, Left: 1, Right: 2},
			{Leaf: true, Probs: [NumClasses]float64{0.8, 0.1, 0.1}},
			{Leaf: true, Probs: [NumClasses]float64{0.1, 0.1, 0.8}},
		}},
		Importances: make([]float64, NumFeatures),
	}

	short := EngineerFeatures(Observation{FeatPeriod: 2.0})
	long := EngineerFeatures(Observation{FeatPeriod: 50.0})

	probsShort, err := f.PredictProba(short)
	if err != nil {
		t.Fatal(err)
	}
	probsLong, err := f.PredictProba(long)
	if err != nil {
		t.Fatal(err)
	}
	if probsShort[0] != 0.8 || probsLong[2] != 0.8 {
		t.Errorf("tree walk wrong: short=%v long=%v", probsShort, probsLong)
	}
}

func TestSoftmax_DistributionSumsToOne(t *testing.T) {
	t.Parallel()
	m := &Softmax{Bias: [NumClasses]float64{1.5, -0.5, 0.2}}
	for c := range m.Weights {
		w := make([]float64, NumFeatures)
		w[0] = 0.001 * float64(c+1)
		m.Weights[c] = w
	}

	probs, err := m.PredictProba(EngineerFeatures(nominalObservation()))
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("probability out of range: %v", probs)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > probTolerance {
		t.Errorf("softmax distribution sums to %g", sum)
	}
}
