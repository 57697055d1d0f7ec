package ensemble

import (
	"testing"
)

func TestRankImportances_TopTenDescending(t *testing.T) {
	t.Parallel()
	importances := make([]float64, NumFeatures)
	for i := range importances {
		importances[i] = float64(i) // slot 25 is the most important
	}
	forest := leafForest([NumClasses]float64{0.2, 0.3, 0.5}, importances)

	ranked := RankImportances(forest)
	if len(ranked) != topFeatureCount {
		t.Fatalf("expected top %d features, got %d", topFeatureCount, len(ranked))
	}
	if ranked[0].Name != "duration_impact_ratio" || ranked[0].Weight != 25 {
		t.Errorf("expected duration_impact_ratio first, got %+v", ranked[0])
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Weight > ranked[i-1].Weight {
			t.Errorf("ranking not descending at position %d: %v", i, ranked)
		}
	}
}

func TestRankImportances_TiesKeepSlotOrder(t *testing.T) {
	t.Parallel()
	importances := make([]float64, NumFeatures)
	for i := range importances {
		importances[i] = 1.0
	}
	forest := leafForest([NumClasses]float64{0.2, 0.3, 0.5}, importances)

	ranked := RankImportances(forest)
	for i, fw := range ranked {
		if fw.Name != featureOrder[i] {
			t.Errorf("tie at position %d broke slot order: got %s, want %s",
				i, fw.Name, featureOrder[i])
		}
	}
}

func TestRankImportances_NonImportancerModel(t *testing.T) {
	t.Parallel()
	if ranked := RankImportances(uniformSoftmax()); len(ranked) != 0 {
		t.Errorf("expected empty ranking for model without importances, got %v", ranked)
	}
}

func TestEngine_RankingIsModelLevel(t *testing.T) {
	t.Parallel()
	importances := make([]float64, NumFeatures)
	importances[4] = 0.9 // koi_model_snr dominates
	store := newReadyStore(leafForest([NumClasses]float64{0.2, 0.3, 0.5}, importances), uniformSoftmax())
	engine := New(store)

	a, err := engine.Predict(Observation{FeatPeriod: 1, FeatDepth: 10, FeatDuration: 1})
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.Predict(Observation{FeatPeriod: 900, FeatDepth: 90000, FeatDuration: 14})
	if err != nil {
		t.Fatal(err)
	}

	if len(a.TopFeatures) == 0 || a.TopFeatures[0].Name != FeatSNR {
		t.Fatalf("expected %s to rank first, got %v", FeatSNR, a.TopFeatures)
	}
	// The ranking characterizes the model, not the observation.
	for i := range a.TopFeatures {
		if a.TopFeatures[i] != b.TopFeatures[i] {
			t.Fatal("importance ranking varied between observations")
		}
	}
}
