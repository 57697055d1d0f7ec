package ensemble

import "sort"

// topFeatureCount bounds the explainability ranking returned per prediction.
const topFeatureCount = 10

// RankImportances returns the top features of the importance-bearing
// sub-model, sorted descending with ties broken by original slot order. The
// ranking is a property of the loaded model, not of any single observation:
// every prediction against the same store carries the same ranking.
func RankImportances(model Classifier) []FeatureWeight {
	imp, ok := model.(Importancer)
	if !ok {
		return []FeatureWeight{}
	}
	scores := imp.FeatureImportances()
	n := len(scores)
	if n > NumFeatures {
		n = NumFeatures
	}

	ranked := make([]FeatureWeight, 0, n)
	for i := 0; i < n; i++ {
		ranked = append(ranked, FeatureWeight{Name: featureOrder[i], Weight: scores[i]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})
	if len(ranked) > topFeatureCount {
		ranked = ranked[:topFeatureCount]
	}
	return ranked
}
