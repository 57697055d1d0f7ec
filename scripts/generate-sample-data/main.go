// Generates a synthetic observation CSV plus a toy model artifact directory,
// enough to exercise the full scoring path without real trained models.
//
// Usage:
//
//	go run ./scripts/generate-sample-data -out sample.csv -models trained_models -rows 500
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"exoscan/internal/ensemble"
)

func main() {
	var (
		outPath   = flag.String("out", "sample.csv", "Output CSV path")
		modelsDir = flag.String("models", "", "Also write toy model artifacts to this directory")
		rows      = flag.Int("rows", 500, "Number of observations to generate")
		seed      = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	fmt.Printf("Generating %d observations to %s...\n", *rows, *outPath)
	if err := writeCSV(*outPath, *rows, rng); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}

	if *modelsDir != "" {
		fmt.Printf("Writing toy model artifacts to %s...\n", *modelsDir)
		if err := writeArtifacts(*modelsDir, rng); err != nil {
			log.Fatalf("Failed to write artifacts: %v", err)
		}
	}
	fmt.Println("Done.")
}

var csvColumns = []string{
	"koi_period", "koi_depth", "koi_duration", "koi_impact", "koi_model_snr",
	"koi_prad", "koi_teq", "koi_insol", "koi_steff", "koi_slogg", "koi_srad",
	"koi_fpflag_nt", "koi_fpflag_ss", "koi_fpflag_co", "koi_fpflag_ec",
}

// writeCSV emits rows drawn from three rough populations: clean transits,
// marginal candidates, and obvious false positives with vetting flags set.
func writeCSV(path string, rows int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		obs := sampleObservation(rng)
		record := make([]string, len(csvColumns))
		for j, col := range csvColumns {
			record[j] = strconv.FormatFloat(obs[col], 'g', 6, 64)
		}
		// Sprinkle in some missing cells so defaults get exercised.
		if rng.Float64() < 0.05 {
			record[rng.Intn(len(record))] = ""
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func sampleObservation(rng *rand.Rand) map[string]float64 {
	steff := 4500 + rng.Float64()*2500
	srad := 0.5 + rng.Float64()*1.5
	period := 0.5 + rng.ExpFloat64()*20
	prad := 0.5 + rng.ExpFloat64()*2

	// Depth roughly consistent with the radius ratio, then perturbed.
	earthToSolar := 0.009168
	expected := (prad * earthToSolar / srad) * (prad * earthToSolar / srad) * 1e6
	depth := expected * (0.7 + rng.Float64()*0.6)

	obs := map[string]float64{
		"koi_period":    period,
		"koi_depth":     depth,
		"koi_duration":  1 + rng.Float64()*8,
		"koi_impact":    rng.Float64(),
		"koi_model_snr": 5 + rng.ExpFloat64()*25,
		"koi_prad":      prad,
		"koi_teq":       200 + rng.Float64()*1500,
		"koi_insol":     rng.ExpFloat64() * 100,
		"koi_steff":     steff,
		"koi_slogg":     4.0 + rng.Float64()*0.8,
		"koi_srad":      srad,
		"koi_fpflag_nt": 0, "koi_fpflag_ss": 0, "koi_fpflag_co": 0, "koi_fpflag_ec": 0,
	}

	// A fifth of the population are likely false positives: deep, flagged,
	// or depth inconsistent with the claimed planet radius.
	if rng.Float64() < 0.2 {
		obs["koi_depth"] *= 5 + rng.Float64()*20
		flag := []string{"koi_fpflag_nt", "koi_fpflag_ss", "koi_fpflag_co", "koi_fpflag_ec"}[rng.Intn(4)]
		obs[flag] = 1
	}
	return obs
}

// writeArtifacts emits a loadable toy model: a small random forest whose
// leaves lean on the vetting flags, a near-uniform softmax, and metadata.
func writeArtifacts(dir string, rng *rand.Rand) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	type node struct {
		Feature   int        `json:"feature"`
		Threshold float64    `json:"threshold"`
		Left      int        `json:"left"`
		Right     int        `json:"right"`
		Leaf      bool       `json:"leaf"`
		Probs     [3]float64 `json:"probs,omitempty"`
	}

	// One stump per vetting flag: flag set leans FALSE POSITIVE, clear
	// leans CONFIRMED.
	var trees [][]node
	for _, feat := range []int{11, 12, 13, 14} {
		trees = append(trees, []node{
			{Feature: feat, Threshold: 0.5, Left: 1, Right: 2},
			{Leaf: true, Probs: [3]float64{0.1, 0.3, 0.6}},
			{Leaf: true, Probs: [3]float64{0.8, 0.15, 0.05}},
		})
	}

	importances := make([]float64, ensemble.NumFeatures)
	for i := range importances {
		importances[i] = rng.Float64()
	}

	weights := make([][]float64, 3)
	for c := range weights {
		weights[c] = make([]float64, ensemble.NumFeatures)
		for i := range weights[c] {
			weights[c][i] = rng.NormFloat64() * 0.01
		}
	}

	artifacts := map[string]any{
		"forest.json": map[string]any{
			"trees":               trees,
			"feature_importances": importances,
		},
		"softmax.json": map[string]any{
			"weights": weights,
			"bias":    []float64{0, 0, 0},
		},
		"metadata.json": map[string]any{
			"version":  "toy-0.1",
			"weight_a": 0.6,
			"weight_b": 0.4,
			"features": ensemble.FeatureNames(),
			"target_map": map[string]int{
				"FALSE POSITIVE": 0, "CANDIDATE": 1, "CONFIRMED": 2,
			},
		},
		"bounds.json": map[string]any{
			"koi_period":    map[string]float64{"min": 0.1, "max": 10000},
			"koi_depth":     map[string]float64{"min": 0.1, "max": 100000},
			"koi_duration":  map[string]float64{"min": 0.1, "max": 48},
			"koi_model_snr": map[string]float64{"min": 1, "max": 1000},
		},
	}

	for name, v := range artifacts {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
