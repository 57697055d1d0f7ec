// Dumps recent records from the prediction archive for debugging.
//
// Usage:
//
//	go run ./scripts/inspect-data -data data -limit 20
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"exoscan/internal/storage"
)

func main() {
	var (
		dataPath = flag.String("data", "data", "Data directory path")
		limit    = flag.Int("limit", 20, "Number of records to show")
		asJSON   = flag.Bool("json", false, "Emit raw JSON instead of a summary line per record")
	)
	flag.Parse()

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer store.Close()

	preds, err := store.RecentPredictions(*limit)
	if err != nil {
		log.Fatalf("Failed to read predictions: %v", err)
	}
	batches, err := store.RecentBatches(*limit)
	if err != nil {
		log.Fatalf("Failed to read batches: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"predictions": preds, "batches": batches}); err != nil {
			log.Fatalf("Failed to encode: %v", err)
		}
		return
	}

	fmt.Printf("Predictions (%d):\n", len(preds))
	for _, p := range preds {
		fmt.Printf("  %s  %-8s  %-15s  conf=%.3f  warnings=%d\n",
			p.Ts.Format("2006-01-02 15:04:05"), p.Source, p.Result.Label,
			p.Result.Confidence, len(p.Result.Warnings))
	}

	fmt.Printf("Batches (%d):\n", len(batches))
	for _, b := range batches {
		fmt.Printf("  %s  %-8s  total=%d ok=%d failed=%d  took=%s\n",
			b.Ts.Format("2006-01-02 15:04:05"), b.Source,
			b.Summary.Total, b.Summary.Successful, b.Summary.Failed, b.Duration)
	}
}
