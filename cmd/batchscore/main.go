package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"exoscan/internal/ensemble"
)

// batchscore scores a CSV of transit observations offline and writes the
// results as JSON, one record per input row.
func main() {
	var (
		inputPath  = flag.String("input", "", "Path to input CSV of observations")
		modelPath  = flag.String("model", "trained_models", "Path or URL of the model artifact directory")
		outputPath = flag.String("output", "", "Output JSON file (default: stdout)")
		workers    = flag.Int("workers", runtime.NumCPU(), "Parallel scoring workers")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: batchscore -input observations.csv [-model dir] [-output results.json]")
		os.Exit(2)
	}

	rows, err := readObservations(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Str("input", *inputPath).Msg("failed to read observations")
	}
	log.Info().Int("rows", len(rows)).Msg("observations loaded")

	store, err := ensemble.LoadStore(*modelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("model store configuration invalid")
	}
	if !store.Ready() {
		log.Warn().Msg("model store degraded, every row will score as ERROR")
	}

	engine := ensemble.New(store, ensemble.WithWorkers(*workers))

	start := time.Now()
	outcomes := engine.PredictBatch(context.Background(), rows)
	summary := ensemble.Summarize(outcomes)

	records := make([]ensemble.Prediction, len(outcomes))
	for i, o := range outcomes {
		records[i] = o.Record()
	}

	if err := writeResults(*outputPath, records, summary); err != nil {
		log.Fatal().Err(err).Msg("failed to write results")
	}

	fmt.Fprintf(os.Stderr, "=== Batch Summary ===\n")
	fmt.Fprintf(os.Stderr, "Rows:       %d\n", summary.Total)
	fmt.Fprintf(os.Stderr, "Successful: %d\n", summary.Successful)
	fmt.Fprintf(os.Stderr, "Failed:     %d\n", summary.Failed)
	for label, n := range summary.ByLabel {
		fmt.Fprintf(os.Stderr, "  %-16s %d\n", label, n)
	}
	fmt.Fprintf(os.Stderr, "Elapsed:    %s\n", time.Since(start).Round(time.Millisecond))
}

func readObservations(path string) ([]ensemble.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []ensemble.Observation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(rows)+2, err)
		}
		obs := make(ensemble.Observation, len(header))
		for i, cell := range record {
			if i >= len(header) || cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
				obs[header[i]] = v
			}
		}
		rows = append(rows, obs)
	}
	return rows, nil
}

func writeResults(path string, records []ensemble.Prediction, summary ensemble.BatchSummary) error {
	out := struct {
		Summary ensemble.BatchSummary `json:"summary"`
		Results []ensemble.Prediction `json:"results"`
	}{Summary: summary, Results: records}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
