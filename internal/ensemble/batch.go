package ensemble

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// batchLogEvery controls progress logging cadence for large batches.
const batchLogEvery = 100

// PredictBatch applies the single-item pipeline to every row and returns one
// outcome per input, in input order. A failure on one row is contained to
// that row's outcome; sibling rows are unaffected. Rows are scored by a
// bounded worker pool when the engine is configured with more than one
// worker, with results written positionally so parallelism never reorders
// the output. The context only gates scheduling of not-yet-started rows; the
// returned slice always has one slot per input.
func (e *Engine) PredictBatch(ctx context.Context, rows []Observation) []Outcome {
	outcomes := make([]Outcome, len(rows))
	if len(rows) == 0 {
		return outcomes
	}

	if e.workers <= 1 {
		for i, row := range rows {
			outcomes[i] = e.predictRow(i, row)
			if (i+1)%batchLogEvery == 0 {
				log.Info().Int("done", i+1).Int("total", len(rows)).Msg("batch progress")
			}
		}
		return outcomes
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			outcomes[i] = Outcome{Index: i, Err: &RowError{Index: i, Err: err}}
			continue
		}
		i, row := i, row
		g.Go(func() error {
			outcomes[i] = e.predictRow(i, row)
			return nil
		})
	}
	// Workers never return errors; failures live in the outcome slots.
	_ = g.Wait()
	return outcomes
}

func (e *Engine) predictRow(i int, row Observation) Outcome {
	pred, err := e.Predict(row)
	if err != nil {
		log.Warn().Err(err).Int("row", i).Msg("batch row failed")
		return Outcome{Index: i, Err: &RowError{Index: i, Err: err}}
	}
	return Outcome{Index: i, Prediction: pred}
}

// BatchSummary aggregates a batch for reporting: per-label counts plus how
// many rows succeeded or failed.
type BatchSummary struct {
	Total      int            `json:"total_processed"`
	Successful int            `json:"successful_predictions"`
	Failed     int            `json:"failed_predictions"`
	ByLabel    map[string]int `json:"class_counts"`
}

// Summarize tallies batch outcomes.
func Summarize(outcomes []Outcome) BatchSummary {
	s := BatchSummary{
		Total:   len(outcomes),
		ByLabel: map[string]int{},
	}
	for _, o := range outcomes {
		if o.Ok() {
			s.Successful++
			s.ByLabel[o.Prediction.Label]++
		} else {
			s.Failed++
			s.ByLabel[ErrorLabel]++
		}
	}
	return s
}
