// Package ensemble implements the transit-disposition prediction engine: a
// two-model ensemble over engineered orbital features, with advisory physics
// validation, model-level explainability, and batch orchestration.
//
// The engine classifies a transiting-object observation into one of three
// dispositions (CONFIRMED, CANDIDATE, FALSE POSITIVE). All components are
// pure functions over the immutable model store, so a single Engine is safe
// for arbitrarily many concurrent callers.
package ensemble

import (
	"fmt"
	"math"
	"time"
)

// probTolerance is the floating slack allowed when checking that a
// sub-model's distribution sums to one.
const probTolerance = 1e-6

// MetricsSink is the narrow metrics surface the engine needs. A nil sink
// disables instrumentation.
type MetricsSink interface {
	PredictionsInc()
	RowFailuresInc()
	DegradedInc()
	ValidationWarningsAdd(int)
	ScoreLatencyObserve(float64)
}

// Engine runs the single-observation pipeline against a loaded store.
type Engine struct {
	store       *Store
	metrics     MetricsSink
	workers     int
	topFeatures []FeatureWeight
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches a metrics sink.
func WithMetrics(m MetricsSink) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithWorkers bounds batch parallelism. Values below 1 fall back to
// sequential processing.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New builds an engine over the store. The explainability ranking is a
// model-level property, so it is computed once here rather than per
// prediction.
func New(store *Store, opts ...Option) *Engine {
	e := &Engine{store: store, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	if store.modelA != nil {
		e.topFeatures = RankImportances(store.modelA)
	} else {
		e.topFeatures = []FeatureWeight{}
	}
	return e
}

// Store exposes the underlying model store for health reporting.
func (e *Engine) Store() *Store { return e.store }

// TopFeatures returns the model-level importance ranking shared by every
// prediction made against this engine.
func (e *Engine) TopFeatures() []FeatureWeight {
	out := make([]FeatureWeight, len(e.topFeatures))
	copy(out, e.topFeatures)
	return out
}

// Predict runs validation, feature engineering, ensemble scoring, and
// light-curve synthesis for one observation. A degraded store returns
// ErrDegraded without touching either sub-model; a scoring fault returns a
// plain error for the caller to contain. Identical inputs against the same
// store produce identical results.
func (e *Engine) Predict(obs Observation) (*Prediction, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.ScoreLatencyObserve(time.Since(start).Seconds())
		}
	}()

	if !e.store.Ready() {
		if e.metrics != nil {
			e.metrics.DegradedInc()
		}
		return nil, ErrDegraded
	}

	warnings := ValidateObservation(obs, e.store.bounds)
	vec := EngineerFeatures(obs)

	combined, err := e.score(vec)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RowFailuresInc()
		}
		return nil, err
	}

	// Argmax with lowest-index tie break keeps the label deterministic.
	best := 0
	for i := 1; i < NumClasses; i++ {
		if combined[i] > combined[best] {
			best = i
		}
	}

	labels := e.store.labels
	probs := make(map[string]float64, NumClasses)
	for i, p := range combined {
		probs[labels[i]] = p
	}

	if e.metrics != nil {
		e.metrics.PredictionsInc()
		e.metrics.ValidationWarningsAdd(len(warnings))
	}

	return &Prediction{
		Label:         labels[best],
		Confidence:    combined[best],
		Probabilities: probs,
		TopFeatures:   e.TopFeatures(),
		Warnings:      warnings,
		LightCurve:    SynthesizeLightCurve(obs),
	}, nil
}

// score invokes both sub-models and blends their distributions with the
// store's weight pair.
func (e *Engine) score(vec FeatureVector) ([NumClasses]float64, error) {
	var combined [NumClasses]float64

	probsA, err := e.store.modelA.PredictProba(vec)
	if err != nil {
		return combined, fmt.Errorf("sub-model %s: %w", e.store.modelA.Name(), err)
	}
	if err := checkDistribution(probsA); err != nil {
		return combined, fmt.Errorf("sub-model %s: %w", e.store.modelA.Name(), err)
	}

	probsB, err := e.store.modelB.PredictProba(vec)
	if err != nil {
		return combined, fmt.Errorf("sub-model %s: %w", e.store.modelB.Name(), err)
	}
	if err := checkDistribution(probsB); err != nil {
		return combined, fmt.Errorf("sub-model %s: %w", e.store.modelB.Name(), err)
	}

	for i := 0; i < NumClasses; i++ {
		combined[i] = e.store.weightA*probsA[i] + e.store.weightB*probsB[i]
	}
	return combined, nil
}

func checkDistribution(probs [NumClasses]float64) error {
	var sum float64
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("invalid probability at class %d: %g", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > probTolerance {
		return fmt.Errorf("distribution sums to %g", sum)
	}
	return nil
}
