package metrics

// Wrapper adapts Metrics to the narrow sink interface the ensemble engine
// consumes, keeping the engine free of a direct Prometheus dependency.
type Wrapper struct {
	m *Metrics
}

// NewWrapper wraps a Metrics set for injection into the engine.
func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) PredictionsInc() { w.m.Predictions.Inc() }

func (w *Wrapper) RowFailuresInc() { w.m.RowFailures.Inc() }

func (w *Wrapper) DegradedInc() { w.m.DegradedRequests.Inc() }

func (w *Wrapper) ValidationWarningsAdd(n int) {
	w.m.ValidationWarnings.Add(float64(n))
}

func (w *Wrapper) ScoreLatencyObserve(seconds float64) {
	w.m.ScoreLatency.Observe(seconds)
}
