package ensemble

import (
	"errors"
	"fmt"

	"exoscan/internal/common"
)

// Disposition labels form a closed set fixed at load time.
const (
	LabelFalsePositive = common.LabelFalsePositive
	LabelCandidate     = common.LabelCandidate
	LabelConfirmed     = common.LabelConfirmed

	// ErrorLabel is the reserved sentinel used only in the wire form of a
	// failed outcome. It is never produced by a healthy scoring pass.
	ErrorLabel = common.LabelError
)

// FeatureWeight pairs a feature name with its global importance score.
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Prediction is the success variant of a scoring outcome. It is immutable
// once constructed.
type Prediction struct {
	Label         string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	TopFeatures   []FeatureWeight    `json:"feature_importance"`
	Warnings      []string           `json:"validation_warnings"`
	LightCurve    LightCurve         `json:"light_curve_params"`
}

// ConfigError reports a fatal load-time problem: an unparseable artifact, a
// feature layout that disagrees with the engine, or a class map that is not a
// bijection. It is the only error class allowed to stop the system from ever
// producing results.
type ConfigError struct {
	Artifact string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("model config: %s: %s", e.Artifact, e.Reason)
}

// ErrDegraded is returned for every prediction attempted against a store
// that failed to load. It is persistent but non-fatal: callers render it as
// the reserved ERROR record.
var ErrDegraded = errors.New("model store degraded, predictions unavailable")

// RowError wraps a failure scoped to a single observation. Inside a batch it
// never propagates to sibling rows.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Outcome is the tagged per-row result of batch processing: exactly one of
// Prediction or Err is set. Index correlates the outcome with the input row.
type Outcome struct {
	Index      int
	Prediction *Prediction
	Err        error
}

// Ok reports whether the outcome carries a successful prediction.
func (o Outcome) Ok() bool { return o.Err == nil && o.Prediction != nil }

// Record materializes the wire form of the outcome. Failures become the
// reserved ERROR record so a batch always serializes to one row per input.
func (o Outcome) Record() Prediction {
	if o.Ok() {
		return *o.Prediction
	}
	return ErrorRecord(o.Err)
}

// ErrorRecord is the reserved failure record: label ERROR, zero confidence,
// a single-element distribution, and the failure reason as a warning.
func ErrorRecord(err error) Prediction {
	warnings := []string{}
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	return Prediction{
		Label:         ErrorLabel,
		Confidence:    0.0,
		Probabilities: map[string]float64{ErrorLabel: 1.0},
		TopFeatures:   []FeatureWeight{},
		Warnings:      warnings,
	}
}
