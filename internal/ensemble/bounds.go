package ensemble

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Range is an advisory per-feature valid interval derived from the training
// distribution. Values outside it are flagged, never rejected.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Bounds maps feature names to their advisory ranges.
type Bounds map[string]Range

// defaultBounds covers the handful of features the validator cares most
// about when no bounds artifact ships with the model.
func defaultBounds() Bounds {
	return Bounds{
		FeatPeriod:   {Min: 0.1, Max: 10000},
		FeatDepth:    {Min: 0.1, Max: 100000},
		FeatDuration: {Min: 0.1, Max: 48},
		FeatSNR:      {Min: 1.0, Max: 1000},
	}
}

// parseBounds decodes a bounds artifact. An empty or malformed artifact
// falls back to the hardcoded default table; validation stays advisory, so
// a missing table degrades coverage rather than correctness.
func parseBounds(data []byte) Bounds {
	if len(data) == 0 {
		log.Warn().Msg("no feature bounds artifact, using fallback table")
		return defaultBounds()
	}
	var b Bounds
	if err := json.Unmarshal(data, &b); err != nil {
		log.Warn().Err(err).Msg("unparseable feature bounds, using fallback table")
		return defaultBounds()
	}
	for name, r := range b {
		if r.Min > r.Max {
			log.Warn().Str("feature", name).
				Str("range", fmt.Sprintf("[%g, %g]", r.Min, r.Max)).
				Msg("inverted bounds range, dropping entry")
			delete(b, name)
		}
	}
	if len(b) == 0 {
		return defaultBounds()
	}
	return b
}
