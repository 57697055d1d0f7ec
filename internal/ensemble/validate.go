package ensemble

import (
	"fmt"
	"math"
)

const (
	// snrThreshold is the conventional detection reliability floor.
	snrThreshold = 7.0
	// maxDurationFraction caps transit duration at 10% of the orbital period.
	maxDurationFraction = 0.1
	// depthToleranceFactor allows the observed depth to deviate from the
	// geometric expectation by up to a factor of 2 in either direction
	// before flagging.
	// TODO(calibration): the (Rp/Rs)^2 expectation in ppm flags even a
	// nominal Earth-analog observation; revisit the unit conversion against
	// the training set before loosening the factor.
	depthToleranceFactor = 2.0
)

var requiredFeatures = []string{FeatPeriod, FeatDepth, FeatDuration}

// ValidateObservation runs the advisory checks against a raw observation:
// required-field presence, training bounds, and physics consistency. Every
// check is evaluated independently; none short-circuits another, and none
// blocks prediction. The returned warnings annotate the eventual result.
func ValidateObservation(obs Observation, bounds Bounds) []string {
	warnings := []string{}

	for _, name := range requiredFeatures {
		v, ok := obs[name]
		switch {
		case !ok || math.IsNaN(v):
			warnings = append(warnings, fmt.Sprintf("missing required feature: %s", name))
		case v <= 0:
			warnings = append(warnings, fmt.Sprintf("%s must be positive, got %g", name, v))
		}
	}

	for _, name := range featureOrder {
		v, ok := obs[name]
		if !ok || math.IsNaN(v) {
			continue
		}
		r, ok := bounds[name]
		if !ok {
			continue
		}
		if v < r.Min || v > r.Max {
			warnings = append(warnings, fmt.Sprintf(
				"%s outside training bounds [%.3f, %.3f]: %g", name, r.Min, r.Max, v))
		}
	}

	period := obs[FeatPeriod]
	depth := obs[FeatDepth]
	duration := obs[FeatDuration]

	// A transit lasting more than a tenth of the orbit is not a planet
	// crossing a stellar disk.
	if period > 0 && duration > 0 {
		durationDays := duration / 24.0
		if durationDays/period > maxDurationFraction {
			warnings = append(warnings, fmt.Sprintf(
				"transit duration (%.2fh) unusually long for period (%.2fd)", duration, period))
		}
	}

	// Observed depth should agree with the geometric estimate from the
	// planet/star radius ratio.
	if depth > 0 {
		prad, ok := obs[FeatPlanetR]
		if !ok {
			prad = featureDefaults[FeatPlanetR]
		}
		if prad > 0 {
			srad := obs[FeatStarR]
			if srad <= 0 || math.IsNaN(srad) {
				srad = 1.0
			}
			expected := math.Pow(prad/srad, 2) * 1e6
			if depth > expected*depthToleranceFactor || depth < expected/depthToleranceFactor {
				warnings = append(warnings, fmt.Sprintf(
					"transit depth (%.0fppm) inconsistent with planet size", depth))
			}
		}
	}

	if snr := obs[FeatSNR]; snr < snrThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"low SNR (%.1f) - detection may be unreliable", snr))
	}

	return warnings
}
