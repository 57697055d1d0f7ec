package ensemble

import (
	"math"
)

// Observation is a raw parameter map as supplied by the caller. Any subset of
// the recognized koi_* keys may be present; unknown keys are ignored.
type Observation map[string]float64

// Base feature names in training order.
const (
	FeatPeriod   = "koi_period"
	FeatDepth    = "koi_depth"
	FeatDuration = "koi_duration"
	FeatImpact   = "koi_impact"
	FeatSNR      = "koi_model_snr"
	FeatPlanetR  = "koi_prad"
	FeatEqTemp   = "koi_teq"
	FeatInsol    = "koi_insol"
	FeatStarTeff = "koi_steff"
	FeatStarLogg = "koi_slogg"
	FeatStarR    = "koi_srad"
	FeatFlagNT   = "koi_fpflag_nt"
	FeatFlagSS   = "koi_fpflag_ss"
	FeatFlagCO   = "koi_fpflag_co"
	FeatFlagEC   = "koi_fpflag_ec"
)

// featureOrder is the canonical 26-slot layout the ensemble was fitted
// against: 15 base features followed by 11 derived ones. Model metadata is
// verified against this list at load time; a mismatch is a configuration
// error, never a runtime one.
var featureOrder = []string{
	FeatPeriod, FeatDepth, FeatDuration, FeatImpact, FeatSNR,
	FeatPlanetR, FeatEqTemp, FeatInsol, FeatStarTeff, FeatStarLogg, FeatStarR,
	FeatFlagNT, FeatFlagSS, FeatFlagCO, FeatFlagEC,
	"period_impact_ratio", "depth_duration_ratio", "snr_per_ppm",
	"planet_temp_ratio", "stellar_density", "transit_probability",
	"planet_density_proxy", "equilibrium_flux", "impact_depth_product",
	"period_snr_ratio", "duration_impact_ratio",
}

// NumFeatures is the fixed length of every FeatureVector.
const NumFeatures = 26

// FeatureVector is the fixed-order numeric encoding consumed by both
// sub-models.
type FeatureVector [NumFeatures]float64

// featureDefaults substitutes for absent or non-finite base values. The
// numbers mirror the training pipeline: a nominal warm-Neptune transit around
// a Sun-like star.
var featureDefaults = map[string]float64{
	FeatPeriod:   10.0,
	FeatDepth:    100.0,
	FeatDuration: 3.0,
	FeatImpact:   0.5,
	FeatSNR:      10.0,
	FeatPlanetR:  1.0,
	FeatEqTemp:   288.0,
	FeatInsol:    1.0,
	FeatStarTeff: 5778.0,
	FeatStarLogg: 4.44,
	FeatStarR:    1.0,
	FeatFlagNT:   0,
	FeatFlagSS:   0,
	FeatFlagCO:   0,
	FeatFlagEC:   0,
}

// FeatureNames returns the canonical slot order. The returned slice is a
// copy; callers may not reorder the engine's view of the world.
func FeatureNames() []string {
	names := make([]string, len(featureOrder))
	copy(names, featureOrder)
	return names
}

// baseValue resolves a base feature from the observation, falling back to its
// default when the key is absent or the value is NaN/Inf.
func baseValue(obs Observation, name string) float64 {
	v, ok := obs[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return featureDefaults[name]
	}
	return v
}

// floorDiv divides with a floor-clamped denominator so a zero or tiny
// denominator cannot blow up a ratio feature.
func floorDiv(num, den, floor float64) float64 {
	return num / math.Max(den, floor)
}

// EngineerFeatures maps a raw observation to the 26-slot vector the ensemble
// was trained on. It never fails: missing or non-finite inputs take defaults,
// divisions are floor-clamped, and any residual non-finite result collapses
// to zero so downstream scoring still runs.
func EngineerFeatures(obs Observation) FeatureVector {
	var vec FeatureVector

	period := baseValue(obs, FeatPeriod)
	depth := baseValue(obs, FeatDepth)
	duration := baseValue(obs, FeatDuration)
	impact := baseValue(obs, FeatImpact)
	snr := baseValue(obs, FeatSNR)
	prad := baseValue(obs, FeatPlanetR)
	teq := baseValue(obs, FeatEqTemp)
	insol := baseValue(obs, FeatInsol)
	steff := baseValue(obs, FeatStarTeff)
	slogg := baseValue(obs, FeatStarLogg)
	srad := baseValue(obs, FeatStarR)

	vec[0] = period
	vec[1] = depth
	vec[2] = duration
	vec[3] = impact
	vec[4] = snr
	vec[5] = prad
	vec[6] = teq
	vec[7] = insol
	vec[8] = steff
	vec[9] = slogg
	vec[10] = srad
	vec[11] = baseValue(obs, FeatFlagNT)
	vec[12] = baseValue(obs, FeatFlagSS)
	vec[13] = baseValue(obs, FeatFlagCO)
	vec[14] = baseValue(obs, FeatFlagEC)

	// Derived features, exact match to the training pipeline.
	vec[15] = floorDiv(period, impact, 0.01)                               // period_impact_ratio
	vec[16] = floorDiv(depth, duration, 0.1)                               // depth_duration_ratio
	vec[17] = floorDiv(snr, depth, 1.0)                                    // snr_per_ppm
	vec[18] = floorDiv(teq, steff, 1000.0)                                 // planet_temp_ratio
	vec[19] = math.Pow(10, slogg) / math.Pow(math.Max(srad, 0.1), 2)       // stellar_density
	vec[20] = math.Min(srad/math.Max(math.Pow(period, 2.0/3.0), 0.1), 1.0) // transit_probability
	vec[21] = math.Pow(prad, 3) / math.Pow(math.Max(period, 0.1), 2)       // planet_density_proxy
	vec[22] = insol * math.Pow(steff/5778.0, 4)                            // equilibrium_flux
	vec[23] = impact * math.Sqrt(depth)                                    // impact_depth_product
	vec[24] = floorDiv(period, snr, 1.0)                                   // period_snr_ratio
	vec[25] = floorDiv(duration, impact, 0.01)                             // duration_impact_ratio

	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vec[i] = 0
		}
	}
	return vec
}
