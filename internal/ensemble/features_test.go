package ensemble

import (
	"math"
	"testing"
)

func TestEngineerFeatures_Defaults(t *testing.T) {
	t.Parallel()
	vec := EngineerFeatures(Observation{})

	if vec[0] != 10.0 {
		t.Errorf("expected default period 10.0, got %g", vec[0])
	}
	if vec[1] != 100.0 {
		t.Errorf("expected default depth 100.0, got %g", vec[1])
	}
	if vec[2] != 3.0 {
		t.Errorf("expected default duration 3.0, got %g", vec[2])
	}
	if vec[8] != 5778.0 {
		t.Errorf("expected default stellar teff 5778.0, got %g", vec[8])
	}
	for i := 11; i <= 14; i++ {
		if vec[i] != 0 {
			t.Errorf("expected flag slot %d to default to 0, got %g", i, vec[i])
		}
	}
}

func TestEngineerFeatures_DerivedValues(t *testing.T) {
	t.Parallel()
	obs := Observation{
		FeatPeriod:   10.0,
		FeatDepth:    100.0,
		FeatDuration: 3.0,
		FeatImpact:   0.5,
		FeatSNR:      10.0,
	}
	vec := EngineerFeatures(obs)

	checks := []struct {
		name string
		slot int
		want float64
	}{
		{"period_impact_ratio", 15, 20.0},
		{"depth_duration_ratio", 16, 100.0 / 3.0},
		{"snr_per_ppm", 17, 0.1},
		{"planet_temp_ratio", 18, 288.0 / 5778.0},
		{"stellar_density", 19, math.Pow(10, 4.44)},
		{"transit_probability", 20, 1.0 / math.Pow(10, 2.0/3.0)},
		{"planet_density_proxy", 21, 0.01},
		{"equilibrium_flux", 22, 1.0},
		{"impact_depth_product", 23, 5.0},
		{"period_snr_ratio", 24, 1.0},
		{"duration_impact_ratio", 25, 6.0},
	}
	for _, c := range checks {
		if math.Abs(vec[c.slot]-c.want) > 1e-9 {
			t.Errorf("%s: expected %g, got %g", c.name, c.want, vec[c.slot])
		}
	}
}

func TestEngineerFeatures_ClampedDenominators(t *testing.T) {
	t.Parallel()
	obs := Observation{
		FeatPeriod:   5.0,
		FeatDepth:    50.0,
		FeatDuration: 2.0,
		FeatImpact:   0.0, // would divide by zero without the floor clamp
		FeatSNR:      0.0,
	}
	vec := EngineerFeatures(obs)

	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("slot %d (%s) is non-finite: %g", i, featureOrder[i], v)
		}
	}
	if want := 5.0 / 0.01; vec[15] != want {
		t.Errorf("period_impact_ratio with zero impact: expected %g, got %g", want, vec[15])
	}
}

func TestEngineerFeatures_NonFiniteInputsTakeDefaults(t *testing.T) {
	t.Parallel()
	obs := Observation{
		FeatPeriod: math.NaN(),
		FeatDepth:  math.Inf(1),
	}
	vec := EngineerFeatures(obs)
	if vec[0] != 10.0 {
		t.Errorf("NaN period should take default, got %g", vec[0])
	}
	if vec[1] != 100.0 {
		t.Errorf("Inf depth should take default, got %g", vec[1])
	}
}

func TestEngineerFeatures_NegativeDepthCollapsesToZero(t *testing.T) {
	t.Parallel()
	// sqrt of a negative depth yields NaN in impact_depth_product; the
	// engine must collapse it to zero rather than ship NaN to a model.
	obs := Observation{FeatDepth: -5.0, FeatImpact: 0.5}
	vec := EngineerFeatures(obs)
	if vec[23] != 0 {
		t.Errorf("expected impact_depth_product to collapse to 0, got %g", vec[23])
	}
}

func TestEngineerFeatures_Deterministic(t *testing.T) {
	t.Parallel()
	obs := Observation{
		FeatPeriod: 365.25, FeatDepth: 84.0, FeatDuration: 13.0,
		FeatImpact: 0.3, FeatSNR: 12.5, FeatPlanetR: 1.0, FeatStarR: 1.0,
	}
	first := EngineerFeatures(obs)
	for i := 0; i < 100; i++ {
		if EngineerFeatures(obs) != first {
			t.Fatal("feature engineering is not deterministic")
		}
	}
}

func TestFeatureNames_StableLayout(t *testing.T) {
	t.Parallel()
	names := FeatureNames()
	if len(names) != NumFeatures {
		t.Fatalf("expected %d feature names, got %d", NumFeatures, len(names))
	}
	if names[0] != FeatPeriod || names[14] != FeatFlagEC || names[25] != "duration_impact_ratio" {
		t.Error("feature order changed; model artifacts would no longer align")
	}

	// Mutating the returned slice must not affect the engine's layout.
	names[0] = "tampered"
	if FeatureNames()[0] != FeatPeriod {
		t.Error("FeatureNames leaked internal state")
	}
}
