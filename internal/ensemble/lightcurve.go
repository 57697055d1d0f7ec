package ensemble

// LightCurve carries presentation-ready transit-shape parameters for the
// dashboard. It is derived from the raw observation alone and has no
// dependency on the classifier.
type LightCurve struct {
	PeriodDays      float64 `json:"period_days"`
	DepthPPM        float64 `json:"depth_ppm"`
	DurationHours   float64 `json:"duration_hours"`
	ImpactParameter float64 `json:"impact_parameter"`
	IngressDuration float64 `json:"ingress_duration"`
	EgressDuration  float64 `json:"egress_duration"`
	BaselineFlux    float64 `json:"baseline_flux"`
	MinimumFlux     float64 `json:"minimum_flux"`
	PhaseOffset     float64 `json:"phase_offset"`
}

// SynthesizeLightCurve derives transit-shape parameters with fixed
// proportional rules: ingress and egress each take 15% of the total duration
// and the minimum flux follows directly from depth in ppm. Missing inputs
// take the same defaults as feature engineering.
func SynthesizeLightCurve(obs Observation) LightCurve {
	period := baseValue(obs, FeatPeriod)
	depth := baseValue(obs, FeatDepth)
	duration := baseValue(obs, FeatDuration)
	impact := baseValue(obs, FeatImpact)

	return LightCurve{
		PeriodDays:      period,
		DepthPPM:        depth,
		DurationHours:   duration,
		ImpactParameter: impact,
		IngressDuration: duration * 0.15,
		EgressDuration:  duration * 0.15,
		BaselineFlux:    1.0,
		MinimumFlux:     1.0 - depth/1e6,
		PhaseOffset:     0.0,
	}
}
