package postscmd

// FeatureGates exposes runtime toggles consulted by post command handlers.
// Callers supply closures reading press.Config.Features so handlers stay
// decoupled from configuration.
type FeatureGates struct {
	SchedulingEnabled func() bool
}

func (g FeatureGates) schedulingEnabled() bool {
	if g.SchedulingEnabled == nil {
		return false
	}
	return g.SchedulingEnabled()
}
