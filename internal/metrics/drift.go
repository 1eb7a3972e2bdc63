package metrics

import "math"

// MassDrift tracks the largest relative mass drift seen over a run.
type MassDrift struct {
	name     string
	initial  FrameStats
	current  FrameStats
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(s FrameStats) {
	if m.samples == 0 {
		m.initial = s
	}
	m.current = s
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, math.Abs(Drift(m.initial, s)))
}

// Value is the largest absolute relative drift observed.
func (m *MassDrift) Value() float64 {
	return m.maxDrift
}

// Final is the signed drift between the first and latest observation.
func (m *MassDrift) Final() float64 {
	if m.samples == 0 {
		return 0
	}
	return Drift(m.initial, m.current)
}

func (m *MassDrift) Reset() {
	m.initial = FrameStats{}
	m.current = FrameStats{}
	m.maxDrift = 0
	m.samples = 0
}
