package sim

import (
	"math/rand"
	"time"

	"github.com/san-kum/massflow/internal/config"
)

// NewRand returns the run's random source and the seed it was built from.
// A zero seed is replaced by the current time.
func NewRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}

// PolicyFor builds the flow policy for cfg. When randomize_flow_field is
// set the offsets are drawn once from rng, X then Y then Z.
func PolicyFor(cfg *config.Config, rng *rand.Rand) FlowPolicy {
	var off Offsets
	if cfg.RandomizeFlowField {
		off.X = uniform(rng, config.RandomOffsetRange)
		off.Y = uniform(rng, config.RandomOffsetRange)
		off.Z = uniform(rng, config.RandomOffsetRange)
	}
	if cfg.DynamizeFlowField {
		return Dynamic{Off: off, StepScale: cfg.FlowTimeStep}
	}
	return Static{Off: off}
}

// uniform draws from [-r, r).
func uniform(rng *rand.Rand, r float64) float64 {
	return rng.Float64()*2*r - r
}
