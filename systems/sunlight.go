package systems

import "math"

// Sunlight returns light intensity in [0, 1] for a tick: a triangular wave
// rising to a mid-day peak and falling back to darkness, inside a day whose
// length swings ±20% sinusoidally over a season of seasonLength ticks.
// Spatially uniform.
func Sunlight(tick, dayLength, seasonLength int) float32 {
	seasonalTick := tick % seasonLength
	dayLen := float64(dayLength) * (1.0 + 0.2*math.Sin(2.0*math.Pi*float64(seasonalTick)/float64(seasonLength)))
	tmod := float64(tick % int(dayLen))
	v := 1.0 - math.Abs((tmod/dayLen)*2.0-1.0)
	return float32(min(max(v, 0.0), 1.0))
}
