package shared

import "math"

const (
	// FloorDb stands in for -Inf in reported levels.
	FloorDb = -120.0
	// FullScale is the largest positive 16-bit sample, normalized. Anything at or above it has hit the rail.
	FullScale = 32767.0 / 32768.0
)

// LevelDb converts a linear amplitude to dB, clamped to FloorDb.
func LevelDb(linear float64) float64 {
	if linear <= 0 {
		return FloorDb
	}

	return max(20*math.Log10(linear), FloorDb)
}
