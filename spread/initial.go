package spread

import (
	"math"
	"math/rand"
)

// GenerateInitialState builds a seeded grid for a spread simulation:
// num_points pathogen seeds diffused with linear falloff, plus environmental
// channels with a uniform base and randomly placed perturbation patches.
// Identical rng seeds produce bit-identical grids.
func GenerateInitialState(dim int, concentration float64, numPoints int, rng *rand.Rand) *Grid {
	state := NewGrid(dim)

	for p := 0; p < numPoints; p++ {
		x := rng.Intn(dim)
		y := rng.Intn(dim)

		intensity := concentration * (0.8 + 0.4*rng.Float64())
		state.Set(x, y, ChanConcentration, intensity)

		// Diffuse around the seed; overlapping seeds raise but never
		// cancel each other, hence max rather than addition.
		radius := int(3 + 3*rng.Float64())
		for i := maxInt(0, x-radius); i < minInt(dim, x+radius+1); i++ {
			for j := maxInt(0, y-radius); j < minInt(dim, y+radius+1); j++ {
				dist := math.Hypot(float64(i-x), float64(j-y))
				if dist <= float64(radius) {
					state.SetMax(i, j, ChanConcentration, intensity*(1-dist/float64(radius)))
				}
			}
		}
	}

	// Temperature: uniform base plus five signed perturbation patches.
	state.FillChannel(ChanTemperature, 0.2+0.6*rng.Float64())
	addPatches(state, ChanTemperature, 5, float64(dim)*0.3, rng, func(falloff float64) float64 {
		return 0.1 * falloff * (2*rng.Float64() - 1)
	})

	// Humidity: uniform base plus four positive patches.
	state.FillChannel(ChanHumidity, 0.3+0.4*rng.Float64())
	addPatches(state, ChanHumidity, 4, float64(dim)*0.4, rng, func(falloff float64) float64 {
		return 0.15 * falloff * rng.Float64()
	})

	// Wind direction is a single predominant value across the whole grid.
	state.FillChannel(ChanWindDirection, rng.Float64())

	// Wind speed: uniform base plus three positive patches.
	state.FillChannel(ChanWindSpeed, 0.1+0.4*rng.Float64())
	addPatches(state, ChanWindSpeed, 3, float64(dim)*0.25, rng, func(falloff float64) float64 {
		return 0.1 * falloff * rng.Float64()
	})

	state.Clip()
	return state
}

// addPatches adds count circular perturbation patches with linear falloff to
// one channel. contribution receives the falloff factor (1 at the patch
// center, 0 at the rim) and returns the signed delta for that cell.
func addPatches(state *Grid, channel, count int, maxRadius float64, rng *rand.Rand, contribution func(falloff float64) float64) {
	dim := state.Dim()
	for p := 0; p < count; p++ {
		x := rng.Intn(dim)
		y := rng.Intn(dim)
		radius := int(maxRadius * rng.Float64())
		if radius < 1 {
			continue
		}
		for i := maxInt(0, x-radius); i < minInt(dim, x+radius+1); i++ {
			for j := maxInt(0, y-radius); j < minInt(dim, y+radius+1); j++ {
				dist := math.Hypot(float64(i-x), float64(j-y))
				if dist <= float64(radius) {
					state.Add(i, j, channel, contribution(1-dist/float64(radius)))
				}
			}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
