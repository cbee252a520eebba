package spread

import (
	"math"
	"math/rand"

	"agridefender/models"
)

// Simulate advances a grid state over timeSteps steps using the threat
// type's diffusion pattern. The returned sequence has timeSteps frames and
// frame 0 is an untouched copy of the initial state. Each step is computed
// from the previous frame only. Identical inputs with the same rng seed
// produce bit-identical sequences. A non-positive timeSteps yields nil.
func Simulate(initial *Grid, timeSteps int, threatType models.ThreatType, rng *rand.Rand) Sequence {
	if timeSteps < 1 {
		return nil
	}

	profile, canonicalType := ResolveProfile(threatType)
	dim := initial.Dim()

	sequence := make(Sequence, timeSteps)
	sequence[0] = initial.Clone()

	for t := 1; t < timeSteps; t++ {
		curr := sequence[t-1]
		next := curr.Clone()

		favorability := favorabilityField(curr, canonicalType)

		switch profile.Pattern {
		case PatternRadial:
			spreadRadial(curr, next, favorability, profile)
		case PatternDirectional:
			spreadDirectional(curr, next, favorability, profile, rng)
		case PatternJump:
			spreadJump(curr, next, favorability, profile, rng)
		}

		// Concentration decays faster where conditions are hostile.
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				decayed := next.At(i, j, ChanConcentration) * (1 - profile.IntensityDecay*(1-favorability[i][j]))
				next.Set(i, j, ChanConcentration, decayed)
			}
		}

		driftEnvironment(next, rng)

		next.Clip()
		sequence[t] = next
	}

	return sequence
}

// favorabilityField scores each cell's environmental conduciveness to
// spread, clipped to [0,1].
func favorabilityField(state *Grid, threatType models.ThreatType) [][]float64 {
	dim := state.Dim()
	field := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		field[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			temp := state.At(i, j, ChanTemperature)
			humidity := state.At(i, j, ChanHumidity)
			windSpeed := state.At(i, j, ChanWindSpeed)

			var f float64
			switch threatType {
			case models.ThreatFungal:
				f = 0.5 + 0.5*humidity - 0.3*math.Abs(temp-0.6)
			case models.ThreatBacterial:
				f = 0.3 + 0.4*humidity + 0.3*temp
			case models.ThreatViral:
				f = 0.4 + 0.3*windSpeed + 0.2*temp
			case models.ThreatPest:
				f = 0.2 + 0.4*temp - 0.2*windSpeed + 0.2*humidity
			default:
				f = 0.5
			}

			field[i][j] = clamp01(f)
		}
	}
	return field
}

// spreadRadial diffuses every active cell isotropically; contributions from
// overlapping sources accumulate additively within a step.
func spreadRadial(curr, next *Grid, favorability [][]float64, profile Profile) {
	dim := curr.Dim()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			conc := curr.At(i, j, ChanConcentration)
			if conc <= 0.01 {
				continue
			}
			radius := int(1 + 3*profile.SpreadRate*favorability[i][j])
			diffuseRadially(next, i, j, radius, conc*profile.SpreadRate*favorability[i][j])
		}
	}
}

// diffuseRadially adds source-scaled, linearly decaying contributions to
// every cell within radius of (x,y).
func diffuseRadially(next *Grid, x, y, radius int, scale float64) {
	if radius < 1 {
		return
	}
	dim := next.Dim()
	for ni := maxInt(0, x-radius); ni < minInt(dim, x+radius+1); ni++ {
		for nj := maxInt(0, y-radius); nj < minInt(dim, y+radius+1); nj++ {
			dist := math.Hypot(float64(ni-x), float64(nj-y))
			if dist <= float64(radius) {
				next.Add(ni, nj, ChanConcentration, scale*(1-dist/float64(radius)))
			}
		}
	}
}

// spreadDirectional follows the local wind vector, with a few weak
// random-direction contributions so plumes don't collapse to a line.
func spreadDirectional(curr, next *Grid, favorability [][]float64, profile Profile, rng *rand.Rand) {
	dim := curr.Dim()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			conc := curr.At(i, j, ChanConcentration)
			if conc <= 0.01 {
				continue
			}

			windAngle := curr.At(i, j, ChanWindDirection) * 2 * math.Pi
			windSpeed := curr.At(i, j, ChanWindSpeed)
			windDx := windSpeed * math.Cos(windAngle)
			windDy := windSpeed * math.Sin(windAngle)

			spreadDistance := int(1 + 4*profile.SpreadRate*favorability[i][j])
			for distance := 1; distance <= spreadDistance; distance++ {
				windFactor := profile.WeatherInfluence * windSpeed
				ni := int(float64(i) + float64(distance)*windDx*windFactor)
				nj := int(float64(j) + float64(distance)*windDy*windFactor)

				for r := 0; r < 3; r++ {
					randomAngle := rng.Float64() * 2 * math.Pi
					randomDist := 1 + int(2*rng.Float64())
					ri := int(float64(i) + float64(randomDist)*math.Cos(randomAngle))
					rj := int(float64(j) + float64(randomDist)*math.Sin(randomAngle))
					if ri >= 0 && ri < dim && rj >= 0 && rj < dim {
						next.Add(ri, rj, ChanConcentration,
							conc*0.3*profile.SpreadRate*favorability[i][j]/float64(1+randomDist))
					}
				}

				if ni >= 0 && ni < dim && nj >= 0 && nj < dim {
					next.Add(ni, nj, ChanConcentration,
						conc*profile.SpreadRate*favorability[i][j]/(1+0.5*float64(distance)))
				}
			}
		}
	}
}

// spreadJump combines short-range radial diffusion with rare long-range
// relocation events whose direction is blended toward the local wind.
func spreadJump(curr, next *Grid, favorability [][]float64, profile Profile, rng *rand.Rand) {
	dim := curr.Dim()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			conc := curr.At(i, j, ChanConcentration)
			if conc <= 0.1 {
				continue
			}

			radius := int(1 + 2*profile.SpreadRate*favorability[i][j])
			diffuseRadially(next, i, j, radius, conc*profile.SpreadRate*favorability[i][j])

			if rng.Float64() >= 0.1*conc {
				continue
			}

			jumpDistance := int(5 + 10*rng.Float64())
			jumpAngle := rng.Float64() * 2 * math.Pi
			windAngle := curr.At(i, j, ChanWindDirection) * 2 * math.Pi
			jumpAngle = (1-profile.WeatherInfluence)*jumpAngle + profile.WeatherInfluence*windAngle

			ni := int(float64(i) + float64(jumpDistance)*math.Cos(jumpAngle))
			nj := int(float64(j) + float64(jumpDistance)*math.Sin(jumpAngle))
			if ni < 0 || ni >= dim || nj < 0 || nj >= dim {
				continue
			}

			jumpIntensity := conc * 0.3 * (0.7 + 0.6*rng.Float64())
			next.Add(ni, nj, ChanConcentration, jumpIntensity)

			const landingRadius = 2
			for li := maxInt(0, ni-landingRadius); li < minInt(dim, ni+landingRadius+1); li++ {
				for lj := maxInt(0, nj-landingRadius); lj < minInt(dim, nj+landingRadius+1); lj++ {
					dist := math.Hypot(float64(li-ni), float64(lj-nj))
					if dist <= landingRadius {
						next.Add(li, lj, ChanConcentration, jumpIntensity*(1-dist/landingRadius)*0.7)
					}
				}
			}
		}
	}
}

// driftEnvironment applies a small independent symmetric perturbation to
// each environmental channel of every cell.
func driftEnvironment(next *Grid, rng *rand.Rand) {
	drift := [...]struct {
		channel   int
		magnitude float64
	}{
		{ChanTemperature, 0.02},
		{ChanHumidity, 0.03},
		{ChanWindDirection, 0.05},
		{ChanWindSpeed, 0.04},
	}

	dim := next.Dim()
	for _, d := range drift {
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				next.Add(i, j, d.channel, d.magnitude*(2*rng.Float64()-1))
			}
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
