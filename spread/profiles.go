package spread

import (
	"log/slog"

	"agridefender/models"
	"agridefender/utils"
)

// Pattern selects the diffusion algorithm used by the simulator.
type Pattern string

const (
	PatternRadial      Pattern = "radial"
	PatternDirectional Pattern = "directional"
	PatternJump        Pattern = "jump"
)

// Profile holds the per-threat-type spread constants consumed by the
// simulator. Profiles are loaded once and never mutated.
type Profile struct {
	SpreadRate       float64
	Pattern          Pattern
	WeatherInfluence float64
	IntensityDecay   float64
}

var profiles = map[models.ThreatType]Profile{
	models.ThreatFungal: {
		SpreadRate:       0.2,
		Pattern:          PatternRadial,
		WeatherInfluence: 0.7,
		IntensityDecay:   0.1,
	},
	models.ThreatBacterial: {
		SpreadRate:       0.15,
		Pattern:          PatternRadial,
		WeatherInfluence: 0.5,
		IntensityDecay:   0.2,
	},
	models.ThreatViral: {
		SpreadRate:       0.25,
		Pattern:          PatternJump,
		WeatherInfluence: 0.3,
		IntensityDecay:   0.05,
	},
	models.ThreatPest: {
		SpreadRate:       0.3,
		Pattern:          PatternDirectional,
		WeatherInfluence: 0.6,
		IntensityDecay:   0.15,
	},
}

// SimulatedTypes lists the threat types with their own spread profile.
func SimulatedTypes() []models.ThreatType {
	return []models.ThreatType{
		models.ThreatFungal,
		models.ThreatBacterial,
		models.ThreatViral,
		models.ThreatPest,
	}
}

// ResolveProfile returns the profile for a threat type along with the
// canonical type it resolved to. Types without a profile fall back to
// FUNGAL; the fallback covers favorability as well, so an unknown type
// simulates exactly like an explicit FUNGAL run.
func ResolveProfile(threatType models.ThreatType) (Profile, models.ThreatType) {
	if profile, ok := profiles[threatType]; ok {
		return profile, threatType
	}
	utils.GetLogger().Warn("no spread profile for threat type, using FUNGAL",
		slog.String("threatType", string(threatType)))
	return profiles[models.ThreatFungal], models.ThreatFungal
}
