package geo

import "agridefender/models"

// AreaPattern is the dominant polygon shape a threat type spreads in.
type AreaPattern string

const (
	// PatternCircle is isotropic spread in all directions.
	PatternCircle AreaPattern = "circle"
	// PatternEllipse is wind-elongated directional spread.
	PatternEllipse AreaPattern = "ellipse"
	// PatternCustom is an engineered, irregular directional shape.
	PatternCustom AreaPattern = "custom"
)

// spreadRates holds base spread rates in meters per day, by threat type and
// severity. The MEDIUM column is the prediction baseline.
var spreadRates = map[models.ThreatType]map[models.ThreatLevel]float64{
	models.ThreatFungal: {
		models.LevelLow:      2.0,
		models.LevelMedium:   5.0,
		models.LevelHigh:     10.0,
		models.LevelCritical: 25.0,
	},
	models.ThreatBacterial: {
		models.LevelLow:      3.0,
		models.LevelMedium:   7.0,
		models.LevelHigh:     15.0,
		models.LevelCritical: 30.0,
	},
	models.ThreatViral: {
		models.LevelLow:      5.0,
		models.LevelMedium:   10.0,
		models.LevelHigh:     25.0,
		models.LevelCritical: 50.0,
	},
	models.ThreatPest: {
		models.LevelLow:      8.0,
		models.LevelMedium:   15.0,
		models.LevelHigh:     30.0,
		models.LevelCritical: 60.0,
	},
	models.ThreatUnknown: {
		models.LevelLow:      2.0,
		models.LevelMedium:   5.0,
		models.LevelHigh:     10.0,
		models.LevelCritical: 20.0,
	},
	models.ThreatBioweapon: {
		models.LevelLow:      10.0,
		models.LevelMedium:   25.0,
		models.LevelHigh:     50.0,
		models.LevelCritical: 100.0,
	},
}

// windInfluence scores how strongly wind steers each threat type's spread.
var windInfluence = map[models.ThreatType]float64{
	models.ThreatFungal:    0.7,
	models.ThreatBacterial: 0.5,
	models.ThreatViral:     0.8,
	models.ThreatPest:      0.6,
	models.ThreatUnknown:   0.5,
	models.ThreatBioweapon: 0.9,
}

// areaPatterns maps each threat type to its dominant spread shape.
var areaPatterns = map[models.ThreatType]AreaPattern{
	models.ThreatFungal:    PatternCircle,
	models.ThreatBacterial: PatternCircle,
	models.ThreatViral:     PatternEllipse,
	models.ThreatPest:      PatternEllipse,
	models.ThreatUnknown:   PatternCircle,
	models.ThreatBioweapon: PatternCustom,
}

func baseSpreadRate(threatType models.ThreatType) float64 {
	rates, ok := spreadRates[threatType]
	if !ok {
		rates = spreadRates[models.ThreatUnknown]
	}
	return rates[models.LevelMedium]
}

func windFactorFor(threatType models.ThreatType) float64 {
	if factor, ok := windInfluence[threatType]; ok {
		return factor
	}
	return 0.5
}

func areaPatternFor(threatType models.ThreatType) AreaPattern {
	if pattern, ok := areaPatterns[threatType]; ok {
		return pattern
	}
	return PatternCircle
}
