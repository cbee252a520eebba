package anomaly

import (
	"strings"

	"agridefender/models"
)

// typePriority fixes the tie-break order when two threat types score
// equally: the earlier entry wins.
var typePriority = []models.ThreatType{
	models.ThreatFungal,
	models.ThreatBacterial,
	models.ThreatViral,
	models.ThreatPest,
	models.ThreatBioweapon,
	models.ThreatUnknown,
}

// EvaluateThreat maps a set of anomaly descriptions to a threat type and
// severity. Keyword heuristics accumulate evidence per type over the joined
// anomaly text; UNKNOWN always carries a small bias so that anomalous
// readings with no recognizable signature still surface as unclassified
// threats. Scores are scaled by the detection confidence and a type is only
// assigned when its scaled score clears 0.2. Severity is bucketed on the
// confidence alone.
func EvaluateThreat(anomalies []string, confidence float64, sensorType models.SensorType) (models.ThreatType, models.ThreatLevel) {
	if len(anomalies) == 0 {
		return models.ThreatUnknown, models.LevelLow
	}

	text := strings.ToLower(strings.Join(anomalies, " "))

	scores := map[models.ThreatType]float64{
		models.ThreatFungal:    0,
		models.ThreatBacterial: 0,
		models.ThreatViral:     0,
		models.ThreatPest:      0,
		models.ThreatBioweapon: 0,
		models.ThreatUnknown:   0.1,
	}

	switch sensorType {
	case models.SensorSoil:
		if strings.Contains(text, "high moisture") || strings.Contains(text, "moisture: high") {
			scores[models.ThreatFungal] += 0.3
		}
		if strings.Contains(text, "low ph") || strings.Contains(text, "acidic") {
			scores[models.ThreatFungal] += 0.2
		}
		if strings.Contains(text, "high temperature") && strings.Contains(text, "high moisture") {
			scores[models.ThreatBacterial] += 0.4
		}
		if strings.Contains(text, "low moisture") || strings.Contains(text, "dry") {
			scores[models.ThreatPest] += 0.2
		}
		if strings.Contains(text, "high temperature") {
			scores[models.ThreatPest] += 0.2
		}
	case models.SensorWeather:
		if strings.Contains(text, "high humidity") {
			scores[models.ThreatFungal] += 0.3
		}
		if strings.Contains(text, "precipitation") && strings.Contains(text, "high") {
			scores[models.ThreatFungal] += 0.25
		}
		if strings.Contains(text, "wind") && strings.Contains(text, "high") {
			scores[models.ThreatViral] += 0.3
		}
		if strings.Contains(text, "high temperature") {
			scores[models.ThreatPest] += 0.2
		}
	}

	best := models.ThreatUnknown
	bestScore := -1.0
	for _, tt := range typePriority {
		if s := scores[tt] * confidence; s > bestScore {
			best, bestScore = tt, s
		}
	}
	if bestScore <= 0.2 {
		best = models.ThreatUnknown
	}

	return best, severityFor(confidence)
}

// severityFor buckets a detection confidence into the four severity bands.
func severityFor(confidence float64) models.ThreatLevel {
	switch {
	case confidence >= 0.9:
		return models.LevelCritical
	case confidence >= 0.75:
		return models.LevelHigh
	case confidence >= 0.6:
		return models.LevelMedium
	default:
		return models.LevelLow
	}
}
