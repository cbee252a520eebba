package geo

import (
	"log/slog"
	"math"
	"time"

	"github.com/paulmach/orb/geojson"

	"agridefender/models"
	"agridefender/utils"
)

// DefaultPredictionDays is the horizon used when none is requested.
const DefaultPredictionDays = 7

// PredictSpread projects a detection into a day-by-day sequence of
// geographic spread predictions. It is fully deterministic: the same
// detection and weather always yield the same sequence. A missing weather
// reading falls back to models.DefaultWeather; a location that is not a
// Point geometry yields an empty list and a warning, never an error.
func PredictSpread(threatID string, threatType models.ThreatType, location *geojson.Geometry, detectionTime time.Time, weather *models.Weather, days int) []models.SpreadPrediction {
	logger := utils.GetLogger()

	lon, lat, ok := models.PointCoordinates(location)
	if !ok {
		logger.Warn("invalid location for spread prediction, expected Point",
			slog.String("threatID", threatID))
		return []models.SpreadPrediction{}
	}

	if days <= 0 {
		days = DefaultPredictionDays
	}

	w := models.DefaultWeather()
	if weather != nil {
		w = *weather
	}

	adjustedRate := adjustSpreadRate(baseSpreadRate(threatType), threatType, w)
	windFactor := windFactorFor(threatType)
	pattern := areaPatternFor(threatType)

	predictions := make([]models.SpreadPrediction, 0, days)
	for day := 1; day <= days; day++ {
		distance := adjustedRate * float64(day)

		// The epicenter drifts slowly downwind while the area grows.
		driftMeters := float64(day) * adjustedRate * windFactor * 0.3
		centerLon, centerLat := shiftPoint(lon, lat, driftMeters, w.WindDirection)

		predictions = append(predictions, models.SpreadPrediction{
			ThreatID:       threatID,
			Day:            day,
			PredictionTime: detectionTime.AddDate(0, 0, day),
			ThreatLevel:    severityForDay(day),
			Confidence:     math.Max(0.4, 0.9-float64(day)*0.05),
			Probability:    math.Max(0.3, 0.9-float64(day)*0.07),
			Location:       models.NewPoint(centerLon, centerLat),
			AffectedArea:   spreadArea(lon, lat, distance, pattern, w.WindDirection, w.WindSpeed, windFactor),
			SpreadVelocity: adjustedRate,
		})
	}

	logger.Info("generated spread predictions",
		slog.String("threatID", threatID),
		slog.String("threatType", string(threatType)),
		slog.Int("days", len(predictions)),
		slog.Float64("adjustedRate", adjustedRate))
	return predictions
}

// severityForDay escalates the predicted threat level over an unchecked
// outbreak: LOW on day 1, MEDIUM on days 2-3, HIGH on days 4-6, CRITICAL
// from day 7 on.
func severityForDay(day int) models.ThreatLevel {
	switch {
	case day <= 1:
		return models.LevelLow
	case day <= 3:
		return models.LevelMedium
	case day <= 6:
		return models.LevelHigh
	default:
		return models.LevelCritical
	}
}

// adjustSpreadRate scales a base rate by the weather conditions each threat
// type responds to.
func adjustSpreadRate(baseRate float64, threatType models.ThreatType, w models.Weather) float64 {
	rate := baseRate

	switch threatType {
	case models.ThreatFungal, models.ThreatBacterial:
		// Thrive warm but not scorching.
		switch {
		case w.Temperature < 10:
			rate *= 0.5
		case w.Temperature >= 20 && w.Temperature <= 30:
			rate *= 1.5
		case w.Temperature > 35:
			rate *= 0.7
		}
	case models.ThreatViral:
		if w.Temperature >= 10 && w.Temperature <= 20 {
			rate *= 1.3
		}
	case models.ThreatPest:
		if w.Temperature > 25 {
			rate *= 1.4
		}
	}

	switch threatType {
	case models.ThreatFungal:
		if w.Humidity > 70 {
			rate *= 1.6
		} else if w.Humidity < 40 {
			rate *= 0.6
		}
	case models.ThreatBacterial:
		if w.Humidity > 60 {
			rate *= 1.4
		}
	}

	if w.Precipitation > 0 {
		switch threatType {
		case models.ThreatFungal, models.ThreatBacterial:
			rate *= 1.0 + math.Min(1.0, w.Precipitation/10.0)
		case models.ThreatPest:
			rate *= math.Max(0.5, 1.0-w.Precipitation/20.0)
		}
	}

	if w.WindSpeed > 10 {
		switch threatType {
		case models.ThreatFungal, models.ThreatViral:
			rate *= 1.0 + math.Min(1.0, (w.WindSpeed-10)/20.0)
		}
	}

	return rate
}
