// Package worker runs the sensor processing pipeline: classify a reading,
// persist the resulting detection, notify subscribers and project the
// geographic spread for anything at MEDIUM severity or above.
package worker

import (
	"fmt"
	"strings"
	"time"

	"agridefender/anomaly"
	"agridefender/db"
	"agridefender/geo"
	"agridefender/models"
	"agridefender/utils"
	"agridefender/weather"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Affected-area radii per sensor kind. Weather anomalies cover much larger
// ground than a single soil probe.
const (
	soilAreaRadiusMeters    = 500
	weatherAreaRadiusMeters = 2000
)

// Publisher pushes pipeline output to live subscribers. The socket layer
// implements it; tests use a recording stub.
type Publisher interface {
	PublishDetection(detection *models.ThreatDetection) error
	PublishPredictions(threatID string, predictions []models.SpreadPrediction) error
}

// Worker owns the end-to-end handling of incoming sensor readings.
type Worker struct {
	store     db.Client
	weather   *weather.Client
	publisher Publisher
	cron      *cron.Cron
}

// New wires a worker. publisher may be nil when no live transport exists
// (batch tools).
func New(store db.Client, weatherClient *weather.Client, publisher Publisher) *Worker {
	return &Worker{
		store:     store,
		weather:   weatherClient,
		publisher: publisher,
	}
}

// StartStatsJob logs detection totals every minute until StopStatsJob.
func (w *Worker) StartStatsJob() error {
	if w.cron != nil {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc("@every 1m", w.logStats)
	if err != nil {
		return fmt.Errorf("failed to schedule stats job: %w", err)
	}
	c.Start()
	w.cron = c
	return nil
}

func (w *Worker) StopStatsJob() {
	if w.cron != nil {
		w.cron.Stop()
		w.cron = nil
	}
}

func (w *Worker) logStats() {
	total, err := w.store.TotalDetections()
	if err != nil {
		utils.GetLogger().Error("failed to count detections", "error", err.Error())
		return
	}
	utils.GetLogger().Info("detection stats", "totalDetections", total)
}

// ProcessReading classifies a sensor reading. A nil detection with nil
// error means the reading was unremarkable. Publish failures are logged
// and never fail the pipeline; storage failures do.
func (w *Worker) ProcessReading(reading *models.SensorReading) (*models.ThreatDetection, error) {
	logger := utils.GetLogger()

	switch reading.SensorType {
	case models.SensorSoil, models.SensorWeather:
	default:
		logger.Warn("unsupported sensor type, skipping reading",
			"sensorType", reading.SensorType, "sensorID", reading.SensorID)
		return nil, nil
	}

	logger.Info("processing sensor reading",
		"sensorType", reading.SensorType, "sensorID", reading.SensorID)

	anomalies, confidence := anomaly.DetectAnomalies(reading.Features, reading.SensorType)
	if len(anomalies) == 0 {
		logger.Info("no anomalies detected", "sensorID", reading.SensorID)
		return nil, nil
	}

	threatType, threatLevel := anomaly.EvaluateThreat(anomalies, confidence, reading.SensorType)

	detection := &models.ThreatDetection{
		ID:              uuid.NewString(),
		ThreatType:      threatType,
		ThreatLevel:     threatLevel,
		Confidence:      confidence,
		DetectionTime:   detectionClock(),
		Location:        reading.Location,
		AffectedArea:    geo.MapThreatArea(reading.Location, areaRadiusFor(reading.SensorType)),
		Description:     describeDetection(reading.SensorType, threatType, anomalies),
		Recommendations: generateRecommendations(threatType, threatLevel),
		SourceData:      []string{reading.SensorID},
	}

	if err := w.store.StoreDetection(detection); err != nil {
		return nil, fmt.Errorf("failed to store detection: %w", err)
	}
	logger.Info("stored threat detection",
		"threatID", detection.ID, "threatType", threatType, "threatLevel", threatLevel)

	if w.publisher != nil {
		if err := w.publisher.PublishDetection(detection); err != nil {
			logger.Error("failed to publish detection", "threatID", detection.ID, "error", err.Error())
		}
	}

	if err := w.generatePredictions(detection); err != nil {
		logger.Error("failed to generate predictions", "threatID", detection.ID, "error", err.Error())
	}

	return detection, nil
}

// generatePredictions projects spread for MEDIUM and higher threats.
func (w *Worker) generatePredictions(detection *models.ThreatDetection) error {
	if detection.ThreatLevel == models.LevelLow {
		return nil
	}

	var conditions *models.Weather
	if w.weather != nil {
		if lng, lat, ok := models.PointCoordinates(detection.Location); ok {
			conditions = w.weather.CurrentOrDefault(lng, lat)
		}
	}

	predictions := geo.PredictSpread(
		detection.ID, detection.ThreatType, detection.Location,
		detection.DetectionTime, conditions, geo.DefaultPredictionDays,
	)
	if len(predictions) == 0 {
		utils.GetLogger().Info("no spread predictions generated", "threatID", detection.ID)
		return nil
	}

	for i := range predictions {
		predictions[i].ID = uuid.NewString()
	}

	if err := w.store.StorePredictions(predictions); err != nil {
		return fmt.Errorf("failed to store predictions: %w", err)
	}
	utils.GetLogger().Info("stored spread predictions",
		"threatID", detection.ID, "count", len(predictions))

	if w.publisher != nil {
		if err := w.publisher.PublishPredictions(detection.ID, predictions); err != nil {
			utils.GetLogger().Error("failed to publish predictions",
				"threatID", detection.ID, "error", err.Error())
		}
	}
	return nil
}

func areaRadiusFor(sensorType models.SensorType) float64 {
	if sensorType == models.SensorWeather {
		return weatherAreaRadiusMeters
	}
	return soilAreaRadiusMeters
}

func describeDetection(sensorType models.SensorType, threatType models.ThreatType, anomalies []string) string {
	if sensorType == models.SensorWeather {
		return fmt.Sprintf("Weather conditions favorable for %s development detected", threatType)
	}
	return fmt.Sprintf("Abnormal soil conditions detected: %s", strings.Join(anomalies, ", "))
}

// detectionClock is swapped in tests to pin detection times.
var detectionClock = func() time.Time { return time.Now().UTC() }
