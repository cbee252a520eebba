package anomaly

import (
	"fmt"
	"sort"
	"sync"

	"agridefender/models"
	"agridefender/utils"
)

// Model bundles everything the model-based stage needs for one sensor
// type. Feature order is fixed at training time so that live readings are
// vectorized the same way the training data was.
type Model struct {
	SensorType   models.SensorType `json:"sensor_type"`
	FeatureNames []string          `json:"feature_names"`
	Scaler       *FeatureScaler    `json:"scaler,omitempty"`
	Forest       *IsolationForest  `json:"forest"`
}

var (
	modelMu    sync.Mutex
	modelCache = map[models.SensorType]*Model{}
)

// DetectAnomalies checks a reading's features for anomalies. The rule
// stage runs first; the trained model only gets a say when no rule fires.
// Returns the anomaly descriptions and an overall confidence in [0,1].
func DetectAnomalies(features map[string]float64, sensorType models.SensorType) ([]string, float64) {
	anomalies, confidence := ruleBasedDetection(features, normalRanges[sensorType])
	if len(anomalies) > 0 {
		return anomalies, confidence
	}
	return modelBasedDetection(features, sensorType)
}

// modelBasedDetection scores the reading with the per-sensor-type isolation
// forest. An untrained forest (cold start, no artifact on disk yet) scores
// everything neutral, so this degrades to "no anomaly" rather than erroring.
func modelBasedDetection(features map[string]float64, sensorType models.SensorType) ([]string, float64) {
	model := cachedModel(sensorType)

	names := model.FeatureNames
	if len(names) == 0 {
		names = make([]string, 0, len(features))
		for name := range features {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	vector := make([]float64, len(names))
	for i, name := range names {
		vector[i] = features[name]
	}
	if model.Scaler != nil {
		vector = model.Scaler.Transform(vector)
	}

	score := model.Forest.Score(vector)
	confidence := clampUnit((score - 0.5) * 2)

	if model.Forest.Predict(vector) && confidence > 0.6 {
		return []string{fmt.Sprintf("Unusual %s sensor pattern detected", sensorType)}, confidence
	}
	return nil, 0
}

// cachedModel returns the in-process model for a sensor type, loading the
// persisted artifact on first use. When none exists an untrained forest
// with default parameters stands in.
func cachedModel(sensorType models.SensorType) *Model {
	modelMu.Lock()
	defer modelMu.Unlock()

	if m, ok := modelCache[sensorType]; ok {
		return m
	}

	logger := utils.GetLogger()
	m, err := LoadModel(sensorType)
	if err != nil {
		logger.Error("failed to load anomaly model", "sensorType", sensorType, "error", err)
	}
	if m == nil {
		logger.Info("no trained anomaly model, using untrained defaults", "sensorType", sensorType)
		m = &Model{SensorType: sensorType, Forest: NewIsolationForest()}
	}
	modelCache[sensorType] = m
	return m
}

func cacheModel(m *Model) {
	modelMu.Lock()
	modelCache[m.SensorType] = m
	modelMu.Unlock()
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
