package anomaly

import (
	"fmt"
	"math/rand"
	"sort"

	"agridefender/models"
	"agridefender/utils"
)

// trainSeed keeps retraining reproducible for a given dataset.
const trainSeed = 42

// TrainModel fits the scaler and isolation forest on historical readings,
// persists the artifact and swaps it into the in-process cache so the next
// detection uses it. Feature order is the sorted key set of the first
// reading; later readings missing a feature contribute zero for it.
func TrainModel(historical []map[string]float64, sensorType models.SensorType) (*Model, error) {
	if len(historical) == 0 {
		return nil, fmt.Errorf("no historical data for %s", sensorType)
	}

	logger := utils.GetLogger()
	logger.Info("training anomaly detection model", "sensorType", sensorType, "samples", len(historical))

	names := make([]string, 0, len(historical[0]))
	for name := range historical[0] {
		names = append(names, name)
	}
	sort.Strings(names)

	matrix := make([][]float64, len(historical))
	for i, reading := range historical {
		row := make([]float64, len(names))
		for j, name := range names {
			row[j] = reading[name]
		}
		matrix[i] = row
	}

	scaler, err := NewFeatureScaler(matrix)
	if err != nil {
		return nil, fmt.Errorf("failed to fit feature scaler: %w", err)
	}
	scaled := make([][]float64, len(matrix))
	for i, row := range matrix {
		scaled[i] = scaler.Transform(row)
	}

	forest := NewIsolationForest()
	forest.Fit(scaled, rand.New(rand.NewSource(trainSeed)))

	m := &Model{
		SensorType:   sensorType,
		FeatureNames: names,
		Scaler:       scaler,
		Forest:       forest,
	}
	if err := SaveModel(m); err != nil {
		return nil, err
	}
	cacheModel(m)

	logger.Info("trained and saved anomaly detection model", "sensorType", sensorType)
	return m, nil
}
