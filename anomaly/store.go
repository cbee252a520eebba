package anomaly

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"agridefender/models"
	"agridefender/utils"
)

// modelPath is where the trained artifact for a sensor type lives. The
// directory is overridable so tests and deployments can keep artifacts
// apart.
func modelPath(sensorType models.SensorType) string {
	dir := utils.GetEnv("ANOMALY_MODEL_DIR", "artifacts")
	return filepath.Join(dir, fmt.Sprintf("%s_anomaly_model.json", sensorType))
}

// SaveModel persists a trained model as JSON. Write to a temporary file
// first, then rename for atomic operation.
func SaveModel(m *Model) error {
	if m == nil || m.Forest == nil || !m.Forest.Trained() {
		return fmt.Errorf("no trained model to save")
	}

	path := modelPath(m.SensorType)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to finalize model file: %w", err)
	}
	return nil
}

// LoadModel reads the persisted model for a sensor type. A missing
// artifact is not an error; callers get (nil, nil) and fall back to an
// untrained model.
func LoadModel(sensorType models.SensorType) (*Model, error) {
	data, err := os.ReadFile(modelPath(sensorType))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	if m.Forest == nil {
		m.Forest = NewIsolationForest()
	}
	m.SensorType = sensorType
	return &m, nil
}
