package anomaly

import (
	"math"
	"os"
	"strings"
	"testing"

	"agridefender/models"
)

func TestRuleBasedDetectionSoilScenario(t *testing.T) {
	t.Parallel()

	features := map[string]float64{
		"moisture":    75,
		"ph":          4.5,
		"temperature": 22,
	}

	anomalies, confidence := ruleBasedDetection(features, normalRanges[models.SensorSoil])
	if len(anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %d: %v", len(anomalies), anomalies)
	}
	if !strings.Contains(anomalies[0], "High moisture") {
		t.Fatalf("expected high moisture anomaly first, got %q", anomalies[0])
	}
	if !strings.Contains(anomalies[1], "Low ph") {
		t.Fatalf("expected low ph anomaly second, got %q", anomalies[1])
	}

	// moisture: (75-60)/6 = 2.5 deviations -> 0.75
	// ph: (5.5-4.5)/0.55 ~ 1.818 deviations -> ~0.682
	want := (0.75 + 0.6818181818) / 2
	if math.Abs(confidence-want) > 1e-6 {
		t.Fatalf("expected confidence %.6f, got %.6f", want, confidence)
	}
}

func TestRuleBasedDetectionInRangeBoundaries(t *testing.T) {
	t.Parallel()

	// Values exactly on a range bound are normal.
	features := map[string]float64{
		"moisture":    60,
		"ph":          5.5,
		"temperature": 35,
	}

	anomalies, confidence := ruleBasedDetection(features, normalRanges[models.SensorSoil])
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %v", anomalies)
	}
	if confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", confidence)
	}
}

func TestRuleBasedDetectionConfidenceCap(t *testing.T) {
	t.Parallel()

	anomalies, confidence := ruleBasedDetection(
		map[string]float64{"moisture": 500},
		normalRanges[models.SensorSoil],
	)
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %v", anomalies)
	}
	if confidence != 0.95 {
		t.Fatalf("expected confidence capped at 0.95, got %f", confidence)
	}
}

func TestEvaluateThreatSoilFungal(t *testing.T) {
	t.Parallel()

	anomalies := []string{
		"High moisture: 75 (normal range: 20-60)",
		"Low ph: 4.5 (normal range: 5.5-7.5)",
	}

	threatType, level := EvaluateThreat(anomalies, 0.716, models.SensorSoil)
	if threatType != models.ThreatFungal {
		t.Fatalf("expected FUNGAL, got %s", threatType)
	}
	if level != models.LevelMedium {
		t.Fatalf("expected MEDIUM severity, got %s", level)
	}
}

func TestEvaluateThreatWeatherViral(t *testing.T) {
	t.Parallel()

	anomalies := []string{"High wind_speed: 40 (normal range: 0-30)"}

	threatType, level := EvaluateThreat(anomalies, 0.9, models.SensorWeather)
	if threatType != models.ThreatViral {
		t.Fatalf("expected VIRAL, got %s", threatType)
	}
	if level != models.LevelCritical {
		t.Fatalf("expected CRITICAL severity, got %s", level)
	}
}

func TestEvaluateThreatNoAnomalies(t *testing.T) {
	t.Parallel()

	threatType, level := EvaluateThreat(nil, 0.9, models.SensorSoil)
	if threatType != models.ThreatUnknown || level != models.LevelLow {
		t.Fatalf("expected UNKNOWN/LOW, got %s/%s", threatType, level)
	}
}

func TestEvaluateThreatLowEvidenceFallsBackToUnknown(t *testing.T) {
	t.Parallel()

	// A single weak indicator at low confidence must not name a type.
	anomalies := []string{"Low moisture: 15 (normal range: 20-60)"}

	threatType, _ := EvaluateThreat(anomalies, 0.5, models.SensorSoil)
	if threatType != models.ThreatUnknown {
		t.Fatalf("expected UNKNOWN for weak evidence, got %s", threatType)
	}
}

func TestSeverityBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		confidence float64
		want       models.ThreatLevel
	}{
		{0.95, models.LevelCritical},
		{0.9, models.LevelCritical},
		{0.8, models.LevelHigh},
		{0.75, models.LevelHigh},
		{0.7, models.LevelMedium},
		{0.6, models.LevelMedium},
		{0.5, models.LevelLow},
		{0.1, models.LevelLow},
	}
	for _, tc := range cases {
		if got := severityFor(tc.confidence); got != tc.want {
			t.Fatalf("severityFor(%.2f) = %s, want %s", tc.confidence, got, tc.want)
		}
	}
}

func TestDetectAnomaliesColdStart(t *testing.T) {
	// No trained artifact and no rule violation: the untrained forest
	// scores everything neutral, so nothing is reported.
	t.Setenv("ANOMALY_MODEL_DIR", t.TempDir())
	resetModelCache()

	features := map[string]float64{
		"moisture":    40,
		"ph":          6.5,
		"temperature": 20,
	}

	anomalies, confidence := DetectAnomalies(features, models.SensorSoil)
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies on cold start, got %v", anomalies)
	}
	if confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", confidence)
	}
}

func TestDetectAnomaliesRuleStageWins(t *testing.T) {
	t.Setenv("ANOMALY_MODEL_DIR", t.TempDir())
	resetModelCache()

	anomalies, confidence := DetectAnomalies(
		map[string]float64{"humidity": 95},
		models.SensorWeather,
	)
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %v", anomalies)
	}
	if !strings.Contains(anomalies[0], "High humidity") {
		t.Fatalf("unexpected anomaly text %q", anomalies[0])
	}
	if confidence <= 0.5 {
		t.Fatalf("expected confidence above 0.5, got %f", confidence)
	}
}

func TestTrainModelPersistsAndLoads(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANOMALY_MODEL_DIR", dir)
	resetModelCache()

	historical := make([]map[string]float64, 0, 200)
	for i := 0; i < 200; i++ {
		historical = append(historical, map[string]float64{
			"reflectance": 0.5 + 0.001*float64(i%10),
			"brightness":  0.3 + 0.001*float64(i%7),
		})
	}

	trained, err := TrainModel(historical, models.SensorImage)
	if err != nil {
		t.Fatalf("TrainModel returned error: %v", err)
	}
	if !trained.Forest.Trained() {
		t.Fatal("expected a trained forest")
	}
	if len(trained.FeatureNames) != 2 || trained.FeatureNames[0] != "brightness" {
		t.Fatalf("unexpected feature names %v", trained.FeatureNames)
	}

	if _, err := os.Stat(modelPath(models.SensorImage)); err != nil {
		t.Fatalf("expected persisted artifact: %v", err)
	}

	loaded, err := LoadModel(models.SensorImage)
	if err != nil {
		t.Fatalf("LoadModel returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected loaded model")
	}
	if len(loaded.Forest.Trees) != trained.Forest.TreeCount {
		t.Fatalf("expected %d trees after reload, got %d", trained.Forest.TreeCount, len(loaded.Forest.Trees))
	}

	// An unremarkable reading should stay quiet with the trained model.
	anomalies, _ := DetectAnomalies(
		map[string]float64{"reflectance": 0.505, "brightness": 0.303},
		models.SensorImage,
	)
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies for inlier, got %v", anomalies)
	}
}

func TestTrainModelRejectsUnusableHistory(t *testing.T) {
	t.Setenv("ANOMALY_MODEL_DIR", t.TempDir())

	if _, err := TrainModel(nil, models.SensorImage); err == nil {
		t.Fatal("expected an error for empty history")
	}
	if _, err := TrainModel([]map[string]float64{{}}, models.SensorImage); err == nil {
		t.Fatal("expected an error for feature-less readings")
	}
}

func TestLoadModelMissingArtifact(t *testing.T) {
	t.Setenv("ANOMALY_MODEL_DIR", t.TempDir())

	m, err := LoadModel(models.SensorSoil)
	if err != nil {
		t.Fatalf("missing artifact must not error: %v", err)
	}
	if m != nil {
		t.Fatalf("expected nil model for missing artifact, got %+v", m)
	}
}

func resetModelCache() {
	modelMu.Lock()
	modelCache = map[models.SensorType]*Model{}
	modelMu.Unlock()
}
