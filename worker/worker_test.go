package worker

import (
	"fmt"
	"testing"

	"agridefender/models"
)

type memStore struct {
	detections  []*models.ThreatDetection
	predictions []models.SpreadPrediction
	failStore   bool
}

func (m *memStore) Close() error { return nil }

func (m *memStore) StoreDetection(detection *models.ThreatDetection) error {
	if m.failStore {
		return fmt.Errorf("store unavailable")
	}
	m.detections = append(m.detections, detection)
	return nil
}

func (m *memStore) GetDetection(id string) (*models.ThreatDetection, bool, error) {
	for _, d := range m.detections {
		if d.ID == id {
			return d, true, nil
		}
	}
	return nil, false, nil
}

func (m *memStore) GetAllDetections() ([]models.ThreatDetection, error) {
	out := make([]models.ThreatDetection, 0, len(m.detections))
	for _, d := range m.detections {
		out = append(out, *d)
	}
	return out, nil
}

func (m *memStore) GetDetectionsByLocation(lat, lng, radiusKm float64) ([]models.ThreatDetection, error) {
	return m.GetAllDetections()
}

func (m *memStore) TotalDetections() (int, error) { return len(m.detections), nil }

func (m *memStore) StorePredictions(predictions []models.SpreadPrediction) error {
	m.predictions = append(m.predictions, predictions...)
	return nil
}

func (m *memStore) GetPredictionsByThreat(threatID string) ([]models.SpreadPrediction, error) {
	var out []models.SpreadPrediction
	for _, p := range m.predictions {
		if p.ThreatID == threatID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memPublisher struct {
	detections  []*models.ThreatDetection
	predictions []models.SpreadPrediction
	fail        bool
}

func (m *memPublisher) PublishDetection(detection *models.ThreatDetection) error {
	if m.fail {
		return fmt.Errorf("socket gone")
	}
	m.detections = append(m.detections, detection)
	return nil
}

func (m *memPublisher) PublishPredictions(threatID string, predictions []models.SpreadPrediction) error {
	if m.fail {
		return fmt.Errorf("socket gone")
	}
	m.predictions = append(m.predictions, predictions...)
	return nil
}

func anomalousSoilReading() *models.SensorReading {
	return &models.SensorReading{
		SensorID:   "soil-7",
		SensorType: models.SensorSoil,
		Features: map[string]float64{
			"moisture":    75,
			"ph":          4.5,
			"temperature": 22,
		},
		Location: models.NewPoint(-0.19, 5.6),
	}
}

func TestProcessReadingStoresPublishesAndPredicts(t *testing.T) {
	store := &memStore{}
	pub := &memPublisher{}
	w := New(store, nil, pub)

	detection, err := w.ProcessReading(anomalousSoilReading())
	if err != nil {
		t.Fatalf("ProcessReading returned error: %v", err)
	}
	if detection == nil {
		t.Fatal("expected a detection")
	}
	if detection.ThreatType != models.ThreatFungal {
		t.Fatalf("expected FUNGAL, got %s", detection.ThreatType)
	}
	if detection.ThreatLevel != models.LevelMedium {
		t.Fatalf("expected MEDIUM, got %s", detection.ThreatLevel)
	}
	if detection.ID == "" {
		t.Fatal("detection must carry an id")
	}
	if detection.AffectedArea == nil {
		t.Fatal("detection must carry an affected area polygon")
	}
	if len(detection.Recommendations) == 0 {
		t.Fatal("detection must carry recommendations")
	}
	if len(detection.SourceData) != 1 || detection.SourceData[0] != "soil-7" {
		t.Fatalf("unexpected source data %v", detection.SourceData)
	}

	if len(store.detections) != 1 {
		t.Fatalf("expected 1 stored detection, got %d", len(store.detections))
	}
	if len(pub.detections) != 1 {
		t.Fatalf("expected 1 published detection, got %d", len(pub.detections))
	}

	// MEDIUM severity triggers the full 7-day projection.
	if len(store.predictions) != 7 {
		t.Fatalf("expected 7 stored predictions, got %d", len(store.predictions))
	}
	if len(pub.predictions) != 7 {
		t.Fatalf("expected 7 published predictions, got %d", len(pub.predictions))
	}
	for _, p := range store.predictions {
		if p.ID == "" {
			t.Fatal("every prediction must carry an id")
		}
		if p.ThreatID != detection.ID {
			t.Fatalf("prediction threatID %s does not match detection %s", p.ThreatID, detection.ID)
		}
	}
}

func TestProcessReadingLowSeveritySkipsPredictions(t *testing.T) {
	store := &memStore{}
	w := New(store, nil, &memPublisher{})

	// Barely out of range: confidence stays below the MEDIUM band and the
	// weak pest signal is not enough to name a type.
	reading := anomalousSoilReading()
	reading.Features = map[string]float64{"moisture": 19}

	detection, err := w.ProcessReading(reading)
	if err != nil {
		t.Fatalf("ProcessReading returned error: %v", err)
	}
	if detection == nil {
		t.Fatal("expected a detection")
	}
	if detection.ThreatLevel != models.LevelLow {
		t.Fatalf("expected LOW severity, got %s", detection.ThreatLevel)
	}
	if detection.ThreatType != models.ThreatUnknown {
		t.Fatalf("expected UNKNOWN type, got %s", detection.ThreatType)
	}
	if len(store.predictions) != 0 {
		t.Fatalf("LOW threats must not get predictions, got %d", len(store.predictions))
	}
}

func TestProcessReadingCleanReading(t *testing.T) {
	t.Setenv("ANOMALY_MODEL_DIR", t.TempDir())

	store := &memStore{}
	w := New(store, nil, &memPublisher{})

	reading := anomalousSoilReading()
	reading.Features = map[string]float64{"moisture": 40, "ph": 6.5, "temperature": 20}

	detection, err := w.ProcessReading(reading)
	if err != nil {
		t.Fatalf("ProcessReading returned error: %v", err)
	}
	if detection != nil {
		t.Fatalf("expected no detection for clean reading, got %+v", detection)
	}
	if len(store.detections) != 0 {
		t.Fatal("nothing should be stored for a clean reading")
	}
}

func TestProcessReadingPublishFailureIsNonFatal(t *testing.T) {
	store := &memStore{}
	w := New(store, nil, &memPublisher{fail: true})

	detection, err := w.ProcessReading(anomalousSoilReading())
	if err != nil {
		t.Fatalf("publish failure must not fail the pipeline: %v", err)
	}
	if detection == nil {
		t.Fatal("expected a detection despite publish failure")
	}
	if len(store.detections) != 1 {
		t.Fatalf("detection must still be stored, got %d", len(store.detections))
	}
	if len(store.predictions) != 7 {
		t.Fatalf("predictions must still be stored, got %d", len(store.predictions))
	}
}

func TestProcessReadingStoreFailure(t *testing.T) {
	w := New(&memStore{failStore: true}, nil, nil)

	if _, err := w.ProcessReading(anomalousSoilReading()); err == nil {
		t.Fatal("expected an error when storage fails")
	}
}

func TestProcessReadingUnsupportedSensor(t *testing.T) {
	store := &memStore{}
	w := New(store, nil, nil)

	reading := anomalousSoilReading()
	reading.SensorType = models.SensorImage

	detection, err := w.ProcessReading(reading)
	if err != nil {
		t.Fatalf("ProcessReading returned error: %v", err)
	}
	if detection != nil {
		t.Fatal("image readings are not classified")
	}
	if len(store.detections) != 0 {
		t.Fatal("nothing should be stored for unsupported sensors")
	}
}

func TestGenerateRecommendationsEscalation(t *testing.T) {
	t.Parallel()

	low := generateRecommendations(models.ThreatFungal, models.LevelLow)
	high := generateRecommendations(models.ThreatFungal, models.LevelCritical)

	if contains(low, "Apply approved fungicide treatment immediately") {
		t.Fatal("low severity must not get urgent measures")
	}
	if !contains(high, "Apply approved fungicide treatment immediately") {
		t.Fatal("critical severity must get urgent measures")
	}
	for _, recs := range [][]string{low, high} {
		if !contains(recs, "Document all observations with photos and notes") {
			t.Fatal("general guidance must always be present")
		}
	}

	bio := generateRecommendations(models.ThreatBioweapon, models.LevelLow)
	if !contains(bio, "Contact agricultural security authorities") {
		t.Fatal("bioweapon guidance must not depend on severity")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
