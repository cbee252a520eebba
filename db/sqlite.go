package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"agridefender/models"
	"agridefender/utils"

	geojson "github.com/paulmach/orb/geojson"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	// Create the directory if it doesn't exist (cross-platform)
	if dbPath != ":memory:" {
		dbDir := filepath.Dir(dbPath)
		if dbDir != "." && dbDir != "" {
			if err := utils.CreateFolder(dbDir); err != nil {
				return nil, fmt.Errorf("error creating database directory: %s", err)
			}
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createDetectionsTable := `
    CREATE TABLE IF NOT EXISTS detections (
        id TEXT PRIMARY KEY,
        threat_type TEXT NOT NULL,
        threat_level TEXT NOT NULL,
        confidence REAL NOT NULL DEFAULT 0,
        detection_time DATETIME NOT NULL,
        location TEXT,
        affected_area TEXT,
        description TEXT,
        recommendations TEXT,
        source_data TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_detections_time ON detections(detection_time);
    CREATE INDEX IF NOT EXISTS idx_detections_level ON detections(threat_level);
    `

	createPredictionsTable := `
    CREATE TABLE IF NOT EXISTS predictions (
        id TEXT PRIMARY KEY,
        threat_id TEXT NOT NULL,
        day INTEGER NOT NULL,
        prediction_time DATETIME NOT NULL,
        threat_level TEXT NOT NULL,
        confidence REAL NOT NULL DEFAULT 0,
        probability REAL NOT NULL DEFAULT 0,
        location TEXT,
        affected_area TEXT,
        spread_velocity REAL NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_threat ON predictions(threat_id, day);
    `

	if _, err := db.Exec(createDetectionsTable); err != nil {
		return fmt.Errorf("error creating detections table: %s", err)
	}
	if _, err := db.Exec(createPredictionsTable); err != nil {
		return fmt.Errorf("error creating predictions table: %s", err)
	}
	return nil
}

func (db *SQLiteClient) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// StoreDetection stores a threat detection in the database
func (db *SQLiteClient) StoreDetection(detection *models.ThreatDetection) error {
	locationJSON, err := marshalGeometry(detection.Location)
	if err != nil {
		return fmt.Errorf("error marshaling location: %s", err)
	}
	areaJSON, err := marshalGeometry(detection.AffectedArea)
	if err != nil {
		return fmt.Errorf("error marshaling affected area: %s", err)
	}
	recommendationsJSON, err := json.Marshal(detection.Recommendations)
	if err != nil {
		return fmt.Errorf("error marshaling recommendations: %s", err)
	}
	sourceJSON, err := json.Marshal(detection.SourceData)
	if err != nil {
		return fmt.Errorf("error marshaling source data: %s", err)
	}

	_, err = db.db.Exec(`
		INSERT INTO detections (
			id, threat_type, threat_level, confidence, detection_time,
			location, affected_area, description, recommendations, source_data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		detection.ID,
		string(detection.ThreatType),
		string(detection.ThreatLevel),
		detection.Confidence,
		detection.DetectionTime,
		locationJSON,
		areaJSON,
		detection.Description,
		string(recommendationsJSON),
		string(sourceJSON),
	)
	if err != nil {
		return fmt.Errorf("error storing detection: %s", err)
	}
	return nil
}

// GetDetection retrieves a detection by ID
func (db *SQLiteClient) GetDetection(id string) (*models.ThreatDetection, bool, error) {
	row := db.db.QueryRow(`
		SELECT id, threat_type, threat_level, confidence, detection_time,
		       location, affected_area, description, recommendations, source_data
		FROM detections WHERE id = ?
	`, id)

	detection, err := scanDetection(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return detection, true, nil
}

// GetAllDetections retrieves all detections, newest first
func (db *SQLiteClient) GetAllDetections() ([]models.ThreatDetection, error) {
	rows, err := db.db.Query(`
		SELECT id, threat_type, threat_level, confidence, detection_time,
		       location, affected_area, description, recommendations, source_data
		FROM detections
		ORDER BY detection_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying detections: %s", err)
	}
	defer rows.Close()

	var detections []models.ThreatDetection
	for rows.Next() {
		detection, err := scanDetection(rows.Scan)
		if err != nil {
			return nil, err
		}
		detections = append(detections, *detection)
	}
	return detections, nil
}

// GetDetectionsByLocation retrieves detections whose point lies within a
// rough bounding box of the given radius. A degree of latitude is ~111 km.
func (db *SQLiteClient) GetDetectionsByLocation(lat, lng, radiusKm float64) ([]models.ThreatDetection, error) {
	all, err := db.GetAllDetections()
	if err != nil {
		return nil, err
	}

	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / (111.0 * math.Cos(lat*math.Pi/180.0))

	var matched []models.ThreatDetection
	for _, d := range all {
		dLng, dLat, ok := models.PointCoordinates(d.Location)
		if !ok {
			continue
		}
		if math.Abs(dLat-lat) < latDelta && math.Abs(dLng-lng) < lngDelta {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (db *SQLiteClient) TotalDetections() (int, error) {
	var count int
	err := db.db.QueryRow("SELECT COUNT(*) FROM detections").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting detections: %s", err)
	}
	return count, nil
}

// StorePredictions stores a batch of spread predictions in one transaction
func (db *SQLiteClient) StorePredictions(predictions []models.SpreadPrediction) error {
	if len(predictions) == 0 {
		return nil
	}

	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO predictions (
			id, threat_id, day, prediction_time, threat_level,
			confidence, probability, location, affected_area, spread_velocity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %s", err)
	}
	defer stmt.Close()

	for _, p := range predictions {
		locationJSON, err := marshalGeometry(p.Location)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error marshaling location: %s", err)
		}
		areaJSON, err := marshalGeometry(p.AffectedArea)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error marshaling affected area: %s", err)
		}

		_, err = stmt.Exec(
			p.ID, p.ThreatID, p.Day, p.PredictionTime, string(p.ThreatLevel),
			p.Confidence, p.Probability, locationJSON, areaJSON, p.SpreadVelocity,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error storing prediction: %s", err)
		}
	}

	return tx.Commit()
}

// GetPredictionsByThreat retrieves all predictions for a threat, day order
func (db *SQLiteClient) GetPredictionsByThreat(threatID string) ([]models.SpreadPrediction, error) {
	rows, err := db.db.Query(`
		SELECT id, threat_id, day, prediction_time, threat_level,
		       confidence, probability, location, affected_area, spread_velocity
		FROM predictions
		WHERE threat_id = ?
		ORDER BY day ASC
	`, threatID)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %s", err)
	}
	defer rows.Close()

	var predictions []models.SpreadPrediction
	for rows.Next() {
		var p models.SpreadPrediction
		var threatLevel string
		var locationJSON, areaJSON *string

		err := rows.Scan(
			&p.ID, &p.ThreatID, &p.Day, &p.PredictionTime, &threatLevel,
			&p.Confidence, &p.Probability, &locationJSON, &areaJSON, &p.SpreadVelocity,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning prediction: %s", err)
		}

		p.ThreatLevel = models.ThreatLevel(threatLevel)
		if p.Location, err = unmarshalGeometry(locationJSON); err != nil {
			return nil, err
		}
		if p.AffectedArea, err = unmarshalGeometry(areaJSON); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}

func scanDetection(scan func(dest ...any) error) (*models.ThreatDetection, error) {
	var d models.ThreatDetection
	var threatType, threatLevel string
	var locationJSON, areaJSON, recommendationsJSON, sourceJSON *string

	err := scan(
		&d.ID, &threatType, &threatLevel, &d.Confidence, &d.DetectionTime,
		&locationJSON, &areaJSON, &d.Description, &recommendationsJSON, &sourceJSON,
	)
	if err != nil {
		return nil, err
	}

	d.ThreatType = models.ThreatType(threatType)
	d.ThreatLevel = models.ThreatLevel(threatLevel)
	if d.Location, err = unmarshalGeometry(locationJSON); err != nil {
		return nil, err
	}
	if d.AffectedArea, err = unmarshalGeometry(areaJSON); err != nil {
		return nil, err
	}
	if recommendationsJSON != nil {
		if err := json.Unmarshal([]byte(*recommendationsJSON), &d.Recommendations); err != nil {
			return nil, fmt.Errorf("error unmarshaling recommendations: %s", err)
		}
	}
	if sourceJSON != nil {
		if err := json.Unmarshal([]byte(*sourceJSON), &d.SourceData); err != nil {
			return nil, fmt.Errorf("error unmarshaling source data: %s", err)
		}
	}
	return &d, nil
}

func marshalGeometry(g *geojson.Geometry) (*string, error) {
	if g == nil {
		return nil, nil
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func unmarshalGeometry(raw *string) (*geojson.Geometry, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var g geojson.Geometry
	if err := json.Unmarshal([]byte(*raw), &g); err != nil {
		return nil, fmt.Errorf("error unmarshaling geometry: %s", err)
	}
	return &g, nil
}
